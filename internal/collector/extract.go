package collector

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/catalogue-pipeline/internal/catalogue"
)

// Selectors for the product listing markup.
const (
	itemSelector         = "article.product_pod"
	nextSelector         = "li.next a[href]"
	titleLinkSelector    = "h3 a"
	priceSelector        = "div.product_price p.price_color"
	ratingSelector       = "p.star-rating"
	availabilitySelector = "div.product_price p.instock.availability"
)

// ErrMissingMarkup marks an item lacking an element or attribute the extractor needs.
var ErrMissingMarkup = errors.New("missing expected markup")

// SkipReason records why one listing item produced no record.
type SkipReason struct {
	Page    int    `json:"page"`
	PageURL string `json:"page_url"`
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Err     string `json:"error"`
}

// Outcome is the result of extracting a single item: a record or a skip.
type Outcome struct {
	Record catalogue.RawRecord
	Skip   *SkipReason
}

// OK reports whether the item produced a record.
func (o Outcome) OK() bool { return o.Skip == nil }

type fieldError struct {
	field string
	err   error
}

func (e *fieldError) Error() string { return fmt.Sprintf("%s: %v", e.field, e.err) }

func (e *fieldError) Unwrap() error { return e.err }

func missing(field, what string) error {
	return &fieldError{field: field, err: fmt.Errorf("%w: %s", ErrMissingMarkup, what)}
}

// extractItem pulls the five raw fields out of one product container. Item links
// are resolved against base with prefix prepended.
func extractItem(item *goquery.Selection, base *url.URL, prefix string) (catalogue.RawRecord, error) {
	link := item.Find(titleLinkSelector).First()
	if link.Length() == 0 {
		return catalogue.RawRecord{}, missing(catalogue.ColumnTitle, titleLinkSelector)
	}
	title, ok := link.Attr("title")
	if !ok {
		return catalogue.RawRecord{}, missing(catalogue.ColumnTitle, "title attribute")
	}

	priceNode := item.Find(priceSelector).First()
	if priceNode.Length() == 0 {
		return catalogue.RawRecord{}, missing(catalogue.ColumnPrice, priceSelector)
	}
	price := dropFirstRune(priceNode.Text())

	ratingNode := item.Find(ratingSelector).First()
	classes := strings.Fields(ratingNode.AttrOr("class", ""))
	if ratingNode.Length() == 0 || len(classes) < 2 {
		return catalogue.RawRecord{}, missing(catalogue.ColumnRating, ratingSelector)
	}
	rating := catalogue.RatingFromClass(classes[1])

	availNode := item.Find(availabilitySelector).First()
	if availNode.Length() == 0 {
		return catalogue.RawRecord{}, missing(catalogue.ColumnAvailability, availabilitySelector)
	}
	availability := strings.TrimSpace(availNode.Text())

	href, ok := link.Attr("href")
	if !ok {
		return catalogue.RawRecord{}, missing(catalogue.ColumnURL, "href attribute")
	}
	itemURL, err := resolveItemURL(base, prefix, href)
	if err != nil {
		return catalogue.RawRecord{}, &fieldError{field: catalogue.ColumnURL, err: err}
	}

	return catalogue.RawRecord{
		Title:        title,
		Price:        price,
		Rating:       strconv.Itoa(rating),
		Availability: availability,
		URL:          itemURL,
	}, nil
}

// resolveItemURL joins prefix and a site-relative href onto base. Hrefs that are
// already absolute, or already start with the prefix, are not prefixed again.
func resolveItemURL(base *url.URL, prefix, href string) (string, error) {
	href = strings.TrimSpace(href)
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	rel := strings.TrimPrefix(href, "/")
	if prefix != "" && !strings.HasPrefix(rel, prefix) {
		rel = prefix + rel
	}
	ref, err = url.Parse(rel)
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", rel, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// dropFirstRune strips the leading currency glyph from a price label.
func dropFirstRune(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	_, size := utf8.DecodeRuneInString(s)
	return s[size:]
}

func skipFor(page int, pageURL string, index int, err error) *SkipReason {
	skip := &SkipReason{Page: page, PageURL: pageURL, Index: index, Err: err.Error()}
	var fe *fieldError
	if errors.As(err, &fe) {
		skip.Field = fe.field
	}
	return skip
}
