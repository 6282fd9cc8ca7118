package normalizer

import (
	"strconv"
	"strings"

	"github.com/JakeFAU/catalogue-pipeline/internal/catalogue"
)

// Rating bounds, inclusive.
const (
	MinRating = 1
	MaxRating = 5
)

// currencySymbols may prefix a raw price.
const currencySymbols = "£$€"

// Stats counts what happened to the rows of one cleaning pass.
type Stats struct {
	Read       int `json:"read"`
	Incomplete int `json:"incomplete"`
	OutOfRange int `json:"out_of_range"`
	Truncated  int `json:"truncated"`
	NullPrices int `json:"null_prices"`
	Written    int `json:"written"`
}

// Clean applies, in order: completeness filter, price coercion, rating coercion,
// rating range filter, availability normalization, truncation to maxRows.
// Unparseable prices become nil and never cause a drop.
func Clean(rows []catalogue.RawRecord, maxRows int) ([]catalogue.CleanRecord, Stats) {
	stats := Stats{Read: len(rows)}
	out := make([]catalogue.CleanRecord, 0, len(rows))
	for _, row := range rows {
		if !row.Complete() {
			stats.Incomplete++
			continue
		}
		price := parsePrice(row.Price)
		rating, ok := parseRating(row.Rating)
		if !ok {
			stats.OutOfRange++
			continue
		}
		if price == nil {
			stats.NullPrices++
		}
		out = append(out, catalogue.CleanRecord{
			Title:        row.Title,
			Price:        price,
			Rating:       rating,
			Availability: normalizeAvailability(row.Availability),
			URL:          row.URL,
		})
	}
	if maxRows > 0 && len(out) > maxRows {
		stats.Truncated = len(out) - maxRows
		for _, r := range out[maxRows:] {
			if r.Price == nil {
				stats.NullPrices--
			}
		}
		out = out[:maxRows]
	}
	stats.Written = len(out)
	return out, stats
}

// parsePrice strips a leading currency symbol and parses the rest as a decimal.
func parsePrice(raw string) *float64 {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimLeft(s, currencySymbols))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseRating coerces a rating and reports whether it lies in [MinRating, MaxRating].
func parseRating(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	// NaN fails both comparisons.
	if !(v >= MinRating && v <= MaxRating) {
		return 0, false
	}
	return v, true
}

func normalizeAvailability(raw string) string {
	if strings.Contains(strings.ToLower(raw), "in stock") {
		return catalogue.InStock
	}
	return catalogue.OutOfStock
}
