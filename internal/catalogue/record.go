// Package catalogue defines the record shapes shared by the collector and the normalizer.
package catalogue

import "strings"

// Column names of the raw delimited file, in header order.
const (
	ColumnTitle        = "Title"
	ColumnPrice        = "Price"
	ColumnRating       = "Rating"
	ColumnAvailability = "Availability"
	ColumnURL          = "URL"
)

// Header is the fixed column order of every raw file.
var Header = []string{ColumnTitle, ColumnPrice, ColumnRating, ColumnAvailability, ColumnURL}

// Availability categories of a cleaned record.
const (
	InStock    = "In Stock"
	OutOfStock = "Out of Stock"
)

// ratingWords maps the star-rating class vocabulary onto integers.
var ratingWords = map[string]int{
	"One":   1,
	"Two":   2,
	"Three": 3,
	"Four":  4,
	"Five":  5,
}

// RatingFromClass converts a star-rating class name to 1..5. Unknown names return 0.
func RatingFromClass(class string) int {
	return ratingWords[class]
}

// RawRecord is one scraped item, kept as text exactly as it will be written.
type RawRecord struct {
	Title        string `json:"title"`
	Price        string `json:"price"`
	Rating       string `json:"rating"`
	Availability string `json:"availability"`
	URL          string `json:"url"`
}

// Row returns the record's cells in Header order.
func (r RawRecord) Row() []string {
	return []string{r.Title, r.Price, r.Rating, r.Availability, r.URL}
}

// Complete reports whether none of the five fields holds a missing value.
func (r RawRecord) Complete() bool {
	for _, cell := range r.Row() {
		if IsMissing(cell) {
			return false
		}
	}
	return true
}

// CleanRecord is a validated row of the columnar dataset.
type CleanRecord struct {
	Title        string   `parquet:"Title" json:"title"`
	Price        *float64 `parquet:"Price,optional" json:"price"`
	Rating       float64  `parquet:"Rating" json:"rating"`
	Availability string   `parquet:"Availability,dict" json:"availability"`
	URL          string   `parquet:"URL" json:"url"`
}

// missingTokens are cell values read back as "no value", matching common dataframe readers.
var missingTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsMissing reports whether a raw cell counts as a missing value.
func IsMissing(cell string) bool {
	_, ok := missingTokens[strings.TrimSpace(cell)]
	return ok
}
