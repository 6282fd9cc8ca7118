package normalizer

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/catalogue-pipeline/internal/catalogue"
)

func raw(title, price, rating, avail, url string) catalogue.RawRecord {
	return catalogue.RawRecord{Title: title, Price: price, Rating: rating, Availability: avail, URL: url}
}

func TestCleanMixedQualityRows(t *testing.T) {
	t.Parallel()

	rows := []catalogue.RawRecord{
		raw("Book1", "10.00", "4", "in stock", "http://test1"),
		raw("Book2", "15.50", "6", "out of stock", "http://test2"),
		raw("Book3", "invalid", "3", "in stock", "http://test3"),
		raw("None", "20.00", "2", "None", "http://test4"),
	}

	got, stats := Clean(rows, DefaultMaxRows)
	require.Len(t, got, 2)

	assert.Equal(t, "Book1", got[0].Title)
	require.NotNil(t, got[0].Price)
	assert.InDelta(t, 10.0, *got[0].Price, 1e-9)
	assert.Equal(t, 4.0, got[0].Rating)
	assert.Equal(t, catalogue.InStock, got[0].Availability)

	assert.Equal(t, "Book3", got[1].Title)
	assert.Nil(t, got[1].Price)
	assert.Equal(t, catalogue.InStock, got[1].Availability)

	assert.Equal(t, Stats{Read: 4, Incomplete: 1, OutOfRange: 1, NullPrices: 1, Written: 2}, stats)
}

func TestCleanInvariants(t *testing.T) {
	t.Parallel()

	rows := []catalogue.RawRecord{
		raw("a", "£1.00", "1", "In stock (22 available)", "u"),
		raw("b", "2", "5", "Out of stock", "u"),
		raw("c", "3", "0", "In stock", "u"),
		raw("d", "4", "five", "In stock", "u"),
		raw("e", "5", "NaN", "In stock", "u"),
		raw("f", "6", "5.0", "Pre-order", "u"),
		raw("g", "7", "3", "in stock", ""),
		raw("", "8", "3", "in stock", "u"),
		raw("h", "", "3", "in stock", "u"),
		raw("i", "9", "", "in stock", "u"),
		raw("j", "$12.5", "4.5", "IN STOCK", "u"),
	}

	got, stats := Clean(rows, DefaultMaxRows)
	for _, r := range got {
		assert.GreaterOrEqual(t, r.Rating, float64(MinRating))
		assert.LessOrEqual(t, r.Rating, float64(MaxRating))
		assert.Contains(t, []string{catalogue.InStock, catalogue.OutOfStock}, r.Availability)
		assert.NotEmpty(t, r.Title)
	}
	titles := make([]string, 0, len(got))
	for _, r := range got {
		titles = append(titles, r.Title)
	}
	assert.Equal(t, []string{"a", "b", "f", "j"}, titles)
	assert.Equal(t, catalogue.OutOfStock, got[2].Availability)
	require.NotNil(t, got[0].Price)
	assert.InDelta(t, 1.0, *got[0].Price, 1e-9)
	require.NotNil(t, got[3].Price)
	assert.InDelta(t, 12.5, *got[3].Price, 1e-9)
	// "NaN" is a missing-value token, so row e is incomplete rather than out of range.
	assert.Equal(t, 5, stats.Incomplete)
	assert.Equal(t, 2, stats.OutOfRange)
}

func TestCleanTruncatesInOriginalOrder(t *testing.T) {
	t.Parallel()

	rows := make([]catalogue.RawRecord, 0, DefaultMaxRows+1)
	for i := 0; i <= DefaultMaxRows; i++ {
		rows = append(rows, raw("Book"+strconv.Itoa(i), "1.00", "3", "In stock", "u"))
	}

	got, stats := Clean(rows, DefaultMaxRows)
	require.Len(t, got, DefaultMaxRows)
	assert.Equal(t, "Book0", got[0].Title)
	assert.Equal(t, "Book9999", got[len(got)-1].Title)
	assert.Equal(t, 1, stats.Truncated)
	assert.Equal(t, DefaultMaxRows, stats.Written)
}

func TestParsePrice(t *testing.T) {
	t.Parallel()

	cases := map[string]float64{
		"£51.77":  51.77,
		" 10.00 ": 10,
		"€3":      3,
		"$0.5":    0.5,
	}
	for in, want := range cases {
		got := parsePrice(in)
		require.NotNil(t, got, in)
		assert.InDelta(t, want, *got, 1e-9, in)
	}
	assert.Nil(t, parsePrice("invalid"))
	assert.Nil(t, parsePrice("£"))
}

func TestParseRating(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"1", "5", " 3 ", "2.5"} {
		_, ok := parseRating(in)
		assert.True(t, ok, in)
	}
	for _, in := range []string{"0", "6", "-1", "x", "NaN", strconv.FormatFloat(math.Inf(1), 'f', -1, 64)} {
		_, ok := parseRating(in)
		assert.False(t, ok, in)
	}
}
