package preview

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/catalogue-pipeline/internal/catalogue"
)

func price(v float64) *float64 { return &v }

func TestCells(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rec      catalogue.CleanRecord
		maxTitle int
		want     []string
	}{
		{
			name: "all fields",
			rec:  catalogue.CleanRecord{Title: "A Light", Price: price(51.77), Rating: 3, Availability: catalogue.InStock, URL: "http://x/a"},
			want: []string{"A Light", "51.77", "3", "In Stock", "http://x/a"},
		},
		{
			name: "missing price",
			rec:  catalogue.CleanRecord{Title: "B", Rating: 5, Availability: catalogue.OutOfStock, URL: "u"},
			want: []string{"B", Missing, "5", "Out of Stock", "u"},
		},
		{
			name:     "truncated title",
			rec:      catalogue.CleanRecord{Title: "Sharp Objects", Rating: 4, Availability: catalogue.InStock, URL: "u"},
			maxTitle: 6,
			want:     []string{"Sharp…", Missing, "4", "In Stock", "u"},
		},
		{
			name: "pipes escaped",
			rec:  catalogue.CleanRecord{Title: "This | That", Rating: 1, Availability: catalogue.InStock, URL: "u"},
			want: []string{`This \| That`, Missing, "1", "In Stock", "u"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Cells(tt.rec, tt.maxTitle))
		})
	}
}

func TestMarkdownAlignsWideTitles(t *testing.T) {
	t.Parallel()

	rows := []catalogue.CleanRecord{
		{Title: "ノルウェイの森", Price: price(10), Rating: 4, Availability: catalogue.InStock, URL: "http://x/1"},
		{Title: "Dune", Price: price(9.5), Rating: 5, Availability: catalogue.OutOfStock, URL: "http://x/2"},
	}
	var buf bytes.Buffer
	require.NoError(t, Markdown(&buf, rows, 0))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "| Title"))
	assert.Contains(t, lines[1], "---")
	width := runewidth.StringWidth(lines[0])
	for _, line := range lines[1:] {
		assert.Equal(t, width, runewidth.StringWidth(line), line)
	}
}

func TestMarkdownHeaderOnly(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Markdown(&buf, nil, 0))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}
