// Package preview renders cleaned records as an aligned Markdown table for terminals.
package preview

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/JakeFAU/catalogue-pipeline/internal/catalogue"
)

// Missing is printed for absent prices.
const Missing = "NA"

// minWidth keeps the separator row a valid Markdown "---".
const minWidth = 3

// Cells formats one record in catalogue.Header order. Titles wider than
// maxTitle display columns are cut with an ellipsis; 0 disables the cut.
func Cells(r catalogue.CleanRecord, maxTitle int) []string {
	title := r.Title
	if maxTitle > 0 {
		title = runewidth.Truncate(title, maxTitle, "…")
	}
	price := Missing
	if r.Price != nil {
		price = strconv.FormatFloat(*r.Price, 'f', 2, 64)
	}
	return []string{
		escape(title),
		price,
		strconv.FormatFloat(r.Rating, 'f', -1, 64),
		escape(r.Availability),
		escape(r.URL),
	}
}

// Markdown writes rows as a table padded by display width, so titles in
// wide scripts stay aligned.
func Markdown(w io.Writer, rows []catalogue.CleanRecord, maxTitle int) error {
	table := make([][]string, 0, len(rows)+1)
	table = append(table, catalogue.Header)
	for _, r := range rows {
		table = append(table, Cells(r, maxTitle))
	}

	widths := make([]int, len(catalogue.Header))
	for _, row := range table {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for i := range widths {
		widths[i] = max(widths[i], minWidth)
	}

	var sb strings.Builder
	writeRow(&sb, table[0], widths)
	sep := make([]string, len(widths))
	for i, width := range widths {
		sep[i] = strings.Repeat("-", width)
	}
	writeRow(&sb, sep, widths)
	for _, row := range table[1:] {
		writeRow(&sb, row, widths)
	}
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}

func writeRow(sb *strings.Builder, row []string, widths []int) {
	sb.WriteString("|")
	for i, cell := range row {
		sb.WriteString(" ")
		sb.WriteString(cell)
		if pad := widths[i] - runewidth.StringWidth(cell); pad > 0 {
			sb.WriteString(strings.Repeat(" ", pad))
		}
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
