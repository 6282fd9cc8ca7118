// Package rawfile reads and writes the comma-separated raw record file.
package rawfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JakeFAU/catalogue-pipeline/internal/catalogue"
)

var (
	// ErrEmptyFile is returned when the file has no header row.
	ErrEmptyFile = errors.New("raw file has no header")
	// ErrMissingColumn is returned when the header lacks one of the five record columns.
	ErrMissingColumn = errors.New("raw file missing column")
)

// Write creates (or truncates) path and writes the records under the fixed header.
// An empty record set leaves an empty file with no header.
func Write(path string, records []catalogue.RawRecord) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path) // #nosec G304 -- path comes from validated configuration.
	if err != nil {
		return fmt.Errorf("create file %q: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close file %q: %w", path, cerr)
		}
	}()

	if len(records) == 0 {
		return nil
	}

	w := csv.NewWriter(f)
	if err := w.Write(catalogue.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(r.Row()); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush rows: %w", err)
	}
	return nil
}

// Read parses the file at path. Columns are addressed by header name, so extra
// columns and a different column order are tolerated. Short rows read as missing cells.
func Read(path string) (records []catalogue.RawRecord, err error) {
	f, err := os.Open(path) // #nosec G304 -- caller resolves and validates the path.
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %q: %w", path, cerr)
		}
	}()
	return Decode(f)
}

// Decode parses raw records from r.
func Decode(r io.Reader) ([]catalogue.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var out []catalogue.RawRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(out)+1, err)
		}
		cell := func(name string) string {
			i := index[name]
			if i >= len(row) {
				return ""
			}
			return row[i]
		}
		out = append(out, catalogue.RawRecord{
			Title:        cell(catalogue.ColumnTitle),
			Price:        cell(catalogue.ColumnPrice),
			Rating:       cell(catalogue.ColumnRating),
			Availability: cell(catalogue.ColumnAvailability),
			URL:          cell(catalogue.ColumnURL),
		})
	}
	return out, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}
	for _, name := range catalogue.Header {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return index, nil
}
