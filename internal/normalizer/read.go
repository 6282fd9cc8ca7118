package normalizer

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/JakeFAU/catalogue-pipeline/internal/catalogue"
)

// ReadDataset returns up to limit rows of a Parquet file written by Normalize,
// along with the file's total row count. A limit <= 0 reads every row.
func ReadDataset(path string, limit int) (_ []catalogue.CleanRecord, total int64, err error) {
	f, err := os.Open(path) // #nosec G304 -- caller-supplied dataset path.
	if err != nil {
		return nil, 0, fmt.Errorf("open %q: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %q: %w", path, cerr)
		}
	}()

	r := parquet.NewGenericReader[catalogue.CleanRecord](f)
	defer func() {
		if cerr := r.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close reader: %w", cerr)
		}
	}()

	total = r.NumRows()
	want := total
	if limit > 0 && int64(limit) < want {
		want = int64(limit)
	}
	rows := make([]catalogue.CleanRecord, want)
	read := 0
	for read < len(rows) {
		n, err := r.Read(rows[read:])
		read += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, 0, fmt.Errorf("read rows: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return rows[:read], total, nil
}
