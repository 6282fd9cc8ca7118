// Package normalizer turns a raw record file into a validated Parquet dataset.
package normalizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalogue-pipeline/internal/catalogue"
	"github.com/JakeFAU/catalogue-pipeline/internal/metrics"
	"github.com/JakeFAU/catalogue-pipeline/internal/rawfile"
)

// DefaultMaxRows caps the cleaned dataset.
const DefaultMaxRows = 10000

var (
	// ErrReadInput is returned when the raw file cannot be read or parsed.
	ErrReadInput = errors.New("read raw input")
	// ErrEmptyInput is returned when the raw file has no header row.
	ErrEmptyInput = errors.New("raw input is empty")
	// ErrWriteOutput is returned when the Parquet artifact cannot be written.
	ErrWriteOutput = errors.New("write parquet output")
)

// Config controls a cleaning run.
type Config struct {
	MaxRows int
	// OutputPath is the Parquet file overwritten by every run.
	OutputPath string
}

// DefaultConfig returns the stock row cap writing to outputPath.
func DefaultConfig(outputPath string) Config {
	return Config{MaxRows: DefaultMaxRows, OutputPath: outputPath}
}

// Validate checks for obviously bad configuration values.
func (c Config) Validate() error {
	if c.MaxRows <= 0 {
		return fmt.Errorf("normalizer.max_rows must be > 0")
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		return fmt.Errorf("normalizer.output_dir must be set")
	}
	return nil
}

// Report describes a finished cleaning run.
type Report struct {
	OutputPath string `json:"output_path"`
	Stats
}

// Normalizer cleans raw files into Parquet artifacts.
type Normalizer struct {
	cfg    Config
	logger *zap.Logger
}

// New builds a Normalizer.
func New(cfg Config, logger *zap.Logger) (*Normalizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{cfg: cfg, logger: logger}, nil
}

// Normalize reads inputPath, cleans it and overwrites the configured Parquet file.
func (n *Normalizer) Normalize(ctx context.Context, inputPath string) (Report, error) {
	n.logger.Info("Normalizer started", zap.String("input", inputPath), zap.String("output", n.cfg.OutputPath))
	if err := ctx.Err(); err != nil {
		return Report{}, fmt.Errorf("normalize canceled: %w", err)
	}

	rows, err := rawfile.Read(inputPath)
	if err != nil {
		if errors.Is(err, rawfile.ErrEmptyFile) {
			err = fmt.Errorf("%w: %w", ErrEmptyInput, err)
		} else {
			err = fmt.Errorf("%w: %w", ErrReadInput, err)
		}
		n.logger.Error("Processing error", zap.String("input", inputPath), zap.Error(err))
		return Report{}, err
	}

	cleaned, stats := Clean(rows, n.cfg.MaxRows)
	if stats.Truncated > 0 {
		n.logger.Warn("Truncating data",
			zap.Int("max_rows", n.cfg.MaxRows),
			zap.Int("dropped", stats.Truncated),
		)
	}
	metrics.ObserveRows("read", stats.Read)
	metrics.ObserveRows("incomplete", stats.Incomplete)
	metrics.ObserveRows("out_of_range", stats.OutOfRange)
	metrics.ObserveRows("truncated", stats.Truncated)

	if err := ctx.Err(); err != nil {
		return Report{Stats: stats}, fmt.Errorf("normalize canceled: %w", err)
	}
	if err := writeParquet(n.cfg.OutputPath, cleaned); err != nil {
		err = fmt.Errorf("%w: %w", ErrWriteOutput, err)
		n.logger.Error("Processing error", zap.String("output", n.cfg.OutputPath), zap.Error(err))
		return Report{Stats: stats}, err
	}
	metrics.ObserveRows("written", stats.Written)

	n.logger.Info("Processed books",
		zap.Int("read", stats.Read),
		zap.Int("written", stats.Written),
		zap.Int("incomplete", stats.Incomplete),
		zap.Int("out_of_range", stats.OutOfRange),
		zap.Int("null_prices", stats.NullPrices),
		zap.String("path", n.cfg.OutputPath),
	)
	return Report{OutputPath: n.cfg.OutputPath, Stats: stats}, nil
}

// writeParquet overwrites path with rows, closing the file on every path.
func writeParquet(path string, rows []catalogue.CleanRecord) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path) // #nosec G304 -- path comes from validated configuration.
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %q: %w", path, cerr)
		}
	}()

	w := parquet.NewGenericWriter[catalogue.CleanRecord](f)
	if _, err := w.Write(rows); err != nil {
		_ = w.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("write rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return nil
}
