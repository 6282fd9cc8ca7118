package collector

import (
	"fmt"
	"strings"
	"time"
)

// Default limits applied by DefaultConfig.
const (
	DefaultMaxPages       = 50
	DefaultRequestTimeout = 10 * time.Second
	DefaultItemPrefix     = "catalogue/"
)

// Config controls a single listing walk.
type Config struct {
	// MaxPages bounds the number of listing pages fetched per run.
	MaxPages int
	// RequestTimeout bounds each page GET.
	RequestTimeout time.Duration
	UserAgent      string
	// OutputPath is the raw file overwritten by every run.
	OutputPath string
	// ItemPrefix is joined in front of site-relative item links.
	ItemPrefix string
	// RequestDelay is the minimum gap between page fetches; zero disables pacing.
	RequestDelay  time.Duration
	RespectRobots bool
}

// DefaultConfig returns the stock limits writing to outputPath.
func DefaultConfig(outputPath string) Config {
	return Config{
		MaxPages:       DefaultMaxPages,
		RequestTimeout: DefaultRequestTimeout,
		OutputPath:     outputPath,
		ItemPrefix:     DefaultItemPrefix,
	}
}

// Validate checks for obviously bad configuration values.
func (c Config) Validate() error {
	if c.MaxPages <= 0 {
		return fmt.Errorf("collector.max_pages must be > 0")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("collector.request_timeout must be > 0")
	}
	if c.RequestDelay < 0 {
		return fmt.Errorf("collector.request_delay must be >= 0")
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		return fmt.Errorf("collector.output_dir must be set")
	}
	return nil
}
