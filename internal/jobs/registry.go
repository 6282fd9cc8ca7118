// Package jobs resolves opaque job IDs to validated scrape URLs or raw input files.
package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrJobNotFound is returned when no registry entry carries the requested ID.
	ErrJobNotFound = errors.New("job not found")
	// ErrInvalidURL is returned when a scrape job's URL is not absolute http(s).
	ErrInvalidURL = errors.New("invalid job url")
	// ErrInputMissing is returned when a process job's input file does not exist or is unreadable.
	ErrInputMissing = errors.New("input file not found")
	// ErrRegistry is returned when a registry file cannot be read or decoded.
	ErrRegistry = errors.New("job registry unavailable")
)

// Kind distinguishes the two job shapes.
type Kind string

// Job kinds.
const (
	KindScrape  Kind = "scrape"
	KindProcess Kind = "process"
)

// Descriptor is a resolved job: a listing URL for scrape jobs or an input path for process jobs.
type Descriptor struct {
	ID        string `json:"id"`
	Kind      Kind   `json:"kind"`
	URL       string `json:"url,omitempty"`
	InputPath string `json:"input_path,omitempty"`
}

// Config points the registry at its files.
type Config struct {
	ScrapersFile string
	RawDataFile  string
	// BaseDir anchors relative raw-data paths.
	BaseDir string
}

type scraperEntry struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type rawDataEntry struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

type scrapersFile struct {
	Scrapers []scraperEntry `json:"scrapers"`
}

type rawDataFile struct {
	RawDataFiles []rawDataEntry `json:"raw_data_files"`
}

// Registry reads job entries from JSON registry files on every lookup.
type Registry struct {
	cfg Config
}

// NewRegistry creates a Registry.
func NewRegistry(cfg Config) *Registry {
	if cfg.BaseDir == "" {
		cfg.BaseDir = "."
	}
	return &Registry{cfg: cfg}
}

// ResolveScrape looks up a scrape job and validates its URL.
func (r *Registry) ResolveScrape(id string) (Descriptor, error) {
	var file scrapersFile
	if err := readJSON(r.cfg.ScrapersFile, &file); err != nil {
		return Descriptor{}, err
	}
	for _, s := range file.Scrapers {
		if s.ID != id {
			continue
		}
		u, err := ValidateURL(s.URL)
		if err != nil {
			return Descriptor{}, fmt.Errorf("scraper %s: %w", id, err)
		}
		return Descriptor{ID: id, Kind: KindScrape, URL: u}, nil
	}
	return Descriptor{}, fmt.Errorf("%w: no scraper with id %q", ErrJobNotFound, id)
}

// ResolveProcess looks up a raw-data job and checks the file is readable.
func (r *Registry) ResolveProcess(id string) (Descriptor, error) {
	var file rawDataFile
	if err := readJSON(r.cfg.RawDataFile, &file); err != nil {
		return Descriptor{}, err
	}
	for _, f := range file.RawDataFiles {
		if f.ID != id {
			continue
		}
		path := f.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.cfg.BaseDir, path)
		}
		abs, err := ValidateInput(path)
		if err != nil {
			return Descriptor{}, fmt.Errorf("raw data %s: %w", id, err)
		}
		return Descriptor{ID: id, Kind: KindProcess, InputPath: abs}, nil
	}
	return Descriptor{}, fmt.Errorf("%w: no raw data file with id %q", ErrJobNotFound, id)
}

// ValidateURL checks raw is an absolute http(s) URL and returns it normalized.
func ValidateURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return u.String(), nil
}

// ValidateInput checks path names an existing, readable regular file and returns its absolute form.
func ValidateInput(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: empty path", ErrInputMissing)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInputMissing, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInputMissing, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrInputMissing, abs)
	}
	f, err := os.Open(abs) // #nosec G304 -- readability probe on a registry-provided path.
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInputMissing, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", abs, err)
	}
	return abs, nil
}

func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path) // #nosec G304 -- registry path comes from configuration.
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRegistry, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrRegistry, path, err)
	}
	return nil
}

// Check reports whether both registry files can be read and decoded.
func (r *Registry) Check() error {
	var scrapers scrapersFile
	if err := readJSON(r.cfg.ScrapersFile, &scrapers); err != nil {
		return err
	}
	var raw rawDataFile
	return readJSON(r.cfg.RawDataFile, &raw)
}
