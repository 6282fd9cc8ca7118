// Package local keeps a per-run copy of pipeline outputs on the local filesystem.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JakeFAU/catalogue-pipeline/internal/pipeline"
)

// Config captures the parameters for the archive.
type Config struct {
	// BaseDir is the root directory under which run snapshots are written.
	BaseDir string `mapstructure:"archive_dir" yaml:"archive_dir"`
}

// Archive copies artifacts beneath a base directory.
type Archive struct {
	baseDir string
}

// New creates the base directory if needed and checks it is writable.
func New(cfg Config) (*Archive, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("archive directory is required")
	}
	info, err := os.Stat(cfg.BaseDir)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create archive directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("stat archive directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("archive path %s is not a directory", cfg.BaseDir)
	}

	probe, err := os.CreateTemp(cfg.BaseDir, ".writable-*")
	if err != nil {
		return nil, fmt.Errorf("archive directory is not writable: %w", err)
	}
	_ = probe.Close()
	if err := os.Remove(probe.Name()); err != nil {
		return nil, fmt.Errorf("remove probe file: %w", err)
	}
	return &Archive{baseDir: cfg.BaseDir}, nil
}

// PutObject streams data to baseDir/obj.Path and returns a file:// URI.
// Content type and metadata are not kept on disk.
func (a *Archive) PutObject(_ context.Context, obj pipeline.Object, data io.Reader) (string, error) {
	path := obj.Path
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path is required")
	}
	base := filepath.Clean(a.baseDir)
	full := filepath.Clean(filepath.Join(base, path))
	if !strings.HasPrefix(full, base+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the archive", path)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return "", fmt.Errorf("create parent directories: %w", err)
	}

	f, err := os.Create(full) // #nosec G304 -- confined to baseDir above
	if err != nil {
		return "", fmt.Errorf("create %s: %w", full, err)
	}
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", full, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", full, err)
	}
	return "file://" + filepath.ToSlash(full), nil
}
