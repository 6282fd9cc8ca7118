package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/catalogue-pipeline/internal/app"
	"github.com/JakeFAU/catalogue-pipeline/internal/catalogue"
	"github.com/JakeFAU/catalogue-pipeline/internal/config"
	"github.com/JakeFAU/catalogue-pipeline/internal/jobs"
	"github.com/JakeFAU/catalogue-pipeline/internal/rawfile"
)

func testConfig(t *testing.T) (config.Config, string) {
	t.Helper()
	root := t.TempDir()

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Collector.OutputDir = filepath.Join(root, "data", "raw")
	cfg.Normalizer.OutputDir = filepath.Join(root, "data", "processed")
	cfg.Jobs.ScrapersFile = filepath.Join(root, "jobs", "run_scrapper.json")
	cfg.Jobs.RawDataFile = filepath.Join(root, "jobs", "run_raw_data.json")
	cfg.Jobs.BaseDir = root
	cfg.Logging.Development = false
	cfg.Logging.CollectorPath = filepath.Join(root, "logs", "scraping.log")
	cfg.Logging.NormalizerPath = filepath.Join(root, "logs", "processing.log")
	return cfg, root
}

func TestNewLocalOnly(t *testing.T) {
	t.Parallel()

	cfg, root := testConfig(t)
	cfg.Storage.ArchiveDir = filepath.Join(root, "archive")

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	require.NotNil(t, a.Runner())
	require.NotNil(t, a.Logger())
	assert.Equal(t, cfg.Storage.ArchiveDir, a.Config().Storage.ArchiveDir)
	assert.DirExists(t, cfg.Storage.ArchiveDir)

	require.ErrorIs(t, a.Ready(context.Background()), jobs.ErrRegistry)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "jobs"), 0o750))
	require.NoError(t, os.WriteFile(cfg.Jobs.ScrapersFile, []byte(`{"scrapers":[]}`), 0o600))
	require.NoError(t, os.WriteFile(cfg.Jobs.RawDataFile,
		[]byte(`{"raw_data_files":[{"id":"102","path":"data/raw/books_data.csv"}]}`), 0o600))
	require.NoError(t, a.Ready(context.Background()))

	input := filepath.Join(root, "data", "raw", "books_data.csv")
	require.NoError(t, rawfile.Write(input, []catalogue.RawRecord{
		{Title: "Book1", Price: "51.77", Rating: "3", Availability: "In stock", URL: "https://example.com/a"},
	}))
	res := a.Runner().Process(context.Background(), "102")
	require.True(t, res.OK(), res.Error)
	assert.Contains(t, res.ArtifactURI, "file://")
	assert.FileExists(t, filepath.Join(root, "data", "processed", "books_data.parquet"))
	assert.FileExists(t, cfg.Logging.NormalizerPath)
}

func TestNewRejectsBadDSN(t *testing.T) {
	t.Parallel()

	cfg, _ := testConfig(t)
	cfg.DB.DSN = "postgres://%zz"

	a, err := app.New(context.Background(), cfg)
	require.Error(t, err)
	require.Nil(t, a)
}

func TestNewRejectsBadArchive(t *testing.T) {
	t.Parallel()

	cfg, root := testConfig(t)
	blocker := filepath.Join(root, "archive")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	cfg.Storage.ArchiveDir = blocker

	_, err := app.New(context.Background(), cfg)
	require.Error(t, err)
}
