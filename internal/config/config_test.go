package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Minute, cfg.Server.RequestTimeout)
	assert.Equal(t, 50, cfg.Collector.MaxPages)
	assert.Equal(t, 10*time.Second, cfg.Collector.RequestTimeout)
	assert.Equal(t, 3, cfg.Collector.MaxRetries)
	assert.Equal(t, 10000, cfg.Normalizer.MaxRows)
	assert.Equal(t, "pipeline_runs", cfg.DB.Table)
	assert.True(t, cfg.Logging.Development)

	cs := cfg.CollectorSettings()
	assert.Equal(t, filepath.Join("data", "raw", "books_data.csv"), cs.OutputPath)
	assert.Equal(t, "catalogue/", cs.ItemPrefix)
	assert.Equal(t, filepath.Join("data", "processed", "books_data.parquet"), cfg.NormalizerSettings().OutputPath)
	assert.Equal(t, "jobs/run_scrapper.json", cfg.JobSettings().ScrapersFile)
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
server:
  port: 9090
  api_key: secret
  request_timeout: 90s
collector:
  max_pages: 3
  request_timeout: 2s
  user_agent: test-agent
  output_dir: /tmp/raw
normalizer:
  max_rows: 100
jobs:
  base_dir: /srv/pipeline
storage:
  gcs_bucket: bucket
  prefix: runs
db:
  dsn: postgres://localhost/pipeline
pubsub:
  project_id: proj
  topic_name: pipeline-runs
logging:
  development: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "secret", cfg.Server.APIKey)
	assert.Equal(t, 90*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 3, cfg.CollectorSettings().MaxPages)
	assert.Equal(t, 2*time.Second, cfg.CollectorSettings().RequestTimeout)
	assert.Equal(t, "test-agent", cfg.CollectorSettings().UserAgent)
	assert.Equal(t, filepath.Join("/tmp/raw", "books_data.csv"), cfg.CollectorSettings().OutputPath)
	assert.Equal(t, 100, cfg.NormalizerSettings().MaxRows)
	assert.Equal(t, "/srv/pipeline", cfg.JobSettings().BaseDir)
	assert.Equal(t, "bucket", cfg.Storage.GCSBucket)
	assert.Equal(t, "runs", cfg.Storage.Prefix)
	assert.Equal(t, "postgres://localhost/pipeline", cfg.DB.DSN)
	assert.Equal(t, "pipeline-runs", cfg.PubSub.TopicName)
	assert.False(t, cfg.Logging.Development)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PIPELINE_COLLECTOR_MAX_PAGES", "7")
	t.Setenv("PIPELINE_STORAGE_ARCHIVE_DIR", "/var/archive")
	t.Setenv("PIPELINE_DB_DSN", "postgres://env/db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Collector.MaxPages)
	assert.Equal(t, "/var/archive", cfg.Storage.ArchiveDir)
	assert.Equal(t, "postgres://env/db", cfg.DB.DSN)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad port", "server:\n  port: 0\n", "server.port"},
		{"bad pages", "collector:\n  max_pages: 0\n", "collector.max_pages"},
		{"bad timeout", "collector:\n  request_timeout: 0s\n", "collector.request_timeout"},
		{"no output file", "collector:\n  output_file: \"\"\n", "collector.output_file"},
		{"bad rows", "normalizer:\n  max_rows: -1\n", "normalizer.max_rows"},
		{"topic without project", "pubsub:\n  topic_name: t\n", "pubsub.project_id"},
		{"malformed", "server: [", "read config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), err.Error())
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
