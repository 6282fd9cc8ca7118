// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/catalogue-pipeline/internal/collector"
	"github.com/JakeFAU/catalogue-pipeline/internal/jobs"
	"github.com/JakeFAU/catalogue-pipeline/internal/normalizer"
)

// Config captures all pipeline configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Collector  CollectorConfig  `mapstructure:"collector"`
	Normalizer NormalizerConfig `mapstructure:"normalizer"`
	Jobs       JobsConfig       `mapstructure:"jobs"`
	Storage    StorageConfig    `mapstructure:"storage"`
	DB         DBConfig         `mapstructure:"db"`
	PubSub     PubSubConfig     `mapstructure:"pubsub"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	APIKey         string        `mapstructure:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// CollectorConfig governs the paginated listing walk.
type CollectorConfig struct {
	MaxPages       int           `mapstructure:"max_pages"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// MaxRetries is accepted for compatibility with existing config files; fetches are never retried.
	MaxRetries int    `mapstructure:"max_retries"`
	UserAgent  string `mapstructure:"user_agent"`
	OutputDir  string `mapstructure:"output_dir"`
	OutputFile string `mapstructure:"output_file"`
	ItemPrefix string `mapstructure:"item_prefix"`
	// RequestDelay paces page fetches; 0 fetches back to back.
	RequestDelay  time.Duration `mapstructure:"request_delay"`
	RespectRobots bool          `mapstructure:"respect_robots"`
}

// NormalizerConfig governs the cleaning stage.
type NormalizerConfig struct {
	MaxRows    int    `mapstructure:"max_rows"`
	OutputDir  string `mapstructure:"output_dir"`
	OutputFile string `mapstructure:"output_file"`
}

// JobsConfig points at the job registry files.
type JobsConfig struct {
	ScrapersFile string `mapstructure:"scrapers_file"`
	RawDataFile  string `mapstructure:"raw_data_file"`
	BaseDir      string `mapstructure:"base_dir"`
}

// StorageConfig enables mirroring of outputs to a GCS bucket or a local archive.
// The bucket wins when both are set.
type StorageConfig struct {
	GCSBucket  string `mapstructure:"gcs_bucket"`
	ArchiveDir string `mapstructure:"archive_dir"`
	Prefix     string `mapstructure:"prefix"`
}

// DBConfig controls the optional run-history table.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// PubSubConfig holds metadata for completion notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features and per-component sinks.
type LoggingConfig struct {
	Development    bool   `mapstructure:"development"`
	CollectorPath  string `mapstructure:"collector_path"`
	NormalizerPath string `mapstructure:"normalizer_path"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PIPELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout", "10m")
	v.SetDefault("collector.max_pages", 50)
	v.SetDefault("collector.request_timeout", "10s")
	v.SetDefault("collector.max_retries", 3)
	v.SetDefault("collector.user_agent", "catalogue-pipeline/0.1")
	v.SetDefault("collector.output_dir", "data/raw")
	v.SetDefault("collector.output_file", "books_data.csv")
	v.SetDefault("collector.item_prefix", "catalogue/")
	v.SetDefault("collector.request_delay", "0s")
	v.SetDefault("collector.respect_robots", false)
	v.SetDefault("normalizer.max_rows", 10000)
	v.SetDefault("normalizer.output_dir", "data/processed")
	v.SetDefault("normalizer.output_file", "books_data.parquet")
	v.SetDefault("jobs.scrapers_file", "jobs/run_scrapper.json")
	v.SetDefault("jobs.raw_data_file", "jobs/run_raw_data.json")
	v.SetDefault("jobs.base_dir", ".")
	v.SetDefault("storage.prefix", "artifacts")
	v.SetDefault("db.table", "pipeline_runs")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.collector_path", "logs/scraping.log")
	v.SetDefault("logging.normalizer_path", "logs/processing.log")
	// Registered so AutomaticEnv can override keys without file values.
	v.SetDefault("server.api_key", "")
	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("storage.archive_dir", "")
	v.SetDefault("db.dsn", "")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be > 0")
	}
	if strings.TrimSpace(c.Collector.OutputFile) == "" {
		return fmt.Errorf("collector.output_file must be set")
	}
	if strings.TrimSpace(c.Normalizer.OutputFile) == "" {
		return fmt.Errorf("normalizer.output_file must be set")
	}
	if err := c.CollectorSettings().Validate(); err != nil {
		return err
	}
	if err := c.NormalizerSettings().Validate(); err != nil {
		return err
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	if c.DB.MaxConns < 0 {
		return fmt.Errorf("db.max_conns must be >= 0")
	}
	return nil
}

// JobSettings converts the jobs section into the registry's config value.
func (c Config) JobSettings() jobs.Config {
	return jobs.Config{
		ScrapersFile: c.Jobs.ScrapersFile,
		RawDataFile:  c.Jobs.RawDataFile,
		BaseDir:      c.Jobs.BaseDir,
	}
}

// CollectorSettings converts the collector section into the component's config value.
func (c Config) CollectorSettings() collector.Config {
	return collector.Config{
		MaxPages:       c.Collector.MaxPages,
		RequestTimeout: c.Collector.RequestTimeout,
		UserAgent:      c.Collector.UserAgent,
		OutputPath:     filepath.Join(c.Collector.OutputDir, c.Collector.OutputFile),
		ItemPrefix:     c.Collector.ItemPrefix,
		RequestDelay:   c.Collector.RequestDelay,
		RespectRobots:  c.Collector.RespectRobots,
	}
}

// NormalizerSettings converts the normalizer section into the component's config value.
func (c Config) NormalizerSettings() normalizer.Config {
	return normalizer.Config{
		MaxRows:    c.Normalizer.MaxRows,
		OutputPath: filepath.Join(c.Normalizer.OutputDir, c.Normalizer.OutputFile),
	}
}
