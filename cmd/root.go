// Package cmd defines and implements the CLI commands for the pipeline executable.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JakeFAU/catalogue-pipeline/internal/app"
	"github.com/JakeFAU/catalogue-pipeline/internal/config"
	"github.com/JakeFAU/catalogue-pipeline/internal/pipeline"
)

// configKeyType is the key for storing the loaded Config in the context.
type configKeyType string

const configKey configKeyType = "config"

// errRunFailed marks a command whose Result was already printed.
var errRunFailed = errors.New("run failed")

// newApp is the application factory; tests replace it.
var newApp = app.New

// loadEnvFile exports the variables in path that are not already set. An
// empty path reads ./.env when present.
func loadEnvFile(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile, envFile string
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Scrape a paginated book catalogue and normalize it to Parquet.",
		Long: `pipeline runs the two catalogue stages. "scrape" walks a listing and
writes the raw CSV, "process" cleans a raw CSV into a Parquet file, and
"serve" exposes both over HTTP. "preview" prints the cleaned rows.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadEnvFile(envFile); err != nil {
				return err
			}
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, JSON or TOML); PIPELINE_* env vars override it")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file exported before config is read (default ./.env if present)")

	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newProcessCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newPreviewCmd())
	return cmd
}

// withConfig hands run the Config loaded by the root pre-run hook.
func withConfig(run func(cmd *cobra.Command, cfg config.Config) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, ok := cmd.Context().Value(configKey).(config.Config)
		if !ok {
			return errors.New("configuration not loaded")
		}
		return run(cmd, cfg)
	}
}

// withApp builds the App, including any configured side channels, and closes
// it once run returns, whether or not it failed.
func withApp(run func(cmd *cobra.Command, a *app.App) error) func(*cobra.Command, []string) error {
	return withConfig(func(cmd *cobra.Command, cfg config.Config) error {
		appInstance, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize application services: %w", err)
		}
		defer appInstance.Close()
		return run(cmd, appInstance)
	})
}

// printResult writes res as indented JSON and maps failure to errRunFailed.
func printResult(w io.Writer, res pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if !res.OK() {
		return errRunFailed
	}
	return nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
