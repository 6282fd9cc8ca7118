package cmd

import (
	"github.com/spf13/cobra"

	"github.com/JakeFAU/catalogue-pipeline/internal/app"
)

func newScrapeCmd() *cobra.Command {
	var jobID, rawURL string
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Walk a catalogue listing and write the raw CSV",
		Long: `Resolves --job-id against the scraper registry (or takes --url directly),
walks the listing page by page and overwrites the configured raw CSV.
The run result is printed as JSON; a failed run exits non-zero.`,
		Example: "  pipeline scrape --job-id 102\n  pipeline scrape --url https://books.toscrape.com/index.html",
		RunE: withApp(func(cmd *cobra.Command, appInstance *app.App) error {
			runner := appInstance.Runner()
			if jobID != "" {
				return printResult(cmd.OutOrStdout(), runner.Scrape(cmd.Context(), jobID))
			}
			return printResult(cmd.OutOrStdout(), runner.ScrapeURL(cmd.Context(), rawURL))
		}),
	}
	cmd.Flags().StringVar(&jobID, "job-id", "", "scraper ID from the registry")
	cmd.Flags().StringVar(&rawURL, "url", "", "listing URL to scrape directly")
	cmd.MarkFlagsOneRequired("job-id", "url")
	cmd.MarkFlagsMutuallyExclusive("job-id", "url")
	return cmd
}
