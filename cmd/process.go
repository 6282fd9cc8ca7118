package cmd

import (
	"github.com/spf13/cobra"

	"github.com/JakeFAU/catalogue-pipeline/internal/app"
)

func newProcessCmd() *cobra.Command {
	var jobID, input string
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Clean a raw CSV into the Parquet output",
		Long: `Resolves --job-id against the raw-data registry (or takes --input directly),
cleans the rows and overwrites the configured Parquet file.`,
		Example: "  pipeline process --job-id 102\n  pipeline process --input data/raw/books_data.csv",
		RunE: withApp(func(cmd *cobra.Command, appInstance *app.App) error {
			runner := appInstance.Runner()
			if jobID != "" {
				return printResult(cmd.OutOrStdout(), runner.Process(cmd.Context(), jobID))
			}
			return printResult(cmd.OutOrStdout(), runner.ProcessFile(cmd.Context(), input))
		}),
	}
	cmd.Flags().StringVar(&jobID, "job-id", "", "raw data file ID from the registry")
	cmd.Flags().StringVarP(&input, "input", "i", "", "raw CSV to process directly")
	cmd.MarkFlagsOneRequired("job-id", "input")
	cmd.MarkFlagsMutuallyExclusive("job-id", "input")
	return cmd
}
