package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/catalogue-pipeline/internal/config"
	"github.com/JakeFAU/catalogue-pipeline/internal/normalizer"
	"github.com/JakeFAU/catalogue-pipeline/internal/preview"
)

func newPreviewCmd() *cobra.Command {
	var (
		input      string
		limit      int
		titleWidth int
	)
	cmd := &cobra.Command{
		Use:     "preview",
		Short:   "Print the first rows of the Parquet output as a table",
		Example: "  pipeline preview --limit 5\n  pipeline preview -i data/processed/books_data.parquet",
		RunE: withConfig(func(cmd *cobra.Command, cfg config.Config) error {
			if input == "" {
				input = cfg.NormalizerSettings().OutputPath
			}
			rows, total, err := normalizer.ReadDataset(input, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := preview.Markdown(out, rows, titleWidth); err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "\n%d of %d rows from %s\n", len(rows), total, input)
			return err
		}),
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Parquet file to read (default: configured normalizer output)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "rows to print; 0 prints all")
	cmd.Flags().IntVar(&titleWidth, "title-width", 40, "truncate titles to this display width; 0 disables")
	return cmd
}
