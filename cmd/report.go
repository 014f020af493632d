package cmd

import (
	"github.com/spf13/cobra"

	"github.com/medvision/dicom2yolo/internal/report"
)

func newReportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report <manifest.parquet>",
		Short: "Summarize a Parquet manifest written by a conversion run",
		Example: `  # Per-sample image and box counts
  dicom2yolo report ./dataset/manifest.parquet

  # Export as CSV
  dicom2yolo report ./dataset/manifest.parquet --format csv > stats.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := report.LoadManifest(args[0])
			if err != nil {
				return err
			}
			return report.PrintManifest(cmd.OutOrStdout(), rows, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json, csv)")

	return cmd
}
