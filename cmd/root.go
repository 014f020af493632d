package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "dicom2yolo <inputPath>",
		Short: "Convert viewer DICOM exports into YOLO training data",
		Long: `dicom2yolo converts patient study exports into PNG images and YOLO labels.

The input path is either a single full sample (a viewer export containing
AutoRun.exe, autorun.inf or PersianGulf_Help) or a folder holding many such
samples. For every sample the DICOM/<study>/<series> instances are rendered to
<study>/png and the CDViewer/studies.xml annotations become <study>/yolo labels.`,
		Example: `  # Convert one patient export
  dicom2yolo ./exports/patient-001

  # Convert a batch folder with 8 render workers and keep a run report
  dicom2yolo ./exports --workers 8 --report ./reports/run.yaml

  # Also write a Parquet manifest of every image and label
  dicom2yolo ./exports --manifest ./dataset/manifest.parquet`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeConvert(cmd, args[0], opts)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	opts.bindPersistent(cmd)
	opts.bindConvert(cmd)

	cmd.AddCommand(newInspectCmd(opts))
	cmd.AddCommand(newReportCmd())

	return cmd
}
