package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/medvision/dicom2yolo/internal/logging"
	"github.com/medvision/dicom2yolo/internal/pipeline"
	"github.com/medvision/dicom2yolo/internal/sample"
)

func newInspectCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <inputPath>",
		Short: "Show which samples would be converted, without writing anything",
		Long: `Classify the input path the same way a conversion does and report, for every
sample, the resolved series folder, the number of DICOM instances and whether
the studies.xml annotation file is present.`,
		Example: `  # Check a batch folder before converting it
  dicom2yolo inspect ./exports

  # Show why folders were skipped
  dicom2yolo inspect ./exports --verbose`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeInspect(cmd, args[0], opts)
		},
	}
	return cmd
}

func executeInspect(cmd *cobra.Command, inputPath string, opts *rootOptions) error {
	cfg, err := opts.load(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogFile, cfg.Verbose)
	if err != nil {
		return err
	}
	defer logger.Close()

	d, err := pipeline.NewOrchestrator(nil, logger.Logger).Discover(inputPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Input: %s (%s)\n", d.Input, d.Mode)

	locator := sample.NewLocator(logger.Logger)
	var firstErr error
	for _, entry := range d.Entries {
		if !entry.Sample {
			if cfg.Verbose {
				fmt.Fprintf(out, "\n- %s\n  skipped: %s\n", entry.Path, entry.Reason)
			}
			continue
		}
		if err := inspectSample(out, locator, entry.Path); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func inspectSample(out io.Writer, locator *sample.Locator, path string) error {
	fmt.Fprintf(out, "\n%s\n", path)

	var problems []error
	xmlPath := sample.AnnotationFile(path)
	if _, err := os.Stat(xmlPath); err != nil {
		problems = append(problems, fmt.Errorf("%w: %s", sample.ErrMissingAnnotationFile, xmlPath))
		fmt.Fprintf(out, "  annotations: missing\n")
	} else {
		fmt.Fprintf(out, "  annotations: %s\n", xmlPath)
	}

	layout, err := locator.Locate(path)
	switch {
	case err != nil:
		problems = append(problems, err)
		fmt.Fprintf(out, "  series:      [%s] %v\n", pipeline.Kind(err), err)
	case len(layout.Files) == 0:
		problems = append(problems, fmt.Errorf("%w: %s", sample.ErrEmptySample, layout.SeriesDir))
		fmt.Fprintf(out, "  series:      %s (no instances)\n", layout.SeriesDir)
	default:
		fmt.Fprintf(out, "  series:      %s\n", layout.SeriesDir)
		fmt.Fprintf(out, "  instances:   %d\n", len(layout.Files))
	}

	return errors.Join(problems...)
}
