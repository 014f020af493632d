package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medvision/dicom2yolo/internal/annotations"
	"github.com/medvision/dicom2yolo/internal/config"
	"github.com/medvision/dicom2yolo/internal/labels"
	"github.com/medvision/dicom2yolo/internal/logging"
	"github.com/medvision/dicom2yolo/internal/pipeline"
	"github.com/medvision/dicom2yolo/internal/rasterize"
	"github.com/medvision/dicom2yolo/internal/report"
	"github.com/medvision/dicom2yolo/internal/sample"
)

func executeConvert(cmd *cobra.Command, inputPath string, opts *rootOptions) error {
	cfg, err := opts.load(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogFile, cfg.Verbose)
	if err != nil {
		return err
	}
	defer logger.Close()

	logger.Info("Starting conversion", "input", inputPath, "workers", cfg.Workers, "max_size", cfg.MaxSize)

	orchestrator := pipeline.NewOrchestrator(newProcessor(cfg, logger), logger.Logger)
	summary, runErr := orchestrator.Run(cmd.Context(), inputPath)
	if summary == nil {
		return runErr
	}

	report.PrintSummary(cmd.OutOrStdout(), summary)

	if cfg.ReportPath != "" {
		if err := report.SaveYAML(cfg.ReportPath, summary); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		logger.Info("Report saved", "path", cfg.ReportPath)
	}
	if cfg.ManifestPath != "" {
		if err := report.SaveManifest(cfg.ManifestPath, summary.Manifest); err != nil {
			return fmt.Errorf("failed to save manifest: %w", err)
		}
		logger.Info("Manifest saved", "path", cfg.ManifestPath, "rows", len(summary.Manifest))
	}

	return runErr
}

func newProcessor(cfg *config.Config, logger *logging.Logger) *pipeline.Processor {
	return pipeline.NewProcessor(pipeline.ProcessorOptions{
		Annotations:  annotations.NewReader(logger.Logger),
		Rasterizer:   rasterize.New(cfg.MaxSize),
		Labels:       labels.NewWriter(cfg.LabelDirName, logger.Logger),
		Locator:      sample.NewLocator(logger.Logger),
		Workers:      cfg.Workers,
		ImageDirName: cfg.ImageDirName,
		Logger:       logger.Logger,
	})
}
