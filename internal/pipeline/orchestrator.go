package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/medvision/dicom2yolo/internal/report"
	"github.com/medvision/dicom2yolo/internal/sample"
)

// SampleProcessor converts one full sample.
type SampleProcessor interface {
	Process(ctx context.Context, sampleRoot string) (*Artifacts, error)
}

// Entry is one candidate found while discovering the input path.
type Entry struct {
	Path   string
	Sample bool
	// Reason explains why a non-sample entry is skipped.
	Reason string
}

// Discovery is the interpretation of an input path.
type Discovery struct {
	Input   string
	Mode    report.Mode
	Entries []Entry
}

// Samples returns the paths of the entries that qualify as full samples.
func (d *Discovery) Samples() []string {
	var out []string
	for _, e := range d.Entries {
		if e.Sample {
			out = append(out, e.Path)
		}
	}
	return out
}

// Orchestrator dispatches an input path as one sample or as a batch.
type Orchestrator struct {
	processor SampleProcessor
	logger    *slog.Logger
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(processor SampleProcessor, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{processor: processor, logger: logger}
}

// Discover classifies inputPath. A full sample yields a single entry; any
// other directory is treated as a batch container whose immediate children
// are classified in name order.
func (o *Orchestrator) Discover(inputPath string) (*Discovery, error) {
	full, err := sample.IsFullSample(inputPath)
	if err != nil {
		return nil, err
	}
	if full {
		o.logger.Info("Processing just one sample", "path", inputPath)
		return &Discovery{
			Input:   inputPath,
			Mode:    report.ModeSingle,
			Entries: []Entry{{Path: inputPath, Sample: true}},
		}, nil
	}

	o.logger.Info("Processing batch of samples", "path", inputPath)
	entries, err := os.ReadDir(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch folder: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	d := &Discovery{Input: inputPath, Mode: report.ModeBatch}
	for _, entry := range entries {
		path := filepath.Join(inputPath, entry.Name())
		if !entry.IsDir() {
			o.logger.Debug("Skipping non-directory entry", "path", path)
			d.Entries = append(d.Entries, Entry{Path: path, Reason: "not a directory"})
			continue
		}

		ok, err := sample.IsFullSample(path)
		if err != nil {
			o.logger.Debug("Skipping unreadable entry", "path", path, "error", err)
			d.Entries = append(d.Entries, Entry{Path: path, Reason: err.Error()})
			continue
		}
		if !ok {
			o.logger.Debug("Skipping folder without export markers", "path", path)
			d.Entries = append(d.Entries, Entry{Path: path, Reason: "no export marker"})
			continue
		}
		d.Entries = append(d.Entries, Entry{Path: path, Sample: true})
	}
	return d, nil
}

// Run converts every sample under inputPath. Sample failures are recorded
// and the batch continues; the returned error is a *BatchError when any
// sample failed. The summary is returned whenever discovery succeeded.
func (o *Orchestrator) Run(ctx context.Context, inputPath string) (*report.Summary, error) {
	d, err := o.Discover(inputPath)
	if err != nil {
		return nil, err
	}

	summary := report.NewSummary(inputPath, d.Mode)
	var firstErr error
	for _, entry := range d.Entries {
		if !entry.Sample {
			summary.Add(report.SampleResult{Sample: entry.Path, Outcome: report.OutcomeSkipped, Reason: entry.Reason})
			continue
		}
		if err := ctx.Err(); err != nil {
			o.logger.Warn("Run canceled, remaining samples not processed", "next", entry.Path)
			return summary, err
		}

		result, artifacts, err := o.processOne(ctx, entry.Path)
		summary.Add(result)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", entry.Path, err)
		}
		if artifacts != nil {
			for _, img := range artifacts.Images {
				summary.Manifest = append(summary.Manifest, report.ManifestRow{
					Sample: artifacts.SampleRoot,
					Source: img.Source,
					Image:  img.Path,
					Label:  img.Label,
					Boxes:  int32(img.Boxes),
				})
			}
		}
	}

	o.logger.Info("Run finished", "succeeded", summary.Succeeded, "failed", summary.Failed, "skipped", summary.Skipped)
	if firstErr != nil {
		return summary, &BatchError{Failed: summary.Failed, Total: summary.Processed(), First: firstErr}
	}
	return summary, nil
}

func (o *Orchestrator) processOne(ctx context.Context, path string) (report.SampleResult, *Artifacts, error) {
	start := time.Now()
	artifacts, err := o.processor.Process(ctx, path)

	r := report.SampleResult{Sample: path, Duration: time.Since(start)}
	if err != nil {
		r.Outcome = report.OutcomeFailed
		r.ErrorKind = Kind(err)
		r.Error = err.Error()
		level := slog.LevelError
		if errors.Is(err, context.Canceled) {
			level = slog.LevelWarn
		}
		o.logger.Log(ctx, level, "Sample failed", "path", path, "kind", r.ErrorKind, "error", err)
		return r, nil, err
	}

	r.Outcome = report.OutcomeProcessed
	r.ImageDir = artifacts.ImageDir
	r.LabelDir = artifacts.LabelDir
	r.Images = len(artifacts.Images)
	r.Labels = artifacts.Labels
	return r, artifacts, nil
}
