// Package pipeline sequences the conversion of viewer study exports into
// training images and YOLO labels.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/medvision/dicom2yolo/internal/annotations"
	"github.com/medvision/dicom2yolo/internal/labels"
	"github.com/medvision/dicom2yolo/internal/sample"
)

// AnnotationReader extracts the annotation set of a sample.
type AnnotationReader interface {
	ReadAnnotations(xmlPath string, normalize bool) (*annotations.Set, error)
}

// Rasterizer writes exactly one image for a raw DICOM file and reports the
// size of the source frame.
type Rasterizer interface {
	GenerateImage(ctx context.Context, rawFile, outImageFile string) (image.Point, error)
}

// LabelWriter writes labels for a complete image directory and returns the
// label directory.
type LabelWriter interface {
	ProcessNeededFiles(imageDir string, set *annotations.Set) (string, error)
}

// Image is one rendered instance.
type Image struct {
	Source string
	Path   string
	Label  string
	Boxes  int
}

// Artifacts are the outputs of one processed sample.
type Artifacts struct {
	SampleRoot string
	ImageDir   string
	LabelDir   string
	Images     []Image
	Labels     int
}

// ProcessorOptions configures a Processor.
type ProcessorOptions struct {
	Annotations  AnnotationReader
	Rasterizer   Rasterizer
	Labels       LabelWriter
	Locator      *sample.Locator
	Workers      int
	ImageDirName string
	Logger       *slog.Logger

	// PostProcess runs after labels are written. Nil means no post-processing.
	PostProcess func(ctx context.Context, a *Artifacts) error
}

// Processor converts a single full sample.
type Processor struct {
	annotations  AnnotationReader
	rasterizer   Rasterizer
	labels       LabelWriter
	locator      *sample.Locator
	workers      int
	imageDirName string
	postProcess  func(ctx context.Context, a *Artifacts) error
	logger       *slog.Logger
}

// NewProcessor creates a processor from opts.
func NewProcessor(opts ProcessorOptions) *Processor {
	p := &Processor{
		annotations:  opts.Annotations,
		rasterizer:   opts.Rasterizer,
		labels:       opts.Labels,
		locator:      opts.Locator,
		workers:      opts.Workers,
		imageDirName: opts.ImageDirName,
		postProcess:  opts.PostProcess,
		logger:       opts.Logger,
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if p.locator == nil {
		p.locator = sample.NewLocator(p.logger)
	}
	if p.workers < 1 {
		p.workers = 1
	}
	if p.imageDirName == "" {
		p.imageDirName = "png"
	}
	return p
}

// Process converts the sample at sampleRoot. Annotations are read first,
// images are rendered next, and labels are written only once every image
// exists. Any failure aborts the whole sample.
func (p *Processor) Process(ctx context.Context, sampleRoot string) (*Artifacts, error) {
	p.logger.Info("About to process folder", "path", sampleRoot)

	xmlPath := sample.AnnotationFile(sampleRoot)
	if info, err := os.Stat(xmlPath); err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", sample.ErrMissingAnnotationFile, xmlPath)
	}

	set, err := p.annotations.ReadAnnotations(xmlPath, true)
	if err != nil {
		return nil, conversionError("annotations", err)
	}
	p.logger.Info("Annotations parsed", "path", xmlPath, "boxes", set.Len(), "classes", len(set.Classes))

	layout, err := p.locator.Locate(sampleRoot)
	if err != nil {
		return nil, err
	}
	if len(layout.Files) == 0 {
		return nil, fmt.Errorf("%w: %s", sample.ErrEmptySample, layout.SeriesDir)
	}

	imageDir := filepath.Join(layout.OutputParent(), p.imageDirName)
	if err := os.MkdirAll(imageDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	if err := pruneImages(imageDir, layout.Files); err != nil {
		return nil, err
	}

	images, sizes, err := p.rasterize(ctx, layout.Files, imageDir)
	if err != nil {
		return nil, err
	}

	// Boxes without a declared image size are still in source pixels; the
	// rendered PNG may have been downscaled.
	for i, img := range images {
		set.NormalizeImage(filepath.Base(img.Source), sizes[i].X, sizes[i].Y)
	}

	labelDir, err := p.labels.ProcessNeededFiles(imageDir, set)
	if err != nil {
		return nil, conversionError("labels", err)
	}

	a := &Artifacts{
		SampleRoot: sampleRoot,
		ImageDir:   imageDir,
		LabelDir:   labelDir,
		Images:     images,
	}
	for i := range a.Images {
		img := &a.Images[i]
		img.Label = labels.LabelPath(labelDir, img.Path)
		if img.Label != "" {
			img.Boxes = len(set.Boxes(filepath.Base(img.Source)))
			a.Labels++
		}
	}

	if p.postProcess != nil {
		if err := p.postProcess(ctx, a); err != nil {
			return nil, fmt.Errorf("post-processing failed: %w", err)
		}
	}

	p.logger.Info("PNG dir", "path", imageDir, "images", len(images))
	p.logger.Info("YOLO dir", "path", labelDir, "labels", a.Labels)
	return a, nil
}

// rasterize renders every file with a bounded pool. The first failure
// cancels the remaining work.
func (p *Processor) rasterize(ctx context.Context, files []string, imageDir string) ([]Image, []image.Point, error) {
	images := make([]Image, len(files))
	sizes := make([]image.Point, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, file := range files {
		out := filepath.Join(imageDir, filepath.Base(file)+".png")
		images[i] = Image{Source: file, Path: out}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			size, err := p.rasterizer.GenerateImage(gctx, file, out)
			if err != nil {
				return conversionError("rasterize "+filepath.Base(file), err)
			}
			sizes[i] = size
			p.logger.Debug("Image written", "source", file, "image", out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return images, sizes, nil
}

// pruneImages removes PNGs left by an earlier run whose raw file is gone.
func pruneImages(imageDir string, files []string) error {
	keep := make(map[string]bool, len(files))
	for _, f := range files {
		keep[filepath.Base(f)+".png"] = true
	}
	existing, err := filepath.Glob(filepath.Join(imageDir, "*.png"))
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}
	for _, path := range existing {
		name := filepath.Base(path)
		if keep[name] || strings.HasPrefix(name, ".") {
			continue
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove stale image: %w", err)
		}
	}
	return nil
}
