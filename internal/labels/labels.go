// Package labels writes YOLO label files for a directory of rendered images.
package labels

import (
	"bufio"
	"fmt"
	"image"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/medvision/dicom2yolo/internal/annotations"
)

// ClassesFile lists class names, one per line, in class index order.
const ClassesFile = "classes.txt"

// Writer produces one <image>.txt per annotated image.
type Writer struct {
	dirName string
	logger  *slog.Logger
}

// NewWriter creates a writer that places labels in a sibling of the image
// directory named dirName.
func NewWriter(dirName string, logger *slog.Logger) *Writer {
	if dirName == "" {
		dirName = "yolo"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Writer{dirName: dirName, logger: logger}
}

// ProcessNeededFiles writes labels for every PNG in imageDir that has
// annotations and returns the label directory. Label files left from a
// previous run are removed first.
func (w *Writer) ProcessNeededFiles(imageDir string, set *annotations.Set) (string, error) {
	labelDir := filepath.Join(filepath.Dir(filepath.Clean(imageDir)), w.dirName)
	if err := os.MkdirAll(labelDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create label directory: %w", err)
	}
	if err := clearLabels(labelDir); err != nil {
		return "", err
	}

	images, err := filepath.Glob(filepath.Join(imageDir, "*.png"))
	if err != nil {
		return "", fmt.Errorf("failed to list images: %w", err)
	}
	sort.Strings(images)

	written := 0
	for _, img := range images {
		stem := strings.TrimSuffix(filepath.Base(img), filepath.Ext(img))
		boxes := set.Boxes(stem)
		if len(boxes) == 0 {
			continue
		}

		boxes, err := normalizeAll(img, boxes)
		if err != nil {
			return "", err
		}
		if err := writeLabelFile(filepath.Join(labelDir, stem+".txt"), boxes); err != nil {
			return "", err
		}
		written++
	}

	var classes []string
	if set != nil {
		classes = set.Classes
	}
	if err := writeClasses(filepath.Join(labelDir, ClassesFile), classes); err != nil {
		return "", err
	}

	w.logger.Debug("Labels written", "dir", labelDir, "images", len(images), "labelled", written)
	return labelDir, nil
}

// LabelPath returns the label file path for an image, or "" when the image
// has no label file.
func LabelPath(labelDir, imagePath string) string {
	stem := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	path := filepath.Join(labelDir, stem+".txt")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func normalizeAll(imagePath string, boxes []annotations.Box) ([]annotations.Box, error) {
	var width, height float64
	out := make([]annotations.Box, len(boxes))
	for i, b := range boxes {
		if !b.Normalized && width == 0 {
			w, h, err := imageSize(imagePath)
			if err != nil {
				return nil, err
			}
			width, height = float64(w), float64(h)
		}
		out[i] = b.Normalize(width, height)
	}
	return out, nil
}

func imageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image size of %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

func writeLabelFile(path string, boxes []annotations.Box) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create label file: %w", err)
	}
	bw := bufio.NewWriter(f)
	for _, b := range boxes {
		fmt.Fprintf(bw, "%d %.6f %.6f %.6f %.6f\n", b.Class, b.CX, b.CY, b.W, b.H)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write label file %s: %w", path, err)
	}
	return f.Close()
}

func writeClasses(path string, classes []string) error {
	var sb strings.Builder
	for _, c := range classes {
		sb.WriteString(c)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write classes file: %w", err)
	}
	return nil
}

func clearLabels(dir string) error {
	stale, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return fmt.Errorf("failed to list label files: %w", err)
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove stale label file: %w", err)
		}
	}
	return nil
}
