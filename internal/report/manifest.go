package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// ManifestRow describes one rendered training image.
type ManifestRow struct {
	Sample string `parquet:"sample"`
	Source string `parquet:"source"`
	Image  string `parquet:"image"`
	Label  string `parquet:"label"`
	Boxes  int32  `parquet:"boxes"`
}

// SaveManifest writes rows as a Parquet file.
func SaveManifest(path string, rows []ManifestRow) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}
	defer f.Close()

	w := parquet.NewGenericWriter[ManifestRow](f)
	if _, err := w.Write(rows); err != nil {
		return fmt.Errorf("failed to write manifest rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize manifest: %w", err)
	}
	return f.Close()
}

// LoadManifest reads a manifest written by SaveManifest.
func LoadManifest(path string) ([]ManifestRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[ManifestRow](pf)
	defer reader.Close()

	var rows []ManifestRow
	batch := make([]ManifestRow, 128)
	for {
		n, err := reader.Read(batch)
		rows = append(rows, batch[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest: %w", err)
		}
	}
	return rows, nil
}
