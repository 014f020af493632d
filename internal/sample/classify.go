// Package sample recognizes viewer study exports on disk and resolves the
// nested numeric folder layout that holds their DICOM instances.
package sample

import (
	"fmt"
	"os"
	"path/filepath"
)

// Relative paths inside a full sample export.
const (
	DicomDirName   = "DICOM"
	AnnotationPath = "CDViewer/studies.xml"
)

// Markers are the files the exporting viewer leaves at the root of a patient
// export. Matching is exact and case-sensitive.
var Markers = []string{"AutoRun.exe", "autorun.inf", "PersianGulf_Help"}

// IsFullSample reports whether folder is a single patient export, as opposed
// to a batch container of exports.
func IsFullSample(folder string) (bool, error) {
	info, err := os.Stat(folder)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrInvalidInput, folder, err)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("%w: %s", ErrInvalidInput, folder)
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return false, fmt.Errorf("failed to read folder %s: %w", folder, err)
	}

	for _, entry := range entries {
		if isMarker(entry.Name()) {
			return true, nil
		}
	}
	return false, nil
}

// AnnotationFile returns the location of the viewer annotation file for a sample.
func AnnotationFile(sampleRoot string) string {
	return filepath.Join(sampleRoot, filepath.FromSlash(AnnotationPath))
}

func isMarker(name string) bool {
	for _, m := range Markers {
		if name == m {
			return true
		}
	}
	return false
}
