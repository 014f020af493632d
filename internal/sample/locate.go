package sample

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Layout is the resolved DICOM folder structure of one sample:
// <root>/DICOM/<study>/<series>/<instances>.
type Layout struct {
	Root      string
	DicomDir  string
	StudyDir  string
	SeriesDir string
	Files     []string
}

// OutputParent is the directory output folders are created in, the parent of
// the series folder.
func (l Layout) OutputParent() string {
	return filepath.Dir(l.SeriesDir)
}

// Locator resolves the viewer's numeric folder layout.
type Locator struct {
	logger *slog.Logger
}

// NewLocator creates a locator that logs folder discovery to logger.
func NewLocator(logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Locator{logger: logger}
}

// FindNumericChild returns the immediate subdirectory of folder whose name is
// purely decimal digits. When several qualify the smallest numeric value wins,
// and equal values (e.g. "007" and "7") fall back to plain string order.
// ok is false when no such directory exists.
func (l *Locator) FindNumericChild(folder string) (path string, ok bool, err error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return "", false, fmt.Errorf("failed to read folder %s: %w", folder, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() && IsNumeric(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", false, nil
	}

	sortNumeric(names)
	path = filepath.Join(folder, names[0])
	if len(names) > 1 {
		l.logger.Debug("multiple numeric folders, picking smallest", "folder", folder, "candidates", names)
	}
	l.logger.Info("found folder", "path", path)
	return path, true, nil
}

// FindDcmFiles returns the instance files of a sample in numeric order.
func (l *Locator) FindDcmFiles(sampleRoot string) ([]string, error) {
	layout, err := l.Locate(sampleRoot)
	if err != nil {
		return nil, err
	}
	return layout.Files, nil
}

// Locate descends DICOM/<study>/<series> and lists the digit-named instance
// files in the series folder. An empty Files slice is not an error here.
func (l *Locator) Locate(sampleRoot string) (Layout, error) {
	layout := Layout{
		Root:     sampleRoot,
		DicomDir: filepath.Join(sampleRoot, DicomDirName),
	}

	info, err := os.Stat(layout.DicomDir)
	if err != nil || !info.IsDir() {
		return layout, fmt.Errorf("%w: %s", ErrMissingDicomFolder, layout.DicomDir)
	}

	study, ok, err := l.FindNumericChild(layout.DicomDir)
	if err != nil {
		return layout, err
	}
	if !ok {
		return layout, fmt.Errorf("%w: no study folder in %s", ErrMissingNumericFolder, layout.DicomDir)
	}
	layout.StudyDir = study

	series, ok, err := l.FindNumericChild(study)
	if err != nil {
		return layout, err
	}
	if !ok {
		return layout, fmt.Errorf("%w: no series folder in %s", ErrMissingNumericFolder, study)
	}
	layout.SeriesDir = series

	entries, err := os.ReadDir(series)
	if err != nil {
		return layout, fmt.Errorf("failed to read series folder %s: %w", series, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && IsNumeric(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sortNumeric(names)

	layout.Files = make([]string, 0, len(names))
	for _, name := range names {
		layout.Files = append(layout.Files, filepath.Join(series, name))
	}
	return layout, nil
}

// IsNumeric reports whether name is one or more ASCII decimal digits.
func IsNumeric(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return false
		}
	}
	return true
}

// sortNumeric orders digit strings by value without parsing them, so names
// longer than an int64 still sort correctly.
func sortNumeric(names []string) {
	sort.Slice(names, func(i, j int) bool {
		return compareNumeric(names[i], names[j]) < 0
	})
}

func compareNumeric(a, b string) int {
	ta := strings.TrimLeft(a, "0")
	tb := strings.TrimLeft(b, "0")
	if len(ta) != len(tb) {
		if len(ta) < len(tb) {
			return -1
		}
		return 1
	}
	if c := strings.Compare(ta, tb); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
