package sample

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", d, err)
		}
	}
}

func touch(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create parent of %s: %v", f, err)
		}
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to create %s: %v", f, err)
		}
	}
}

func TestIsFullSample(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		dirs     []string
		expected bool
	}{
		{name: "autorun exe", files: []string{"AutoRun.exe"}, expected: true},
		{name: "autorun inf", files: []string{"autorun.inf"}, expected: true},
		{name: "help folder", dirs: []string{"PersianGulf_Help"}, expected: true},
		{name: "marker among other entries", files: []string{"readme.txt", "autorun.inf"}, dirs: []string{"DICOM"}, expected: true},
		{name: "case sensitive", files: []string{"autorun.exe", "AUTORUN.INF"}, expected: false},
		{name: "no markers", files: []string{"readme.txt"}, dirs: []string{"DICOM", "CDViewer"}, expected: false},
		{name: "empty folder", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			touch(t, root, tt.files...)
			mkdirs(t, root, tt.dirs...)

			got, err := IsFullSample(root)
			if err != nil {
				t.Fatalf("IsFullSample failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestIsFullSampleRejectsNonDirectory(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "file.txt")

	for _, path := range []string{filepath.Join(root, "file.txt"), filepath.Join(root, "missing")} {
		_, err := IsFullSample(path)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput for %s, got %v", path, err)
		}
	}
}

func TestFindNumericChild(t *testing.T) {
	tests := []struct {
		name     string
		dirs     []string
		files    []string
		expected string
		ok       bool
	}{
		{name: "single numeric folder", dirs: []string{"20182124"}, expected: "20182124", ok: true},
		{name: "none numeric", dirs: []string{"abc", "12a", "a12"}, ok: false},
		{name: "empty", ok: false},
		{name: "smallest value wins", dirs: []string{"200", "31", "1000"}, expected: "31", ok: true},
		{name: "leading zeros compare by value", dirs: []string{"10", "009"}, expected: "009", ok: true},
		{name: "equal value falls back to string order", dirs: []string{"7", "007"}, expected: "007", ok: true},
		{name: "numeric files are ignored", dirs: []string{"50"}, files: []string{"1"}, expected: "50", ok: true},
		{name: "longer than int64", dirs: []string{"123456789012345678901234567890", "99"}, expected: "99", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			mkdirs(t, root, tt.dirs...)
			touch(t, root, tt.files...)

			got, ok, err := NewLocator(nil).FindNumericChild(root)
			if err != nil {
				t.Fatalf("FindNumericChild failed: %v", err)
			}
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && got != filepath.Join(root, tt.expected) {
				t.Errorf("Expected %s, got %s", tt.expected, filepath.Base(got))
			}
		})
	}
}

func TestFindDcmFiles(t *testing.T) {
	root := t.TempDir()
	series := filepath.Join("DICOM", "20182124", "13123")
	touch(t, root,
		filepath.Join(series, "10"),
		filepath.Join(series, "2"),
		filepath.Join(series, "1"),
		filepath.Join(series, "DICOMDIR"),
		filepath.Join(series, "3.dcm"),
	)
	mkdirs(t, root, filepath.Join(series, "99"))

	files, err := NewLocator(nil).FindDcmFiles(root)
	if err != nil {
		t.Fatalf("FindDcmFiles failed: %v", err)
	}

	dir := filepath.Join(root, series)
	expected := []string{filepath.Join(dir, "1"), filepath.Join(dir, "2"), filepath.Join(dir, "10")}
	if diff := cmp.Diff(expected, files); diff != "" {
		t.Errorf("FindDcmFiles mismatch (-want +got):\n%s", diff)
	}
}

func TestLocateErrors(t *testing.T) {
	tests := []struct {
		name     string
		dirs     []string
		expected error
	}{
		{name: "no DICOM folder", dirs: []string{"CDViewer"}, expected: ErrMissingDicomFolder},
		{name: "no study folder", dirs: []string{"DICOM/abc"}, expected: ErrMissingNumericFolder},
		{name: "no series folder", dirs: []string{"DICOM/123/series"}, expected: ErrMissingNumericFolder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			mkdirs(t, root, tt.dirs...)

			_, err := NewLocator(nil).FindDcmFiles(root)
			if !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestLocateEmptySeries(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "DICOM/1/2")

	layout, err := NewLocator(nil).Locate(root)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if len(layout.Files) != 0 {
		t.Errorf("Expected no files, got %v", layout.Files)
	}
	if layout.OutputParent() != filepath.Join(root, "DICOM", "1") {
		t.Errorf("Unexpected output parent %s", layout.OutputParent())
	}
}

func TestIsNumeric(t *testing.T) {
	cases := map[string]bool{
		"0":     true,
		"12345": true,
		"":      false,
		"12 ":   false,
		"-1":    false,
		"1.0":   false,
		"١٢":    false,
	}
	for in, expected := range cases {
		if got := IsNumeric(in); got != expected {
			t.Errorf("IsNumeric(%q) = %v, expected %v", in, got, expected)
		}
	}
}
