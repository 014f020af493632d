package labels

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/medvision/dicom2yolo/internal/annotations"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestProcessNeededFiles(t *testing.T) {
	root := t.TempDir()
	imageDir := filepath.Join(root, "png")
	if err := os.MkdirAll(imageDir, 0755); err != nil {
		t.Fatalf("Failed to create image dir: %v", err)
	}
	writePNG(t, filepath.Join(imageDir, "1.png"), 100, 50)
	writePNG(t, filepath.Join(imageDir, "2.png"), 100, 50)
	writePNG(t, filepath.Join(imageDir, "3.png"), 100, 50)

	set := annotations.NewSet()
	nodule := set.ClassIndex("nodule")
	mass := set.ClassIndex("mass")
	set.Images["1"] = []annotations.Box{
		{Class: nodule, Label: "nodule", CX: 0.5, CY: 0.5, W: 0.25, H: 0.1, Normalized: true},
		{Class: mass, Label: "mass", CX: 0.1, CY: 0.2, W: 0.05, H: 0.05, Normalized: true},
	}
	set.Images["3"] = []annotations.Box{
		{Class: mass, Label: "mass", CX: 50, CY: 25, W: 20, H: 10},
	}
	set.Images["missing"] = []annotations.Box{{Class: nodule, Normalized: true}}

	labelDir, err := NewWriter("", nil).ProcessNeededFiles(imageDir, set)
	if err != nil {
		t.Fatalf("ProcessNeededFiles failed: %v", err)
	}
	if labelDir != filepath.Join(root, "yolo") {
		t.Errorf("Expected label dir next to images, got %s", labelDir)
	}

	got := readFile(t, filepath.Join(labelDir, "1.txt"))
	want := "0 0.500000 0.500000 0.250000 0.100000\n1 0.100000 0.200000 0.050000 0.050000\n"
	if got != want {
		t.Errorf("1.txt:\nExpected:\n%s\nGot:\n%s", want, got)
	}

	got = readFile(t, filepath.Join(labelDir, "3.txt"))
	want = "1 0.500000 0.500000 0.200000 0.200000\n"
	if got != want {
		t.Errorf("3.txt:\nExpected:\n%s\nGot:\n%s", want, got)
	}

	if _, err := os.Stat(filepath.Join(labelDir, "2.txt")); !os.IsNotExist(err) {
		t.Error("Expected no label file for unannotated image")
	}
	if _, err := os.Stat(filepath.Join(labelDir, "missing.txt")); !os.IsNotExist(err) {
		t.Error("Expected no label file for annotation without image")
	}

	if got := readFile(t, filepath.Join(labelDir, ClassesFile)); got != "nodule\nmass\n" {
		t.Errorf("Unexpected classes file %q", got)
	}

	if LabelPath(labelDir, filepath.Join(imageDir, "1.png")) == "" {
		t.Error("Expected label path for 1.png")
	}
	if LabelPath(labelDir, filepath.Join(imageDir, "2.png")) != "" {
		t.Error("Expected no label path for 2.png")
	}
}

func TestProcessNeededFilesClearsStaleLabels(t *testing.T) {
	root := t.TempDir()
	imageDir := filepath.Join(root, "png")
	labelDir := filepath.Join(root, "labels")
	for _, d := range []string{imageDir, labelDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", d, err)
		}
	}
	writePNG(t, filepath.Join(imageDir, "1.png"), 10, 10)
	if err := os.WriteFile(filepath.Join(labelDir, "9.txt"), []byte("0 0.5 0.5 0.1 0.1\n"), 0644); err != nil {
		t.Fatalf("Failed to write stale label: %v", err)
	}

	set := annotations.NewSet()
	set.Images["1"] = []annotations.Box{{Class: set.ClassIndex("a"), CX: 0.5, CY: 0.5, W: 1, H: 1, Normalized: true}}

	got, err := NewWriter("labels", nil).ProcessNeededFiles(imageDir, set)
	if err != nil {
		t.Fatalf("ProcessNeededFiles failed: %v", err)
	}
	if got != labelDir {
		t.Fatalf("Expected %s, got %s", labelDir, got)
	}

	entries, err := os.ReadDir(labelDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if strings.Join(names, ",") != "1.txt,classes.txt" {
		t.Errorf("Unexpected label dir contents: %v", names)
	}
}

func TestProcessNeededFilesRejectsUnreadableImage(t *testing.T) {
	root := t.TempDir()
	imageDir := filepath.Join(root, "png")
	if err := os.MkdirAll(imageDir, 0755); err != nil {
		t.Fatalf("Failed to create image dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(imageDir, "1.png"), []byte("garbage"), 0644); err != nil {
		t.Fatalf("Failed to write image: %v", err)
	}

	set := annotations.NewSet()
	set.Images["1"] = []annotations.Box{{Class: set.ClassIndex("a"), CX: 5, CY: 5, W: 2, H: 2}}

	if _, err := NewWriter("", nil).ProcessNeededFiles(imageDir, set); err == nil {
		t.Error("Expected error when pixel boxes need an unreadable image, got nil")
	}
}
