package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestSummaryAdd(t *testing.T) {
	s := NewSummary("/data", ModeBatch)
	s.Add(SampleResult{Sample: "a", Outcome: OutcomeProcessed})
	s.Add(SampleResult{Sample: "b", Outcome: OutcomeFailed, ErrorKind: "missing_annotation_file"})
	s.Add(SampleResult{Sample: "c", Outcome: OutcomeSkipped})
	s.Add(SampleResult{Sample: "d", Outcome: OutcomeProcessed})

	if s.Succeeded != 2 || s.Failed != 1 || s.Skipped != 1 {
		t.Errorf("Unexpected counters: %+v", s)
	}
	if s.Processed() != 3 {
		t.Errorf("Expected 3 processed, got %d", s.Processed())
	}
	if len(s.Results) != 4 {
		t.Errorf("Expected 4 results, got %d", len(s.Results))
	}
}

func TestSaveYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.yaml")
	s := NewSummary("/data", ModeSingle)
	s.Add(SampleResult{Sample: "/data", Outcome: OutcomeProcessed, Images: 3, Labels: 1, Duration: 2 * time.Second})
	s.Manifest = []ManifestRow{{Sample: "/data", Image: "1.png"}}

	if err := SaveYAML(path, s); err != nil {
		t.Fatalf("SaveYAML failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	if strings.Contains(string(data), "1.png") {
		t.Error("Manifest rows should not be part of the YAML report")
	}

	var got Summary
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("Failed to parse report: %v", err)
	}
	if diff := cmp.Diff(s.Results, got.Results); diff != "" {
		t.Errorf("Results mismatch (-want +got):\n%s", diff)
	}
	if got.Mode != ModeSingle || got.Succeeded != 1 {
		t.Errorf("Unexpected summary header: %+v", got)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.parquet")
	rows := []ManifestRow{
		{Sample: "/a", Source: "/a/DICOM/1/2/1", Image: "/a/DICOM/1/png/1.png", Label: "/a/DICOM/1/yolo/1.txt", Boxes: 2},
		{Sample: "/a", Source: "/a/DICOM/1/2/2", Image: "/a/DICOM/1/png/2.png"},
		{Sample: "/b", Source: "/b/DICOM/1/2/1", Image: "/b/DICOM/1/png/1.png", Label: "/b/DICOM/1/yolo/1.txt", Boxes: 1},
	}

	if err := SaveManifest(path, rows); err != nil {
		t.Fatalf("SaveManifest failed: %v", err)
	}
	got, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if diff := cmp.Diff(rows, got); diff != "" {
		t.Errorf("Manifest mismatch (-want +got):\n%s", diff)
	}
}

func TestStats(t *testing.T) {
	rows := []ManifestRow{
		{Sample: "/b", Label: "x", Boxes: 1},
		{Sample: "/a", Label: "x", Boxes: 2},
		{Sample: "/a"},
	}

	expected := []SampleStats{
		{Sample: "/a", Images: 2, Labelled: 1, Boxes: 2},
		{Sample: "/b", Images: 1, Labelled: 1, Boxes: 1},
	}
	if diff := cmp.Diff(expected, Stats(rows)); diff != "" {
		t.Errorf("Stats mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintManifest(t *testing.T) {
	rows := []ManifestRow{{Sample: "/a", Label: "x", Boxes: 3}}

	tests := []struct {
		format   string
		contains string
	}{
		{format: "text", contains: "Total: samples=1 images=1 labelled=1 boxes=3"},
		{format: "json", contains: `"boxes": 3`},
		{format: "csv", contains: "/a,1,1,3"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := PrintManifest(&buf, rows, tt.format); err != nil {
				t.Fatalf("PrintManifest failed: %v", err)
			}
			if !strings.Contains(buf.String(), tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, buf.String())
			}
		})
	}

	if err := PrintManifest(&bytes.Buffer{}, rows, "xml"); err == nil {
		t.Error("Expected error for unsupported format, got nil")
	}
}

func TestPrintSummary(t *testing.T) {
	s := NewSummary("/data", ModeBatch)
	s.Add(SampleResult{Sample: "/data/A", Outcome: OutcomeProcessed, Images: 3})
	s.Add(SampleResult{Sample: "/data/B", Outcome: OutcomeFailed, ErrorKind: "missing_annotation_file", Error: "boom"})

	var buf bytes.Buffer
	PrintSummary(&buf, s)
	out := buf.String()
	for _, want := range []string{"Succeeded:  1", "Failed:     1", "[missing_annotation_file] boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected summary to contain %q, got:\n%s", want, out)
		}
	}
}
