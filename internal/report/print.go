package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// PrintSummary writes a human readable run summary.
func PrintSummary(w io.Writer, s *Summary) {
	fmt.Fprintln(w, "\n========================================")
	fmt.Fprintln(w, "Conversion Summary")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Input:      %s (%s)\n", s.Input, s.Mode)
	fmt.Fprintf(w, "Succeeded:  %d\n", s.Succeeded)
	fmt.Fprintf(w, "Failed:     %d\n", s.Failed)
	fmt.Fprintf(w, "Skipped:    %d\n", s.Skipped)

	for _, r := range s.Results {
		switch r.Outcome {
		case OutcomeProcessed:
			fmt.Fprintf(w, "\n✅ %s\n", r.Sample)
			fmt.Fprintf(w, "  Images: %d -> %s\n", r.Images, r.ImageDir)
			fmt.Fprintf(w, "  Labels: %d -> %s\n", r.Labels, r.LabelDir)
		case OutcomeFailed:
			fmt.Fprintf(w, "\n❌ %s\n", r.Sample)
			fmt.Fprintf(w, "  [%s] %s\n", r.ErrorKind, r.Error)
		}
	}
	fmt.Fprintln(w, "========================================")
}

// SampleStats aggregates manifest rows of one sample.
type SampleStats struct {
	Sample   string `json:"sample"`
	Images   int    `json:"images"`
	Labelled int    `json:"labelled"`
	Boxes    int    `json:"boxes"`
}

// Stats groups manifest rows by sample, sorted by sample path.
func Stats(rows []ManifestRow) []SampleStats {
	bySample := make(map[string]*SampleStats)
	for _, row := range rows {
		st, ok := bySample[row.Sample]
		if !ok {
			st = &SampleStats{Sample: row.Sample}
			bySample[row.Sample] = st
		}
		st.Images++
		if row.Label != "" {
			st.Labelled++
		}
		st.Boxes += int(row.Boxes)
	}

	out := make([]SampleStats, 0, len(bySample))
	for _, st := range bySample {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sample < out[j].Sample })
	return out
}

// PrintManifest renders manifest statistics as text, json or csv.
func PrintManifest(w io.Writer, rows []ManifestRow, format string) error {
	stats := Stats(rows)

	switch format {
	case "text":
		total := SampleStats{}
		for _, st := range stats {
			fmt.Fprintf(w, "%s\n  images=%d labelled=%d boxes=%d\n", st.Sample, st.Images, st.Labelled, st.Boxes)
			total.Images += st.Images
			total.Labelled += st.Labelled
			total.Boxes += st.Boxes
		}
		fmt.Fprintf(w, "\nTotal: samples=%d images=%d labelled=%d boxes=%d\n", len(stats), total.Images, total.Labelled, total.Boxes)
		return nil
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(stats)
	case "csv":
		writer := csv.NewWriter(w)
		if err := writer.Write([]string{"Sample", "Images", "Labelled", "Boxes"}); err != nil {
			return err
		}
		for _, st := range stats {
			row := []string{st.Sample, strconv.Itoa(st.Images), strconv.Itoa(st.Labelled), strconv.Itoa(st.Boxes)}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
		writer.Flush()
		return writer.Error()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
