// Package report records the outcome of a conversion run.
package report

import (
	"time"
)

// Outcome of one batch entry.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// Mode records how the input path was interpreted.
type Mode string

const (
	ModeSingle Mode = "single"
	ModeBatch  Mode = "batch"
)

// SampleResult is the outcome for one sample or skipped batch entry.
type SampleResult struct {
	Sample    string        `yaml:"sample"`
	Outcome   Outcome       `yaml:"outcome"`
	ErrorKind string        `yaml:"errorkind,omitempty"`
	Error     string        `yaml:"error,omitempty"`
	Reason    string        `yaml:"reason,omitempty"`
	ImageDir  string        `yaml:"imagedir,omitempty"`
	LabelDir  string        `yaml:"labeldir,omitempty"`
	Images    int           `yaml:"images"`
	Labels    int           `yaml:"labels"`
	Duration  time.Duration `yaml:"duration"`
}

// Summary aggregates a run.
type Summary struct {
	Input     string         `yaml:"input"`
	Mode      Mode           `yaml:"mode"`
	StartedAt time.Time      `yaml:"startedat"`
	Succeeded int            `yaml:"succeeded"`
	Failed    int            `yaml:"failed"`
	Skipped   int            `yaml:"skipped"`
	Results   []SampleResult `yaml:"results"`

	// Manifest has one row per rendered image of every processed sample.
	Manifest []ManifestRow `yaml:"-"`
}

// NewSummary starts a summary for input.
func NewSummary(input string, mode Mode) *Summary {
	return &Summary{
		Input:     input,
		Mode:      mode,
		StartedAt: time.Now(),
	}
}

// Add records a result and updates the counters.
func (s *Summary) Add(r SampleResult) {
	switch r.Outcome {
	case OutcomeProcessed:
		s.Succeeded++
	case OutcomeFailed:
		s.Failed++
	case OutcomeSkipped:
		s.Skipped++
	}
	s.Results = append(s.Results, r)
}

// Processed returns the number of samples that were attempted.
func (s *Summary) Processed() int {
	return s.Succeeded + s.Failed
}
