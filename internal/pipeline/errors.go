package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/medvision/dicom2yolo/internal/rasterize"
	"github.com/medvision/dicom2yolo/internal/sample"
)

// Stable error kinds reported in summaries.
const (
	KindInvalidInput          = "invalid_input"
	KindMissingDicomFolder    = "missing_dicom_folder"
	KindMissingNumericFolder  = "missing_numeric_folder"
	KindMissingAnnotationFile = "missing_annotation_file"
	KindEmptySample           = "empty_sample"
	KindUnsupportedSyntax     = "unsupported_transfer_syntax"
	KindConversion            = "conversion_failed"
	KindCanceled              = "canceled"
	KindUnknown               = "unknown"
)

// Process exit codes, one per error kind.
const (
	ExitOK                    = 0
	ExitGeneric               = 1
	ExitInvalidInput          = 2
	ExitMissingDicomFolder    = 3
	ExitMissingNumericFolder  = 4
	ExitMissingAnnotationFile = 5
	ExitEmptySample           = 6
	ExitConversion            = 7
	ExitCanceled              = 130
)

// ErrConversion marks failures inside a collaborator: annotation parsing,
// rasterization or label writing.
var ErrConversion = errors.New("conversion failed")

var kinds = []struct {
	err  error
	kind string
	code int
}{
	{sample.ErrInvalidInput, KindInvalidInput, ExitInvalidInput},
	{sample.ErrMissingDicomFolder, KindMissingDicomFolder, ExitMissingDicomFolder},
	{sample.ErrMissingNumericFolder, KindMissingNumericFolder, ExitMissingNumericFolder},
	{sample.ErrMissingAnnotationFile, KindMissingAnnotationFile, ExitMissingAnnotationFile},
	{sample.ErrEmptySample, KindEmptySample, ExitEmptySample},
	{context.Canceled, KindCanceled, ExitCanceled},
	{rasterize.ErrUnsupportedTransferSyntax, KindUnsupportedSyntax, ExitConversion},
	{ErrConversion, KindConversion, ExitConversion},
}

// Kind maps an error to its stable kind name.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.code
		}
	}
	return ExitGeneric
}

// BatchError is returned by Run when at least one sample failed. It unwraps
// to the first failure so ExitCode reflects that sample's kind.
type BatchError struct {
	Failed int
	Total  int
	First  error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d of %d samples failed, first: %v", e.Failed, e.Total, e.First)
}

func (e *BatchError) Unwrap() error {
	return e.First
}

func conversionError(stage string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrConversion, stage, err)
}
