package sample

import "errors"

// Errors reported while discovering and resolving a sample. Callers wrap them
// with path context, so match with errors.Is.
var (
	ErrInvalidInput          = errors.New("not a directory")
	ErrMissingDicomFolder    = errors.New("DICOM folder not found")
	ErrMissingNumericFolder  = errors.New("numeric study/series folder not found")
	ErrMissingAnnotationFile = errors.New("studies.xml annotation file not found")
	ErrEmptySample           = errors.New("no DICOM instance files found")
)
