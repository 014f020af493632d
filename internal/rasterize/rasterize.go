// Package rasterize renders DICOM instances to PNG files.
package rasterize

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cocosip/go-dicom/pkg/dicom/dataset"
	"github.com/cocosip/go-dicom/pkg/dicom/parser"
	"github.com/cocosip/go-dicom/pkg/dicom/tag"
	"github.com/cocosip/go-dicom/pkg/dicom/transfer"
	dcmimaging "github.com/cocosip/go-dicom/pkg/imaging"
	"github.com/cocosip/go-dicom/pkg/imaging/codec"
	"github.com/disintegration/imaging"
)

const maxObjectSize = 100 * 1024 * 1024

// ErrUnsupportedTransferSyntax is returned when the pixel data is compressed
// with a syntax no registered codec can decode.
var ErrUnsupportedTransferSyntax = errors.New("unsupported transfer syntax")

// Rasterizer decodes the first frame of a DICOM file and writes it as PNG.
type Rasterizer struct {
	// MaxSize bounds the long side of the output image; 0 disables resizing.
	MaxSize int
}

// New creates a rasterizer.
func New(maxSize int) *Rasterizer {
	return &Rasterizer{MaxSize: maxSize}
}

// GenerateImage writes exactly one PNG for rawFile at outImageFile and
// returns the size of the source frame, which may be larger than the PNG.
func (r *Rasterizer) GenerateImage(ctx context.Context, rawFile, outImageFile string) (image.Point, error) {
	if err := ctx.Err(); err != nil {
		return image.Point{}, err
	}

	frame, err := DecodeFrame(rawFile)
	if err != nil {
		return image.Point{}, err
	}

	img, err := frame.Image()
	if err != nil {
		return image.Point{}, fmt.Errorf("failed to render %s: %w", rawFile, err)
	}

	if err := r.WritePNG(img, outImageFile); err != nil {
		return image.Point{}, err
	}
	return image.Pt(frame.Width, frame.Height), nil
}

// WritePNG resizes img if needed and writes it atomically to path.
func (r *Rasterizer) WritePNG(img image.Image, path string) error {
	if r.MaxSize > 0 {
		b := img.Bounds()
		if b.Dx() > r.MaxSize || b.Dy() > r.MaxSize {
			if b.Dx() >= b.Dy() {
				img = imaging.Resize(img, r.MaxSize, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, r.MaxSize, imaging.Lanczos)
			}
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := imaging.Encode(tmp, img, imaging.PNG); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move image into place: %w", err)
	}
	return nil
}

// DecodeFrame parses a DICOM file and returns its first frame in native form.
func DecodeFrame(path string) (Frame, error) {
	res, err := parser.ParseFile(path,
		parser.WithReadOption(parser.ReadAll),
		parser.WithLargeObjectSize(maxObjectSize),
	)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	ds := res.Dataset
	if res.TransferSyntax != nil && res.TransferSyntax.IsEncapsulated() {
		tr := codec.NewTranscoder(res.TransferSyntax, transfer.ExplicitVRLittleEndian)
		native, err := tr.Transcode(ds)
		if err != nil {
			ts := res.TransferSyntax.UID()
			return Frame{}, fmt.Errorf("%w %s (%s) in %s: %w", ErrUnsupportedTransferSyntax, ts.Name(), ts.UID(), path, err)
		}
		ds = native
	}

	pd, err := dcmimaging.CreatePixelData(ds)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to read pixel data of %s: %w", path, err)
	}
	data, err := pd.GetFrame(0)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to read first frame of %s: %w", path, err)
	}

	photometric, _ := ds.GetString(tag.PhotometricInterpretation)
	info := pd.Info
	frame := Frame{
		Width:         int(info.Width),
		Height:        int(info.Height),
		Samples:       int(info.SamplesPerPixel),
		BitsAllocated: int(info.BitsAllocated),
		Signed:        int(info.PixelRepresentation) != 0,
		Invert:        strings.TrimSpace(photometric) == "MONOCHROME1",
		Planar:        int(info.PlanarConfiguration) == 1,
		Data:          data,
	}
	frame.RescaleSlope, _ = decimal(ds, tag.RescaleSlope)
	frame.RescaleIntercept, _ = decimal(ds, tag.RescaleIntercept)
	center, okC := decimal(ds, tag.WindowCenter)
	width, okW := decimal(ds, tag.WindowWidth)
	if okC && okW && width >= 1 {
		frame.Window = &Window{Center: center, Width: width}
	}
	return frame, nil
}

// decimal reads the first value of a DS element.
func decimal(ds *dataset.Dataset, t *tag.Tag) (float64, bool) {
	values, ok := ds.GetStrings(t)
	if !ok || len(values) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(values[0]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
