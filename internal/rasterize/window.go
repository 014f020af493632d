package rasterize

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
)

// ErrUnsupportedPixelFormat is returned for sample layouts the windowing
// code does not handle.
var ErrUnsupportedPixelFormat = errors.New("unsupported pixel format")

// Window is a VOI linear window in modality units.
type Window struct {
	Center float64
	Width  float64
}

// Frame is one decoded, native (uncompressed little endian) image frame.
type Frame struct {
	Width         int
	Height        int
	Samples       int
	BitsAllocated int
	Signed        bool
	// Invert is set for MONOCHROME1, where low values render white.
	Invert bool
	// Planar is set when colour samples are stored plane by plane.
	Planar bool

	// RescaleSlope and RescaleIntercept map stored values to modality
	// units. A zero slope means no rescale.
	RescaleSlope     float64
	RescaleIntercept float64
	// Window is applied when set; otherwise the frame is stretched from its
	// min to its max.
	Window *Window

	Data []byte
}

// Image converts the frame to an 8-bit image. Grayscale frames are windowed
// linearly onto 0..255.
func (f Frame) Image() (image.Image, error) {
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", f.Width, f.Height)
	}

	switch {
	case f.Samples == 3 && f.BitsAllocated == 8:
		return f.rgb()
	case f.Samples <= 1 && (f.BitsAllocated == 8 || f.BitsAllocated == 16):
		return f.gray()
	default:
		return nil, fmt.Errorf("%w: samples=%d bits=%d", ErrUnsupportedPixelFormat, f.Samples, f.BitsAllocated)
	}
}

func (f Frame) gray() (image.Image, error) {
	n := f.Width * f.Height
	bytesPer := f.BitsAllocated / 8
	if len(f.Data) < n*bytesPer {
		return nil, fmt.Errorf("frame data too short: have %d bytes, need %d", len(f.Data), n*bytesPer)
	}

	slope := f.RescaleSlope
	if slope == 0 {
		slope = 1
	}

	values := make([]float64, n)
	for i := 0; i < n; i++ {
		var v int32
		if bytesPer == 2 {
			u := binary.LittleEndian.Uint16(f.Data[i*2:])
			if f.Signed {
				v = int32(int16(u))
			} else {
				v = int32(u)
			}
		} else {
			if f.Signed {
				v = int32(int8(f.Data[i]))
			} else {
				v = int32(f.Data[i])
			}
		}
		values[i] = float64(v)*slope + f.RescaleIntercept
	}

	lut := f.minMax(values)
	if f.Window != nil && f.Window.Width >= 1 {
		lut = f.Window.level
	}

	img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	for i, v := range values {
		l := lut(v)
		if f.Invert {
			l = 1 - l
		}
		img.Pix[i] = uint8(l*255 + 0.5)
	}
	return img, nil
}

func (f Frame) minMax(values []float64) func(float64) float64 {
	minv, maxv := values[0], values[0]
	for _, v := range values {
		if v < minv {
			minv = v
		}
		if v > maxv {
			maxv = v
		}
	}
	scale := maxv - minv
	if scale == 0 {
		scale = 1
	}
	return func(v float64) float64 {
		return (v - minv) / scale
	}
}

// level maps a modality value into [0,1] with the DICOM linear VOI function.
func (w *Window) level(v float64) float64 {
	lo := w.Center - 0.5 - (w.Width-1)/2
	hi := w.Center - 0.5 + (w.Width-1)/2
	switch {
	case v <= lo:
		return 0
	case v > hi:
		return 1
	default:
		return (v-(w.Center-0.5))/(w.Width-1) + 0.5
	}
}

func (f Frame) rgb() (image.Image, error) {
	n := f.Width * f.Height
	if len(f.Data) < n*3 {
		return nil, fmt.Errorf("frame data too short: have %d bytes, need %d", len(f.Data), n*3)
	}
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i := 0; i < n; i++ {
		var c color.NRGBA
		if f.Planar {
			c = color.NRGBA{R: f.Data[i], G: f.Data[n+i], B: f.Data[2*n+i], A: 0xff}
		} else {
			c = color.NRGBA{R: f.Data[i*3], G: f.Data[i*3+1], B: f.Data[i*3+2], A: 0xff}
		}
		img.SetNRGBA(i%f.Width, i/f.Width, c)
	}
	return img, nil
}
