// Package annotations reads the CDViewer studies.xml export and reduces every
// drawn shape to a labelled bounding box.
package annotations

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
)

// Box is an axis-aligned bounding box in YOLO centre/size form. When
// Normalized is false the values are in pixels of the source image.
type Box struct {
	Class      int
	Label      string
	CX         float64
	CY         float64
	W          float64
	H          float64
	Normalized bool
}

// Set holds the boxes of every annotated image, keyed by instance file name.
type Set struct {
	Classes []string
	Images  map[string][]Box
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{Images: make(map[string][]Box)}
}

// ClassIndex returns the index of label, registering it when first seen.
func (s *Set) ClassIndex(label string) int {
	for i, c := range s.Classes {
		if c == label {
			return i
		}
	}
	s.Classes = append(s.Classes, label)
	return len(s.Classes) - 1
}

// Boxes returns the boxes recorded for an instance.
func (s *Set) Boxes(instance string) []Box {
	if s == nil {
		return nil
	}
	return s.Images[instance]
}

// NormalizeImage scales the pixel-space boxes of instance against the size of
// its source image. Boxes already in [0,1] are left alone.
func (s *Set) NormalizeImage(instance string, width, height int) {
	if s == nil || width <= 0 || height <= 0 {
		return
	}
	boxes := s.Images[instance]
	for i, b := range boxes {
		boxes[i] = b.Normalize(float64(width), float64(height))
	}
}

// Len is the total number of boxes.
func (s *Set) Len() int {
	n := 0
	for _, boxes := range s.Images {
		n += len(boxes)
	}
	return n
}

type studiesXML struct {
	XMLName xml.Name   `xml:"Studies"`
	Studies []studyXML `xml:"Study"`
}

type studyXML struct {
	UID    string      `xml:"UID,attr"`
	Series []seriesXML `xml:"Series"`
}

type seriesXML struct {
	UID    string     `xml:"UID,attr"`
	Number string     `xml:"Number,attr"`
	Images []imageXML `xml:"Image"`
}

type imageXML struct {
	File        string          `xml:"File,attr"`
	Width       float64         `xml:"Width,attr"`
	Height      float64         `xml:"Height,attr"`
	Annotations []annotationXML `xml:"Annotation"`
}

type annotationXML struct {
	Type   string     `xml:"Type,attr"`
	Label  string     `xml:"Label,attr"`
	Points []pointXML `xml:"Point"`
}

type pointXML struct {
	X float64 `xml:"X,attr"`
	Y float64 `xml:"Y,attr"`
}

// Reader parses studies.xml files.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a reader that reports dropped annotations to logger.
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reader{logger: logger}
}

// ReadAnnotations parses xmlPath. With normalize set, boxes of images that
// declare their Width and Height are scaled into [0,1].
func (r *Reader) ReadAnnotations(xmlPath string, normalize bool) (*Set, error) {
	data, err := os.ReadFile(xmlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotations: %w", err)
	}

	var doc studiesXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse annotations %s: %w", xmlPath, err)
	}

	set := NewSet()
	for _, study := range doc.Studies {
		for _, series := range study.Series {
			for _, img := range series.Images {
				name := strings.TrimSpace(img.File)
				if name == "" {
					r.logger.Debug("Skipping image without file reference", "study", study.UID, "series", series.UID)
					continue
				}
				for _, ann := range img.Annotations {
					box, ok := r.toBox(set, img, ann, normalize)
					if !ok {
						continue
					}
					set.Images[name] = append(set.Images[name], box)
				}
			}
		}
	}

	r.logger.Debug("Annotations parsed", "path", xmlPath, "images", len(set.Images), "boxes", set.Len(), "classes", len(set.Classes))
	return set, nil
}

func (r *Reader) toBox(set *Set, img imageXML, ann annotationXML, normalize bool) (Box, bool) {
	label := strings.TrimSpace(ann.Label)
	if label == "" {
		r.logger.Debug("Dropping annotation without label", "image", img.File, "type", ann.Type)
		return Box{}, false
	}
	if len(ann.Points) < 2 {
		r.logger.Debug("Dropping annotation with too few points", "image", img.File, "type", ann.Type, "points", len(ann.Points))
		return Box{}, false
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range ann.Points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	if maxX == minX || maxY == minY {
		r.logger.Debug("Dropping degenerate annotation", "image", img.File, "type", ann.Type)
		return Box{}, false
	}

	box := Box{
		Class: set.ClassIndex(label),
		Label: label,
		CX:    (minX + maxX) / 2,
		CY:    (minY + maxY) / 2,
		W:     maxX - minX,
		H:     maxY - minY,
	}
	if normalize && img.Width > 0 && img.Height > 0 {
		box = box.Normalize(img.Width, img.Height)
	}
	return box, true
}

// Normalize scales a pixel box by the image size, clipping it to the image.
// Already normalized boxes are returned unchanged.
func (b Box) Normalize(width, height float64) Box {
	if b.Normalized || width <= 0 || height <= 0 {
		return b
	}
	x0 := clamp((b.CX-b.W/2)/width, 0, 1)
	x1 := clamp((b.CX+b.W/2)/width, 0, 1)
	y0 := clamp((b.CY-b.H/2)/height, 0, 1)
	y1 := clamp((b.CY+b.H/2)/height, 0, 1)

	b.CX = (x0 + x1) / 2
	b.CY = (y0 + y1) / 2
	b.W = x1 - x0
	b.H = y1 - y0
	b.Normalized = true
	return b
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
