// Package mapper turns a drag gesture drawn over a zoomed preview into a
// crop box in rasterization-pixel space.
package mapper

import (
	"errors"
	"fmt"

	"github.com/menta2k/pdfcrop/pkg/types"
)

var (
	// ErrInvalidCropRegion is returned when a rectangle clamps to zero width or height
	ErrInvalidCropRegion = errors.New("invalid crop region")
	// ErrNoGesture is returned by Update and End when no drag is in progress
	ErrNoGesture = errors.New("no gesture in progress")
)

// State of the gesture state machine
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// Mapper tracks a single press-drag-release gesture.
// The zero value is ready to use.
type Mapper struct {
	state  State
	anchor types.Point
	last   types.Rect
	done   bool
}

// New creates an idle Mapper
func New() *Mapper {
	return &Mapper{}
}

// State returns the current gesture state
func (m *Mapper) State() State {
	return m.state
}

// Begin records the anchor of a new gesture. Points outside the preview are
// accepted and clamped later by ToCropBox. Any previously finished
// rectangle is discarded.
func (m *Mapper) Begin(p types.Point) {
	m.state = Dragging
	m.anchor = p
	m.last = types.RectFromPoints(p, p)
	m.done = false
}

// Update returns the normalized rectangle between the anchor and p.
func (m *Mapper) Update(p types.Point) (types.Rect, error) {
	if m.state != Dragging {
		return types.Rect{}, ErrNoGesture
	}
	m.last = types.RectFromPoints(m.anchor, p)
	return m.last, nil
}

// End finalizes the rectangle. Update fails until the next Begin.
func (m *Mapper) End(p types.Point) (types.Rect, error) {
	r, err := m.Update(p)
	if err != nil {
		return types.Rect{}, err
	}
	m.state = Idle
	m.done = true
	return r, nil
}

// Rect returns the last finalized rectangle
func (m *Mapper) Rect() (types.Rect, bool) {
	return m.last, m.done
}

// Current returns the rectangle being drawn, if a drag is in progress
func (m *Mapper) Current() (types.Rect, bool) {
	return m.last, m.state == Dragging
}

// Reset drops any gesture and finalized rectangle
func (m *Mapper) Reset() {
	*m = Mapper{}
}

// ToCropBox clamps r to [0,pageWidth]x[0,pageHeight].
func ToCropBox(r types.Rect, pageWidth, pageHeight float64) (types.CropBox, error) {
	c := types.Rect{
		MinX: clamp(r.MinX, 0, pageWidth),
		MinY: clamp(r.MinY, 0, pageHeight),
		MaxX: clamp(r.MaxX, 0, pageWidth),
		MaxY: clamp(r.MaxY, 0, pageHeight),
	}
	if c.Empty() {
		return types.CropBox{}, fmt.Errorf("%w: %s on %.0fx%.0f page", ErrInvalidCropRegion, r, pageWidth, pageHeight)
	}
	box := types.CropBox{Rect: c}
	// Rounding can still collapse a sub-pixel box.
	if box.Pixels().Empty() {
		return types.CropBox{}, fmt.Errorf("%w: %s is smaller than one pixel", ErrInvalidCropRegion, c)
	}
	return box, nil
}

// ScaleCropBox recomputes a box defined on a fromW x fromH page for a page of
// toW x toH, keeping its position and size proportional.
func ScaleCropBox(box types.CropBox, fromW, fromH, toW, toH float64) (types.CropBox, error) {
	if fromW <= 0 || fromH <= 0 {
		return types.CropBox{}, fmt.Errorf("%w: reference page is %.0fx%.0f", ErrInvalidCropRegion, fromW, fromH)
	}
	sx, sy := toW/fromW, toH/fromH
	return ToCropBox(types.Rect{
		MinX: box.MinX * sx,
		MinY: box.MinY * sy,
		MaxX: box.MaxX * sx,
		MaxY: box.MaxY * sy,
	}, toW, toH)
}

// FromView maps a point on a zoomed display back to preview space
func FromView(viewX, viewY, zoom float64) types.Point {
	if zoom <= 0 {
		zoom = 1
	}
	return types.Point{X: viewX / zoom, Y: viewY / zoom}
}

// ToView maps a preview-space point onto a display zoomed by zoom
func ToView(p types.Point, zoom float64) (float64, float64) {
	return p.X * zoom, p.Y * zoom
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
