package types

import (
	"fmt"
	"image"
	"math"
)

// Point is a position in preview (rasterization) space
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle with Min <= Max on both axes
type Rect struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// RectFromPoints returns the normalized rectangle spanned by two corners,
// whatever order they were given in.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		MinX: math.Min(a.X, b.X),
		MinY: math.Min(a.Y, b.Y),
		MaxX: math.Max(a.X, b.X),
		MaxY: math.Max(a.Y, b.Y),
	}
}

// Width of the rectangle
func (r Rect) Width() float64 {
	return r.MaxX - r.MinX
}

// Height of the rectangle
func (r Rect) Height() float64 {
	return r.MaxY - r.MinY
}

// Empty reports whether the rectangle has no area
func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

func (r Rect) String() string {
	return fmt.Sprintf("(%.1f,%.1f)-(%.1f,%.1f)", r.MinX, r.MinY, r.MaxX, r.MaxY)
}

// CropBox is a validated crop rectangle in rasterization-pixel coordinates.
// It is applied identically to every page of a document.
type CropBox struct {
	Rect
}

// Pixels rounds each edge to the nearest whole pixel.
func (b CropBox) Pixels() image.Rectangle {
	return image.Rect(
		int(math.Round(b.MinX)),
		int(math.Round(b.MinY)),
		int(math.Round(b.MaxX)),
		int(math.Round(b.MaxY)),
	)
}

// PageInfo describes one rasterized page
type PageInfo struct {
	Index  int `json:"index"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Size returns the page raster dimensions as floats
func (p PageInfo) Size() (float64, float64) {
	return float64(p.Width), float64(p.Height)
}

// OutputFormat is an image format used for debug artifacts
type OutputFormat string

const (
	FormatJPEG OutputFormat = "jpg"
	FormatPNG  OutputFormat = "png"
	FormatWebP OutputFormat = "webp"
)
