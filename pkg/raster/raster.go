// Package raster renders PDF pages to pixel images.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
)

// BaseDPI is the resolution at which one PDF point equals one pixel
const BaseDPI = 72.0

// DefaultDPI is the rasterization resolution used for preview and export
const DefaultDPI = 300.0

// ErrPageRange is returned for page numbers outside the document
var ErrPageRange = errors.New("page number out of range")

// Rasterizer turns document pages into images
type Rasterizer interface {
	PageCount() int
	RenderPage(page int, dpi float64) (*image.RGBA, error)
	Close() error
}

// Sizer reports the raster size of a page without rendering it
type Sizer interface {
	PageSize(page int, dpi float64) (image.Point, error)
}

// PageSize returns the raster size of page at dpi. Rasterizers that are not
// a Sizer render the page and the image is dropped straight away.
func PageSize(r Rasterizer, page int, dpi float64) (image.Point, error) {
	if s, ok := r.(Sizer); ok {
		return s.PageSize(page, dpi)
	}
	img, err := r.RenderPage(page, dpi)
	if err != nil {
		return image.Point{}, err
	}
	return img.Bounds().Size(), nil
}

// Scale converts a DPI into the zoom factor applied to page geometry
func Scale(dpi float64) float64 {
	return dpi / BaseDPI
}

// Document is a PDF opened through MuPDF
type Document struct {
	doc *fitz.Document
}

// Open loads a PDF file for rendering
func Open(path string) (*Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &Document{doc: doc}, nil
}

// OpenBytes loads a PDF held in memory
func OpenBytes(data []byte) (*Document, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	return &Document{doc: doc}, nil
}

// PageCount returns the number of pages
func (d *Document) PageCount() int {
	return d.doc.NumPage()
}

// RenderPage renders a zero-based page at the requested DPI
func (d *Document) RenderPage(page int, dpi float64) (*image.RGBA, error) {
	if page < 0 || page >= d.PageCount() {
		return nil, fmt.Errorf("%w: %d (0-%d)", ErrPageRange, page, d.PageCount()-1)
	}
	img, err := d.doc.ImageDPI(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page+1, err)
	}
	return img, nil
}

// PageBounds returns the page size in points
func (d *Document) PageBounds(page int) (image.Rectangle, error) {
	if page < 0 || page >= d.PageCount() {
		return image.Rectangle{}, fmt.Errorf("%w: %d", ErrPageRange, page)
	}
	return d.doc.Bound(page)
}

// PageSize estimates the raster size from the page bounds. The bounds are
// whole points, so the result can be a pixel off the rendered image.
func (d *Document) PageSize(page int, dpi float64) (image.Point, error) {
	b, err := d.PageBounds(page)
	if err != nil {
		return image.Point{}, err
	}
	scale := Scale(dpi)
	return image.Pt(int(math.Ceil(float64(b.Dx())*scale)), int(math.Ceil(float64(b.Dy())*scale))), nil
}

// Close releases the MuPDF context
func (d *Document) Close() error {
	return d.doc.Close()
}

// Static serves pre-rendered pages. Each page image is taken to be its
// BaseDPI rendering and is resized for other resolutions.
type Static struct {
	pages []image.Image
}

// NewStatic creates a Rasterizer over in-memory page images
func NewStatic(pages ...image.Image) *Static {
	return &Static{pages: pages}
}

// PageCount returns the number of pages
func (s *Static) PageCount() int {
	return len(s.pages)
}

// RenderPage returns the page scaled to dpi
func (s *Static) RenderPage(page int, dpi float64) (*image.RGBA, error) {
	if page < 0 || page >= len(s.pages) {
		return nil, fmt.Errorf("%w: %d (0-%d)", ErrPageRange, page, len(s.pages)-1)
	}
	src := s.pages[page]
	if Scale(dpi) != 1 {
		size := s.scaled(page, dpi)
		src = imaging.Resize(src, size.X, size.Y, imaging.NearestNeighbor)
	}
	return toRGBA(src), nil
}

// PageSize returns the size RenderPage produces
func (s *Static) PageSize(page int, dpi float64) (image.Point, error) {
	if page < 0 || page >= len(s.pages) {
		return image.Point{}, fmt.Errorf("%w: %d (0-%d)", ErrPageRange, page, len(s.pages)-1)
	}
	return s.scaled(page, dpi), nil
}

func (s *Static) scaled(page int, dpi float64) image.Point {
	b := s.pages[page].Bounds()
	scale := Scale(dpi)
	return image.Pt(int(math.Round(float64(b.Dx())*scale)), int(math.Round(float64(b.Dy())*scale)))
}

// Close is a no-op
func (s *Static) Close() error {
	return nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
