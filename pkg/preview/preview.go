// Package preview builds the composite image the user draws a crop region on.
//
// Every page is rasterized at the export resolution and laid over the
// previous ones with a fixed opacity, so content from all pages shows
// through and a single region can be chosen that suits the whole document.
package preview

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/menta2k/pdfcrop/pkg/raster"
	"github.com/menta2k/pdfcrop/pkg/types"
)

// DefaultOpacity is the weight of each page after the first
const DefaultOpacity = 0.3

// Config holds configuration for compositing
type Config struct {
	DPI        float64
	Opacity    float64
	Background color.Color
}

// Preview is the blended rendering of a whole document
type Preview struct {
	Image *image.NRGBA
	Pages []types.PageInfo
	DPI   float64
}

// Builder renders previews
type Builder struct {
	config Config
}

// New creates a Builder with default configuration
func New() *Builder {
	return &Builder{
		config: Config{
			DPI:        raster.DefaultDPI,
			Opacity:    DefaultOpacity,
			Background: color.White,
		},
	}
}

// NewWithConfig creates a Builder with custom configuration
func NewWithConfig(config Config) *Builder {
	if config.Background == nil {
		config.Background = color.White
	}
	return &Builder{config: config}
}

// Build rasterizes every page and blends them. The canvas is large enough
// for the biggest page; pages are anchored at the top-left corner. Only one
// page raster is held at a time.
func (b *Builder) Build(r raster.Rasterizer) (*Preview, error) {
	n := r.PageCount()
	if n == 0 {
		return nil, fmt.Errorf("cannot preview a document without pages")
	}

	width, height := 0, 0
	for i := 0; i < n; i++ {
		size, err := raster.PageSize(r, i, b.config.DPI)
		if err != nil {
			return nil, err
		}
		width = max(width, size.X)
		height = max(height, size.Y)
	}

	composite := imaging.New(width, height, b.config.Background)
	pages := make([]types.PageInfo, 0, n)
	for i := 0; i < n; i++ {
		img, err := r.RenderPage(i, b.config.DPI)
		if err != nil {
			return nil, err
		}
		bounds := img.Bounds()
		pages = append(pages, types.PageInfo{Index: i, Width: bounds.Dx(), Height: bounds.Dy()})

		composite = b.fit(composite, bounds.Dx(), bounds.Dy())
		if i == 0 {
			composite = imaging.Paste(composite, img, image.Pt(0, 0))
		} else {
			composite = imaging.Overlay(composite, img, image.Pt(0, 0), b.config.Opacity)
		}
	}

	return &Preview{
		Image: composite,
		Pages: pages,
		DPI:   b.config.DPI,
	}, nil
}

// fit grows the canvas when a page renders larger than its estimated size
func (b *Builder) fit(composite *image.NRGBA, w, h int) *image.NRGBA {
	cb := composite.Bounds()
	if w <= cb.Dx() && h <= cb.Dy() {
		return composite
	}
	grown := imaging.New(max(w, cb.Dx()), max(h, cb.Dy()), b.config.Background)
	return imaging.Paste(grown, composite, image.Pt(0, 0))
}

// Reference returns the page crop boxes are drawn against
func (p *Preview) Reference() types.PageInfo {
	return p.Pages[0]
}

// UniformSize reports whether every page rasterized to the same size
func (p *Preview) UniformSize() bool {
	for _, page := range p.Pages[1:] {
		if page.Width != p.Pages[0].Width || page.Height != p.Pages[0].Height {
			return false
		}
	}
	return true
}

// Bounds returns the composite size
func (p *Preview) Bounds() image.Rectangle {
	return p.Image.Bounds()
}
