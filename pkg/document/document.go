package document

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/menta2k/pdfcrop/pkg/raster"
	"github.com/menta2k/pdfcrop/pkg/types"
)

var (
	// ErrOpen wraps every failure to load a source document
	ErrOpen = errors.New("failed to open PDF")
	// ErrEmpty is returned for documents without pages
	ErrEmpty = errors.New("document has no pages")
)

// Loader opens and validates source PDFs
type Loader struct {
	config Config
}

// Config holds configuration for the loader
type Config struct {
	Validate bool
	MaxPages int
}

// New creates a Loader that validates input with pdfcpu
func New() *Loader {
	return &Loader{
		config: Config{
			Validate: true,
			MaxPages: 0,
		},
	}
}

// NewWithConfig creates a Loader with custom configuration
func NewWithConfig(config Config) *Loader {
	return &Loader{config: config}
}

// Document is an open source PDF
type Document struct {
	Path string
	Name string

	rasterizer raster.Rasterizer
	pointSizes [][2]float64
}

// Info contains basic document metadata
type Info struct {
	Name      string
	PageCount int
	// UniformSize is false when pages have different dimensions
	UniformSize bool
}

// Open validates the file and opens it for rendering
func (l *Loader) Open(path string) (*Document, error) {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return nil, fmt.Errorf("%w: %s is not a .pdf file", ErrOpen, path)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}

	var sizes [][2]float64
	if l.config.Validate {
		conf := model.NewDefaultConfiguration()
		conf.ValidationMode = model.ValidationRelaxed
		if err := api.ValidateFile(path, conf); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOpen, err)
		}
		dims, err := api.PageDimsFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOpen, err)
		}
		for _, d := range dims {
			sizes = append(sizes, [2]float64{d.Width, d.Height})
		}
	}

	r, err := raster.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}

	doc := &Document{
		Path:       path,
		Name:       strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		rasterizer: r,
		pointSizes: sizes,
	}
	if err := l.validate(doc); err != nil {
		doc.Close()
		return nil, err
	}
	return doc, nil
}

// FromRasterizer wraps an already open rasterizer, such as raster.Static
func (l *Loader) FromRasterizer(name string, r raster.Rasterizer) (*Document, error) {
	doc := &Document{Name: name, rasterizer: r}
	if err := l.validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (l *Loader) validate(doc *Document) error {
	n := doc.PageCount()
	if n == 0 {
		return fmt.Errorf("%w: %w", ErrOpen, ErrEmpty)
	}
	if l.config.MaxPages > 0 && n > l.config.MaxPages {
		return fmt.Errorf("%w: %d pages exceeds the limit of %d", ErrOpen, n, l.config.MaxPages)
	}
	return nil
}

// Rasterizer returns the page renderer
func (d *Document) Rasterizer() raster.Rasterizer {
	return d.rasterizer
}

// PageCount returns the number of pages
func (d *Document) PageCount() int {
	if d.rasterizer == nil {
		return 0
	}
	return d.rasterizer.PageCount()
}

// PageSizes estimates the raster size of each page at dpi from the page
// dimensions reported by pdfcpu. It returns nil when validation was skipped.
func (d *Document) PageSizes(dpi float64) []types.PageInfo {
	if len(d.pointSizes) == 0 {
		return nil
	}
	scale := raster.Scale(dpi)
	pages := make([]types.PageInfo, len(d.pointSizes))
	for i, s := range d.pointSizes {
		pages[i] = types.PageInfo{
			Index:  i,
			Width:  int(math.Round(s[0] * scale)),
			Height: int(math.Round(s[1] * scale)),
		}
	}
	return pages
}

// GetInfo returns basic information about the document
func (d *Document) GetInfo() Info {
	info := Info{
		Name:        d.Name,
		PageCount:   d.PageCount(),
		UniformSize: true,
	}
	for _, s := range d.pointSizes {
		if s != d.pointSizes[0] {
			info.UniformSize = false
			break
		}
	}
	return info
}

// Close releases the underlying renderer
func (d *Document) Close() error {
	if d.rasterizer == nil {
		return nil
	}
	err := d.rasterizer.Close()
	d.rasterizer = nil
	return err
}
