package cropper

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/menta2k/pdfcrop/pkg/assemble"
	"github.com/menta2k/pdfcrop/pkg/mapper"
	"github.com/menta2k/pdfcrop/pkg/processing"
	"github.com/menta2k/pdfcrop/pkg/raster"
	"github.com/menta2k/pdfcrop/pkg/types"
)

// ErrMixedPageSizes is returned by the reject policy when a page does not
// match the reference page size
var ErrMixedPageSizes = errors.New("document has pages of different sizes")

// Policy decides how a crop box is applied to pages whose raster size
// differs from the reference page
type Policy string

const (
	// PolicyProportional rescales the box to each page's dimensions
	PolicyProportional Policy = "proportional"
	// PolicyReject refuses to export documents with mixed page sizes
	PolicyReject Policy = "reject"
)

// Cropper applies one crop box to every page of a document
type Cropper struct {
	processor *processing.Processor
	assembler *assemble.Assembler
	config    CropConfig
}

// CropConfig holds configuration for exporting
type CropConfig struct {
	DPI        float64
	Quality    int
	MixedPages Policy
}

// New creates a new Cropper with default configuration
func New() *Cropper {
	return &Cropper{
		processor: processing.NewProcessor(),
		assembler: assemble.New(),
		config: CropConfig{
			DPI:        raster.DefaultDPI,
			Quality:    processing.DefaultQuality,
			MixedPages: PolicyProportional,
		},
	}
}

// NewWithConfig creates a new Cropper with custom configuration
func NewWithConfig(config CropConfig) *Cropper {
	if config.MixedPages == "" {
		config.MixedPages = PolicyProportional
	}
	return &Cropper{
		processor: processing.NewProcessor(),
		assembler: assemble.New(),
		config:    config,
	}
}

// Config returns the active configuration
func (c *Cropper) Config() CropConfig {
	return c.config
}

// PageResult describes one exported page
type PageResult struct {
	Index  int
	Source types.PageInfo
	Box    image.Rectangle
	Size   image.Point
	Bytes  int
}

// CropResult contains the result of an export
type CropResult struct {
	Pages  []PageResult
	Output string
}

// BoxForPage resolves the crop box drawn against reference for one page
func (c *Cropper) BoxForPage(box types.CropBox, reference, page types.PageInfo) (types.CropBox, error) {
	pw, ph := page.Size()
	if page.Width == reference.Width && page.Height == reference.Height {
		return mapper.ToCropBox(box.Rect, pw, ph)
	}
	switch c.config.MixedPages {
	case PolicyReject:
		return types.CropBox{}, fmt.Errorf("%w: page %d is %dx%d, expected %dx%d",
			ErrMixedPageSizes, page.Index+1, page.Width, page.Height, reference.Width, reference.Height)
	case PolicyProportional:
		rw, rh := reference.Size()
		return mapper.ScaleCropBox(box, rw, rh, pw, ph)
	default:
		return types.CropBox{}, fmt.Errorf("unknown mixed page policy %q", c.config.MixedPages)
	}
}

// CropPages rasterizes, crops and JPEG-encodes every page
func (c *Cropper) CropPages(r raster.Rasterizer, box types.CropBox, reference types.PageInfo) ([][]byte, []PageResult, error) {
	n := r.PageCount()
	encoded := make([][]byte, 0, n)
	results := make([]PageResult, 0, n)

	for i := 0; i < n; i++ {
		img, err := r.RenderPage(i, c.config.DPI)
		if err != nil {
			return nil, nil, err
		}
		bounds := img.Bounds()
		page := types.PageInfo{Index: i, Width: bounds.Dx(), Height: bounds.Dy()}

		pageBox, err := c.BoxForPage(box, reference, page)
		if err != nil {
			return nil, nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		pix := pageBox.Pixels()
		data, size, err := c.processor.CropAndEncode(img, pix, c.config.Quality)
		if err != nil {
			return nil, nil, fmt.Errorf("page %d: %w", i+1, err)
		}

		encoded = append(encoded, data)
		results = append(results, PageResult{
			Index:  i,
			Source: page,
			Box:    pix,
			Size:   size,
			Bytes:  len(data),
		})
	}

	return encoded, results, nil
}

// CropDocument writes the cropped document to w
func (c *Cropper) CropDocument(w io.Writer, r raster.Rasterizer, box types.CropBox, reference types.PageInfo) (CropResult, error) {
	encoded, pages, err := c.CropPages(r, box, reference)
	if err != nil {
		return CropResult{}, err
	}
	if err := c.assembler.Write(w, encoded); err != nil {
		return CropResult{}, err
	}
	return CropResult{Pages: pages}, nil
}

// CropToFile writes the cropped document to path. Nothing is written when
// any page fails.
func (c *Cropper) CropToFile(path string, r raster.Rasterizer, box types.CropBox, reference types.PageInfo) (CropResult, error) {
	encoded, pages, err := c.CropPages(r, box, reference)
	if err != nil {
		return CropResult{}, err
	}
	if err := c.assembler.WriteFile(path, encoded); err != nil {
		return CropResult{}, err
	}
	return CropResult{Pages: pages, Output: path}, nil
}

// CropToBytes returns the cropped document in memory
func (c *Cropper) CropToBytes(r raster.Rasterizer, box types.CropBox, reference types.PageInfo) ([]byte, CropResult, error) {
	var buf bytes.Buffer
	result, err := c.CropDocument(&buf, r, box, reference)
	if err != nil {
		return nil, CropResult{}, err
	}
	return buf.Bytes(), result, nil
}
