// Package pdfcrop crops every page of a PDF to a region drawn over a preview.
//
// A Session owns one open document at a time. Opening a document renders a
// composite preview of all pages at the export resolution; the user draws a
// rectangle over it with Begin/Update/End (in preview coordinates, after
// undoing any display zoom); Export rasterizes each page, crops it to that
// rectangle, re-encodes it as JPEG and writes a new PDF with one image per
// page.
//
// Basic usage:
//
//	s := pdfcrop.New()
//	if err := s.Open("report.pdf"); err != nil {
//		log.Fatal(err)
//	}
//	s.Begin(types.Point{X: 100, Y: 100})
//	if _, err := s.End(types.Point{X: 500, Y: 400}); err != nil {
//		log.Fatal(err)
//	}
//	result, err := s.Export(s.DefaultOutputPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("wrote %d pages to %s\n", len(result.Pages), result.Output)
//
// Export consumes the crop region: afterwards the session is empty again,
// whether or not the export succeeded.
package pdfcrop

import (
	"errors"
	"fmt"
	"image"

	"github.com/menta2k/pdfcrop/internal/config"
	"github.com/menta2k/pdfcrop/internal/utils"
	"github.com/menta2k/pdfcrop/pkg/cropper"
	"github.com/menta2k/pdfcrop/pkg/document"
	"github.com/menta2k/pdfcrop/pkg/mapper"
	"github.com/menta2k/pdfcrop/pkg/preview"
	"github.com/menta2k/pdfcrop/pkg/processing"
	"github.com/menta2k/pdfcrop/pkg/raster"
	"github.com/menta2k/pdfcrop/pkg/types"
)

// Version of the pdfcrop library
const Version = "1.0.0"

var (
	// ErrNoDocument is returned when an operation needs an open document
	ErrNoDocument = errors.New("no PDF loaded")
	// ErrNoCropRegion is returned when exporting before a region was drawn
	ErrNoCropRegion = errors.New("no crop area selected")
)

// Session ties an open document to the crop gesture drawn over its preview
type Session struct {
	loader    *document.Loader
	builder   *preview.Builder
	cropper   *cropper.Cropper
	processor *processing.Processor
	gesture   *mapper.Mapper
	suffix    string

	doc     *document.Document
	preview *preview.Preview
}

// New creates a Session with default configuration
func New() *Session {
	s, _ := NewFromConfig(config.Default())
	return s
}

// NewFromConfig creates a Session from application configuration
func NewFromConfig(cfg *config.Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &Session{
		loader: document.NewWithConfig(document.Config{
			Validate: cfg.Export.ValidateInput,
			MaxPages: cfg.Export.MaxPages,
		}),
		builder: preview.NewWithConfig(preview.Config{
			DPI:     cfg.Render.DPI,
			Opacity: cfg.Preview.Opacity,
		}),
		cropper: cropper.NewWithConfig(cropper.CropConfig{
			DPI:        cfg.Render.DPI,
			Quality:    cfg.Export.Quality,
			MixedPages: cropper.Policy(cfg.Export.MixedPages),
		}),
		processor: processing.NewProcessor(),
		gesture:   mapper.New(),
		suffix:    cfg.Output.Suffix,
	}, nil
}

// Open loads a PDF and renders its preview, replacing any open document
func (s *Session) Open(path string) error {
	doc, err := s.loader.Open(path)
	if err != nil {
		return err
	}
	return s.attach(doc)
}

// OpenRasterizer uses an already open rasterizer as the document
func (s *Session) OpenRasterizer(name string, r raster.Rasterizer) error {
	doc, err := s.loader.FromRasterizer(name, r)
	if err != nil {
		return err
	}
	return s.attach(doc)
}

func (s *Session) attach(doc *document.Document) error {
	p, err := s.builder.Build(doc.Rasterizer())
	if err != nil {
		doc.Close()
		return fmt.Errorf("%w: %w", document.ErrOpen, err)
	}
	s.Clear()
	s.doc = doc
	s.preview = p
	return nil
}

// Document returns the open document, or nil
func (s *Session) Document() *document.Document {
	return s.doc
}

// Preview returns the composite preview of the open document, or nil
func (s *Session) Preview() *preview.Preview {
	return s.preview
}

// Begin starts a crop gesture at p, discarding any earlier region
func (s *Session) Begin(p types.Point) {
	s.gesture.Begin(p)
}

// Update moves the free corner of the gesture
func (s *Session) Update(p types.Point) (types.Rect, error) {
	return s.gesture.Update(p)
}

// End finishes the gesture
func (s *Session) End(p types.Point) (types.Rect, error) {
	return s.gesture.End(p)
}

// Selection returns the rectangle being drawn or the finished one
func (s *Session) Selection() (types.Rect, bool) {
	if r, ok := s.gesture.Current(); ok {
		return r, true
	}
	return s.gesture.Rect()
}

// CropBox validates the finished gesture against the reference page
func (s *Session) CropBox() (types.CropBox, error) {
	if s.doc == nil || s.preview == nil {
		return types.CropBox{}, ErrNoDocument
	}
	r, ok := s.gesture.Rect()
	if !ok {
		return types.CropBox{}, ErrNoCropRegion
	}
	w, h := s.preview.Reference().Size()
	return mapper.ToCropBox(r, w, h)
}

// DefaultOutputPath returns "<name>_crop.pdf" next to the source file
func (s *Session) DefaultOutputPath() string {
	if s.doc == nil {
		return ""
	}
	src := s.doc.Path
	if src == "" {
		src = s.doc.Name + ".pdf"
	}
	return utils.DefaultOutputPath(src, s.suffix)
}

// Export writes the cropped document to path. The session is cleared
// afterwards even when the export fails.
func (s *Session) Export(path string) (cropper.CropResult, error) {
	if s.doc == nil {
		return cropper.CropResult{}, ErrNoDocument
	}
	box, err := s.CropBox()
	if err != nil {
		return cropper.CropResult{}, err
	}
	defer s.Clear()

	result, err := s.cropper.CropToFile(path, s.doc.Rasterizer(), box, s.preview.Reference())
	if err != nil {
		return cropper.CropResult{}, fmt.Errorf("failed to crop PDF: %w", err)
	}
	return result, nil
}

// DebugOverlay draws the current crop box over the preview
func (s *Session) DebugOverlay() (image.Image, error) {
	box, err := s.CropBox()
	if err != nil {
		return nil, err
	}
	ref := s.preview.Reference()
	return s.processor.CreateDebugOverlay(s.preview.Image, box, image.Rect(0, 0, ref.Width, ref.Height)), nil
}

// SavePreview writes the preview, shrunk to maxDim, in the given format
func (s *Session) SavePreview(path string, format types.OutputFormat, quality, maxDim int, lossless bool) error {
	if s.preview == nil {
		return ErrNoDocument
	}
	img := s.processor.FitForDisplay(s.preview.Image, maxDim)
	return s.processor.SaveImage(img, path, format, quality, lossless)
}

// SaveDebugOverlay writes DebugOverlay to path
func (s *Session) SaveDebugOverlay(path string, format types.OutputFormat, quality, maxDim int, lossless bool) error {
	img, err := s.DebugOverlay()
	if err != nil {
		return err
	}
	img = s.processor.FitForDisplay(img, maxDim)
	return s.processor.SaveImage(img, path, format, quality, lossless)
}

// Clear closes the document and drops the preview and crop state
func (s *Session) Clear() {
	if s.doc != nil {
		s.doc.Close()
	}
	s.doc = nil
	s.preview = nil
	s.gesture.Reset()
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
