package processing

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/pdfcrop/pkg/types"
)

// DefaultQuality is the JPEG quality used for exported pages
const DefaultQuality = 85

// Processor handles image processing operations
type Processor struct{}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{}
}

// CropPage cuts box out of a rasterized page. The box must lie inside the page.
func (p *Processor) CropPage(img image.Image, box image.Rectangle) (*image.NRGBA, error) {
	bounds := img.Bounds()
	rect := box.Add(bounds.Min)
	if rect.Empty() {
		return nil, fmt.Errorf("empty crop rectangle")
	}
	if !rect.In(bounds) {
		return nil, fmt.Errorf("crop rectangle %v outside page %v", box, bounds)
	}
	return imaging.Crop(img, rect), nil
}

// EncodeJPEG re-encodes an image as JPEG at the given quality (1-100)
func (p *Processor) EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("jpeg quality %d out of range 1-100", quality)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// CropAndEncode crops a page and returns the JPEG bytes together with the
// size of the cropped image.
func (p *Processor) CropAndEncode(img image.Image, box image.Rectangle, quality int) ([]byte, image.Point, error) {
	cropped, err := p.CropPage(img, box)
	if err != nil {
		return nil, image.Point{}, err
	}
	data, err := p.EncodeJPEG(cropped, quality)
	if err != nil {
		return nil, image.Point{}, err
	}
	return data, cropped.Bounds().Size(), nil
}

// DecodeImage decodes image bytes with WebP support
func (p *Processor) DecodeImage(data []byte) (image.Image, error) {
	if img, err := imaging.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// FitForDisplay shrinks an image so its long side is at most maxDim. A
// maxDim of zero leaves the image untouched.
func (p *Processor) FitForDisplay(img image.Image, maxDim int) image.Image {
	if maxDim <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return img
	}
	return imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
}

// SaveImage saves an image to a file with the specified format and quality
func (p *Processor) SaveImage(img image.Image, path string, format types.OutputFormat, quality int, lossless bool) error {
	switch types.OutputFormat(strings.ToLower(string(format))) {
	case types.FormatWebP:
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		if err := webp.Encode(f, img, opts); err != nil {
			f.Close()
			os.Remove(path)
			return fmt.Errorf("failed to encode %s: %w", path, err)
		}
		return f.Close()
	case types.FormatPNG:
		return imaging.Save(img, path)
	default: // jpg/jpeg
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	}
}

// CreateDebugOverlay draws the crop box (red) and, when the preview is
// larger than the reference page, the reference page outline (blue).
func (p *Processor) CreateDebugOverlay(img image.Image, box types.CropBox, reference image.Rectangle) image.Image {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()

	red := color.NRGBA{255, 0, 0, 255}
	blue := color.NRGBA{0, 170, 255, 255}
	stroke := int(math.Max(2, 0.002*float64(min(w, h))))

	if reference != nrgba.Bounds() && !reference.Empty() {
		drawRect(nrgba, reference, blue, stroke)
	}
	if pix := box.Pixels(); !pix.Empty() {
		drawRect(nrgba, pix, red, stroke)
	}
	return nrgba
}

func drawRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA, stroke int) {
	for s := 0; s < stroke; s++ {
		drawHLine(img, r.Min.Y+s, r.Min.X, r.Max.X, c)
		drawHLine(img, r.Max.Y-1-s, r.Min.X, r.Max.X, c)
		drawVLine(img, r.Min.X+s, r.Min.Y, r.Max.Y, c)
		drawVLine(img, r.Max.X-1-s, r.Min.Y, r.Max.Y, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	x0 = max(x0, 0)
	x1 = min(x1, img.Bounds().Dx())
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	y0 = max(y0, 0)
	y1 = min(y1, img.Bounds().Dy())
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
