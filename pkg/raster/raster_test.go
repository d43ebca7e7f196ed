package raster

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func createTestImage(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{uint8(x), uint8(y), 200, 255})
		}
	}
	return img
}

func TestScale(t *testing.T) {
	if Scale(DefaultDPI) != 300.0/72.0 {
		t.Errorf("Unexpected scale %f", Scale(DefaultDPI))
	}
	if Scale(BaseDPI) != 1 {
		t.Errorf("Expected scale 1 at base DPI, got %f", Scale(BaseDPI))
	}
}

func TestStaticRenderPage(t *testing.T) {
	s := NewStatic(createTestImage(60, 80), createTestImage(30, 40))
	if s.PageCount() != 2 {
		t.Fatalf("Expected 2 pages, got %d", s.PageCount())
	}

	img, err := s.RenderPage(0, BaseDPI)
	if err != nil {
		t.Fatalf("RenderPage failed: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 60, 80) {
		t.Errorf("Unexpected bounds %v", img.Bounds())
	}
	r, g, _, _ := img.At(10, 20).RGBA()
	if r>>8 != 10 || g>>8 != 20 {
		t.Errorf("Pixel not preserved: r=%d g=%d", r>>8, g>>8)
	}

	img, err = s.RenderPage(1, 144)
	if err != nil {
		t.Fatalf("RenderPage failed: %v", err)
	}
	if img.Bounds().Dx() != 60 || img.Bounds().Dy() != 80 {
		t.Errorf("Expected 60x80 at 144 DPI, got %v", img.Bounds())
	}
}

func TestStaticPageRange(t *testing.T) {
	s := NewStatic(createTestImage(10, 10))
	if _, err := s.RenderPage(1, BaseDPI); !errors.Is(err, ErrPageRange) {
		t.Errorf("Expected ErrPageRange, got %v", err)
	}
	if _, err := s.RenderPage(-1, BaseDPI); !errors.Is(err, ErrPageRange) {
		t.Errorf("Expected ErrPageRange, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestToRGBAOffsetBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 15, 25))
	src.Set(5, 5, color.RGBA{255, 0, 0, 255})
	out := toRGBA(src)
	if out.Bounds() != image.Rect(0, 0, 10, 20) {
		t.Errorf("Expected origin-based bounds, got %v", out.Bounds())
	}
	if r, _, _, _ := out.At(0, 0).RGBA(); r>>8 != 255 {
		t.Error("Expected top-left pixel to move to the origin")
	}
}

type renderOnly struct {
	pages []image.Image
	calls int
}

func (r *renderOnly) PageCount() int { return len(r.pages) }
func (r *renderOnly) Close() error   { return nil }
func (r *renderOnly) RenderPage(page int, dpi float64) (*image.RGBA, error) {
	r.calls++
	return NewStatic(r.pages...).RenderPage(page, dpi)
}

func TestPageSize(t *testing.T) {
	s := NewStatic(createTestImage(72, 36))
	size, err := PageSize(s, 0, DefaultDPI)
	if err != nil {
		t.Fatalf("PageSize failed: %v", err)
	}
	img, err := s.RenderPage(0, DefaultDPI)
	if err != nil {
		t.Fatal(err)
	}
	if size != img.Bounds().Size() || size != image.Pt(300, 150) {
		t.Errorf("Expected 300x150 matching the render, got %v (render %v)", size, img.Bounds().Size())
	}
	if _, err := PageSize(s, 3, DefaultDPI); !errors.Is(err, ErrPageRange) {
		t.Errorf("Expected ErrPageRange, got %v", err)
	}

	// Without a Sizer the page is rendered once to measure it
	r := &renderOnly{pages: []image.Image{createTestImage(40, 20)}}
	size, err = PageSize(r, 0, BaseDPI)
	if err != nil {
		t.Fatalf("PageSize failed: %v", err)
	}
	if size != image.Pt(40, 20) || r.calls != 1 {
		t.Errorf("Expected 40x20 from one render, got %v after %d renders", size, r.calls)
	}
}
