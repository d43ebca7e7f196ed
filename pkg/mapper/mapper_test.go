package mapper

import (
	"errors"
	"image"
	"math/rand"
	"testing"

	"github.com/menta2k/pdfcrop/pkg/types"
)

func TestNew(t *testing.T) {
	m := New()
	if m == nil {
		t.Fatal("New() returned nil")
	}
	if m.State() != Idle {
		t.Errorf("Expected idle state, got %s", m.State())
	}
	if _, ok := m.Rect(); ok {
		t.Error("Expected no finalized rectangle")
	}
}

func TestGestureLifecycle(t *testing.T) {
	m := New()
	m.Begin(types.Point{X: 500, Y: 400})
	if m.State() != Dragging {
		t.Fatalf("Expected dragging after Begin, got %s", m.State())
	}

	r, err := m.Update(types.Point{X: 100, Y: 100})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	want := types.Rect{MinX: 100, MinY: 100, MaxX: 500, MaxY: 400}
	if r != want {
		t.Errorf("Expected %v, got %v", want, r)
	}

	// Repeated updates with the same point give the same answer
	again, _ := m.Update(types.Point{X: 100, Y: 100})
	if again != r {
		t.Errorf("Update is not idempotent: %v vs %v", again, r)
	}

	final, err := m.End(types.Point{X: 120, Y: 90})
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if final != (types.Rect{MinX: 120, MinY: 90, MaxX: 500, MaxY: 400}) {
		t.Errorf("Unexpected final rect %v", final)
	}
	if m.State() != Idle {
		t.Errorf("Expected idle after End, got %s", m.State())
	}

	if _, err := m.Update(types.Point{X: 1, Y: 1}); !errors.Is(err, ErrNoGesture) {
		t.Errorf("Expected ErrNoGesture after End, got %v", err)
	}
	got, ok := m.Rect()
	if !ok || got != final {
		t.Errorf("Expected finalized rect %v, got %v (ok=%v)", final, got, ok)
	}
}

func TestBeginDiscardsPrevious(t *testing.T) {
	m := New()
	m.Begin(types.Point{X: 0, Y: 0})
	if _, err := m.End(types.Point{X: 10, Y: 10}); err != nil {
		t.Fatal(err)
	}
	m.Begin(types.Point{X: 50, Y: 50})
	if _, ok := m.Rect(); ok {
		t.Error("Expected previous rectangle to be discarded by Begin")
	}
	m.Reset()
	if m.State() != Idle {
		t.Error("Expected idle after Reset")
	}
}

func TestUpdateWithoutBegin(t *testing.T) {
	m := New()
	if _, err := m.Update(types.Point{X: 1, Y: 1}); !errors.Is(err, ErrNoGesture) {
		t.Errorf("Expected ErrNoGesture, got %v", err)
	}
	if _, err := m.End(types.Point{X: 1, Y: 1}); !errors.Is(err, ErrNoGesture) {
		t.Errorf("Expected ErrNoGesture, got %v", err)
	}
}

func TestNormalizationSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		p1 := types.Point{X: rng.Float64()*2000 - 500, Y: rng.Float64()*2000 - 500}
		p2 := types.Point{X: rng.Float64()*2000 - 500, Y: rng.Float64()*2000 - 500}

		a := New()
		a.Begin(p1)
		ra, _ := a.Update(p2)

		b := New()
		b.Begin(p2)
		rb, _ := b.Update(p1)

		if ra != rb {
			t.Fatalf("Asymmetric normalization for %v,%v: %v vs %v", p1, p2, ra, rb)
		}
		if ra.MinX > ra.MaxX || ra.MinY > ra.MaxY {
			t.Fatalf("Rect not normalized: %v", ra)
		}
	}
}

func TestToCropBoxScenario(t *testing.T) {
	m := New()
	m.Begin(types.Point{X: 100, Y: 100})
	r, err := m.End(types.Point{X: 500, Y: 400})
	if err != nil {
		t.Fatal(err)
	}

	box, err := ToCropBox(r, 612, 792)
	if err != nil {
		t.Fatalf("ToCropBox failed: %v", err)
	}
	if box.Rect != (types.Rect{MinX: 100, MinY: 100, MaxX: 500, MaxY: 400}) {
		t.Errorf("Unexpected crop box %v", box)
	}
	if box.Pixels() != image.Rect(100, 100, 500, 400) {
		t.Errorf("Unexpected pixel rect %v", box.Pixels())
	}
}

func TestToCropBoxZeroWidth(t *testing.T) {
	r := types.RectFromPoints(types.Point{X: 200, Y: 200}, types.Point{X: 200, Y: 500})
	if _, err := ToCropBox(r, 612, 792); !errors.Is(err, ErrInvalidCropRegion) {
		t.Errorf("Expected ErrInvalidCropRegion, got %v", err)
	}

	r = types.RectFromPoints(types.Point{X: 100, Y: 300}, types.Point{X: 400, Y: 300})
	if _, err := ToCropBox(r, 612, 792); !errors.Is(err, ErrInvalidCropRegion) {
		t.Errorf("Expected ErrInvalidCropRegion for zero height, got %v", err)
	}
}

func TestToCropBoxOutsidePage(t *testing.T) {
	// Entirely to the right of the page clamps to a zero-width box
	r := types.Rect{MinX: 700, MinY: 10, MaxX: 900, MaxY: 100}
	if _, err := ToCropBox(r, 612, 792); !errors.Is(err, ErrInvalidCropRegion) {
		t.Errorf("Expected ErrInvalidCropRegion, got %v", err)
	}

	// Sub-pixel boxes collapse when rounded
	r = types.Rect{MinX: 10.1, MinY: 10.1, MaxX: 10.3, MaxY: 50}
	if _, err := ToCropBox(r, 612, 792); !errors.Is(err, ErrInvalidCropRegion) {
		t.Errorf("Expected ErrInvalidCropRegion for sub-pixel box, got %v", err)
	}
}

func TestToCropBoxContainment(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const w, h = 1275.0, 1650.0
	for i := 0; i < 1000; i++ {
		r := types.RectFromPoints(
			types.Point{X: rng.Float64()*3000 - 1000, Y: rng.Float64()*3000 - 1000},
			types.Point{X: rng.Float64()*3000 - 1000, Y: rng.Float64()*3000 - 1000},
		)
		box, err := ToCropBox(r, w, h)
		if err != nil {
			if !errors.Is(err, ErrInvalidCropRegion) {
				t.Fatalf("Unexpected error type: %v", err)
			}
			continue
		}
		if box.MinX < 0 || box.MinY < 0 || box.MaxX > w || box.MaxY > h {
			t.Fatalf("Box %v escapes page %vx%v", box, w, h)
		}
		if !box.Pixels().In(image.Rect(0, 0, int(w), int(h))) {
			t.Fatalf("Pixel box %v escapes page", box.Pixels())
		}
	}
}

func TestScaleCropBox(t *testing.T) {
	box := types.CropBox{Rect: types.Rect{MinX: 100, MinY: 100, MaxX: 500, MaxY: 400}}
	scaled, err := ScaleCropBox(box, 612, 792, 1224, 1584)
	if err != nil {
		t.Fatalf("ScaleCropBox failed: %v", err)
	}
	want := types.Rect{MinX: 200, MinY: 200, MaxX: 1000, MaxY: 800}
	if scaled.Rect != want {
		t.Errorf("Expected %v, got %v", want, scaled.Rect)
	}

	if _, err := ScaleCropBox(box, 0, 792, 100, 100); !errors.Is(err, ErrInvalidCropRegion) {
		t.Errorf("Expected ErrInvalidCropRegion for empty reference, got %v", err)
	}
}

func TestFromView(t *testing.T) {
	p := FromView(150, 300, 0.5)
	if p != (types.Point{X: 300, Y: 600}) {
		t.Errorf("Unexpected mapping %v", p)
	}
	x, y := ToView(p, 0.5)
	if x != 150 || y != 300 {
		t.Errorf("ToView did not invert FromView: %v,%v", x, y)
	}
	if FromView(10, 20, 0) != (types.Point{X: 10, Y: 20}) {
		t.Error("Expected zero zoom to be treated as 1")
	}
}

func BenchmarkGesture(b *testing.B) {
	m := New()
	for i := 0; i < b.N; i++ {
		m.Begin(types.Point{X: 10, Y: 10})
		for j := 0; j < 32; j++ {
			m.Update(types.Point{X: float64(j * 10), Y: float64(j * 7)})
		}
		r, _ := m.End(types.Point{X: 400, Y: 300})
		ToCropBox(r, 2550, 3300)
	}
}
