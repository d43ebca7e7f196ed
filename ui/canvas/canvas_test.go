package canvas

import (
	"image"
	"image/color"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"

	"github.com/menta2k/pdfcrop/pkg/mapper"
	"github.com/menta2k/pdfcrop/pkg/types"
)

func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

func TestRenderScalesAndOutlines(t *testing.T) {
	sel := &types.Rect{MinX: 10, MinY: 10, MaxX: 50, MaxY: 40}
	out := render(createTestImage(100, 80), 2.0, sel, 300, 200)

	if out.Bounds().Dx() != 300 || out.Bounds().Dy() != 200 {
		t.Fatalf("Unexpected frame %v", out.Bounds())
	}
	// Inside the scaled preview, away from the outline
	if got := out.RGBAAt(150, 20); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("Expected preview pixel, got %v", got)
	}
	// Outside the scaled preview
	if got := out.RGBAAt(250, 190); got != background {
		t.Errorf("Expected background, got %v", got)
	}
	// Selection edge at view (20,20)
	if got := out.RGBAAt(40, 20); got != selectionColor {
		t.Errorf("Expected selection outline, got %v", got)
	}
}

func TestRenderWithoutImage(t *testing.T) {
	out := render(nil, 1, nil, 10, 10)
	if out.RGBAAt(5, 5) != background {
		t.Error("Expected empty canvas to show the background")
	}
}

type recordingGesture struct {
	m *mapper.Mapper
}

func (g *recordingGesture) Begin(p types.Point)                      { g.m.Begin(p) }
func (g *recordingGesture) Update(p types.Point) (types.Rect, error) { return g.m.Update(p) }
func (g *recordingGesture) End(p types.Point) (types.Rect, error)    { return g.m.End(p) }
func (g *recordingGesture) Selection() (types.Rect, bool) {
	if r, ok := g.m.Current(); ok {
		return r, true
	}
	return g.m.Rect()
}

func TestDragMapsViewToPreview(t *testing.T) {
	test.NewApp()

	g := &recordingGesture{m: mapper.New()}
	pc := NewPreviewCanvas(g)
	pc.fitToWindow = false
	pc.SetImage(createTestImage(200, 200))
	pc.SetZoom(2.0)

	var selected types.Rect
	pc.OnSelect(func(r types.Rect) { selected = r })

	pc.content.Dragged(&fyne.DragEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(40, 60)},
		Dragged:    fyne.NewDelta(20, 20),
	})
	pc.content.Dragged(&fyne.DragEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(220, 160)},
		Dragged:    fyne.NewDelta(180, 100),
	})
	pc.content.DragEnd()

	want := types.Rect{MinX: 10, MinY: 20, MaxX: 110, MaxY: 80}
	if selected != want {
		t.Errorf("Expected %v, got %v", want, selected)
	}
	if r, ok := g.m.Rect(); !ok || r != want {
		t.Errorf("Gesture not finished: %v %v", r, ok)
	}
}

func TestZoomSteps(t *testing.T) {
	test.NewApp()

	pc := NewPreviewCanvas(nil)
	pc.ZoomIn()
	if pc.Zoom() != 1.2 {
		t.Errorf("Expected 1.2, got %f", pc.Zoom())
	}
	pc.SetZoom(1.0)
	pc.ZoomOut()
	if pc.Zoom() != 0.8 {
		t.Errorf("Expected 0.8, got %f", pc.Zoom())
	}
	pc.SetZoom(100)
	if pc.Zoom() != maxZoom {
		t.Errorf("Expected zoom clamped to %f, got %f", maxZoom, pc.Zoom())
	}
}

// stuckGesture rejects every update
type stuckGesture struct {
	recordingGesture
	updates int
	ended   bool
}

func (g *stuckGesture) Update(p types.Point) (types.Rect, error) {
	g.updates++
	return types.Rect{}, mapper.ErrNoGesture
}

func (g *stuckGesture) End(p types.Point) (types.Rect, error) {
	g.ended = true
	return g.recordingGesture.End(p)
}

func TestDragSurvivesFailedUpdate(t *testing.T) {
	test.NewApp()

	g := &stuckGesture{recordingGesture: recordingGesture{m: mapper.New()}}
	pc := NewPreviewCanvas(g)
	pc.fitToWindow = false
	pc.SetImage(createTestImage(100, 100))

	pc.content.Dragged(&fyne.DragEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(30, 30)},
		Dragged:    fyne.NewDelta(10, 10),
	})
	pc.content.DragEnd()

	if g.updates != 1 || !g.ended {
		t.Errorf("Expected the drag to finish after a failed update (updates=%d ended=%v)", g.updates, g.ended)
	}
	if pc.dragging {
		t.Error("Expected dragging to stop")
	}
}
