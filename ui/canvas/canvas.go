// Package canvas provides the preview canvas with zoom and crop selection.
package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"log"
	"math"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	xdraw "golang.org/x/image/draw"

	"github.com/menta2k/pdfcrop/pkg/mapper"
	"github.com/menta2k/pdfcrop/pkg/types"
)

const (
	minZoom     = 0.05
	maxZoom     = 10.0
	zoomInStep  = 1.2
	zoomOutStep = 0.8
)

var (
	background     = color.RGBA{64, 64, 64, 255}
	selectionColor = color.RGBA{255, 0, 0, 255}
)

// Gesture receives the drag gesture in preview coordinates.
// *pdfcrop.Session implements it.
type Gesture interface {
	Begin(p types.Point)
	Update(p types.Point) (types.Rect, error)
	End(p types.Point) (types.Rect, error)
	Selection() (types.Rect, bool)
}

// PreviewCanvas shows the composite preview and turns mouse drags into a
// crop gesture.
type PreviewCanvas struct {
	widget.BaseWidget

	gesture Gesture
	img     image.Image

	raster  *fynecanvas.Raster
	zoom    float64
	imgSize fyne.Size

	// Interaction state
	dragging bool
	last     types.Point

	scroll  *container.Scroll
	content *draggableContent

	fitToWindow    bool
	lastScrollSize fyne.Size

	onSelect     func(r types.Rect)
	onZoomChange func(zoom float64)
}

// draggableContent wraps the raster to handle mouse events.
type draggableContent struct {
	widget.BaseWidget
	canvas *PreviewCanvas
	raster *fynecanvas.Raster
}

func newDraggableContent(pc *PreviewCanvas, raster *fynecanvas.Raster) *draggableContent {
	dc := &draggableContent{
		canvas: pc,
		raster: raster,
	}
	dc.ExtendBaseWidget(dc)
	return dc
}

func (dc *draggableContent) CreateRenderer() fyne.WidgetRenderer {
	return &draggableContentRenderer{content: dc}
}

func (dc *draggableContent) MinSize() fyne.Size {
	return dc.raster.MinSize()
}

func (dc *draggableContent) Dragged(ev *fyne.DragEvent) {
	pc := dc.canvas
	if pc.gesture == nil || pc.img == nil {
		return
	}

	// ev.Position is relative to viewport, add scroll offset for content position
	offset := pc.scroll.Offset
	x := float64(ev.Position.X + offset.X)
	y := float64(ev.Position.Y + offset.Y)

	if !pc.dragging {
		pc.dragging = true
		// The first event arrives after the pointer already moved by ev.Dragged
		pc.gesture.Begin(mapper.FromView(x-float64(ev.Dragged.DX), y-float64(ev.Dragged.DY), pc.zoom))
	}
	pc.last = mapper.FromView(x, y, pc.zoom)
	if _, err := pc.gesture.Update(pc.last); err != nil {
		log.Printf("crop gesture update failed: %v", err)
	}
	pc.Refresh()
}

func (dc *draggableContent) DragEnd() {
	pc := dc.canvas
	if !pc.dragging {
		return
	}
	pc.dragging = false

	r, err := pc.gesture.End(pc.last)
	if err == nil && pc.onSelect != nil {
		pc.onSelect(r)
	}
	pc.Refresh()
}

type draggableContentRenderer struct {
	content *draggableContent
}

func (r *draggableContentRenderer) Layout(size fyne.Size) {
	r.content.raster.Resize(size)
}

func (r *draggableContentRenderer) MinSize() fyne.Size {
	return r.content.raster.MinSize()
}

func (r *draggableContentRenderer) Refresh() {
	r.content.raster.Refresh()
}

func (r *draggableContentRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.content.raster}
}

func (r *draggableContentRenderer) Destroy() {}

// NewPreviewCanvas creates a canvas that forwards drags to gesture.
func NewPreviewCanvas(gesture Gesture) *PreviewCanvas {
	pc := &PreviewCanvas{
		gesture:     gesture,
		zoom:        1.0,
		imgSize:     fyne.NewSize(400, 300),
		fitToWindow: true,
	}

	pc.raster = fynecanvas.NewRaster(pc.draw)
	pc.raster.ScaleMode = fynecanvas.ImageScalePixels
	pc.raster.SetMinSize(pc.imgSize)

	pc.content = newDraggableContent(pc, pc.raster)
	pc.scroll = container.NewScroll(pc.content)
	pc.scroll.Direction = container.ScrollBoth

	pc.ExtendBaseWidget(pc)
	return pc
}

// SetImage replaces the displayed preview. A nil image clears the canvas.
func (pc *PreviewCanvas) SetImage(img image.Image) {
	pc.img = img
	pc.dragging = false
	pc.updateContentSize()
	if pc.fitToWindow {
		pc.FitToWindow()
	}
}

// Image returns the displayed preview.
func (pc *PreviewCanvas) Image() image.Image {
	return pc.img
}

// SetZoom sets the zoom level.
func (pc *PreviewCanvas) SetZoom(zoom float64) {
	pc.zoom = math.Max(minZoom, math.Min(maxZoom, zoom))
	pc.updateContentSize()

	if pc.onZoomChange != nil {
		pc.onZoomChange(pc.zoom)
	}
}

// Zoom returns the current zoom level.
func (pc *PreviewCanvas) Zoom() float64 {
	return pc.zoom
}

// ZoomIn enlarges the view by 20%.
func (pc *PreviewCanvas) ZoomIn() {
	pc.fitToWindow = false
	pc.SetZoom(pc.zoom * zoomInStep)
}

// ZoomOut shrinks the view by 20%.
func (pc *PreviewCanvas) ZoomOut() {
	pc.fitToWindow = false
	pc.SetZoom(pc.zoom * zoomOutStep)
}

// FitToWindow scales the preview to the visible area, keeping aspect ratio.
func (pc *PreviewCanvas) FitToWindow() {
	pc.fitToWindow = true
	if pc.img == nil {
		return
	}
	b := pc.img.Bounds()
	view := pc.scroll.Size()
	if b.Dx() == 0 || b.Dy() == 0 || view.Width <= 0 || view.Height <= 0 {
		return
	}
	zoomX := float64(view.Width) / float64(b.Dx())
	zoomY := float64(view.Height) / float64(b.Dy())
	pc.SetZoom(math.Min(zoomX, zoomY) * 0.98)
}

// OnSelect sets a callback for a finished drag, in preview coordinates.
func (pc *PreviewCanvas) OnSelect(callback func(r types.Rect)) {
	pc.onSelect = callback
}

// OnZoomChange sets a callback for zoom changes.
func (pc *PreviewCanvas) OnZoomChange(callback func(zoom float64)) {
	pc.onZoomChange = callback
}

// Refresh redraws the preview and the selection.
func (pc *PreviewCanvas) Refresh() {
	pc.raster.Refresh()
}

func (pc *PreviewCanvas) updateContentSize() {
	if pc.img == nil {
		pc.imgSize = fyne.NewSize(400, 300)
	} else {
		b := pc.img.Bounds()
		pc.imgSize = fyne.NewSize(float32(float64(b.Dx())*pc.zoom), float32(float64(b.Dy())*pc.zoom))
	}

	pc.raster.SetMinSize(pc.imgSize)
	pc.raster.Resize(pc.imgSize)
	if pc.content != nil {
		pc.content.Resize(pc.imgSize)
		pc.content.Refresh()
	}
	pc.raster.Refresh()
	if pc.scroll != nil {
		pc.scroll.Refresh()
	}
}

// draw is the raster drawing function.
func (pc *PreviewCanvas) draw(w, h int) image.Image {
	return render(pc.img, pc.zoom, pc.selection(), w, h)
}

func (pc *PreviewCanvas) selection() *types.Rect {
	if pc.gesture == nil || pc.img == nil {
		return nil
	}
	r, ok := pc.gesture.Selection()
	if !ok {
		return nil
	}
	return &r
}

// render scales img by zoom into a w x h frame and outlines sel on top.
func render(img image.Image, zoom float64, sel *types.Rect, w, h int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)
	if img == nil {
		return out
	}

	b := img.Bounds()
	dst := image.Rect(0, 0, int(math.Round(float64(b.Dx())*zoom)), int(math.Round(float64(b.Dy())*zoom)))
	xdraw.ApproxBiLinear.Scale(out, dst, img, b, xdraw.Src, nil)

	if sel != nil {
		x0, y0 := mapper.ToView(types.Point{X: sel.MinX, Y: sel.MinY}, zoom)
		x1, y1 := mapper.ToView(types.Point{X: sel.MaxX, Y: sel.MaxY}, zoom)
		outline(out, image.Rect(int(x0), int(y0), int(x1), int(y1)), selectionColor, 2)
	}
	return out
}

func outline(img *image.RGBA, r image.Rectangle, c color.RGBA, stroke int) {
	u := &image.Uniform{c}
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+stroke),
		image.Rect(r.Min.X, r.Max.Y-stroke, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+stroke, r.Max.Y),
		image.Rect(r.Max.X-stroke, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(img, e.Intersect(img.Bounds()), u, image.Point{}, draw.Src)
	}
}

// CreateRenderer implements fyne.Widget.
func (pc *PreviewCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &previewCanvasRenderer{canvas: pc}
}

type previewCanvasRenderer struct {
	canvas *PreviewCanvas
}

func (r *previewCanvasRenderer) Layout(size fyne.Size) {
	pc := r.canvas
	pc.scroll.Resize(size)
	if pc.fitToWindow && size.Width > 0 && size.Height > 0 && size != pc.lastScrollSize {
		pc.lastScrollSize = size
		pc.FitToWindow()
	}
}

func (r *previewCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *previewCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *previewCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.scroll}
}

func (r *previewCanvasRenderer) Destroy() {}
