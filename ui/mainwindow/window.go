// Package mainwindow provides the main application window.
package mainwindow

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/menta2k/pdfcrop"
	"github.com/menta2k/pdfcrop/internal/utils"
	"github.com/menta2k/pdfcrop/pkg/cropper"
	"github.com/menta2k/pdfcrop/pkg/types"
	"github.com/menta2k/pdfcrop/ui/canvas"
)

const prefKeyLastDir = "lastDirectory"

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	session   *pdfcrop.Session
	canvas    *canvas.PreviewCanvas
	statusBar *widget.Label
}

// New creates a new main window.
func New(fyneApp fyne.App, session *pdfcrop.Session) *MainWindow {
	win := fyneApp.NewWindow("PDF Crop Tool")

	mw := &MainWindow{
		Window:  win,
		app:     fyneApp,
		session: session,
	}

	mw.setupUI()
	mw.Resize(fyne.NewSize(800, 600))
	return mw
}

func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewPreviewCanvas(mw.session)
	mw.canvas.OnSelect(func(r types.Rect) {
		mw.updateStatus(fmt.Sprintf("Crop area %s (%.0fx%.0f px)", r, r.Width(), r.Height()))
	})
	mw.canvas.OnZoomChange(func(zoom float64) {
		if mw.session.Document() != nil {
			mw.updateStatus(fmt.Sprintf("Zoom %.0f%%", zoom*100))
		}
	})

	mw.statusBar = widget.NewLabel("Open a PDF to start")

	buttons := container.NewGridWithColumns(4,
		widget.NewButton("Open PDF", mw.onOpenPDF),
		widget.NewButton("Crop PDF", mw.onCropPDF),
		widget.NewButton("Zoom In", mw.canvas.ZoomIn),
		widget.NewButton("Zoom Out", mw.canvas.ZoomOut),
	)

	content := container.NewBorder(
		nil, // top
		container.NewVBox(buttons, container.NewPadded(mw.statusBar)), // bottom
		nil, // left
		nil, // right
		mw.canvas,
	)
	mw.SetContent(content)
}

// OpenFile loads a PDF and shows its preview.
func (mw *MainWindow) OpenFile(path string) error {
	if err := mw.session.Open(path); err != nil {
		mw.reset()
		return err
	}
	mw.saveLastDir(path)

	info := mw.session.Document().GetInfo()
	mw.canvas.SetImage(mw.session.Preview().Image)
	status := fmt.Sprintf("%s: %d pages", info.Name, info.PageCount)
	if !info.UniformSize {
		status += " (mixed page sizes)"
	}
	mw.updateStatus(status)
	mw.SetTitle("PDF Crop Tool - " + info.Name)
	return nil
}

func (mw *MainWindow) onOpenPDF() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		if err := mw.OpenFile(path); err != nil {
			log.Printf("open %s failed: %v", path, err)
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".pdf"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onCropPDF() {
	if _, err := mw.session.CropBox(); err != nil {
		if errors.Is(err, pdfcrop.ErrNoDocument) || errors.Is(err, pdfcrop.ErrNoCropRegion) {
			dialog.ShowInformation("Warning", "No crop area selected.", mw.Window)
			return
		}
		dialog.ShowError(err, mw.Window)
		return
	}

	defaultPath := mw.session.DefaultOutputPath()
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		// The crop region is used up whatever the outcome
		defer mw.reset()
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		if writer == nil {
			return
		}
		writer.Close()

		result, err := exportTo(mw.session, writer.URI().Path())
		if err != nil {
			log.Printf("export failed: %v", err)
			dialog.ShowError(err, mw.Window)
			return
		}
		log.Printf("wrote %s (%d pages)", result.Output, len(result.Pages))
		dialog.ShowInformation("Success", "Cropped PDF saved successfully!", mw.Window)
	}, mw.Window)
	fd.SetFileName(filepath.Base(defaultPath))
	if loc := listableDir(filepath.Dir(defaultPath)); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// exportTo writes the cropped document to the path picked in the save
// dialog. The dialog has already created an empty file there; it is removed
// when the export fails or when ".pdf" has to be appended to the name.
func exportTo(session *pdfcrop.Session, chosen string) (cropper.CropResult, error) {
	path := chosen
	if !utils.IsPDFFile(path) {
		path += ".pdf"
		if err := discardPlaceholder(chosen); err != nil {
			log.Printf("failed to remove %s: %v", chosen, err)
		}
	}

	result, err := session.Export(path)
	if err != nil {
		if rmErr := discardPlaceholder(path); rmErr != nil {
			log.Printf("failed to remove %s: %v", path, rmErr)
		}
		return cropper.CropResult{}, fmt.Errorf("export %s: %w", path, err)
	}
	return result, nil
}

// discardPlaceholder removes path if it is an empty file
func discardPlaceholder(path string) error {
	if !utils.FileExists(path) {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > 0 {
		return nil
	}
	return os.Remove(path)
}

// reset drops the document and clears the canvas.
func (mw *MainWindow) reset() {
	mw.session.Clear()
	mw.canvas.SetImage(nil)
	mw.SetTitle("PDF Crop Tool")
	mw.updateStatus("Open a PDF to start")
}

func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) getLastDir() fyne.ListableURI {
	dir := mw.app.Preferences().String(prefKeyLastDir)
	if dir == "" {
		return nil
	}
	return listableDir(dir)
}

func (mw *MainWindow) saveLastDir(filePath string) {
	mw.app.Preferences().SetString(prefKeyLastDir, filepath.Dir(filePath))
}

// listableDir returns nil when dir is relative or cannot be listed.
func listableDir(dir string) fyne.ListableURI {
	if !filepath.IsAbs(dir) || !utils.DirExists(dir) {
		return nil
	}
	loc, err := storage.ListerForURI(storage.NewFileURI(dir))
	if err != nil {
		return nil
	}
	return loc
}
