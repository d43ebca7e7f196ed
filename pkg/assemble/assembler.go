// Package assemble builds a PDF with one image per page.
package assemble

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ErrNoPages is returned when there is nothing to assemble
var ErrNoPages = errors.New("no pages to assemble")

// Assembler embeds encoded images as pages of a new PDF
type Assembler struct {
	conf *model.Configuration
	imp  *pdfcpu.Import
}

// New creates an Assembler whose pages take the pixel size of their image
func New() *Assembler {
	imp := pdfcpu.DefaultImportConfig()
	imp.Pos = types.Full
	imp.Scale = 1.0
	return &Assembler{
		conf: model.NewDefaultConfiguration(),
		imp:  imp,
	}
}

// Write assembles the images, in order, into a PDF written to w
func (a *Assembler) Write(w io.Writer, images [][]byte) error {
	if len(images) == 0 {
		return ErrNoPages
	}
	readers := make([]io.Reader, len(images))
	for i, img := range images {
		readers[i] = bytes.NewReader(img)
	}
	if err := api.ImportImages(nil, w, readers, a.imp, a.conf); err != nil {
		return fmt.Errorf("failed to assemble pdf: %w", err)
	}
	return nil
}

// WriteFile assembles the images into path. The document is built in memory
// first so a failure never leaves a partial file behind.
func (a *Assembler) WriteFile(path string, images [][]byte) error {
	var buf bytes.Buffer
	if err := a.Write(&buf, images); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".pdfcrop-*.pdf")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move output file into place: %w", err)
	}
	return nil
}

// PageDims reads back the page sizes, in points, of an assembled document
func PageDims(data []byte) ([][2]float64, error) {
	dims, err := api.PageDims(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, err
	}
	out := make([][2]float64, len(dims))
	for i, d := range dims {
		out[i] = [2]float64{d.Width, d.Height}
	}
	return out, nil
}
