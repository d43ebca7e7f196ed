package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/menta2k/pdfcrop"
	"github.com/menta2k/pdfcrop/internal/config"
	"github.com/menta2k/pdfcrop/internal/utils"
	"github.com/menta2k/pdfcrop/pkg/types"
)

func main() {
	var in, out, box, cfgPath string
	var dpi float64
	var quality int
	var mixed string
	var writeConfig bool
	var savePreview, debug bool

	// Debug artifact format
	var dbgext string
	var dbgquality int
	var dbglossless bool
	var maxDim int

	flag.StringVar(&in, "in", "", "input PDF path")
	flag.StringVar(&out, "out", "", "output PDF path (default <name>_crop.pdf next to the input)")
	flag.StringVar(&box, "box", "", "crop rectangle in preview pixels: x0,y0,x1,y1")
	flag.StringVar(&cfgPath, "config", config.GetConfigPath(), "configuration file")
	flag.BoolVar(&writeConfig, "writeconfig", false, "write the effective configuration to -config and exit")

	flag.Float64Var(&dpi, "dpi", 300, "render resolution for preview and export")
	flag.IntVar(&quality, "quality", 85, "JPEG quality of exported pages (1-100)")
	flag.StringVar(&mixed, "mixed", "proportional", "pages of a different size: proportional|reject")

	flag.BoolVar(&savePreview, "preview", false, "save the composite preview image")
	flag.BoolVar(&debug, "debug", false, "save the preview with the crop box drawn on it")
	flag.StringVar(&dbgext, "dbgext", "png", "preview/debug format: png|jpg|webp")
	flag.IntVar(&dbgquality, "dbgquality", 92, "preview/debug quality (for jpg/webp)")
	flag.BoolVar(&dbglossless, "dbglossless", false, "preview/debug WebP lossless mode")
	flag.IntVar(&maxDim, "maxdim", 2048, "max long side of preview/debug images (px), 0=original")

	flag.Parse()

	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	// Flags given on the command line override the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dpi":
			cfg.Render.DPI = dpi
		case "quality":
			cfg.Export.Quality = quality
		case "mixed":
			cfg.Export.MixedPages = mixed
		case "dbgext":
			cfg.Output.DebugFormat = strings.ToLower(dbgext)
		case "dbgquality":
			cfg.Output.DebugQuality = dbgquality
		case "dbglossless":
			cfg.Output.DebugLossless = dbglossless
		case "maxdim":
			cfg.Preview.MaxDisplaySize = maxDim
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	if writeConfig {
		if err := cfg.SaveToFile(cfgPath); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %s", cfgPath)
		return
	}

	if in == "" || (box == "" && !savePreview) {
		log.Fatalf("usage: %s -in input.pdf -box x0,y0,x1,y1 [-out output.pdf] [-dpi 300] [-quality 85] [-mixed proportional|reject] [-preview] [-debug]", filepath.Base(os.Args[0]))
	}

	session, err := pdfcrop.NewFromConfig(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := session.Open(in); err != nil {
		log.Fatal(err)
	}
	defer session.Clear()

	doc := session.Document()
	info := doc.GetInfo()
	prev := session.Preview()
	ref := prev.Reference()
	log.Printf("opened %s: pages=%d reference=%dx%d preview=%dx%d uniform=%v",
		info.Name, info.PageCount, ref.Width, ref.Height, prev.Bounds().Dx(), prev.Bounds().Dy(), info.UniformSize)

	if out == "" {
		out = session.DefaultOutputPath()
	}
	if err := utils.EnsureDir(filepath.Dir(out)); err != nil {
		log.Fatal(err)
	}
	dbgFormat := types.OutputFormat(cfg.Output.DebugFormat)

	if savePreview {
		p := utils.DebugArtifactPath(out, "preview", cfg.Output.DebugFormat)
		if err := session.SavePreview(p, dbgFormat, cfg.Output.DebugQuality, cfg.Preview.MaxDisplaySize, cfg.Output.DebugLossless); err != nil {
			log.Printf("preview save failed: %v", err)
		} else {
			log.Printf("wrote %s", p)
		}
	}
	if box == "" {
		return
	}

	from, to, err := parseBox(box)
	if err != nil {
		log.Fatal(err)
	}
	session.Begin(from)
	if _, err := session.End(to); err != nil {
		log.Fatal(err)
	}
	cb, err := session.CropBox()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("crop box %s -> %dx%d px", cb, cb.Pixels().Dx(), cb.Pixels().Dy())

	if debug {
		p := utils.DebugArtifactPath(out, "debug", cfg.Output.DebugFormat)
		if err := session.SaveDebugOverlay(p, dbgFormat, cfg.Output.DebugQuality, cfg.Preview.MaxDisplaySize, cfg.Output.DebugLossless); err != nil {
			log.Printf("debug overlay save failed: %v", err)
		} else {
			log.Printf("wrote %s", p)
		}
	}

	result, err := session.Export(out)
	if err != nil {
		log.Fatal(err)
	}
	for _, p := range result.Pages {
		log.Printf("page %d: %dx%d -> %dx%d (%s)", p.Index+1, p.Source.Width, p.Source.Height,
			p.Size.X, p.Size.Y, utils.FormatFileSize(int64(p.Bytes)))
	}
	if st, err := os.Stat(result.Output); err == nil {
		log.Printf("wrote %s (%d pages, %s)", result.Output, len(result.Pages), utils.FormatFileSize(st.Size()))
	} else {
		log.Printf("wrote %s (%d pages)", result.Output, len(result.Pages))
	}
}

// parseBox reads "x0,y0,x1,y1" as the two corners of a drag gesture
func parseBox(s string) (types.Point, types.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return types.Point{}, types.Point{}, fmt.Errorf("invalid -box %q: want x0,y0,x1,y1", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return types.Point{}, types.Point{}, fmt.Errorf("invalid -box %q: %w", s, err)
		}
		v[i] = f
	}
	return types.Point{X: v[0], Y: v[1]}, types.Point{X: v[2], Y: v[3]}, nil
}
