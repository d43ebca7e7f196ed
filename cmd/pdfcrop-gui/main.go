// Package main provides the entry point for the PDF Crop Tool desktop app.
package main

import (
	"log"
	"os"

	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"

	"github.com/menta2k/pdfcrop"
	"github.com/menta2k/pdfcrop/internal/config"
	"github.com/menta2k/pdfcrop/ui/mainwindow"
)

const (
	appID    = "com.menta2k.pdfcrop"
	appTitle = "PDF Crop Tool"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s", appTitle, pdfcrop.GetVersion())

	cfg, err := config.LoadOrDefault(config.GetConfigPath())
	if err != nil {
		log.Printf("Failed to load config, using defaults: %v", err)
		cfg = config.Default()
	}
	session, err := pdfcrop.NewFromConfig(cfg)
	if err != nil {
		log.Printf("Invalid config, using defaults: %v", err)
		session = pdfcrop.New()
	}

	a := app.NewWithID(appID)
	win := mainwindow.New(a, session)

	// Handle command line arguments
	if len(os.Args) > 1 {
		path := os.Args[1]
		if err := win.OpenFile(path); err != nil {
			log.Printf("Failed to open %s: %v", path, err)
			dialog.ShowError(err, win.Window)
		}
	}

	win.ShowAndRun()
	session.Clear()
}
