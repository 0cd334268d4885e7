package main

import (
	"fmt"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/mediamorph/mediamorph/internal/config"
	"github.com/mediamorph/mediamorph/internal/convert"
	"github.com/mediamorph/mediamorph/internal/logging"
	"github.com/mediamorph/mediamorph/internal/notify"
	"github.com/mediamorph/mediamorph/internal/platform"
	"github.com/mediamorph/mediamorph/internal/preview"
	"github.com/mediamorph/mediamorph/internal/ui"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID   = "com.mediamorph.app"
	AppName = "MediaMorph"

	WindowWidth  = 520
	WindowHeight = 560
)

func main() {
	logging.Info("%s v%s starting...", AppName, version)

	myApp := app.NewWithID(AppID)

	// Apply compact theme
	myApp.Settings().SetTheme(ui.NewCompactTheme())

	windowTitle := fmt.Sprintf("%s v%s", AppName, version)
	myWindow := myApp.NewWindow(windowTitle)
	myWindow.Resize(fyne.NewSize(WindowWidth, WindowHeight))

	// Initialize services
	settings := config.NewSettings(myApp)
	outputDir := settings.GetOutputDirectory()
	if err := platform.CreateDirectoryIfNotExists(outputDir); err != nil {
		logging.Warn("failed to ensure output dir: %v", err)
	}

	convertSvc := convert.NewService(outputDir, settings.GetJPEGQuality())
	previewSvc := preview.NewService(filepath.Join(myApp.Storage().RootURI().Path(), "previews"), settings.GetPreviewSize())
	notifier := notify.NewFyneNotifier(myApp)

	defer convert.ShutdownVips()

	// Create and setup UI
	ui.NewRootUI(myWindow, myApp, convertSvc, previewSvc, notifier)

	// Show and run
	myWindow.ShowAndRun()
}
