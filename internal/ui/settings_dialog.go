package ui

import (
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/mediamorph/mediamorph/internal/config"
)

// SettingsDialog represents the settings configuration dialog
type SettingsDialog struct {
	settings *config.Settings
	window   fyne.Window
	dialog   *dialog.ConfirmDialog

	// UI components
	outputDirEntry   *widget.Entry
	jpegQualityEntry *widget.Entry
	autoRevealCheck  *widget.Check
}

// NewSettingsDialog creates a new settings dialog
func NewSettingsDialog(settings *config.Settings, window fyne.Window) *SettingsDialog {
	sd := &SettingsDialog{
		settings: settings,
		window:   window,
	}

	sd.createUI()
	return sd
}

// Show displays the settings dialog
func (sd *SettingsDialog) Show() {
	sd.loadCurrentSettings()
	sd.dialog.Show()
}

// createUI creates the settings dialog UI
func (sd *SettingsDialog) createUI() {
	// Output directory selection
	sd.outputDirEntry = widget.NewEntry()
	sd.outputDirEntry.SetPlaceHolder("Output directory path")

	browseDirBtn := widget.NewButton("Browse", sd.onBrowseDirectory)
	outputDirRow := container.NewBorder(nil, nil, nil, browseDirBtn, sd.outputDirEntry)

	// JPEG quality
	sd.jpegQualityEntry = widget.NewEntry()
	sd.jpegQualityEntry.SetPlaceHolder("1-100")

	// Auto-reveal behaviour
	sd.autoRevealCheck = widget.NewCheck("Reveal artifact in file manager when done", nil)

	form := container.NewVBox(
		widget.NewLabel("Conversion Settings"),
		widget.NewSeparator(),

		widget.NewLabel("Output Directory:"),
		outputDirRow,

		widget.NewLabel("JPEG Quality:"),
		sd.jpegQualityEntry,

		widget.NewSeparator(),
		sd.autoRevealCheck,
	)

	sd.dialog = dialog.NewCustomConfirm(
		"Settings",
		"Save",
		"Cancel",
		form,
		sd.onSave,
		sd.window,
	)

	sd.dialog.Resize(fyne.NewSize(500, 320))
}

// loadCurrentSettings loads current settings into the UI
func (sd *SettingsDialog) loadCurrentSettings() {
	sd.outputDirEntry.SetText(sd.settings.GetOutputDirectory())
	sd.jpegQualityEntry.SetText(strconv.Itoa(sd.settings.GetJPEGQuality()))
	sd.autoRevealCheck.SetChecked(sd.settings.GetAutoRevealOnComplete())
}

// onBrowseDirectory handles directory browsing
func (sd *SettingsDialog) onBrowseDirectory() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		sd.outputDirEntry.SetText(uri.Path())
	}, sd.window)
}

// onSave handles saving the settings
func (sd *SettingsDialog) onSave(confirmed bool) {
	if !confirmed {
		return
	}

	if dir := sd.outputDirEntry.Text; dir != "" {
		sd.settings.SetOutputDirectory(dir)
	}

	if qualityStr := sd.jpegQualityEntry.Text; qualityStr != "" {
		if quality, err := strconv.Atoi(qualityStr); err == nil {
			sd.settings.SetJPEGQuality(quality)
		}
	}

	sd.settings.SetAutoRevealOnComplete(sd.autoRevealCheck.Checked)

	dialog.ShowInformation("Settings", "Settings saved successfully!", sd.window)
}
