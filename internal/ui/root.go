package ui

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/mediamorph/mediamorph/internal/acquire"
	"github.com/mediamorph/mediamorph/internal/config"
	"github.com/mediamorph/mediamorph/internal/convert"
	"github.com/mediamorph/mediamorph/internal/logging"
	"github.com/mediamorph/mediamorph/internal/mediatypes"
	"github.com/mediamorph/mediamorph/internal/model"
	"github.com/mediamorph/mediamorph/internal/notify"
	"github.com/mediamorph/mediamorph/internal/platform"
	"github.com/mediamorph/mediamorph/internal/preview"
)

// RootUI represents the main UI structure
type RootUI struct {
	window     fyne.Window
	session    *model.Session
	convertSvc convert.Converter
	previewSvc *preview.Service
	notifier   notify.Notifier
	settings   *config.Settings

	pickBtn      *widget.Button
	dropHint     *widget.Label
	previewImage *canvas.Image
	fileLabel    *widget.Label
	formatSelect *widget.Select
	convertBtn   *widget.Button
	resetBtn     *widget.Button
	progressBar  *widget.ProgressBar
	statusLabel  *widget.Label

	// Guards the live preview handle and the in-flight preview context.
	previewMu     sync.Mutex
	previewHandle *preview.Handle
	previewCancel context.CancelFunc

	activeTaskID string
}

// NewRootUI creates and initializes the main UI
func NewRootUI(window fyne.Window, app fyne.App, convertSvc convert.Converter, previewSvc *preview.Service, notifier notify.Notifier) *RootUI {
	settings := config.NewSettings(app)

	platform.CreateDirectoryIfNotExists(settings.GetOutputDirectory())

	ui := &RootUI{
		window:     window,
		session:    model.NewSession(),
		convertSvc: convertSvc,
		previewSvc: previewSvc,
		notifier:   notifier,
		settings:   settings,
	}

	window.SetTitle("MediaMorph")

	ui.convertSvc.SetUpdateCallback(ui.onTaskUpdate)
	window.SetOnDropped(ui.onDropped)

	ui.setupUI()
	return ui
}

// setupUI creates and arranges all UI components
func (ui *RootUI) setupUI() {
	ui.createMenu()

	ui.dropHint = widget.NewLabel("Drop an image or video here, or pick a file")
	ui.dropHint.Alignment = fyne.TextAlignCenter

	ui.pickBtn = widget.NewButton("Pick file"+MiddleDotSeparator+IconFile, ui.onPickClick)

	settingsBtn := widget.NewButton(IconSettings, ui.onShowSettings)
	settingsBtn.Importance = widget.LowImportance

	ui.previewImage = &canvas.Image{FillMode: canvas.ImageFillContain}
	ui.previewImage.SetMinSize(fyne.NewSize(PreviewMinWidth, PreviewMinHeight))
	ui.previewImage.Hide()

	ui.fileLabel = widget.NewLabel(DashPlaceholder)
	ui.fileLabel.Truncation = fyne.TextTruncateEllipsis
	ui.fileLabel.Alignment = fyne.TextAlignCenter

	ui.formatSelect = widget.NewSelect(nil, ui.onFormatSelected)
	ui.formatSelect.PlaceHolder = "Target format"
	ui.formatSelect.Disable()

	ui.convertBtn = widget.NewButton("Convert", ui.onConvertClick)
	ui.convertBtn.Importance = widget.HighImportance
	ui.convertBtn.Disable()

	ui.resetBtn = widget.NewButton("Reset", ui.onResetClick)
	ui.resetBtn.Disable()

	ui.progressBar = widget.NewProgressBar()
	ui.progressBar.Hide()

	ui.statusLabel = widget.NewLabel("")
	ui.statusLabel.Alignment = fyne.TextAlignCenter

	topPanel := container.NewBorder(nil, nil, settingsBtn, nil, container.NewCenter(ui.pickBtn))
	controls := container.NewVBox(
		ui.fileLabel,
		container.NewGridWithColumns(3, ui.formatSelect, ui.convertBtn, ui.resetBtn),
		ui.progressBar,
		ui.statusLabel,
	)

	content := container.NewBorder(
		topPanel,
		controls,
		nil,
		nil,
		container.NewStack(ui.dropHint, ui.previewImage),
	)

	ui.window.SetContent(content)
	ui.window.Resize(fyne.NewSize(WindowMinWidth, WindowMinHeight))
}

// createMenu creates the application menu
func (ui *RootUI) createMenu() {
	settingsItem := fyne.NewMenuItem("Settings", ui.onShowSettings)
	resetItem := fyne.NewMenuItem("Reset", ui.onResetClick)

	mainMenu := fyne.NewMainMenu(
		fyne.NewMenu("File", settingsItem, resetItem),
	)
	ui.window.SetMainMenu(mainMenu)
}

// onShowSettings shows the settings dialog
func (ui *RootUI) onShowSettings() {
	NewSettingsDialog(ui.settings, ui.window).Show()
}

// onPickClick opens the file picker restricted to supported extensions
func (ui *RootUI) onPickClick() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			ui.notifier.Notify("File selection failed", err.Error(), notify.SeverityError)
			return
		}
		if reader == nil {
			return // user cancelled
		}
		path := reader.URI().Path()
		reader.Close()
		ui.acceptFile(path)
	}, ui.window)
	fd.SetFilter(storage.NewExtensionFileFilter(mediatypes.SupportedExtensions()))
	fd.Show()
}

// onDropped handles files dropped onto the window. Only the first item is
// taken; a drop replaces whatever the session currently holds.
func (ui *RootUI) onDropped(_ fyne.Position, uris []fyne.URI) {
	if len(uris) == 0 {
		return
	}
	ui.acceptFile(uris[0].Path())
}

// acceptFile classifies a candidate file and, when accepted, makes it the
// session's live source and kicks off preview generation.
func (ui *RootUI) acceptFile(path string) {
	src, err := acquire.Acquire(path, "")
	if err != nil {
		logging.Info("rejected %s: %v", path, err)
		ui.notifier.Notify("Invalid file type", "Only common image and video types can be converted.", notify.SeverityError)
		return
	}

	if src.Kind == mediatypes.KindVideo && !convert.FFmpegAvailable() {
		ui.notifier.Notify("ffmpeg not found", "Video conversion requires ffmpeg on PATH.", notify.SeverityError)
		return
	}

	// Bump the generation before stopping the superseded conversion so its
	// cancellation callback arrives stale and is discarded.
	gen := ui.session.Acquire(src)
	ui.releasePreview()

	if ui.activeTaskID != "" {
		ui.convertSvc.StopConversion(ui.activeTaskID)
		ui.activeTaskID = ""
	}

	fyne.Do(func() {
		ui.fileLabel.SetText(src.Name + MiddleDotSeparator + src.MIME)
		ui.formatSelect.Options = mediatypes.FormatTokens(src.Kind)
		ui.formatSelect.ClearSelected()
		ui.formatSelect.Disable()
		ui.convertBtn.Disable()
		ui.resetBtn.Enable()
		ui.progressBar.Hide()
		ui.previewImage.Hide()
		ui.dropHint.SetText("Generating preview…")
		ui.dropHint.Show()
		ui.statusLabel.SetText("")
	})

	ctx, cancel := context.WithCancel(context.Background())
	ui.previewMu.Lock()
	ui.previewCancel = cancel
	ui.previewMu.Unlock()

	go ui.generatePreview(ctx, src, gen)
}

// generatePreview renders the preview off the UI thread and applies it only
// if the session generation still matches.
func (ui *RootUI) generatePreview(ctx context.Context, src *model.SourceFile, gen uint64) {
	handle, err := ui.previewSvc.Generate(ctx, src)

	if err != nil {
		logging.Warn("preview failed for %s: %v", src.Name, err)
		if ui.session.PreviewFailed(gen) {
			fyne.Do(func() {
				ui.dropHint.SetText("No preview available for " + src.Name)
				ui.formatSelect.Enable()
			})
		}
		return
	}

	if !ui.session.PreviewReady(gen) {
		// A newer file or a reset superseded this preview.
		handle.Release()
		return
	}

	ui.previewMu.Lock()
	ui.previewHandle = handle
	ui.previewMu.Unlock()

	fyne.Do(func() {
		ui.previewImage.File = handle.Path()
		ui.previewImage.Refresh()
		ui.previewImage.Show()
		ui.dropHint.Hide()
		ui.formatSelect.Enable()
	})
}

// onFormatSelected records the target format choice
func (ui *RootUI) onFormatSelected(token string) {
	if token == "" {
		return
	}
	if err := ui.session.SelectFormat(token); err != nil {
		logging.Warn("format selection rejected: %v", err)
		return
	}
	ui.convertBtn.Enable()

	if format, ok := mediatypes.LookupFormat(ui.session.Source().Kind, token); ok && format.Approximated {
		ui.statusLabel.SetText("QuickTime output is MP4-encoded and labeled " + format.MIME)
	} else {
		ui.statusLabel.SetText("")
	}
}

// onConvertClick starts converting the live source to the selected format
func (ui *RootUI) onConvertClick() {
	src := ui.session.Source()
	token := ui.session.Format()

	gen, ok := ui.session.BeginConversion()
	if !ok {
		return
	}

	task, err := ui.convertSvc.StartConversion(src, token, gen)
	if err != nil || task == nil {
		ui.session.FinishConversion(gen)
		if err != nil {
			logging.Error("failed to start conversion: %v", err)
			ui.notifier.Notify("Conversion failed", err.Error(), notify.SeverityError)
		}
		return
	}
	ui.activeTaskID = task.ID

	fyne.Do(func() {
		ui.convertBtn.Disable()
		ui.formatSelect.Disable()
		if src.Kind == mediatypes.KindVideo {
			ui.progressBar.SetValue(0)
			ui.progressBar.Show()
		}
		ui.statusLabel.SetText("Converting to " + token + "…")
	})
}

// onResetClick clears the session back to its empty state
func (ui *RootUI) onResetClick() {
	ui.session.Reset()

	if ui.activeTaskID != "" {
		ui.convertSvc.StopConversion(ui.activeTaskID)
		ui.activeTaskID = ""
	}
	ui.releasePreview()

	fyne.Do(func() {
		ui.fileLabel.SetText(DashPlaceholder)
		ui.formatSelect.Options = nil
		ui.formatSelect.ClearSelected()
		ui.formatSelect.Disable()
		ui.convertBtn.Disable()
		ui.resetBtn.Disable()
		ui.progressBar.Hide()
		ui.previewImage.Hide()
		ui.dropHint.SetText("Drop an image or video here, or pick a file")
		ui.dropHint.Show()
		ui.statusLabel.SetText("")
	})
}

// releasePreview cancels in-flight preview work and removes the rendered
// preview file.
func (ui *RootUI) releasePreview() {
	ui.previewMu.Lock()
	defer ui.previewMu.Unlock()

	if ui.previewCancel != nil {
		ui.previewCancel()
		ui.previewCancel = nil
	}
	if ui.previewHandle != nil {
		ui.previewHandle.Release()
		ui.previewHandle = nil
	}
}

// onTaskUpdate handles conversion task updates from the service. Updates
// tagged with a stale generation are discarded; a stale completed artifact
// is removed so it cannot shadow a fresher conversion.
func (ui *RootUI) onTaskUpdate(task *model.ConversionTask) {
	switch {
	case task.Status.IsActive():
		if ui.session.SetPercent(task.Generation, task.Percent) {
			fyne.Do(func() {
				ui.progressBar.SetValue(float64(ui.session.Percent()) / 100)
			})
		}

	case task.Status == model.TaskStatusCompleted:
		if !ui.session.FinishConversion(task.Generation) {
			logging.Debug("discarding stale conversion result %s", task.ID)
			ui.removeStaleArtifact(task)
			return
		}
		ui.activeTaskID = ""
		ui.onConversionCompleted(task)

	case task.Status == model.TaskStatusError:
		if !ui.session.FinishConversion(task.Generation) {
			return
		}
		ui.activeTaskID = ""
		fyne.Do(func() {
			ui.progressBar.Hide()
			ui.statusLabel.SetText(IconError + " Conversion failed")
			ui.convertBtn.Enable()
			ui.formatSelect.Enable()
		})
		ui.notifier.Notify("Conversion failed", task.LastError, notify.SeverityError)
	}
}

// removeStaleArtifact deletes the output of a conversion that outlived its
// session. Artifacts share the fixed name converted.<token>, so the file is
// kept when a fresher conversion has already written over it (its mtime
// postdates the stale task's finish).
func (ui *RootUI) removeStaleArtifact(task *model.ConversionTask) {
	info, err := os.Stat(task.OutputPath)
	if err != nil {
		return
	}
	if info.ModTime().After(task.FinishedAt) {
		return
	}
	os.Remove(task.OutputPath)
}

// onConversionCompleted updates the UI for a finished conversion and
// notifies the user.
func (ui *RootUI) onConversionCompleted(task *model.ConversionTask) {
	description := fmt.Sprintf("Saved %s to %s", task.ArtifactName(), ui.settings.GetOutputDirectory())
	if task.Format.Approximated {
		description += " (MP4-encoded, labeled " + task.Format.MIME + ")"
	}

	fyne.Do(func() {
		ui.progressBar.Hide()
		ui.statusLabel.SetText("Done" + MiddleDotSeparator + task.ArtifactName())
		ui.convertBtn.Enable()
		ui.formatSelect.Enable()
	})

	ui.notifier.Notify("Conversion complete", description, notify.SeverityInfo)
	ui.showToastNotification(task)

	if ui.settings.GetAutoRevealOnComplete() && task.OutputPath != "" {
		ui.onRevealFile(task.OutputPath)
	}
}

// onRevealFile reveals a file in the system file manager
func (ui *RootUI) onRevealFile(path string) {
	if err := platform.OpenFileInManager(path); err != nil {
		logging.Warn("failed to reveal %s: %v", path, err)
	}
}

// onOpenFile opens a file with the default application
func (ui *RootUI) onOpenFile(path string) {
	if err := platform.OpenFileWithDefaultApp(path); err != nil {
		logging.Warn("failed to open %s: %v", path, err)
	}
}

// showToastNotification shows an in-app toast with Reveal/Open actions
func (ui *RootUI) showToastNotification(task *model.ConversionTask) {
	titleLabel := widget.NewLabel("Conversion complete")
	titleLabel.TextStyle = fyne.TextStyle{Bold: true}

	messageLabel := widget.NewLabel(task.ArtifactName())
	messageLabel.Truncation = fyne.TextTruncateEllipsis

	revealBtn := widget.NewButton("Reveal"+MiddleDotSeparator+IconFolder, func() {
		ui.onRevealFile(task.OutputPath)
	})
	revealBtn.Importance = widget.HighImportance

	openBtn := widget.NewButton("Open", func() {
		ui.onOpenFile(task.OutputPath)
	})
	openBtn.Importance = widget.MediumImportance

	var toastPopup *widget.PopUp
	closeBtn := widget.NewButton(IconClose, func() {
		if toastPopup != nil {
			toastPopup.Hide()
		}
	})
	closeBtn.Importance = widget.LowImportance

	header := container.NewBorder(nil, nil, titleLabel, closeBtn)
	actions := container.NewHBox(revealBtn, openBtn)
	content := container.NewVBox(header, messageLabel, actions)

	fyne.Do(func() {
		toastPopup = widget.NewPopUp(content, ui.window.Canvas())

		canvasSize := ui.window.Canvas().Size()
		toastSize := fyne.NewSize(ToastWidth, ToastHeight)
		toastPos := fyne.NewPos(canvasSize.Width-toastSize.Width-ToastMargin, ToastMargin)

		toastPopup.Resize(toastSize)
		toastPopup.Move(toastPos)
		toastPopup.Show()
	})

	go func() {
		time.Sleep(ToastAutoHide)
		fyne.Do(func() {
			if toastPopup != nil {
				toastPopup.Hide()
			}
		})
	}()
}
