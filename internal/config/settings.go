package config

import (
	"fyne.io/fyne/v2"

	"github.com/mediamorph/mediamorph/internal/platform"
)

// Settings keys for Fyne preferences
const (
	KeyOutputDir          = "output_directory"
	KeyJPEGQuality        = "jpeg_quality"
	KeyAutoRevealComplete = "auto_reveal_on_complete"
	KeyPreviewSize        = "preview_max_dimension"
)

// Default values
const (
	DefaultJPEGQuality        = 90
	DefaultAutoRevealComplete = true
	DefaultPreviewSize        = 512

	MinJPEGQuality = 1
	MaxJPEGQuality = 100
	MinPreviewSize = 128
	MaxPreviewSize = 2048
)

// Settings manages application configuration
type Settings struct {
	app fyne.App
}

// NewSettings creates a new settings manager
func NewSettings(app fyne.App) *Settings {
	return &Settings{app: app}
}

// GetOutputDirectory returns the directory converted artifacts are saved to
func (s *Settings) GetOutputDirectory() string {
	dir := s.app.Preferences().String(KeyOutputDir)
	if dir == "" {
		// Use system default Downloads directory
		defaultDir, err := platform.GetHomeDownloadsDir()
		if err != nil {
			defaultDir = "/tmp/mediamorph"
		}
		s.SetOutputDirectory(defaultDir)
		return defaultDir
	}
	return dir
}

// SetOutputDirectory sets the artifact output directory
func (s *Settings) SetOutputDirectory(dir string) {
	s.app.Preferences().SetString(KeyOutputDir, dir)
}

// GetJPEGQuality returns the quality used when re-encoding to jpeg
func (s *Settings) GetJPEGQuality() int {
	value := s.app.Preferences().Int(KeyJPEGQuality)
	if value <= 0 {
		s.SetJPEGQuality(DefaultJPEGQuality)
		return DefaultJPEGQuality
	}
	return value
}

// SetJPEGQuality sets the jpeg re-encode quality, clamped to 1-100
func (s *Settings) SetJPEGQuality(quality int) {
	if quality < MinJPEGQuality {
		quality = MinJPEGQuality
	}
	if quality > MaxJPEGQuality {
		quality = MaxJPEGQuality
	}
	s.app.Preferences().SetInt(KeyJPEGQuality, quality)
}

// GetAutoRevealOnComplete returns whether to reveal finished artifacts in
// the file manager
func (s *Settings) GetAutoRevealOnComplete() bool {
	return s.app.Preferences().BoolWithFallback(KeyAutoRevealComplete, DefaultAutoRevealComplete)
}

// SetAutoRevealOnComplete sets whether to auto-reveal finished artifacts
func (s *Settings) SetAutoRevealOnComplete(autoReveal bool) {
	s.app.Preferences().SetBool(KeyAutoRevealComplete, autoReveal)
}

// GetPreviewSize returns the bounding dimension for generated previews
func (s *Settings) GetPreviewSize() int {
	value := s.app.Preferences().Int(KeyPreviewSize)
	if value <= 0 {
		s.SetPreviewSize(DefaultPreviewSize)
		return DefaultPreviewSize
	}
	return value
}

// SetPreviewSize sets the preview bounding dimension, clamped to 128-2048
func (s *Settings) SetPreviewSize(size int) {
	if size < MinPreviewSize {
		size = MinPreviewSize
	}
	if size > MaxPreviewSize {
		size = MaxPreviewSize
	}
	s.app.Preferences().SetInt(KeyPreviewSize, size)
}
