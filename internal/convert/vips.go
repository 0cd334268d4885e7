package convert

import (
	"fmt"
	"os"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"

	"github.com/mediamorph/mediamorph/internal/logging"
	"github.com/mediamorph/mediamorph/internal/model"
)

var (
	vipsInitOnce  sync.Once
	vipsAvailable bool
)

// initVips starts libvips once, with conservative memory settings. The
// desktop app converts one file at a time, so a single worker is enough.
func initVips() bool {
	vipsInitOnce.Do(func() {
		vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
			switch level {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			default:
				logging.Debug("[%s] %s", domain, msg)
			}
		}, vips.LogLevelWarning)

		vips.Startup(&vips.Config{
			ConcurrencyLevel: 1,
			MaxCacheMem:      50 * 1024 * 1024,
			MaxCacheSize:     100,
		})

		vipsAvailable = true
		logging.Info("libvips initialized (version: %s)", vips.Version)
	})
	return vipsAvailable
}

// ShutdownVips releases libvips resources. Call once at application exit.
func ShutdownVips() {
	if vipsAvailable {
		vips.Shutdown()
		vipsAvailable = false
	}
}

// convertVips re-encodes an image through libvips for the formats the
// standard library cannot emit.
func (s *Service) convertVips(task *model.ConversionTask, stagingPath string) error {
	if !initVips() {
		return fmt.Errorf("libvips is not available")
	}

	ref, err := vips.LoadImageFromFile(task.InputPath, vips.NewImportParams())
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", task.InputName, err)
	}
	defer ref.Close()

	var buf []byte
	switch task.Format.Token {
	case "webp":
		buf, _, err = ref.ExportWebp(vips.NewWebpExportParams())
	case "avif":
		buf, _, err = ref.ExportAvif(vips.NewAvifExportParams())
	default:
		return fmt.Errorf("no vips encoder for %s", task.Format.Token)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s as %s: %w", task.InputName, task.Format.Token, err)
	}

	return os.WriteFile(stagingPath, buf, 0o644)
}
