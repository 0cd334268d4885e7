package convert

import (
	"fmt"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/mediamorph/mediamorph/internal/model"
)

// convertNative re-encodes an image with the pure-Go codecs. The token has
// already been validated against the format table, so FormatFromExtension
// only fails if the table and the codec set drift apart.
func (s *Service) convertNative(task *model.ConversionTask, stagingPath string) error {
	img, err := imaging.Open(task.InputPath, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", task.InputName, err)
	}

	outFormat, err := imaging.FormatFromExtension(task.Format.Token)
	if err != nil {
		return fmt.Errorf("no native encoder for %s: %w", task.Format.Token, err)
	}

	f, err := os.Create(stagingPath)
	if err != nil {
		return fmt.Errorf("failed to open staging file: %w", err)
	}

	if err := imaging.Encode(f, img, outFormat, imaging.JPEGQuality(s.jpegQuality)); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s as %s: %w", task.InputName, task.Format.Token, err)
	}
	return f.Close()
}
