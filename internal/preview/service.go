package preview

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"strconv"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/mediamorph/mediamorph/internal/logging"
	"github.com/mediamorph/mediamorph/internal/mediatypes"
	"github.com/mediamorph/mediamorph/internal/model"
	"github.com/mediamorph/mediamorph/internal/platform"
)

// Handle is a reference to a rendered preview image on disk.
type Handle struct {
	path string
}

// Path returns the location of the preview image.
func (h *Handle) Path() string {
	return h.path
}

// Release removes the preview image from disk. It is safe to call more
// than once.
func (h *Handle) Release() {
	if h.path == "" {
		return
	}
	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		logging.Debug("preview: failed to remove %s: %v", h.path, err)
	}
	h.path = ""
}

// Service renders previews into a cache directory.
type Service struct {
	cacheDir string
	maxDim   int
}

// NewService creates a preview service. maxDim bounds the longest side of
// generated images.
func NewService(cacheDir string, maxDim int) *Service {
	return &Service{cacheDir: cacheDir, maxDim: maxDim}
}

// Generate renders a preview for the source file. The caller owns the
// returned handle and must release it.
func (s *Service) Generate(ctx context.Context, src *model.SourceFile) (*Handle, error) {
	if src == nil {
		return nil, fmt.Errorf("no source file")
	}
	if err := platform.CreateDirectoryIfNotExists(s.cacheDir); err != nil {
		return nil, fmt.Errorf("failed to create preview cache dir: %w", err)
	}

	switch src.Kind {
	case mediatypes.KindImage:
		return s.imageThumbnail(src)
	case mediatypes.KindVideo:
		return s.videoPoster(ctx, src)
	default:
		return nil, fmt.Errorf("no preview for media kind %q", src.Kind)
	}
}

func (s *Service) imageThumbnail(src *model.SourceFile) (*Handle, error) {
	img, err := imaging.Open(src.Path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", src.Name, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > s.maxDim || bounds.Dy() > s.maxDim {
		img = imaging.Fit(img, s.maxDim, s.maxDim, imaging.Lanczos)
	}

	f, err := os.CreateTemp(s.cacheDir, "preview-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create preview file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, err
	}

	logging.Debug("preview: image thumbnail for %s at %s", src.Name, f.Name())
	return &Handle{path: f.Name()}, nil
}

func (s *Service) videoPoster(ctx context.Context, src *model.SourceFile) (*Handle, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	f, err := os.CreateTemp(s.cacheDir, "poster-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create poster file: %w", err)
	}
	outPath := f.Name()
	f.Close()

	args := []string{
		"-y",
		"-i", src.Path,
		"-frames:v", "1",
		"-vf", "scale=" + strconv.Itoa(s.maxDim) + ":-2",
		outPath,
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(outPath)
		logging.Debug("preview: ffmpeg poster failed for %s: %s", src.Name, stderr.String())
		return nil, fmt.Errorf("failed to extract poster frame from %s: %w", src.Name, err)
	}

	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		os.Remove(outPath)
		return nil, fmt.Errorf("ffmpeg produced no poster frame for %s", src.Name)
	}

	logging.Debug("preview: video poster for %s at %s", src.Name, outPath)
	return &Handle{path: outPath}, nil
}
