package preview

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mediamorph/mediamorph/internal/mediatypes"
	"github.com/mediamorph/mediamorph/internal/model"
)

func writeTestPNG(t *testing.T, dir string, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	path := filepath.Join(dir, "input.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return path
}

func TestGenerateImageThumbnail(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, 64, 48)

	svc := NewService(filepath.Join(dir, "cache"), 512)
	src := &model.SourceFile{Path: path, Name: "input.png", MIME: "image/png", Kind: mediatypes.KindImage}

	handle, err := svc.Generate(context.Background(), src)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	defer handle.Release()

	if !strings.HasSuffix(handle.Path(), ".png") {
		t.Errorf("expected .png preview, got %s", handle.Path())
	}
	info, err := os.Stat(handle.Path())
	if err != nil {
		t.Fatalf("preview file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("preview file is empty")
	}
}

func TestGenerateDownscalesLargeImages(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, 300, 100)

	svc := NewService(filepath.Join(dir, "cache"), 128)
	src := &model.SourceFile{Path: path, Name: "input.png", MIME: "image/png", Kind: mediatypes.KindImage}

	handle, err := svc.Generate(context.Background(), src)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	defer handle.Release()

	f, err := os.Open(handle.Path())
	if err != nil {
		t.Fatalf("failed to open preview: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("failed to decode preview: %v", err)
	}
	if cfg.Width > 128 || cfg.Height > 128 {
		t.Errorf("preview not bounded: %dx%d", cfg.Width, cfg.Height)
	}
}

func TestGenerateRejectsNilSource(t *testing.T) {
	svc := NewService(t.TempDir(), 512)
	if _, err := svc.Generate(context.Background(), nil); err == nil {
		t.Error("expected error for nil source")
	}
}

func TestGenerateFailsOnCorruptImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := NewService(filepath.Join(dir, "cache"), 512)
	src := &model.SourceFile{Path: path, Name: "broken.png", MIME: "image/png", Kind: mediatypes.KindImage}

	if _, err := svc.Generate(context.Background(), src); err == nil {
		t.Error("expected error for corrupt image")
	}
}

func TestHandleReleaseRemovesFileAndIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, 8, 8)

	svc := NewService(filepath.Join(dir, "cache"), 512)
	src := &model.SourceFile{Path: path, Name: "input.png", MIME: "image/png", Kind: mediatypes.KindImage}

	handle, err := svc.Generate(context.Background(), src)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	previewPath := handle.Path()
	handle.Release()
	if _, err := os.Stat(previewPath); !os.IsNotExist(err) {
		t.Errorf("expected preview removed, stat err = %v", err)
	}
	handle.Release() // must not panic
	if handle.Path() != "" {
		t.Errorf("expected empty path after release, got %q", handle.Path())
	}
}
