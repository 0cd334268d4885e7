package convert

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mediamorph/mediamorph/internal/mediatypes"
	"github.com/mediamorph/mediamorph/internal/model"
)

func writeTestPNG(t *testing.T, dir string) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 64, A: 255})
		}
	}

	path := filepath.Join(dir, "input.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return path
}

func imageSource(path string) *model.SourceFile {
	return &model.SourceFile{Path: path, Name: filepath.Base(path), MIME: "image/png", Kind: mediatypes.KindImage}
}

// waitForFinished collects callback updates until the task finishes.
func waitForFinished(t *testing.T, updates <-chan model.TaskStatus) model.TaskStatus {
	t.Helper()

	deadline := time.After(10 * time.Second)
	for {
		select {
		case status := <-updates:
			if status.IsFinished() {
				return status
			}
		case <-deadline:
			t.Fatal("Timed out waiting for conversion to finish")
		}
	}
}

func TestNewService(t *testing.T) {
	service := NewService(t.TempDir(), 90)

	if len(service.tasks) != 0 {
		t.Errorf("Expected empty tasks map, got %d items", len(service.tasks))
	}
}

func TestStartConversion_NoOpWithoutSourceOrFormat(t *testing.T) {
	service := NewService(t.TempDir(), 90)

	task, err := service.StartConversion(nil, "png", 1)
	if task != nil || err != nil {
		t.Errorf("Expected no-op for nil source, got task=%v err=%v", task, err)
	}

	src := imageSource("/does/not/matter.png")
	task, err = service.StartConversion(src, "", 1)
	if task != nil || err != nil {
		t.Errorf("Expected no-op for empty format, got task=%v err=%v", task, err)
	}
}

func TestStartConversion_RejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	service := NewService(dir, 90)
	src := imageSource(writeTestPNG(t, dir))

	if _, err := service.StartConversion(src, "tiff", 1); err == nil {
		t.Error("Expected error for unknown format token, got nil")
	}
}

func TestStartConversion_RejectsKindMismatch(t *testing.T) {
	dir := t.TempDir()
	service := NewService(dir, 90)
	src := imageSource(writeTestPNG(t, dir))

	// mp4 is a video target; the source is an image
	if _, err := service.StartConversion(src, "mp4", 1); err == nil {
		t.Error("Expected error for kind mismatch, got nil")
	}
}

func TestStartConversion_NonExistentFile(t *testing.T) {
	service := NewService(t.TempDir(), 90)
	src := imageSource("/path/to/nonexistent/file.png")

	_, err := service.StartConversion(src, "png", 1)
	if err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

func TestStartConversion_ImageEndToEnd(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	service := NewService(outDir, 90)
	src := imageSource(writeTestPNG(t, dir))

	updates := make(chan model.TaskStatus, 32)
	service.SetUpdateCallback(func(task *model.ConversionTask) {
		updates <- task.Status
	})

	task, err := service.StartConversion(src, "gif", 7)
	if err != nil {
		t.Fatalf("StartConversion failed: %v", err)
	}
	if task.Generation != 7 {
		t.Errorf("Expected generation 7, got %d", task.Generation)
	}
	if task.ArtifactName() != "converted.gif" {
		t.Errorf("Expected artifact name converted.gif, got %s", task.ArtifactName())
	}

	if status := waitForFinished(t, updates); status != model.TaskStatusCompleted {
		t.Fatalf("Expected Completed, got %s (error: %s)", status, task.LastError)
	}

	if task.Percent != 100 {
		t.Errorf("Expected 100 percent on completion, got %d", task.Percent)
	}

	outPath := filepath.Join(outDir, "converted.gif")
	if task.OutputPath != outPath {
		t.Errorf("Expected output at %s, got %s", outPath, task.OutputPath)
	}
	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("Artifact missing: %v", err)
	}
	defer f.Close()
	if _, format, err := image.DecodeConfig(f); err != nil || format != "gif" {
		t.Errorf("Expected decodable gif artifact, format=%q err=%v", format, err)
	}

	// No staging leftovers in the output directory.
	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".mediamorph-") {
			t.Errorf("Staging file left behind: %s", entry.Name())
		}
	}
}

func TestStartConversion_JPEGRespectsQualitySetting(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	service := NewService(outDir, 10)
	src := imageSource(writeTestPNG(t, dir))

	updates := make(chan model.TaskStatus, 32)
	service.SetUpdateCallback(func(task *model.ConversionTask) {
		updates <- task.Status
	})

	task, err := service.StartConversion(src, "jpeg", 1)
	if err != nil {
		t.Fatalf("StartConversion failed: %v", err)
	}
	if status := waitForFinished(t, updates); status != model.TaskStatusCompleted {
		t.Fatalf("Expected Completed, got %s (error: %s)", status, task.LastError)
	}

	f, err := os.Open(filepath.Join(outDir, "converted.jpeg"))
	if err != nil {
		t.Fatalf("Artifact missing: %v", err)
	}
	defer f.Close()
	if _, format, err := image.DecodeConfig(f); err != nil || format != "jpeg" {
		t.Errorf("Expected decodable jpeg artifact, format=%q err=%v", format, err)
	}
}

func TestStartConversion_DuplicateTask(t *testing.T) {
	dir := t.TempDir()
	service := NewService(filepath.Join(dir, "out"), 90)
	src := imageSource(writeTestPNG(t, dir))

	task1, err := service.StartConversion(src, "png", 1)
	if err != nil {
		t.Fatalf("Expected no error for first conversion, got: %v", err)
	}

	// Pin the first task active so the second start must be rejected.
	service.tasksMutex.Lock()
	task1.Status = model.TaskStatusConverting
	service.tasksMutex.Unlock()

	_, err = service.StartConversion(src, "gif", 1)
	if err == nil {
		t.Error("Expected error for duplicate conversion, got nil")
	} else if !strings.Contains(err.Error(), "already in progress") {
		t.Errorf("Expected 'already in progress' error, got: %v", err)
	}
}

func TestBuildFFmpegArgs(t *testing.T) {
	tests := []struct {
		token    string
		expected []string
	}{
		{
			token: "mp4",
			expected: []string{
				"-y", "-i", "/in.mp4",
				"-c:v", H264Codec, "-preset", H264Preset, "-crf", H264CRF,
				"-c:a", AACCodec, "-b:a", AACBitrate,
				"-movflags", FastStart,
				"-f", "mp4",
				"-progress", "pipe:2", "-nostats",
				"/out",
			},
		},
		{
			token: "webm",
			expected: []string{
				"-y", "-i", "/in.mp4",
				"-c:v", VP9Codec, "-crf", VP9CRF, "-b:v", "0",
				"-c:a", OpusCodec,
				"-f", "webm",
				"-progress", "pipe:2", "-nostats",
				"/out",
			},
		},
		{
			token: "ogg",
			expected: []string{
				"-y", "-i", "/in.mp4",
				"-c:v", TheoraCodec, "-q:v", TheoraQuality,
				"-c:a", VorbisCodec, "-q:a", VorbisQuality,
				"-f", "ogg",
				"-progress", "pipe:2", "-nostats",
				"/out",
			},
		},
	}

	for _, test := range tests {
		format, ok := mediatypes.LookupFormat(mediatypes.KindVideo, test.token)
		if !ok {
			t.Fatalf("Unknown video format %q", test.token)
		}
		args := BuildFFmpegArgs("/in.mp4", "/out", format)

		if len(args) != len(test.expected) {
			t.Fatalf("%s: expected %d args, got %d: %v", test.token, len(test.expected), len(args), args)
		}
		for i, expected := range test.expected {
			if args[i] != expected {
				t.Errorf("%s arg %d: expected %s, got %s", test.token, i, expected, args[i])
			}
		}
	}
}

func TestBuildFFmpegArgs_QuicktimeUsesMP4Muxer(t *testing.T) {
	format, ok := mediatypes.LookupFormat(mediatypes.KindVideo, "mov")
	if !ok {
		t.Fatal("mov format missing from table")
	}
	if !format.Approximated {
		t.Error("Expected mov to be marked approximated")
	}

	args := BuildFFmpegArgs("/in.mp4", "/out", format)
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-f mp4") {
		t.Errorf("Expected mov to run through the mp4 muxer, args: %v", args)
	}
	if !strings.Contains(joined, H264Codec) {
		t.Errorf("Expected mov to use %s, args: %v", H264Codec, args)
	}
}

func TestMonitorProgress_ParsesClampsAndNeverRegresses(t *testing.T) {
	service := NewService(t.TempDir(), 90)

	var percents []int
	service.SetUpdateCallback(func(task *model.ConversionTask) {
		percents = append(percents, task.Percent)
	})

	task := &model.ConversionTask{ID: "convert-test", Status: model.TaskStatusConverting}

	stream := strings.Join([]string{
		"frame=12",
		"out_time_us=2500000",      // 25% of 10s
		"out_time_us=not-a-number", // garbage, skipped
		"out_time_us=1000000",      // regression, dropped
		"out_time_us=7500000",      // 75%
		"out_time_us=40000000",     // past the end, capped
		"progress=end",
	}, "\n")

	service.monitorProgress(io.NopCloser(strings.NewReader(stream)), task, 10.0)

	expected := []int{25, 75, 100}
	if len(percents) != len(expected) {
		t.Fatalf("Expected %d progress updates, got %v", len(expected), percents)
	}
	for i, percent := range expected {
		if percents[i] != percent {
			t.Errorf("Update %d: expected %d, got %d", i, percent, percents[i])
		}
	}
	if task.Percent != 100 {
		t.Errorf("Final percent = %d, expected 100", task.Percent)
	}
}

func TestMonitorProgress_IgnoresUnknownDuration(t *testing.T) {
	service := NewService(t.TempDir(), 90)

	updates := 0
	service.SetUpdateCallback(func(*model.ConversionTask) { updates++ })

	task := &model.ConversionTask{ID: "convert-test", Status: model.TaskStatusConverting}
	stream := "out_time_us=2500000\nout_time_us=5000000\n"

	service.monitorProgress(io.NopCloser(strings.NewReader(stream)), task, 0)

	if updates != 0 || task.Percent != 0 {
		t.Errorf("Expected no progress without a known duration, got %d updates, percent %d", updates, task.Percent)
	}
}

func TestUpdateCallback(t *testing.T) {
	service := NewService(t.TempDir(), 90)

	updateCalled := false
	var updatedTask *model.ConversionTask

	service.SetUpdateCallback(func(task *model.ConversionTask) {
		updateCalled = true
		updatedTask = task
	})

	task := &model.ConversionTask{
		ID:        "test-id",
		InputPath: "/test/input.png",
		Status:    model.TaskStatusConverting,
	}

	service.notifyUpdate(task)

	if !updateCalled {
		t.Error("Expected update callback to be called")
	}
	if updatedTask != task {
		t.Error("Expected updated task to be the same as input task")
	}
}

func TestStopConversion_UnknownTask(t *testing.T) {
	service := NewService(t.TempDir(), 90)

	if err := service.StopConversion("convert-missing"); err == nil {
		t.Error("Expected error for unknown task, got nil")
	}
}

func TestGenerateTaskID(t *testing.T) {
	id1 := generateTaskID()
	time.Sleep(1 * time.Millisecond) // Ensure different timestamp
	id2 := generateTaskID()

	if id1 == id2 {
		t.Error("Expected different task IDs")
	}
	if !strings.HasPrefix(id1, TaskIDPrefix) {
		t.Errorf("Expected ID to start with %q, got: %s", TaskIDPrefix, id1)
	}
}
