package convert

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mediamorph/mediamorph/internal/mediatypes"
	"github.com/mediamorph/mediamorph/internal/model"
)

// FFmpeg constants for video conversion settings
const (
	// H.264/AAC settings for the mp4 container
	H264Codec  = "libx264"
	H264Preset = "medium"
	H264CRF    = "23"
	AACCodec   = "aac"
	AACBitrate = "128k"
	FastStart  = "+faststart"

	// VP9/Opus settings for the webm container
	VP9Codec  = "libvpx-vp9"
	VP9CRF    = "32"
	OpusCodec = "libopus"

	// Theora/Vorbis settings for the ogg container
	TheoraCodec   = "libtheora"
	TheoraQuality = "7"
	VorbisCodec   = "libvorbis"
	VorbisQuality = "4"

	// Executable and I/O constants
	FFmpegCommand       = "ffmpeg"
	FFprobeCommand      = "ffprobe"
	FFprobeLogLevel     = "error"
	FFprobeShowEntries  = "format=duration"
	FFprobeOutputFormat = "csv=p=0"
	ProgressPipeTarget  = "pipe:2"
	ProgressTimePrefix  = "out_time_us="
)

// convertVideo transcodes a video through ffmpeg, streaming progress into
// the task. The container comes from the format table, so a quicktime
// target still runs through the mp4 muxer.
func (s *Service) convertVideo(ctx context.Context, task *model.ConversionTask, stagingPath string) error {
	duration, err := probeDuration(task.InputPath)
	if err != nil {
		return err
	}

	args := BuildFFmpegArgs(task.InputPath, stagingPath, task.Format)
	cmd := exec.CommandContext(ctx, FFmpegCommand, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	go s.monitorProgress(stderr, task, duration)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() == context.Canceled {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	return nil
}

// BuildFFmpegArgs builds the ffmpeg command arguments for a target format.
// The output container is forced with -f because the staging file carries
// no meaningful extension.
func BuildFFmpegArgs(inputPath, outputPath string, format mediatypes.Format) []string {
	args := []string{
		"-y", // Overwrite output file
		"-i", inputPath,
	}

	switch format.Container {
	case "webm":
		args = append(args,
			"-c:v", VP9Codec,
			"-crf", VP9CRF,
			"-b:v", "0",
			"-c:a", OpusCodec,
		)
	case "ogg":
		args = append(args,
			"-c:v", TheoraCodec,
			"-q:v", TheoraQuality,
			"-c:a", VorbisCodec,
			"-q:a", VorbisQuality,
		)
	default: // mp4, including the quicktime approximation
		args = append(args,
			"-c:v", H264Codec,
			"-preset", H264Preset,
			"-crf", H264CRF,
			"-c:a", AACCodec,
			"-b:a", AACBitrate,
			"-movflags", FastStart,
		)
	}

	return append(args,
		"-f", format.Container,
		"-progress", ProgressPipeTarget, // Progress to stderr
		"-nostats",
		outputPath,
	)
}

// probeDuration gets the duration of a video file in seconds using ffprobe
func probeDuration(filePath string) (float64, error) {
	cmd := exec.Command(FFprobeCommand, "-v", FFprobeLogLevel, "-show_entries", FFprobeShowEntries, "-of", FFprobeOutputFormat, filePath)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to run ffprobe: %w", err)
	}

	durationStr := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", durationStr, err)
	}
	return duration, nil
}

// monitorProgress parses ffmpeg progress output into the task. Percent is
// clamped to [0,100] and never decreases within one conversion.
func (s *Service) monitorProgress(stderr io.ReadCloser, task *model.ConversionTask, totalDuration float64) {
	defer stderr.Close()
	scanner := bufio.NewScanner(stderr)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, ProgressTimePrefix) {
			continue
		}

		timeMicroseconds, err := strconv.ParseInt(strings.TrimPrefix(line, ProgressTimePrefix), 10, 64)
		if err != nil || totalDuration <= 0 {
			continue
		}

		progress := (float64(timeMicroseconds) / 1e6) / totalDuration
		if progress < 0 {
			progress = 0
		}
		if progress > 1.0 {
			progress = 1.0
		}

		s.tasksMutex.Lock()
		changed := progress > task.Progress
		if changed {
			task.Progress = progress
			task.Percent = int(progress * 100)
		}
		s.tasksMutex.Unlock()

		if changed {
			s.notifyUpdate(task)
		}
	}
}

// FFmpegAvailable reports whether the ffmpeg binary can be found in PATH.
// Video targets are unavailable without it.
func FFmpegAvailable() bool {
	_, err := exec.LookPath(FFmpegCommand)
	return err == nil
}
