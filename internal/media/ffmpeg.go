package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Static errors for media operations.
var (
	// ErrInvalidDuration is returned when ffprobe reports a negative or non-finite duration.
	ErrInvalidDuration = errors.New("invalid duration: must be a non-negative number")
	// ErrFFprobeExecution is returned when ffprobe command fails.
	ErrFFprobeExecution = errors.New("ffprobe execution failed")
)

// Compile-time check that FFmpegProber implements Prober.
var _ Prober = (*FFmpegProber)(nil)

// thumbnailOffset is how far into the video the thumbnail frame is taken from.
// Videos shorter than this fall back to the first frame.
const thumbnailOffset = time.Second

// FFmpegProber implements Prober using the ffmpeg and ffprobe CLIs.
type FFmpegProber struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
}

// NewFFmpegProber creates a new FFmpegProber.
// Empty paths default to "ffmpeg" and "ffprobe" (found via PATH).
func NewFFmpegProber(ffmpegPath, ffprobePath string) *FFmpegProber {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegProber{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// Duration returns the duration of a media file.
// It uses ffprobe to extract the container duration metadata.
func (p *FFmpegProber) Duration(ctx context.Context, path string) (time.Duration, error) {
	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return 0, fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, stderr.String())
	}

	return parseDuration(stdout.String())
}

// Thumbnail grabs one frame (one second in, or the first frame for very short
// clips) and writes it to dstPath as a JPEG.
func (p *FFmpegProber) Thumbnail(ctx context.Context, videoPath, dstPath string) error {
	args := []string{
		"-y", // Overwrite output file without asking
		"-ss", strconv.FormatFloat(thumbnailOffset.Seconds(), 'f', 2, 64), // Seek before decoding
		"-i", videoPath, // Input file
		"-frames:v", "1", // Output single frame (image)
		"-q:v", "3", // JPEG quality
		"-f", "image2", // Force image muxer
		dstPath,
	}

	err := p.runFFmpeg(ctx, args)
	if err == nil && nonEmpty(dstPath) {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}

	// Seeking past the end of a short clip produces no frame; retry at the start.
	args[2] = "0"
	if err := p.runFFmpeg(ctx, args); err != nil {
		return err
	}
	if !nonEmpty(dstPath) {
		return &FFmpegError{Args: args, Err: errors.New("no frame extracted")}
	}
	return nil
}

func nonEmpty(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (p *FFmpegProber) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Check if context was cancelled
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}

// parseDuration converts ffprobe's seconds output ("12.345000") to a time.Duration.
func parseDuration(out string) (time.Duration, error) {
	secs, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	if secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return 0, fmt.Errorf("%w: got %q", ErrInvalidDuration, strings.TrimSpace(out))
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// FormatDuration renders d as "MM:SS", or "H:MM:SS" from one hour up.
// Fractional seconds are truncated.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
