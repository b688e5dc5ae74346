// Package media provides video inspection: duration probing and thumbnail extraction.
package media

import (
	"context"
	"time"
)

// Prober defines the interface for inspecting uploaded video files.
// Implementations should use ffmpeg or similar tools for media inspection.
type Prober interface {
	// Duration returns the playback duration of the media file at path.
	Duration(ctx context.Context, path string) (time.Duration, error)

	// Thumbnail extracts a single frame from videoPath and writes it as a JPEG
	// image to dstPath.
	Thumbnail(ctx context.Context, videoPath, dstPath string) error
}
