// Package video provides the Video aggregate, the metadata repository port and
// the service that handles uploads and library queries.
package video

import (
	"errors"
	"fmt"
	"time"
)

const (
	// StreamRoute is the URL prefix stored video files are served from.
	StreamRoute = "/videos/stream/"
	// ThumbnailRoute is the URL prefix thumbnails are served from.
	ThumbnailRoute = "/videos/thumbnails/"
	// UnknownDuration is recorded when the duration could not be determined.
	UnknownDuration = "00:00"
)

var (
	// ErrVideoNotFound is returned when a video cannot be found by ID.
	ErrVideoNotFound = errors.New("video not found")
	// ErrVideoExists is returned when inserting a record whose ID is already taken.
	ErrVideoExists = errors.New("video already exists")
	// ErrStorage wraps failures of the file storage backend.
	ErrStorage = errors.New("storage error")
	// ErrMetadataStore wraps failures of the metadata store.
	ErrMetadataStore = errors.New("metadata store error")
)

// ValidationError reports a missing or invalid upload field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Video is the metadata record of an uploaded video.
type Video struct {
	// ID is the unique identifier for this video.
	ID string
	// Title is the user supplied title. Never empty.
	Title string
	// Description is the user supplied description, empty when not given.
	Description string
	// Filename is the storage name of the video file: "<id><ext>".
	Filename string
	// VideoURL is the stream URL derived from Filename.
	VideoURL string
	// ThumbnailURL points at the extracted thumbnail or a configured placeholder.
	ThumbnailURL string
	// UserID identifies the uploader. Nil for anonymous uploads.
	UserID *string
	// Duration is formatted "MM:SS" or "H:MM:SS".
	Duration string
	// ContentType is the MIME type sniffed from the upload.
	ContentType string
	// SizeBytes is the stored file size.
	SizeBytes int64
	// UploadDate is assigned by the server when the record is created.
	UploadDate time.Time
}

// Clone creates a deep copy of the video for safe reads.
func (v *Video) Clone() *Video {
	c := *v
	if v.UserID != nil {
		uid := *v.UserID
		c.UserID = &uid
	}
	return &c
}

// StreamURL returns the stream URL for a stored filename.
func StreamURL(filename string) string {
	return StreamRoute + filename
}

// ThumbnailURL returns the URL a stored thumbnail is served from.
func ThumbnailURL(filename string) string {
	return ThumbnailRoute + filename
}
