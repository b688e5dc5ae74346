// Package metastore provides a video.Repository backed by a hosted table store
// exposing a PostgREST-compatible REST API (for example Supabase).
package metastore

import (
	"time"

	"github.com/maauso/vidvault/internal/video"
)

// videoRow is the wire shape of a row in the videos table.
// content_type and size_bytes are optional columns; they are only sent when
// the client is created WithMediaColumns.
type videoRow struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Filename     string    `json:"filename"`
	VideoURL     string    `json:"video_url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	UserID       *string   `json:"user_id"`
	Duration     string    `json:"duration"`
	ContentType  string    `json:"content_type,omitempty"`
	SizeBytes    int64     `json:"size_bytes,omitempty"`
	UploadDate   time.Time `json:"upload_date"`
}

func rowFromVideo(v *video.Video, mediaColumns bool) videoRow {
	row := videoRow{
		ID:           v.ID,
		Title:        v.Title,
		Description:  v.Description,
		Filename:     v.Filename,
		VideoURL:     v.VideoURL,
		ThumbnailURL: v.ThumbnailURL,
		UserID:       v.UserID,
		Duration:     v.Duration,
		UploadDate:   v.UploadDate.UTC(),
	}
	if mediaColumns {
		row.ContentType = v.ContentType
		row.SizeBytes = v.SizeBytes
	}
	return row
}

func (r videoRow) toVideo() *video.Video {
	return &video.Video{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Filename:     r.Filename,
		VideoURL:     r.VideoURL,
		ThumbnailURL: r.ThumbnailURL,
		UserID:       r.UserID,
		Duration:     r.Duration,
		ContentType:  r.ContentType,
		SizeBytes:    r.SizeBytes,
		UploadDate:   r.UploadDate.UTC(),
	}
}

// apiError is the error body PostgREST returns for failed requests.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}
