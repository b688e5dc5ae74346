// Package server provides the HTTP server for the video library API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import "time"

// UploadVideoRequest holds the text fields of the multipart upload form.
type UploadVideoRequest struct {
	// Title is the display title of the video.
	Title string `validate:"required,max=200"`
	// Description is an optional free-text description.
	Description string `validate:"max=5000"`
	// UserID optionally identifies the uploader.
	UserID string `validate:"max=128"`
}

// UploadVideoResponse is the HTTP response after a successful upload.
type UploadVideoResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// VideoURL is the stream URL of the stored file.
	VideoURL string `json:"videoUrl"`
}

// VideoSummary is one entry of the video list.
type VideoSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	UploadDate   time.Time `json:"uploadDate"`
	Duration     string    `json:"duration"`
}

// VideoResponse is the HTTP response for video details.
type VideoResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"videoUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	UploadDate   time.Time `json:"uploadDate"`
	Duration     string    `json:"duration"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
