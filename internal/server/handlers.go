package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/vidvault/internal/storage"
	"github.com/maauso/vidvault/internal/stream"
	"github.com/maauso/vidvault/internal/video"
)

const (
	// DefaultMaxUploadBytes is the upload size limit when none is configured.
	DefaultMaxUploadBytes int64 = 100 << 20
	// multipartMemory is how much of a multipart form is kept in memory before
	// parts spill to temporary files.
	multipartMemory = 32 << 20
	// formOverhead is the room left for boundaries and text fields on top of the file limit.
	formOverhead = 1 << 20
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service        *video.Service
	responder      *stream.Responder
	validator      *validator.Validate
	logger         *slog.Logger
	maxUploadBytes int64
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithMaxUploadBytes sets the largest accepted upload request body.
func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *Handlers) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *video.Service, responder *stream.Responder, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:        service,
		responder:      responder,
		validator:      validator.New(),
		logger:         logger,
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// UploadVideo handles POST /videos/upload requests.
func (h *Handlers) UploadVideo(w http.ResponseWriter, r *http.Request) {
	bodyLimit := h.maxUploadBytes + formOverhead
	if r.ContentLength > bodyLimit {
		writeError(w, http.StatusRequestEntityTooLarge, tooLargeMessage(h.maxUploadBytes), "FILE_TOO_LARGE")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, tooLargeMessage(h.maxUploadBytes), "FILE_TOO_LARGE")
			return
		}
		h.logger.Warn("failed to parse upload form",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid multipart form", "INVALID_FORM")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("video")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			writeError(w, http.StatusBadRequest, "no video file uploaded", "VALIDATION_ERROR")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid video file", "INVALID_FORM")
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > h.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, tooLargeMessage(h.maxUploadBytes), "FILE_TOO_LARGE")
		return
	}

	req := UploadVideoRequest{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: r.FormValue("description"),
		UserID:      strings.TrimSpace(r.FormValue("userId")),
	}
	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, validationMessage(err), "VALIDATION_ERROR")
		return
	}

	created, err := h.service.Upload(r.Context(), video.UploadInput{
		Title:            req.Title,
		Description:      req.Description,
		UserID:           req.UserID,
		OriginalFilename: originalFilename(header),
		File:             file,
	})
	if err != nil {
		h.writeServiceError(w, err, "failed to upload video", "UPLOAD_FAILED")
		return
	}

	writeJSON(w, http.StatusCreated, UploadVideoResponse{
		ID:          created.ID,
		Title:       created.Title,
		Description: created.Description,
		VideoURL:    created.VideoURL,
	})
}

// ListVideos handles GET /videos requests.
func (h *Handlers) ListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.service.ListVideos(r.Context())
	if err != nil {
		h.logger.Error("failed to list videos",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to fetch videos", "FETCH_FAILED")
		return
	}

	resp := make([]VideoSummary, 0, len(videos))
	for _, v := range videos {
		resp = append(resp, VideoSummary{
			ID:           v.ID,
			Title:        v.Title,
			Description:  v.Description,
			ThumbnailURL: v.ThumbnailURL,
			UploadDate:   v.UploadDate,
			Duration:     v.Duration,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetVideo handles GET /videos/{id} requests.
func (h *Handlers) GetVideo(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("id")
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "video ID is required", "MISSING_VIDEO_ID")
		return
	}

	v, err := h.service.GetVideo(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, video.ErrVideoNotFound) {
			writeError(w, http.StatusNotFound, "video not found", "VIDEO_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get video",
			slog.String("video_id", videoID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to fetch video", "FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, VideoResponse{
		ID:           v.ID,
		Title:        v.Title,
		Description:  v.Description,
		VideoURL:     v.VideoURL,
		ThumbnailURL: v.ThumbnailURL,
		UploadDate:   v.UploadDate,
		Duration:     v.Duration,
	})
}

// StreamVideo handles GET and HEAD /videos/stream/{filename} requests.
func (h *Handlers) StreamVideo(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, "video not found", "VIDEO_NOT_FOUND")
}

// StreamThumbnail handles GET and HEAD /videos/thumbnails/{filename} requests.
func (h *Handlers) StreamThumbnail(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, "thumbnail not found", "THUMBNAIL_NOT_FOUND")
}

func (h *Handlers) serveFile(w http.ResponseWriter, r *http.Request, notFoundMsg, notFoundCode string) {
	filename := r.PathValue("filename")

	err := h.responder.Serve(w, r, filename)
	if err == nil {
		return
	}
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, notFoundMsg, notFoundCode)
		return
	}
	h.logger.Error("failed to stream file",
		slog.String("filename", filename),
		slog.String("error", err.Error()),
	)
	writeError(w, http.StatusInternalServerError, "failed to stream file", "STREAM_FAILED")
}

// writeServiceError maps upload service errors to HTTP responses.
func (h *Handlers) writeServiceError(w http.ResponseWriter, err error, fallbackMsg, fallbackCode string) {
	var verr *video.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message, "VALIDATION_ERROR")
	case errors.Is(err, video.ErrStorage):
		h.logger.Error("storage failure", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to store video", "STORAGE_ERROR")
	case errors.Is(err, video.ErrMetadataStore):
		h.logger.Error("metadata store failure", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to save video metadata", "METADATA_STORE_ERROR")
	default:
		h.logger.Error(fallbackMsg, slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, fallbackMsg, fallbackCode)
	}
}

func originalFilename(header *multipart.FileHeader) string {
	if header == nil {
		return ""
	}
	return header.Filename
}

func tooLargeMessage(limit int64) string {
	if limit >= 1<<20 {
		return fmt.Sprintf("file exceeds the %d MB upload limit", limit>>20)
	}
	return fmt.Sprintf("file exceeds the %d byte upload limit", limit)
}

// validationMessage turns validator errors into a short client-facing message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("video %s is required", field))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
