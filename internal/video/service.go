package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/maauso/vidvault/internal/media"
	"github.com/maauso/vidvault/internal/storage"
	"github.com/maauso/vidvault/internal/stream"
	"github.com/maauso/vidvault/internal/video/id"
)

// sniffLen is how many leading bytes are inspected to detect the upload's format.
const sniffLen = 3072

// Spooler stages uploads on local disk before they reach durable storage.
type Spooler interface {
	SaveTemp(ctx context.Context, name string, data io.Reader) (string, error)
	LoadTemp(ctx context.Context, path string) (io.ReadSeekCloser, error)
	CleanupTemp(ctx context.Context, paths []string) error
}

// UploadInput contains the fields of an upload request.
type UploadInput struct {
	// Title is required.
	Title string
	// Description is optional.
	Description string
	// UserID is optional; empty means anonymous.
	UserID string
	// OriginalFilename is the client's filename, used for its extension.
	OriginalFilename string
	// File is the video payload. Nil means no file was uploaded.
	File io.Reader
}

// Service handles video uploads and library queries.
type Service struct {
	repo          Repository
	store         storage.Storage
	spool         Spooler
	prober        media.Prober
	ids           id.Generator
	logger        *slog.Logger
	now           func() time.Time
	thumbFallback string
}

// ServiceOption is a function that configures a Service.
type ServiceOption func(*Service)

// WithProber enables duration probing and thumbnail extraction.
func WithProber(p media.Prober) ServiceOption {
	return func(s *Service) {
		s.prober = p
	}
}

// WithIDGenerator sets the generator used for video IDs and storage names.
func WithIDGenerator(g id.Generator) ServiceOption {
	return func(s *Service) {
		s.ids = g
	}
}

// WithClock sets the clock used for upload dates.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithDefaultThumbnailURL sets the thumbnail used when none can be extracted.
func WithDefaultThumbnailURL(u string) ServiceOption {
	return func(s *Service) {
		s.thumbFallback = u
	}
}

// NewService creates a new Service.
func NewService(repo Repository, store storage.Storage, spool Spooler, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:   repo,
		store:  store,
		spool:  spool,
		ids:    id.UUIDGenerator{},
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload validates the input, stores the file under a generated name and
// records its metadata. If the metadata insert fails the stored file is removed.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*Video, error) {
	if in.File == nil {
		return nil, &ValidationError{Field: "video", Message: "no video file uploaded"}
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Message: "video title is required"}
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(in.File, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: read upload: %w", ErrStorage, err)
	}
	head = head[:n]
	if n == 0 {
		return nil, &ValidationError{Field: "video", Message: "uploaded file is empty"}
	}

	mt := mimetype.Detect(head)
	if !isVideo(mt) {
		return nil, &ValidationError{Field: "video", Message: "only video files are allowed"}
	}

	videoID := s.ids.NewID()
	filename := videoID + extensionFor(in.OriginalFilename, mt)

	s.logger.Info("receiving upload",
		slog.String("video_id", videoID),
		slog.String("filename", filename),
		slog.String("content_type", mt.String()),
	)

	tmpPath, err := s.spool.SaveTemp(ctx, videoID, io.MultiReader(bytes.NewReader(head), in.File))
	if err != nil {
		return nil, fmt.Errorf("%w: spool upload: %w", ErrStorage, err)
	}
	cleanup := []string{tmpPath}
	defer func() {
		// The request context may already be done; cleanup must still run.
		if err := s.spool.CleanupTemp(context.WithoutCancel(ctx), cleanup); err != nil {
			s.logger.Warn("failed to clean up temp files",
				slog.String("video_id", videoID),
				slog.String("error", err.Error()),
			)
		}
	}()

	duration := UnknownDuration
	thumbnailURL := s.thumbFallback
	var thumbName string
	if s.prober != nil {
		duration = s.probeDuration(ctx, videoID, tmpPath)
		thumbPath := tmpPath + ".jpg"
		cleanup = append(cleanup, thumbPath)
		if name, ok := s.storeThumbnail(ctx, videoID, tmpPath, thumbPath); ok {
			thumbName = name
			thumbnailURL = ThumbnailURL(name)
		}
	}

	size, err := s.saveFile(ctx, filename, tmpPath)
	if err != nil {
		s.deleteObjects(ctx, thumbName)
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	v := &Video{
		ID:           videoID,
		Title:        title,
		Description:  in.Description,
		Filename:     filename,
		VideoURL:     StreamURL(filename),
		ThumbnailURL: thumbnailURL,
		Duration:     duration,
		ContentType:  mt.String(),
		SizeBytes:    size,
		UploadDate:   s.now().UTC(),
	}
	if uid := strings.TrimSpace(in.UserID); uid != "" {
		v.UserID = &uid
	}

	if err := s.repo.Insert(ctx, v); err != nil {
		s.logger.Error("failed to save video metadata",
			slog.String("video_id", videoID),
			slog.String("error", err.Error()),
		)
		s.deleteObjects(ctx, filename, thumbName)
		return nil, fmt.Errorf("%w: %w", ErrMetadataStore, err)
	}

	s.logger.Info("video uploaded",
		slog.String("video_id", videoID),
		slog.String("filename", filename),
		slog.Int64("size_bytes", size),
		slog.String("duration", duration),
	)

	return v, nil
}

// GetVideo retrieves a video by ID.
func (s *Service) GetVideo(ctx context.Context, videoID string) (*Video, error) {
	v, err := s.repo.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, ErrVideoNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrMetadataStore, err)
	}
	return v, nil
}

// ListVideos returns all videos, newest first.
func (s *Service) ListVideos(ctx context.Context) ([]*Video, error) {
	videos, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadataStore, err)
	}
	return videos, nil
}

func (s *Service) saveFile(ctx context.Context, name, path string) (int64, error) {
	f, err := s.spool.LoadTemp(ctx, path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	return s.store.Save(ctx, name, f)
}

func (s *Service) probeDuration(ctx context.Context, videoID, path string) string {
	d, err := s.prober.Duration(ctx, path)
	if err != nil {
		s.logger.Warn("failed to probe video duration",
			slog.String("video_id", videoID),
			slog.String("error", err.Error()),
		)
		return UnknownDuration
	}
	return media.FormatDuration(d)
}

func (s *Service) storeThumbnail(ctx context.Context, videoID, videoPath, thumbPath string) (string, bool) {
	if err := s.prober.Thumbnail(ctx, videoPath, thumbPath); err != nil {
		s.logger.Warn("failed to extract thumbnail",
			slog.String("video_id", videoID),
			slog.String("error", err.Error()),
		)
		return "", false
	}

	name := videoID + ".jpg"
	if _, err := s.saveFile(ctx, name, thumbPath); err != nil {
		s.logger.Warn("failed to store thumbnail",
			slog.String("video_id", videoID),
			slog.String("error", err.Error()),
		)
		return "", false
	}
	return name, true
}

func (s *Service) deleteObjects(ctx context.Context, names ...string) {
	for _, name := range names {
		if name == "" {
			continue
		}
		if err := s.store.Delete(context.WithoutCancel(ctx), name); err != nil {
			s.logger.Error("failed to remove orphaned file",
				slog.String("filename", name),
				slog.String("error", err.Error()),
			)
		}
	}
}

// isVideo reports whether mt or one of its parents is a video type.
func isVideo(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "video/") {
			return true
		}
	}
	return false
}

// extensionFor keeps the client's extension only when the stream route would
// serve it with the detected type. Otherwise the detected format's canonical
// extension is used, so the served Content-Type always matches the bytes.
func extensionFor(original string, mt *mimetype.MIME) string {
	ext := strings.ToLower(filepath.Ext(original))
	if ct, ok := stream.LookupContentType(ext); ok {
		for m := mt; m != nil; m = m.Parent() {
			if m.Is(ct) {
				return ext
			}
		}
	}
	return mt.Extension()
}
