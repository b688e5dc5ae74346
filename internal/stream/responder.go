package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/maauso/vidvault/internal/storage"
)

// Responder writes stored files to HTTP responses.
type Responder struct {
	store  storage.Storage
	logger *slog.Logger
}

// NewResponder creates a Responder reading from store.
func NewResponder(store storage.Storage, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{store: store, logger: logger}
}

// Serve writes the file stored under name to w.
//
// Without a Range header the whole file is sent with 200. A valid single range
// is sent with 206 and a Content-Range header. An invalid or unsatisfiable range
// gets 416 with "Content-Range: bytes */size" and no body. HEAD requests receive
// the same status and headers without a body.
//
// Errors are returned only when nothing has been written yet, so the caller can
// render them; storage.ErrNotFound means the file does not exist.
func (s *Responder) Serve(w http.ResponseWriter, r *http.Request, name string) error {
	ctx := r.Context()

	info, err := s.store.Stat(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, name)
		}
		return fmt.Errorf("stat %s: %w", name, err)
	}
	size := info.Size

	status := http.StatusOK
	window := Range{Start: 0, End: size - 1}
	if header := r.Header.Get("Range"); header != "" {
		window, err = ParseRange(header, size)
		if err != nil {
			s.logger.Debug("rejecting range request",
				slog.String("filename", name),
				slog.String("range", header),
				slog.String("error", err.Error()),
			)
			w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return nil
		}
		status = http.StatusPartialContent
	}

	var body io.ReadCloser
	if r.Method != http.MethodHead && window.Length() > 0 {
		body, err = s.store.OpenRange(ctx, name, window.Start, window.End)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return err
			}
			return fmt.Errorf("open %s: %w", name, err)
		}
		defer func() { _ = body.Close() }()
	}

	h := w.Header()
	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Type", ContentType(name))
	h.Set("Content-Length", strconv.FormatInt(window.Length(), 10))
	if status == http.StatusPartialContent {
		h.Set("Content-Range", window.ContentRange(size))
	}
	w.WriteHeader(status)

	if body == nil {
		return nil
	}

	n, err := io.Copy(w, &contextReader{ctx: ctx, r: body})
	if err != nil {
		// The status line is already out; all that is left is to stop.
		s.logger.Debug("stream interrupted",
			slog.String("filename", name),
			slog.Int64("bytes_sent", n),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// contextReader stops reading once ctx is done, so a disconnected client
// does not keep the file open until the copy finishes.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
