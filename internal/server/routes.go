package server

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// APIPrefix is the alternate mount point of every route.
const APIPrefix = "/api"

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
	// StaticDir, when set, is served for every unmatched GET with an
	// index.html fallback for client-side routes.
	StaticDir string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing; GET patterns also match HEAD.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	for _, prefix := range []string{"", APIPrefix} {
		mux.HandleFunc("GET "+prefix+"/health", h.Health)
		mux.HandleFunc("POST "+prefix+"/videos/upload", h.UploadVideo)
		mux.HandleFunc("GET "+prefix+"/videos", h.ListVideos)
		mux.HandleFunc("GET "+prefix+"/videos/{id}", h.GetVideo)
		mux.HandleFunc("GET "+prefix+"/videos/stream/{filename}", h.StreamVideo)
		mux.HandleFunc("GET "+prefix+"/videos/thumbnails/{filename}", h.StreamThumbnail)
	}

	if cfg.StaticDir != "" {
		mux.Handle("GET /", spaHandler(cfg.StaticDir))
	}

	// Apply middleware chain
	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}

// spaHandler serves files from dir and falls back to index.html for paths
// that do not name an existing file.
func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		info, err := os.Stat(name)
		if err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusInternalServerError, "failed to serve file", "STATIC_FAILED")
			return
		}
		http.ServeFile(w, r, index)
	})
}
