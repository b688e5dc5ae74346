// Package bootstrap provides dependency initialization for the video library API.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/maauso/vidvault/internal/config"
	"github.com/maauso/vidvault/internal/database"
	"github.com/maauso/vidvault/internal/media"
	"github.com/maauso/vidvault/internal/metastore"
	"github.com/maauso/vidvault/internal/storage"
	"github.com/maauso/vidvault/internal/stream"
	"github.com/maauso/vidvault/internal/video"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	VideoService *video.Service
	Responder    *stream.Responder

	closers []func() error
}

// Close releases resources opened during initialization.
func (d *Dependencies) Close() error {
	var errs []error
	for _, c := range d.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{}

	// Initialize file storage
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Initialize upload spool
	spool, err := storage.NewTempStore(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create temp store: %w", err)
	}

	// Initialize metadata repository
	repo, err := initRepository(ctx, cfg, logger, deps)
	if err != nil {
		_ = deps.Close()
		return nil, err
	}

	opts := []video.ServiceOption{
		video.WithDefaultThumbnailURL(cfg.DefaultThumbnailURL),
	}
	if cfg.MediaProbeEnabled {
		opts = append(opts, video.WithProber(media.NewFFmpegProber(cfg.FFmpegPath, cfg.FFprobePath)))
		logger.Info("media probing enabled",
			slog.String("ffmpeg", cfg.FFmpegPath),
			slog.String("ffprobe", cfg.FFprobePath),
		)
	}

	deps.VideoService = video.NewService(repo, store, spool, logger, opts...)
	deps.Responder = stream.NewResponder(store, logger)

	return deps, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Prefix:          cfg.S3Prefix,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("upload_dir", localStore.Root()),
	)
	return localStore, nil
}

// initRepository creates the metadata store selected by METADATA_BACKEND.
func initRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger, deps *Dependencies) (video.Repository, error) {
	switch cfg.MetadataBackend {
	case config.BackendREST:
		client, err := metastore.NewClient(cfg.MetadataStoreURL, cfg.MetadataStoreKey,
			metastore.WithTable(cfg.MetadataStoreTable),
			metastore.WithMaxRetries(cfg.MetadataStoreRetries),
			metastore.WithMediaColumns(cfg.MetadataStoreMediaColumns),
			metastore.WithHTTPClient(&http.Client{Timeout: cfg.MetadataStoreTimeout}),
		)
		if err != nil {
			return nil, fmt.Errorf("create metadata store client: %w", err)
		}
		logger.Info("REST metadata store configured",
			slog.String("url", cfg.MetadataStoreURL),
			slog.String("table", cfg.MetadataStoreTable),
		)
		return client, nil

	case config.BackendSQLite, config.BackendPostgres:
		db, err := database.Open(ctx, database.Config{
			Driver: cfg.MetadataBackend,
			Path:   cfg.DatabasePath,
			DSN:    cfg.DatabaseDSN,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open metadata database: %w", err)
		}
		deps.closers = append(deps.closers, func() error { return database.Close(db) })
		return database.NewRepository(db), nil

	case config.BackendMemory, "":
		logger.Warn("using in-memory metadata store; videos will be forgotten on restart")
		return video.NewMemoryRepository(), nil

	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.MetadataBackend)
	}
}
