// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Metadata store backends.
const (
	BackendMemory   = "memory"
	BackendREST     = "rest"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Static errors for configuration validation.
var (
	// ErrUnknownBackend is returned when METADATA_BACKEND names no known backend.
	ErrUnknownBackend = errors.New("config: METADATA_BACKEND must be one of memory, rest, sqlite, postgres")
	// ErrMetadataStoreURLRequired is returned when the rest backend has no METADATA_STORE_URL.
	ErrMetadataStoreURLRequired = errors.New("config: METADATA_STORE_URL is required for the rest backend")
	// ErrMetadataStoreKeyRequired is returned when the rest backend has no METADATA_STORE_KEY.
	ErrMetadataStoreKeyRequired = errors.New("config: METADATA_STORE_KEY is required for the rest backend")
	// ErrDatabaseDSNRequired is returned when the postgres backend has no DATABASE_DSN.
	ErrDatabaseDSNRequired = errors.New("config: DATABASE_DSN is required for the postgres backend")
	// ErrInvalidMetadataStoreTimeout is returned when METADATA_STORE_TIMEOUT is negative.
	ErrInvalidMetadataStoreTimeout = errors.New("config: METADATA_STORE_TIMEOUT must not be negative")
	// ErrDatabasePathRequired is returned when the sqlite backend has no DATABASE_PATH.
	ErrDatabasePathRequired = errors.New("config: DATABASE_PATH is required for the sqlite backend")
	// ErrInvalidMaxUpload is returned when MAX_UPLOAD_BYTES is not positive.
	ErrInvalidMaxUpload = errors.New("config: MAX_UPLOAD_BYTES must be positive")
	// ErrInvalidPort is returned when PORT is outside 1-65535.
	ErrInvalidPort = errors.New("config: PORT must be between 1 and 65535")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port               int      `env:"PORT, default=3001" json:"port"`
	StaticDir          string   `env:"STATIC_DIR" json:"static_dir,omitempty"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS, default=*" json:"cors_allowed_origins"`

	// Metadata store settings
	MetadataBackend      string `env:"METADATA_BACKEND, default=memory" json:"metadata_backend"`
	MetadataStoreURL     string `env:"METADATA_STORE_URL" json:"metadata_store_url,omitempty"`
	MetadataStoreKey     string `env:"METADATA_STORE_KEY" json:"-"` // Masked in JSON
	MetadataStoreTable   string `env:"METADATA_STORE_TABLE, default=videos" json:"metadata_store_table"`
	MetadataStoreRetries uint   `env:"METADATA_STORE_RETRIES, default=0" json:"metadata_store_retries"`
	DatabasePath         string `env:"DATABASE_PATH, default=./data/videos.db" json:"database_path"`
	DatabaseDSN          string `env:"DATABASE_DSN" json:"-"` // Masked in JSON

	// MetadataStoreTimeout bounds each REST call; zero disables the timeout.
	MetadataStoreTimeout time.Duration `env:"METADATA_STORE_TIMEOUT, default=30s" json:"metadata_store_timeout"`
	// MetadataStoreMediaColumns also writes content_type and size_bytes to the REST table.
	MetadataStoreMediaColumns bool `env:"METADATA_STORE_MEDIA_COLUMNS, default=false" json:"metadata_store_media_columns"`

	// Storage settings
	UploadDir      string `env:"UPLOAD_DIR, default=./uploads" json:"upload_dir"`
	TempDir        string `env:"TEMP_DIR" json:"temp_dir,omitempty"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES, default=104857600" json:"max_upload_bytes"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	S3Prefix           string `env:"S3_PREFIX" json:"s3_prefix,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Media settings
	MediaProbeEnabled   bool   `env:"MEDIA_PROBE_ENABLED, default=false" json:"media_probe_enabled"`
	FFmpegPath          string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	FFprobePath         string `env:"FFPROBE_PATH, default=ffprobe" json:"ffprobe_path"`
	DefaultThumbnailURL string `env:"DEFAULT_THUMBNAIL_URL" json:"default_thumbnail_url,omitempty"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
	LogFile   string `env:"LOG_FILE" json:"log_file,omitempty"`
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// LoadDotEnv loads variables from the given .env files (default ".env") into
// the process environment. Missing files are ignored and variables that are
// already set are never overridden.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables using go-envconfig.
// The result is validated before it is returned.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.MetadataBackend = strings.ToLower(strings.TrimSpace(cfg.MetadataBackend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the selected backends have everything they need.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if c.MaxUploadBytes <= 0 {
		return ErrInvalidMaxUpload
	}

	switch c.MetadataBackend {
	case BackendMemory:
	case BackendREST:
		if c.MetadataStoreURL == "" {
			return ErrMetadataStoreURLRequired
		}
		if c.MetadataStoreKey == "" {
			return ErrMetadataStoreKeyRequired
		}
		if c.MetadataStoreTimeout < 0 {
			return ErrInvalidMetadataStoreTimeout
		}
	case BackendSQLite:
		if c.DatabasePath == "" {
			return ErrDatabasePathRequired
		}
	case BackendPostgres:
		if c.DatabaseDSN == "" {
			return ErrDatabaseDSNRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.MetadataBackend)
	}

	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs. When LogFile is set, logs
// are also written to that file, rotated by size.
func (c *Config) NewLogger() *slog.Logger {
	var out io.Writer = os.Stdout
	if c.LogFile != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		})
	}
	return c.newLogger(out)
}

func (c *Config) newLogger(out io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.LogLevel)}

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, MetadataBackend: %s, MetadataStoreURL: %s, MetadataStoreKey: %s, DatabasePath: %s, DatabaseDSN: %s, UploadDir: %s, TempDir: %s, MaxUploadBytes: %d, S3Bucket: %s, S3Region: %s, S3Endpoint: %s, MediaProbeEnabled: %t, StaticDir: %s, LogFormat: %s, LogLevel: %s, LogFile: %s}",
		c.Port,
		c.MetadataBackend,
		c.MetadataStoreURL,
		mask(c.MetadataStoreKey),
		c.DatabasePath,
		mask(c.DatabaseDSN),
		c.UploadDir,
		c.TempDir,
		c.MaxUploadBytes,
		c.S3Bucket,
		c.S3Region,
		c.S3Endpoint,
		c.MediaProbeEnabled,
		c.StaticDir,
		c.LogFormat,
		c.LogLevel,
		c.LogFile,
	)
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "****"
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
