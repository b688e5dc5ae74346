// Package storage provides durable file storage for uploaded videos and thumbnails.
// It defines the Storage interface (port) and implementations for local disk and S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Static errors for storage operations.
var (
	// ErrNotFound is returned when the requested object does not exist.
	ErrNotFound = errors.New("storage: object not found")
	// ErrInvalidName is returned for object names that are empty or contain path elements.
	ErrInvalidName = errors.New("storage: invalid object name")
	// ErrInvalidRange is returned when OpenRange is called with an inverted or negative window.
	ErrInvalidRange = errors.New("storage: invalid byte range")
)

// partialSuffix marks a file that is still being written by LocalStorage.Save.
const partialSuffix = ".part"

// ObjectInfo describes a stored object at the time it was inspected.
type ObjectInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Storage defines the interface for durable object storage.
// Objects are immutable once written; concurrent reads need no coordination.
type Storage interface {
	// Save writes data under name and returns the number of bytes stored.
	Save(ctx context.Context, name string, data io.Reader) (int64, error)

	// Stat returns metadata for name. Returns ErrNotFound if it does not exist.
	Stat(ctx context.Context, name string) (ObjectInfo, error)

	// OpenRange returns a reader over the inclusive byte window [start, end].
	// The caller is responsible for closing the returned ReadCloser.
	OpenRange(ctx context.Context, name string, start, end int64) (io.ReadCloser, error)

	// Delete removes name. Deleting a missing object is not an error.
	Delete(ctx context.Context, name string) error
}

// ValidateName rejects names that could escape the storage root or that name
// an in-progress upload. Valid names are a single path element such as "5f0c...e1.mp4".
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.HasSuffix(strings.ToLower(name), partialSuffix) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func validateRange(start, end int64) error {
	if start < 0 || end < start {
		return fmt.Errorf("%w: %d-%d", ErrInvalidRange, start, end)
	}
	return nil
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
		return nil
	}
}
