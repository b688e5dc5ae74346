package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// TempStore spools incoming uploads to the local disk before they are handed to
// a Storage backend, so tools that need a real file path (ffprobe) can read them.
type TempStore struct {
	fs      afero.Fs
	tempDir string
}

// NewTempStore creates a new TempStore instance.
// If tempDir is empty, a "vidvault" directory under os.TempDir() is used.
// The directory is created if it doesn't exist.
func NewTempStore(tempDir string) (*TempStore, error) {
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "vidvault")
	}

	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(tempDir, 0750); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}

	return &TempStore{fs: osFs, tempDir: tempDir}, nil
}

// TempDir returns the temporary directory path.
func (s *TempStore) TempDir() string {
	return s.tempDir
}

// SaveTemp saves data to a temporary file and returns the file path.
// The name is used as a base for the filename with a unique suffix.
func (s *TempStore) SaveTemp(ctx context.Context, name string, data io.Reader) (string, error) {
	if err := checkContext(ctx); err != nil {
		return "", err
	}

	f, err := afero.TempFile(s.fs, s.tempDir, name+"_*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	fileName := f.Name()
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(fileName)
		return "", fmt.Errorf("write temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = s.fs.Remove(fileName)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	return fileName, nil
}

// LoadTemp opens a temporary file for reading.
// The caller is responsible for closing the returned file.
func (s *TempStore) LoadTemp(ctx context.Context, path string) (io.ReadSeekCloser, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	f, err := s.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open temp file: %w", err)
	}
	return f, nil
}

// CleanupTemp removes the specified temporary files.
// It continues cleanup even if some files fail to delete,
// returning the first error encountered.
func (s *TempStore) CleanupTemp(ctx context.Context, paths []string) error {
	var firstErr error
	for _, p := range paths {
		if err := checkContext(ctx); err != nil {
			return err
		}

		if err := s.fs.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove temp file %s: %w", p, err)
			}
		}
	}
	return firstErr
}
