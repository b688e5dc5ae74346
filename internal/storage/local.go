package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/afero"
)

// Compile-time check that LocalStorage implements Storage.
var _ Storage = (*LocalStorage)(nil)

// LocalStorage implements the Storage interface on a filesystem rooted at a directory.
// Object names are flat: one file per object directly under the root.
type LocalStorage struct {
	fs   afero.Fs
	root string
}

// NewLocalStorage creates a LocalStorage rooted at dir on the OS filesystem.
// The directory is created if it doesn't exist.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if dir == "" {
		dir = "uploads"
	}

	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	return &LocalStorage{
		fs:   afero.NewBasePathFs(osFs, dir),
		root: dir,
	}, nil
}

// NewLocalStorageFs creates a LocalStorage over an existing afero filesystem.
// Objects are stored at the root of fsys.
func NewLocalStorageFs(fsys afero.Fs) *LocalStorage {
	return &LocalStorage{fs: fsys, root: "/"}
}

// Root returns the directory objects are stored in.
func (s *LocalStorage) Root() string {
	return s.root
}

// Save writes data to a partial file and renames it into place once complete,
// so readers never observe a half-written object.
func (s *LocalStorage) Save(ctx context.Context, name string, data io.Reader) (int64, error) {
	if err := ValidateName(name); err != nil {
		return 0, err
	}
	if err := checkContext(ctx); err != nil {
		return 0, err
	}

	partial := name + partialSuffix
	f, err := s.fs.OpenFile(partial, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0640)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	n, err := io.Copy(f, data)
	if err != nil {
		_ = f.Close()
		_ = s.fs.Remove(partial)
		return 0, fmt.Errorf("write file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = s.fs.Remove(partial)
		return 0, fmt.Errorf("close file: %w", err)
	}

	if err := s.fs.Rename(partial, name); err != nil {
		_ = s.fs.Remove(partial)
		return 0, fmt.Errorf("rename file: %w", err)
	}

	return n, nil
}

// Stat returns the size and modification time of name.
func (s *LocalStorage) Stat(ctx context.Context, name string) (ObjectInfo, error) {
	if err := ValidateName(name); err != nil {
		return ObjectInfo{}, err
	}
	if err := checkContext(ctx); err != nil {
		return ObjectInfo{}, err
	}

	info, err := s.fs.Stat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ObjectInfo{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return ObjectInfo{}, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return ObjectInfo{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return ObjectInfo{
		Name:    name,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// OpenRange opens name and positions the reader at start.
// Reads stop after end-start+1 bytes.
func (s *LocalStorage) OpenRange(ctx context.Context, name string, start, end int64) (io.ReadCloser, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	f, err := s.fs.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}

	if start > 0 {
		if _, err := f.Seek(start, io.SeekStart); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("seek file: %w", err)
		}
	}

	return &limitedReadCloser{
		Reader: io.LimitReader(f, end-start+1),
		closer: f,
	}, nil
}

// Delete removes name from the filesystem.
func (s *LocalStorage) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := checkContext(ctx); err != nil {
		return err
	}

	if err := s.fs.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file %s: %w", name, err)
	}
	return nil
}

type limitedReadCloser struct {
	io.Reader
	closer io.Closer
}

func (l *limitedReadCloser) Close() error {
	return l.closer.Close()
}
