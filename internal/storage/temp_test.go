package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewTempStore(t *testing.T) {
	t.Run("creates directory if not exists", func(t *testing.T) {
		tempDir := filepath.Join(t.TempDir(), "spool")

		store, err := NewTempStore(tempDir)
		if err != nil {
			t.Fatalf("NewTempStore() error = %v", err)
		}
		if store.TempDir() != tempDir {
			t.Errorf("TempDir() = %v, want %v", store.TempDir(), tempDir)
		}
		if _, err := os.Stat(tempDir); err != nil {
			t.Fatalf("directory not created: %v", err)
		}
	})

	t.Run("uses default directory when empty", func(t *testing.T) {
		store, err := NewTempStore("")
		if err != nil {
			t.Fatalf("NewTempStore() error = %v", err)
		}

		expected := filepath.Join(os.TempDir(), "vidvault")
		if store.TempDir() != expected {
			t.Errorf("TempDir() = %v, want %v", store.TempDir(), expected)
		}
	})
}

func TestTempStore_SaveLoadCleanup(t *testing.T) {
	store, err := NewTempStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewTempStore() error = %v", err)
	}
	ctx := context.Background()

	path, err := store.SaveTemp(ctx, "upload", bytes.NewReader([]byte("spooled")))
	if err != nil {
		t.Fatalf("SaveTemp() error = %v", err)
	}
	if !strings.Contains(filepath.Base(path), "upload_") {
		t.Errorf("path %s should contain 'upload_'", path)
	}

	f, err := store.LoadTemp(ctx, path)
	if err != nil {
		t.Fatalf("LoadTemp() error = %v", err)
	}
	content, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if string(content) != "spooled" {
		t.Errorf("got %q, want %q", string(content), "spooled")
	}

	if err := store.CleanupTemp(ctx, []string{path, "/non/existent/file"}); err != nil {
		t.Fatalf("CleanupTemp() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file %s still exists", path)
	}
}

func TestTempStore_RespectsContextCancellation(t *testing.T) {
	store, err := NewTempStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewTempStore() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.SaveTemp(ctx, "x", bytes.NewReader(nil)); !errors.Is(err, context.Canceled) {
		t.Errorf("SaveTemp: expected context.Canceled, got %v", err)
	}
	if _, err := store.LoadTemp(ctx, "/some/path"); !errors.Is(err, context.Canceled) {
		t.Errorf("LoadTemp: expected context.Canceled, got %v", err)
	}
	if err := store.CleanupTemp(ctx, []string{"/some/path"}); !errors.Is(err, context.Canceled) {
		t.Errorf("CleanupTemp: expected context.Canceled, got %v", err)
	}
}
