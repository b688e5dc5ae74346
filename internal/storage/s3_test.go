package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestS3Storage(t *testing.T, handler http.HandlerFunc) *S3Storage {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	storage, err := NewS3Storage(S3Config{
		Bucket:          "test-bucket",
		Region:          "us-east-1",
		Prefix:          "videos",
		Endpoint:        server.URL,
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	})
	if err != nil {
		t.Fatalf("NewS3Storage() error = %v", err)
	}
	return storage
}

func TestNewS3Storage(t *testing.T) {
	cfg := S3Config{
		Bucket:          "test-bucket",
		Region:          "us-east-1",
		Prefix:          "videos",
		Endpoint:        "http://localhost:4566", // LocalStack-like endpoint
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	}

	storage, err := NewS3Storage(cfg)
	if err != nil {
		t.Fatalf("NewS3Storage() error = %v", err)
	}

	if storage.bucket != cfg.Bucket {
		t.Errorf("bucket = %v, want %v", storage.bucket, cfg.Bucket)
	}
	if storage.prefix != cfg.Prefix {
		t.Errorf("prefix = %v, want %v", storage.prefix, cfg.Prefix)
	}
}

func TestS3Storage_Save_MockServer(t *testing.T) {
	storage := newTestS3Storage(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT method, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/test-bucket/videos/clip.mp4") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("failed to read body: %v", err)
		}
		if string(body) != "test content" {
			t.Errorf("unexpected body: %s", string(body))
		}

		w.WriteHeader(http.StatusOK)
	})

	n, err := storage.Save(context.Background(), "clip.mp4", bytes.NewReader([]byte("test content")))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if n != int64(len("test content")) {
		t.Errorf("Save() = %d, want %d", n, len("test content"))
	}
}

func TestS3Storage_Stat_MockServer(t *testing.T) {
	storage := newTestS3Storage(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD method, got %s", r.Method)
		}
		if strings.HasSuffix(r.URL.Path, "/missing.mp4") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", "10")
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
		w.WriteHeader(http.StatusOK)
	})
	ctx := context.Background()

	info, err := storage.Stat(ctx, "clip.mp4")
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size != 10 {
		t.Errorf("Size = %d, want 10", info.Size)
	}
	if info.ModTime.Year() != 2006 {
		t.Errorf("ModTime = %v, want year 2006", info.ModTime)
	}

	_, err = storage.Stat(ctx, "missing.mp4")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestS3Storage_OpenRange_MockServer(t *testing.T) {
	data := []byte("0123456789")
	storage := newTestS3Storage(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET method, got %s", r.Method)
		}
		if strings.HasSuffix(r.URL.Path, "/missing.mp4") {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>not found</Message></Error>`))
			return
		}
		if got := r.Header.Get("Range"); got != "bytes=2-5" {
			t.Errorf("Range = %q, want %q", got, "bytes=2-5")
		}
		w.Header().Set("Content-Range", "bytes 2-5/10")
		w.Header().Set("Content-Length", "4")
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write(data[2:6])
	})
	ctx := context.Background()

	rc, err := storage.OpenRange(ctx, "clip.mp4", 2, 5)
	if err != nil {
		t.Fatalf("OpenRange() error = %v", err)
	}
	defer func() { _ = rc.Close() }()

	content, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if string(content) != "2345" {
		t.Errorf("got %q, want %q", string(content), "2345")
	}

	_, err = storage.OpenRange(ctx, "missing.mp4", 0, 1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestS3Storage_Delete_MockServer(t *testing.T) {
	storage := newTestS3Storage(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE method, got %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := storage.Delete(context.Background(), "clip.mp4"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}

func TestSizedBody(t *testing.T) {
	t.Run("seekable reader keeps position", func(t *testing.T) {
		r := bytes.NewReader([]byte("abcdef"))
		_, _ = r.Seek(2, io.SeekStart)

		body, size, err := sizedBody(r)
		if err != nil {
			t.Fatalf("sizedBody() error = %v", err)
		}
		if size != 4 {
			t.Errorf("size = %d, want 4", size)
		}
		rest, _ := io.ReadAll(body)
		if string(rest) != "cdef" {
			t.Errorf("body = %q, want %q", rest, "cdef")
		}
	})

	t.Run("plain reader is buffered", func(t *testing.T) {
		_, size, err := sizedBody(io.MultiReader(strings.NewReader("xyz")))
		if err != nil {
			t.Fatalf("sizedBody() error = %v", err)
		}
		if size != 3 {
			t.Errorf("size = %d, want 3", size)
		}
	})
}
