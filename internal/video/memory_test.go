package video

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestVideo(id string, uploaded time.Time) *Video {
	return &Video{
		ID:         id,
		Title:      "Title " + id,
		Filename:   id + ".mp4",
		VideoURL:   StreamURL(id + ".mp4"),
		Duration:   UnknownDuration,
		UploadDate: uploaded,
	}
}

func TestMemoryRepository_Insert(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	v := newTestVideo("a", time.Now())

	if err := repo.Insert(ctx, v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	saved, err := repo.FindByID(ctx, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.Title != v.Title {
		t.Errorf("expected title %s, got %s", v.Title, saved.Title)
	}
}

func TestMemoryRepository_Insert_Duplicate(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_ = repo.Insert(ctx, newTestVideo("a", time.Now()))
	err := repo.Insert(ctx, newTestVideo("a", time.Now()))
	if !errors.Is(err, ErrVideoExists) {
		t.Errorf("expected ErrVideoExists, got %v", err)
	}
}

func TestMemoryRepository_FindByID_NotFound(t *testing.T) {
	repo := NewMemoryRepository()

	_, err := repo.FindByID(context.Background(), "nonexistent")
	if !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("expected ErrVideoNotFound, got %v", err)
	}
}

func TestMemoryRepository_FindByID_ReturnsClone(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	v := newTestVideo("a", time.Now())
	uid := "user-1"
	v.UserID = &uid
	_ = repo.Insert(ctx, v)

	found, _ := repo.FindByID(ctx, "a")
	found.Title = "changed"
	*found.UserID = "someone-else"

	original, _ := repo.FindByID(ctx, "a")
	if original.Title != "Title a" {
		t.Error("modifying returned video should not affect repository")
	}
	if *original.UserID != "user-1" {
		t.Error("modifying returned user id should not affect repository")
	}
}

func TestMemoryRepository_Insert_StoresClone(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	v := newTestVideo("a", time.Now())
	_ = repo.Insert(ctx, v)

	v.Title = "mutated after insert"

	found, _ := repo.FindByID(ctx, "a")
	if found.Title != "Title a" {
		t.Errorf("expected stored title to be unchanged, got %s", found.Title)
	}
}

func TestMemoryRepository_List_NewestFirst(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	_ = repo.Insert(ctx, newTestVideo("old", base))
	_ = repo.Insert(ctx, newTestVideo("new", base.Add(2*time.Hour)))
	_ = repo.Insert(ctx, newTestVideo("mid", base.Add(time.Hour)))

	videos, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(videos) != 3 {
		t.Fatalf("expected 3 videos, got %d", len(videos))
	}

	want := []string{"new", "mid", "old"}
	for i, id := range want {
		if videos[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, videos[i].ID)
		}
	}
}

func TestMemoryRepository_List_Empty(t *testing.T) {
	repo := NewMemoryRepository()

	videos, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if videos == nil {
		t.Error("expected empty slice, got nil")
	}
	if len(videos) != 0 {
		t.Errorf("expected 0 videos, got %d", len(videos))
	}
}

func TestMemoryRepository_ConcurrentAccess(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			id := string(rune('a' + i))
			_ = repo.Insert(ctx, newTestVideo(id, time.Now()))
			_, _ = repo.FindByID(ctx, id)
			_, _ = repo.List(ctx)
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	videos, _ := repo.List(ctx)
	if len(videos) != 10 {
		t.Errorf("expected 10 videos, got %d", len(videos))
	}
}
