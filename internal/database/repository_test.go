package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/maauso/vidvault/internal/video"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(context.Background(), Config{
		Driver: DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "data", "videos.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func testVideo(id string, uploaded time.Time) *video.Video {
	return &video.Video{
		ID:           id,
		Title:        "Title " + id,
		Description:  "desc",
		Filename:     id + ".mp4",
		VideoURL:     video.StreamURL(id + ".mp4"),
		ThumbnailURL: "/placeholder.jpg",
		Duration:     "00:42",
		ContentType:  "video/mp4",
		SizeBytes:    1234,
		UploadDate:   uploaded,
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql"}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestOpen_MissingDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: DriverSQLite}, nil)
	assert.ErrorIs(t, err, ErrMissingDSN)

	_, err = Open(context.Background(), Config{Driver: DriverPostgres}, nil)
	assert.ErrorIs(t, err, ErrMissingDSN)
}

func TestOpen_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videos.db")
	ctx := context.Background()

	db, err := Open(ctx, Config{Driver: DriverSQLite, Path: path}, nil)
	require.NoError(t, err)
	require.NoError(t, NewRepository(db).Insert(ctx, testVideo("a", time.Now())))
	require.NoError(t, Close(db))

	db, err = Open(ctx, Config{Driver: DriverSQLite, Path: path}, nil)
	require.NoError(t, err)
	defer func() { _ = Close(db) }()

	_, err = NewRepository(db).FindByID(ctx, "a")
	assert.NoError(t, err, "data should survive reopening")
}

func TestRepository_InsertAndFind(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()
	uploaded := time.Date(2024, 3, 15, 9, 30, 15, 0, time.UTC)
	uid := "user-1"
	v := testVideo("a", uploaded)
	v.UserID = &uid

	require.NoError(t, repo.Insert(ctx, v))

	got, err := repo.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, v.Title, got.Title)
	assert.Equal(t, v.Filename, got.Filename)
	assert.Equal(t, v.VideoURL, got.VideoURL)
	assert.Equal(t, v.Duration, got.Duration)
	assert.Equal(t, v.SizeBytes, got.SizeBytes)
	assert.True(t, uploaded.Equal(got.UploadDate), "upload date %v != %v", uploaded, got.UploadDate)
	require.NotNil(t, got.UserID)
	assert.Equal(t, "user-1", *got.UserID)
}

func TestRepository_AnonymousUpload(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, testVideo("a", time.Now())))

	got, err := repo.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got.UserID)
}

func TestRepository_InsertDuplicate(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, testVideo("a", time.Now())))
	err := repo.Insert(ctx, testVideo("a", time.Now()))
	assert.ErrorIs(t, err, video.ErrVideoExists)
}

func TestRepository_FindByID_NotFound(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, video.ErrVideoNotFound)
}

func TestRepository_List(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	videos, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, videos)

	require.NoError(t, repo.Insert(ctx, testVideo("old", base)))
	require.NoError(t, repo.Insert(ctx, testVideo("new", base.Add(48*time.Hour))))
	require.NoError(t, repo.Insert(ctx, testVideo("mid", base.Add(24*time.Hour))))

	videos, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, videos, 3)
	assert.Equal(t, "new", videos[0].ID)
	assert.Equal(t, "mid", videos[1].ID)
	assert.Equal(t, "old", videos[2].ID)
}
