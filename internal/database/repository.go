package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/maauso/vidvault/internal/video"
)

// Compile-time check that Repository implements video.Repository.
var _ video.Repository = (*Repository)(nil)

// videoModel maps the videos table.
type videoModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Title        string    `gorm:"column:title"`
	Description  string    `gorm:"column:description"`
	Filename     string    `gorm:"column:filename"`
	VideoURL     string    `gorm:"column:video_url"`
	ThumbnailURL string    `gorm:"column:thumbnail_url"`
	UserID       *string   `gorm:"column:user_id"`
	Duration     string    `gorm:"column:duration"`
	ContentType  string    `gorm:"column:content_type"`
	SizeBytes    int64     `gorm:"column:size_bytes"`
	UploadDate   time.Time `gorm:"column:upload_date"`
}

func (videoModel) TableName() string {
	return "videos"
}

// Repository is a gorm implementation of video.Repository.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a Repository on an opened and migrated database.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert creates a row for v.
func (r *Repository) Insert(ctx context.Context, v *video.Video) error {
	m := videoModel{
		ID:           v.ID,
		Title:        v.Title,
		Description:  v.Description,
		Filename:     v.Filename,
		VideoURL:     v.VideoURL,
		ThumbnailURL: v.ThumbnailURL,
		UserID:       v.UserID,
		Duration:     v.Duration,
		ContentType:  v.ContentType,
		SizeBytes:    v.SizeBytes,
		UploadDate:   v.UploadDate.UTC(),
	}

	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", video.ErrVideoExists, v.ID)
		}
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

// FindByID retrieves a video by its ID.
func (r *Repository) FindByID(ctx context.Context, id string) (*video.Video, error) {
	var m videoModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", video.ErrVideoNotFound, id)
		}
		return nil, fmt.Errorf("find video: %w", err)
	}
	return m.toVideo(), nil
}

// List returns all videos, newest first.
func (r *Repository) List(ctx context.Context) ([]*video.Video, error) {
	var models []videoModel
	if err := r.db.WithContext(ctx).Order("upload_date DESC").Order("id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	videos := make([]*video.Video, 0, len(models))
	for i := range models {
		videos = append(videos, models[i].toVideo())
	}
	return videos, nil
}

func (m *videoModel) toVideo() *video.Video {
	return &video.Video{
		ID:           m.ID,
		Title:        m.Title,
		Description:  m.Description,
		Filename:     m.Filename,
		VideoURL:     m.VideoURL,
		ThumbnailURL: m.ThumbnailURL,
		UserID:       m.UserID,
		Duration:     m.Duration,
		ContentType:  m.ContentType,
		SizeBytes:    m.SizeBytes,
		UploadDate:   m.UploadDate.UTC(),
	}
}
