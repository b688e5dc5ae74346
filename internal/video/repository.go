package video

import "context"

// Repository defines the interface for video metadata persistence.
// It acts as a port in the hexagonal architecture pattern.
type Repository interface {
	// Insert persists a new video record.
	// Returns ErrVideoExists if a record with the same ID exists.
	Insert(ctx context.Context, v *Video) error

	// FindByID retrieves a video by its unique identifier.
	// Returns ErrVideoNotFound if the video does not exist.
	FindByID(ctx context.Context, id string) (*Video, error)

	// List returns all videos, newest upload first.
	List(ctx context.Context) ([]*Video, error)
}
