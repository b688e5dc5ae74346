package video

import (
	"context"
	"sort"
	"sync"
)

// Compile-time check that MemoryRepository implements Repository.
var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository is an in-memory implementation of Repository.
// It uses a map with RWMutex for thread-safe access.
// Suitable for development and testing; swap for persistent storage in production.
type MemoryRepository struct {
	mu     sync.RWMutex
	videos map[string]*Video
}

// NewMemoryRepository creates a new in-memory video repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		videos: make(map[string]*Video),
	}
}

// Insert stores a clone of v to avoid external mutations.
func (r *MemoryRepository) Insert(_ context.Context, v *Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.videos[v.ID]; ok {
		return ErrVideoExists
	}
	r.videos[v.ID] = v.Clone()
	return nil
}

// FindByID retrieves a video by its ID.
// Returns a clone to prevent external mutations.
func (r *MemoryRepository) FindByID(_ context.Context, id string) (*Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.videos[id]
	if !ok {
		return nil, ErrVideoNotFound
	}
	return v.Clone(), nil
}

// List returns clones of all videos ordered by upload date, newest first.
// Videos uploaded at the same instant are ordered by ID for stable output.
func (r *MemoryRepository) List(_ context.Context) ([]*Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Video, 0, len(r.videos))
	for _, v := range r.videos {
		result = append(result, v.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].UploadDate.Equal(result[j].UploadDate) {
			return result[i].ID < result[j].ID
		}
		return result[i].UploadDate.After(result[j].UploadDate)
	})
	return result, nil
}
