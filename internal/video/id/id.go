// Package id provides unique identifier generation for videos and stored files.
package id

import "github.com/google/uuid"

// Generator produces collision-resistant identifiers.
type Generator interface {
	NewID() string
}

// UUIDGenerator generates random (version 4) UUIDs.
type UUIDGenerator struct{}

// NewID returns a new UUID string.
// Example: 9b2f4c3e-1d7a-4f5b-8c2e-0a6d3b1f9e47
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// Func adapts a plain function to the Generator interface.
type Func func() string

// NewID calls f.
func (f Func) NewID() string {
	return f()
}
