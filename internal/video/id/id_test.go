package id

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDGenerator(t *testing.T) {
	var g Generator = UUIDGenerator{}
	id := g.NewID()

	// Check format
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("expected a valid UUID, got %s: %v", id, err)
	}

	// Check uniqueness
	id2 := g.NewID()
	if id == id2 {
		t.Error("expected different IDs for consecutive calls")
	}
}

func TestUUIDGenerator_Uniqueness(t *testing.T) {
	g := UUIDGenerator{}
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := g.NewID()
		if seen[id] {
			t.Errorf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestFunc(t *testing.T) {
	var g Generator = Func(func() string { return "fixed" })
	if got := g.NewID(); got != "fixed" {
		t.Errorf("NewID() = %q, want %q", got, "fixed")
	}
}
