package core

import "github.com/google/uuid"

// NewID returns a unique identifier for engine-owned resources that the
// caller did not name themselves (anonymous meshes, render targets).
func NewID() string {
	return uuid.New().String()
}
