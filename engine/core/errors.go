package core

import (
	"errors"
)

var (
	// ErrSwapchainBooting signals that a frame was abandoned because the
	// swapchain was resized or recreated; the caller should skip the frame
	// and try again.
	ErrSwapchainBooting = errors.New("swapchain resized or recreated, booting")
	// ErrCacheDestroyed is returned when a resource cache is used after cleanup.
	ErrCacheDestroyed = errors.New("resource cache already cleaned up")
)
