package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrUnsupportedBackend is a configuration error.
	ErrUnsupportedBackend = fmt.Errorf("%w: unsupported graphics backend", ErrInvalidConfig)
	ErrNoDriver           = errors.New("no driver registered for graphics backend")
	ErrSurfaceRequired    = errors.New("swapchain source required")
	ErrAlreadyRunning     = errors.New("render loop already started")
	ErrSwapchainBooting   = errors.New("swapchain resized or recreated, booting")
	ErrShaderNotFound     = errors.New("shader not found")
)
