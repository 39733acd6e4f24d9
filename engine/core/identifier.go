package core

import "github.com/google/uuid"

// NewLifetimeID returns an identifier for one device or swapchain lifetime.
// It is attached to log lines and lifecycle events so that create and dispose
// pairs can be matched.
func NewLifetimeID() string {
	return uuid.NewString()
}
