package canutil

import (
	"context"
	"errors"
)

// Bus represents a CAN bus connection which can send and receive CAN frames.
// Implementations should be safe for concurrent use by multiple goroutines.
type Bus interface {
	// Send transmits a frame. It may block until the frame is queued or sent.
	// Context cancellation aborts the operation and returns the context error.
	Send(ctx context.Context, frame Frame) error

	// Receive blocks until a frame is available or the context is cancelled.
	Receive(ctx context.Context) (Frame, error)

	// Close releases resources. Further Send/Receive return ErrClosed.
	Close() error
}

var (
	// ErrClosed indicates the bus or endpoint has been closed.
	ErrClosed = errors.New("canutil: closed")
	// ErrUnsupported is returned by platform-specific functions on other
	// platforms.
	ErrUnsupported = errors.New("canutil: unsupported on this platform")
)
