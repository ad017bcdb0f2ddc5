// Package camera abstracts the still-frame source for the capture workflow:
// a live device, or a still image loaded from disk as the upload fallback.
package camera

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrUnavailable means the device denied access or no camera exists.
	ErrUnavailable = errors.New("camera unavailable")
	// ErrNotReady means the device has not buffered a frame yet.
	ErrNotReady = errors.New("camera has no frame buffered yet")
)

// Device is a single-owner camera handle. Start acquires the hardware,
// ReadFrame returns the currently buffered frame at native resolution, and
// Stop releases every acquired track. Stop must be safe to call repeatedly
// and in any state.
type Device interface {
	Start(ctx context.Context) error
	ReadFrame() (image.Image, error)
	Stop()
}
