package camera

import (
	"context"
	"image"
	"image/color"
	"sync"
)

// Synthetic is a stand-in device for environments without camera hardware.
// It produces generated frames so the full capture pipeline can run end to
// end, the same way the backend's face service has a mock mode for dev.
type Synthetic struct {
	Width, Height int
	// WarmupReads is how many reads return ErrNotReady after Start, to mimic
	// a real stream that needs a moment to buffer its first frame.
	WarmupReads int
	// Deny simulates a permission-denied or missing camera.
	Deny bool

	mu     sync.Mutex
	active bool
	reads  int
}

// NewSynthetic returns a 1280x720 synthetic device that is ready on the
// second read.
func NewSynthetic() *Synthetic {
	return &Synthetic{Width: 1280, Height: 720, WarmupReads: 1}
}

// Start acquires the fake stream.
func (d *Synthetic) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.Deny {
		return ErrUnavailable
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = true
	d.reads = 0
	return nil
}

// ReadFrame returns a generated frame once the warmup period has passed.
func (d *Synthetic) ReadFrame() (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return nil, ErrUnavailable
	}
	d.reads++
	if d.reads <= d.WarmupReads {
		return nil, ErrNotReady
	}

	img := image.NewRGBA(image.Rect(0, 0, d.Width, d.Height))
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / d.Width),
				G: uint8(y * 255 / d.Height),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
	return img, nil
}

// Stop releases the fake stream. Safe to call repeatedly.
func (d *Synthetic) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = false
}

// Active reports whether the stream is currently acquired.
func (d *Synthetic) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}
