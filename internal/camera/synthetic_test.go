package camera

import (
	"context"
	"errors"
	"testing"
)

func TestSyntheticWarmup(t *testing.T) {
	d := &Synthetic{Width: 16, Height: 12, WarmupReads: 2}
	if err := d.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if _, err := d.ReadFrame(); !errors.Is(err, ErrNotReady) {
			t.Fatalf("warmup read %d: error = %v, want ErrNotReady", i, err)
		}
	}
	img, err := d.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 12 {
		t.Fatalf("frame bounds = %v, want 16x12", b)
	}
}

func TestSyntheticDeny(t *testing.T) {
	d := &Synthetic{Deny: true}
	if err := d.Start(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
	if d.Active() {
		t.Fatal("device active after denied start")
	}
}

func TestSyntheticStopIdempotent(t *testing.T) {
	d := &Synthetic{Width: 4, Height: 4}
	if err := d.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	d.Stop()
	d.Stop()
	if d.Active() {
		t.Fatal("device still active after stop")
	}
	if _, err := d.ReadFrame(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("read after stop: error = %v, want ErrUnavailable", err)
	}
}

func TestSyntheticCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := &Synthetic{Width: 4, Height: 4}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
