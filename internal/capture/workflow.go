// Package capture drives the camera-to-submission workflow: acquire a stream,
// grab one still frame, encode it as JPEG, send it through the gateway, and
// reconcile the response into an explicit state the presentation layer renders.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"attendboard/internal/camera"
	"attendboard/internal/gateway"
)

// Phase is the workflow state. Transitions happen only through Workflow
// methods; anything else is rejected with ErrBadPhase.
type Phase int

const (
	CameraOff Phase = iota
	CameraRequesting
	CameraActive
	Captured
	Submitting
	Succeeded
	EmptyResult
	Failed
)

var phaseNames = map[Phase]string{
	CameraOff:        "camera-off",
	CameraRequesting: "camera-requesting",
	CameraActive:     "camera-active",
	Captured:         "captured",
	Submitting:       "submitting",
	Succeeded:        "succeeded",
	EmptyResult:      "empty-result",
	Failed:           "failed",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

var (
	// ErrCameraUnavailable wraps a device that denied access or does not exist.
	ErrCameraUnavailable = errors.New("camera unavailable, permission denied or no camera present")
	// ErrCaptureNotReady means the stream has not buffered a frame; retry shortly.
	ErrCaptureNotReady = errors.New("no frame available yet, try again in a moment")
	// ErrEncodingFailed means the frame could not be serialized to JPEG.
	ErrEncodingFailed = errors.New("could not encode the captured photo")
	// ErrNoContext means no subject or class was selected before submitting.
	ErrNoContext = errors.New("select a class before submitting")
	// ErrNoFrame means submission was attempted without a captured photo.
	ErrNoFrame = errors.New("capture or upload a photo before submitting")
	// ErrSubmissionInFlight rejects a second submission while one is outstanding.
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	// ErrBadPhase rejects an action that is illegal in the current state.
	ErrBadPhase = errors.New("action not allowed in the current state")
)

// Submitter sends an encoded frame for the selected context and returns the
// detections in server order. The gateway satisfies this through small
// adapters; tests use fakes.
type Submitter interface {
	Submit(ctx context.Context, contextID string, frame []byte) ([]gateway.Detection, error)
}

// SubmitterFunc adapts a function to the Submitter interface.
type SubmitterFunc func(ctx context.Context, contextID string, frame []byte) ([]gateway.Detection, error)

// Submit implements Submitter.
func (f SubmitterFunc) Submit(ctx context.Context, contextID string, frame []byte) ([]gateway.Detection, error) {
	return f(ctx, contextID, frame)
}

// Workflow is one capture session. It owns the camera handle exclusively and
// guarantees its release on every exit path, including Close.
type Workflow struct {
	// RevealInterval paces the staged disclosure of detections.
	RevealInterval time.Duration
	// ResetDelay is how long a success stays on screen before the workflow
	// clears itself back to idle. Zero disables the auto-reset.
	ResetDelay time.Duration
	// Quality is the JPEG quality for the captured frame.
	Quality int

	dev camera.Device
	sub Submitter
	log *zap.Logger

	mu         sync.Mutex
	phase      Phase
	contextID  string
	frame      []byte
	detections []gateway.Detection
	lastErr    error
	resetTimer *time.Timer
}

// New creates an idle workflow around a device and a submitter.
func New(dev camera.Device, sub Submitter, log *zap.Logger) *Workflow {
	if log == nil {
		log = zap.NewNop()
	}
	return &Workflow{
		RevealInterval: 400 * time.Millisecond,
		ResetDelay:     4 * time.Second,
		Quality:        90,
		dev:            dev,
		sub:            sub,
		log:            log.With(zap.String("capture_session", uuid.NewString())),
		phase:          CameraOff,
	}
}

// Phase returns the current state.
func (w *Workflow) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// SelectContext records the subject or class the submission is for. Required
// before Submit.
func (w *Workflow) SelectContext(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.contextID = id
}

// ContextID returns the selected context.
func (w *Workflow) ContextID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.contextID
}

// Err returns the last failure, if any.
func (w *Workflow) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// FailureMessage returns the display-ready message for the last failure.
// Gateway errors carry the server's own detail verbatim.
func (w *Workflow) FailureMessage() string {
	w.mu.Lock()
	err := w.lastErr
	w.mu.Unlock()
	if err == nil {
		return ""
	}
	var gerr *gateway.Error
	if errors.As(err, &gerr) {
		return gerr.Message
	}
	return err.Error()
}

// Detections returns a copy of the last successful result, in server order.
func (w *Workflow) Detections() []gateway.Detection {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]gateway.Detection, len(w.detections))
	copy(out, w.detections)
	return out
}

// StartCamera acquires the device. On denial the workflow stays off and the
// caller gets ErrCameraUnavailable to show a permission notice.
func (w *Workflow) StartCamera(ctx context.Context) error {
	w.mu.Lock()
	if w.phase != CameraOff {
		defer w.mu.Unlock()
		return fmt.Errorf("%w: start camera while %s", ErrBadPhase, w.phase)
	}
	w.phase = CameraRequesting
	w.mu.Unlock()

	err := w.dev.Start(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.phase = CameraOff
		w.lastErr = ErrCameraUnavailable
		w.log.Warn("camera start failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	w.phase = CameraActive
	w.lastErr = nil
	w.log.Debug("camera active")
	return nil
}

// StopCamera releases the hardware immediately. Idempotent; the release
// happens regardless of the current phase.
func (w *Workflow) StopCamera() {
	w.dev.Stop()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase == CameraRequesting || w.phase == CameraActive {
		w.phase = CameraOff
	}
}

// Capture reads the current frame, encodes it at native resolution, and stops
// the camera. A not-yet-buffered stream rejects the capture without changing
// state so the user can simply try again.
func (w *Workflow) Capture() error {
	w.mu.Lock()
	if w.phase != CameraActive {
		defer w.mu.Unlock()
		return fmt.Errorf("%w: capture while %s", ErrBadPhase, w.phase)
	}
	w.mu.Unlock()

	img, err := w.dev.ReadFrame()
	if err != nil {
		if errors.Is(err, camera.ErrNotReady) {
			return ErrCaptureNotReady
		}
		return fmt.Errorf("read frame: %w", err)
	}

	frame, err := encodeJPEG(img, w.Quality)
	if err != nil {
		// Blocking error: nothing is submitted, the camera stays live so the
		// operator can recapture.
		w.setErr(err)
		return err
	}

	w.dev.Stop()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frame = frame
	w.detections = nil
	w.lastErr = nil
	w.phase = Captured
	w.log.Debug("frame captured", zap.Int("bytes", len(frame)))
	return nil
}

// UseStill enters Captured directly from an uploaded image, skipping the
// camera entirely.
func (w *Workflow) UseStill(img image.Image) error {
	w.mu.Lock()
	if w.phase == Submitting {
		defer w.mu.Unlock()
		return ErrSubmissionInFlight
	}
	cameraLive := w.phase == CameraRequesting || w.phase == CameraActive
	w.mu.Unlock()

	frame, err := encodeJPEG(img, w.Quality)
	if err != nil {
		w.setErr(err)
		return err
	}
	if cameraLive {
		w.dev.Stop()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelResetLocked()
	w.frame = frame
	w.detections = nil
	w.lastErr = nil
	w.phase = Captured
	return nil
}

// Submit sends the captured frame through the submitter. At most one
// submission is in flight per workflow; a second attempt is rejected without
// touching the first. Local validation failures never reach the network.
func (w *Workflow) Submit(ctx context.Context) ([]gateway.Detection, error) {
	w.mu.Lock()
	switch {
	case w.phase == Submitting:
		w.mu.Unlock()
		return nil, ErrSubmissionInFlight
	case w.phase != Captured && w.phase != Failed:
		defer w.mu.Unlock()
		return nil, fmt.Errorf("%w: submit while %s", ErrBadPhase, w.phase)
	case w.contextID == "":
		w.mu.Unlock()
		return nil, ErrNoContext
	case len(w.frame) == 0:
		w.mu.Unlock()
		return nil, ErrNoFrame
	}
	w.phase = Submitting
	w.lastErr = nil
	contextID := w.contextID
	frame := w.frame
	w.mu.Unlock()

	detections, err := w.sub.Submit(ctx, contextID, frame)

	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case err != nil:
		// The frame is kept so the operator can resubmit without recapturing.
		w.phase = Failed
		w.lastErr = err
		w.log.Warn("submission rejected", zap.Error(err))
		return nil, err
	case len(detections) == 0:
		// Distinct from failure: the service answered, it just found nobody.
		w.phase = EmptyResult
		w.log.Info("no faces recognized")
		return nil, nil
	default:
		w.detections = append([]gateway.Detection(nil), detections...)
		w.phase = Succeeded
		w.scheduleResetLocked()
		w.log.Info("submission succeeded", zap.Int("detections", len(detections)))
		out := make([]gateway.Detection, len(w.detections))
		copy(out, w.detections)
		return out, nil
	}
}

// Reveal discloses the result one detection at a time, in server order, with
// RevealInterval between items. The full set is fixed before the first call
// to fn, so a reset mid-reveal cannot truncate or reorder the disclosure.
func (w *Workflow) Reveal(ctx context.Context, fn func(d gateway.Detection, tier Tier)) error {
	w.mu.Lock()
	if w.phase != Succeeded {
		defer w.mu.Unlock()
		return fmt.Errorf("%w: reveal while %s", ErrBadPhase, w.phase)
	}
	detections := make([]gateway.Detection, len(w.detections))
	copy(detections, w.detections)
	interval := w.RevealInterval
	w.mu.Unlock()

	for i, d := range detections {
		if i > 0 && interval > 0 {
			select {
			case <-time.After(interval):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		fn(d, TierOf(d.Confidence))
	}
	return nil
}

// Retake discards the captured frame and any result and returns to idle.
// Not allowed while a submission is outstanding.
func (w *Workflow) Retake() error {
	w.mu.Lock()
	if w.phase == Submitting {
		w.mu.Unlock()
		return ErrSubmissionInFlight
	}
	w.cancelResetLocked()
	w.frame = nil
	w.detections = nil
	w.lastErr = nil
	w.phase = CameraOff
	w.mu.Unlock()

	w.dev.Stop()
	return nil
}

// Close tears the session down: cancels any pending auto-reset and releases
// the camera unconditionally. Call it on every teardown path.
func (w *Workflow) Close() {
	w.mu.Lock()
	w.cancelResetLocked()
	w.frame = nil
	w.detections = nil
	w.phase = CameraOff
	w.mu.Unlock()

	w.dev.Stop()
}

// scheduleResetLocked arms the post-success auto-reset so the operator is
// returned to an idle screen without an extra click.
func (w *Workflow) scheduleResetLocked() {
	w.cancelResetLocked()
	if w.ResetDelay <= 0 {
		return
	}
	w.resetTimer = time.AfterFunc(w.ResetDelay, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.phase != Succeeded {
			return
		}
		w.frame = nil
		w.detections = nil
		w.phase = CameraOff
	})
}

func (w *Workflow) cancelResetLocked() {
	if w.resetTimer != nil {
		w.resetTimer.Stop()
		w.resetTimer = nil
	}
}

func (w *Workflow) setErr(err error) {
	w.mu.Lock()
	w.lastErr = err
	w.mu.Unlock()
}

// encodeJPEG serializes a frame at its native resolution. The bytes go to the
// backend as-is in a multipart part, never as a data URL.
func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	if img == nil {
		return nil, ErrEncodingFailed
	}
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodingFailed, err)
	}
	return buf.Bytes(), nil
}
