package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"attendboard/internal/camera"
	"attendboard/internal/capture"
	"attendboard/internal/gateway"
	"attendboard/internal/session"
)

// cmdMark is the "mark attendance" screen: select a subject, capture a frame
// from the camera (or load a photo), submit it, and show the staged result.
func (a *app) cmdMark(args []string) error {
	fs := flag.NewFlagSet("mark", flag.ExitOnError)
	subject := fs.String("subject", "", "subject id to record attendance for")
	photo := fs.String("photo", "", "submit an image file instead of using the camera")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireRole(session.RoleTeacher, session.RoleAdmin); err != nil {
		return err
	}

	wf := a.newWorkflow(capture.SubmitterFunc(
		func(ctx context.Context, subjectID string, frame []byte) ([]gateway.Detection, error) {
			result, err := a.gw.SubmitFrame(ctx, subjectID, frame)
			if err != nil {
				return nil, err
			}
			return result.StudentsPresent, nil
		},
	))
	defer wf.Close()
	wf.SelectContext(*subject)

	if err := a.acquireFrame(wf, *photo); err != nil {
		return err
	}

	fmt.Println("Submitting frame for recognition...")
	detections, err := wf.Submit(context.Background())
	if err != nil {
		return fmt.Errorf("attendance not recorded: %s", displayMessage(err))
	}
	if wf.Phase() == capture.EmptyResult {
		fmt.Println("No faces recognized. Try again with better lighting and positioning.")
		return nil
	}

	fmt.Printf("Recognized %d student(s):\n", len(detections))
	err = wf.Reveal(context.Background(), func(d gateway.Detection, tier capture.Tier) {
		fmt.Printf("  %-10s %-20s %3.0f%%  %s\n", d.RollNo, d.Name, d.Confidence*100, tier)
	})
	if err != nil {
		return err
	}
	fmt.Println("Attendance recorded.")
	return nil
}

// newWorkflow builds a capture workflow wired to the configured pacing.
func (a *app) newWorkflow(sub capture.Submitter) *capture.Workflow {
	wf := capture.New(camera.NewSynthetic(), sub, a.log)
	wf.RevealInterval = a.cfg.RevealInterval
	wf.ResetDelay = a.cfg.ResetDelay
	wf.Quality = a.cfg.JPEGQuality
	return wf
}

// acquireFrame gets a frame into the workflow, either from a photo file
// (entering Captured directly) or by running the camera.
func (a *app) acquireFrame(wf *capture.Workflow, photoPath string) error {
	if photoPath != "" {
		img, err := camera.LoadStill(photoPath)
		if err != nil {
			return err
		}
		return wf.UseStill(img)
	}

	if err := wf.StartCamera(context.Background()); err != nil {
		return fmt.Errorf("cannot start the camera: %w", err)
	}
	fmt.Println("Camera active, capturing...")

	// The stream may need a moment before its first frame is readable.
	for attempt := 0; ; attempt++ {
		err := wf.Capture()
		if err == nil {
			return nil
		}
		if errors.Is(err, capture.ErrCaptureNotReady) && attempt < 20 {
			time.Sleep(150 * time.Millisecond)
			continue
		}
		wf.StopCamera()
		return err
	}
}
