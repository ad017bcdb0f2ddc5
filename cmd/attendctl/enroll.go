package main

import (
	"context"
	"flag"
	"fmt"

	"attendboard/internal/capture"
	"attendboard/internal/gateway"
	"attendboard/internal/session"
)

// cmdEnroll is the student registration screen: identity fields plus an
// enrollment photo, driven through the same capture workflow as marking.
func (a *app) cmdEnroll(args []string) error {
	fs := flag.NewFlagSet("enroll", flag.ExitOnError)
	name := fs.String("name", "", "student full name")
	roll := fs.String("roll", "", "roll number")
	year := fs.String("year", "", "year of study")
	branch := fs.String("branch", "", "branch, e.g. CSE")
	section := fs.String("section", "", "section, e.g. A")
	photo := fs.String("photo", "", "enrollment photo file instead of the camera")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireRole(session.RoleTeacher, session.RoleAdmin); err != nil {
		return err
	}

	form := gateway.StudentForm{
		Name:    *name,
		RollNo:  *roll,
		Year:    *year,
		Branch:  *branch,
		Section: *section,
	}

	wf := a.newWorkflow(capture.SubmitterFunc(
		func(ctx context.Context, _ string, frame []byte) ([]gateway.Detection, error) {
			result, err := a.gw.EnrollStudent(ctx, form, frame)
			if err != nil {
				return nil, err
			}
			// The confirmation becomes the single revealed entry.
			return []gateway.Detection{{
				StudentID:  result.StudentID,
				Name:       result.Name,
				RollNo:     result.RollNo,
				Confidence: 1,
			}}, nil
		},
	))
	defer wf.Close()
	// The enrollment context is the student being registered.
	wf.SelectContext(*roll)

	if err := a.acquireFrame(wf, *photo); err != nil {
		return err
	}

	fmt.Println("Submitting enrollment...")
	if _, err := wf.Submit(context.Background()); err != nil {
		return fmt.Errorf("enrollment failed: %s", displayMessage(err))
	}
	return wf.Reveal(context.Background(), func(d gateway.Detection, _ capture.Tier) {
		fmt.Printf("Enrolled %s (%s), id %s\n", d.Name, d.RollNo, d.StudentID)
	})
}
