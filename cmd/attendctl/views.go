package main

import (
	"context"
	"flag"
	"fmt"

	"attendboard/internal/gateway"
	"attendboard/internal/session"
)

func (a *app) cmdSubjects(args []string) error {
	fs := flag.NewFlagSet("subjects", flag.ExitOnError)
	teacher := fs.String("teacher", "", "teacher id (defaults to you)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sess, err := a.requireRole(session.RoleTeacher, session.RoleAdmin)
	if err != nil {
		return err
	}
	id := *teacher
	if id == "" {
		id = sess.PrincipalID
	}

	subjects, err := a.gw.TeacherSubjects(context.Background(), id)
	if err != nil {
		return err
	}
	if len(subjects) == 0 {
		fmt.Println("No subjects assigned")
		return nil
	}
	for _, s := range subjects {
		fmt.Printf("%-10s %-28s %-10s %d classes\n", s.ID, s.Name, s.ClassLabel, s.TotalClasses)
	}
	return nil
}

// studentID resolves the target student: students may only see themselves.
func (a *app) studentID(flagValue string) (string, error) {
	sess, err := a.requireRole()
	if err != nil {
		return "", err
	}
	if flagValue == "" || sess.Role == session.RoleStudent {
		return sess.PrincipalID, nil
	}
	return flagValue, nil
}

func (a *app) cmdStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	student := fs.String("student", "", "student id (defaults to you)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := a.studentID(*student)
	if err != nil {
		return err
	}

	stats, err := a.gw.StudentStats(context.Background(), id)
	if err != nil {
		return err
	}
	fmt.Printf("Attended %d of %d classes (%.1f%%)\n", stats.Attended, stats.TotalClasses, stats.Percentage)
	return nil
}

func (a *app) cmdPrediction(args []string) error {
	fs := flag.NewFlagSet("prediction", flag.ExitOnError)
	student := fs.String("student", "", "student id (defaults to you)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := a.studentID(*student)
	if err != nil {
		return err
	}

	pred, err := a.gw.StudentPrediction(context.Background(), id)
	if err != nil {
		return err
	}
	if pred.AtRisk {
		fmt.Printf("At risk (%.0f%% likelihood of shortfall). %s\n", pred.Probability*100, pred.Advice)
	} else {
		fmt.Println("On track")
	}
	return nil
}

func (a *app) cmdTrend(args []string) error {
	fs := flag.NewFlagSet("trend", flag.ExitOnError)
	subject := fs.String("subject", "", "subject id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireRole(session.RoleTeacher, session.RoleAdmin); err != nil {
		return err
	}
	if *subject == "" {
		return fmt.Errorf("-subject is required")
	}

	points, err := a.gw.SubjectTrend(context.Background(), *subject)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		fmt.Println("No attendance recorded yet")
		return nil
	}
	for _, p := range points {
		fmt.Printf("%s  %2d/%2d  %5.1f%%\n", p.Date, p.Present, p.Total, p.Percentage)
	}
	return nil
}

func (a *app) cmdCalendar(args []string) error {
	fs := flag.NewFlagSet("calendar", flag.ExitOnError)
	student := fs.String("student", "", "student id (defaults to you)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := a.studentID(*student)
	if err != nil {
		return err
	}

	days, err := a.gw.StudentCalendar(context.Background(), id)
	if err != nil {
		return err
	}
	for _, d := range days {
		marker := " "
		if d.Status == "present" {
			marker = "x"
		}
		fmt.Printf("%s [%s]\n", d.Date, marker)
	}
	return nil
}

func (a *app) cmdAlerts(args []string) error {
	fs := flag.NewFlagSet("alerts", flag.ExitOnError)
	limit := fs.Int("limit", 20, "max alerts to show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sess, err := a.requireRole()
	if err != nil {
		return err
	}

	alerts, err := a.gw.Alerts(context.Background(), sess.PrincipalID, *limit)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Println("No notifications")
		return nil
	}
	for _, al := range alerts {
		fmt.Printf("[%s] %s  %s\n", al.Severity, al.CreatedAt, al.Message)
	}
	return nil
}

func (a *app) cmdAdminStats() error {
	if _, err := a.requireRole(session.RoleAdmin); err != nil {
		return err
	}
	stats, err := a.gw.UniversityStats(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Departments: %d\nClasses:     %d\nTeachers:    %d\nStudents:    %d\nAvg attendance: %.1f%%\n",
		stats.Departments, stats.Classes, stats.Teachers, stats.Students, stats.AvgAttendance)
	return nil
}

func (a *app) cmdCreateDepartment(args []string) error {
	fs := flag.NewFlagSet("create-department", flag.ExitOnError)
	name := fs.String("name", "", "department name")
	code := fs.String("code", "", "short code, e.g. CSE")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireRole(session.RoleAdmin); err != nil {
		return err
	}

	ref, err := a.gw.CreateDepartment(context.Background(), gateway.DepartmentForm{Name: *name, Code: *code})
	if err != nil {
		return err
	}
	fmt.Printf("Department created, id %s\n", ref.ID)
	return nil
}

func (a *app) cmdCreateClass(args []string) error {
	fs := flag.NewFlagSet("create-class", flag.ExitOnError)
	name := fs.String("name", "", "class name")
	dept := fs.String("dept", "", "department id")
	year := fs.Int("year", 1, "year of study")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireRole(session.RoleAdmin); err != nil {
		return err
	}

	ref, err := a.gw.CreateClass(context.Background(), gateway.ClassForm{
		Name:         *name,
		DepartmentID: *dept,
		Year:         *year,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Class created, id %s\n", ref.ID)
	return nil
}
