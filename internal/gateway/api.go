package gateway

import (
	"context"
	"strconv"
)

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds Credentials) (TokenGrant, error) {
	if err := validateForm(creds); err != nil {
		return TokenGrant{}, err
	}
	var grant TokenGrant
	if err := c.postJSON(ctx, "/api/auth/login", creds, &grant); err != nil {
		return TokenGrant{}, err
	}
	return grant, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, form RegistrationForm) error {
	if err := validateForm(form); err != nil {
		return err
	}
	return c.postJSON(ctx, "/api/auth/register", form, nil)
}

// TeacherSubjects lists the subjects a teacher can record attendance for.
func (c *Client) TeacherSubjects(ctx context.Context, teacherID string) ([]Subject, error) {
	var subjects []Subject
	if err := c.getJSON(ctx, "/api/subjects/teacher/"+teacherID, &subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}

// SubmitFrame sends one captured frame for recognition against a subject's
// roster. The returned detections keep the server's order.
func (c *Client) SubmitFrame(ctx context.Context, subjectID string, image []byte) (MarkResult, error) {
	var result MarkResult
	err := c.postImage(ctx, "/api/attendance/mark", map[string]string{"subject_id": subjectID}, image, &result)
	if err != nil {
		return MarkResult{}, err
	}
	return result, nil
}

// EnrollStudent registers a student together with an enrollment photo.
func (c *Client) EnrollStudent(ctx context.Context, form StudentForm, image []byte) (EnrollResult, error) {
	if err := validateForm(form); err != nil {
		return EnrollResult{}, err
	}
	fields := map[string]string{
		"name":    form.Name,
		"roll_no": form.RollNo,
		"year":    form.Year,
		"branch":  form.Branch,
		"section": form.Section,
	}
	var result EnrollResult
	if err := c.postImage(ctx, "/api/students/register", fields, image, &result); err != nil {
		return EnrollResult{}, err
	}
	return result, nil
}

// StudentStats returns a student's attendance summary.
func (c *Client) StudentStats(ctx context.Context, studentID string) (StudentStats, error) {
	var stats StudentStats
	if err := c.getJSON(ctx, "/api/students/"+studentID+"/stats", &stats); err != nil {
		return StudentStats{}, err
	}
	return stats, nil
}

// StudentPrediction returns the at-risk prediction for a student.
func (c *Client) StudentPrediction(ctx context.Context, studentID string) (RiskPrediction, error) {
	var pred RiskPrediction
	if err := c.getJSON(ctx, "/api/students/"+studentID+"/prediction", &pred); err != nil {
		return RiskPrediction{}, err
	}
	return pred, nil
}

// SubjectTrend returns the attendance time series for a subject.
func (c *Client) SubjectTrend(ctx context.Context, subjectID string) ([]TrendPoint, error) {
	var points []TrendPoint
	if err := c.getJSON(ctx, "/api/attendance/subject/"+subjectID+"/trend", &points); err != nil {
		return nil, err
	}
	return points, nil
}

// StudentCalendar returns a student's per-day attendance calendar.
func (c *Client) StudentCalendar(ctx context.Context, studentID string) ([]CalendarDay, error) {
	var days []CalendarDay
	if err := c.getJSON(ctx, "/api/attendance/student/"+studentID+"/calendar", &days); err != nil {
		return nil, err
	}
	return days, nil
}

// UniversityStats returns the admin dashboard aggregates.
func (c *Client) UniversityStats(ctx context.Context) (UniversityStats, error) {
	var stats UniversityStats
	if err := c.getJSON(ctx, "/api/admin/university-stats", &stats); err != nil {
		return UniversityStats{}, err
	}
	return stats, nil
}

// CreateDepartment creates a department.
func (c *Client) CreateDepartment(ctx context.Context, form DepartmentForm) (CreatedRef, error) {
	if err := validateForm(form); err != nil {
		return CreatedRef{}, err
	}
	var ref CreatedRef
	if err := c.postJSON(ctx, "/api/admin/departments/create", form, &ref); err != nil {
		return CreatedRef{}, err
	}
	return ref, nil
}

// CreateClass creates a class under a department.
func (c *Client) CreateClass(ctx context.Context, form ClassForm) (CreatedRef, error) {
	if err := validateForm(form); err != nil {
		return CreatedRef{}, err
	}
	var ref CreatedRef
	if err := c.postJSON(ctx, "/api/admin/classes/create", form, &ref); err != nil {
		return CreatedRef{}, err
	}
	return ref, nil
}

// Alerts lists notifications for a user.
func (c *Client) Alerts(ctx context.Context, userID string, limit int) ([]Alert, error) {
	path := "/api/alerts/" + userID
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var alerts []Alert
	if err := c.getJSON(ctx, path, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}
