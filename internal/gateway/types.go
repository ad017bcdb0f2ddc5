package gateway

// Detection is one recognized student in a submitted frame. Order within a
// response is the server's order and is preserved everywhere downstream.
type Detection struct {
	StudentID  string  `json:"student_id"`
	Name       string  `json:"name,omitempty"`
	RollNo     string  `json:"roll_no,omitempty"`
	Confidence float64 `json:"confidence"`
}

// MarkResult is the response to an attendance frame submission.
type MarkResult struct {
	Status          string      `json:"status"`
	Count           int         `json:"count"`
	StudentsPresent []Detection `json:"students_present"`
}

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenGrant is the login response body.
type TokenGrant struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegistrationForm creates a new account.
type RegistrationForm struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=admin teacher student"`
}

// Subject is one teachable unit a teacher can record attendance for.
type Subject struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ClassLabel   string `json:"class_label"`
	TotalClasses int    `json:"total_classes"`
}

// StudentForm carries the identity fields for student enrollment.
type StudentForm struct {
	Name    string `validate:"required"`
	RollNo  string `validate:"required"`
	Year    string `validate:"required"`
	Branch  string `validate:"required"`
	Section string `validate:"required"`
}

// EnrollResult confirms a student registration.
type EnrollResult struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	RollNo    string `json:"roll_no"`
	Status    string `json:"status"`
}

// StudentStats summarizes a student's attendance.
type StudentStats struct {
	StudentID    string  `json:"student_id"`
	TotalClasses int     `json:"total_classes"`
	Attended     int     `json:"attended"`
	Percentage   float64 `json:"percentage"`
}

// RiskPrediction flags a student at risk of falling below the attendance bar.
type RiskPrediction struct {
	StudentID   string  `json:"student_id"`
	AtRisk      bool    `json:"at_risk"`
	Probability float64 `json:"probability"`
	Advice      string  `json:"advice,omitempty"`
}

// TrendPoint is one day in a subject's attendance time series.
type TrendPoint struct {
	Date       string  `json:"date"`
	Present    int     `json:"present"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// CalendarDay is one day in a student's attendance calendar.
type CalendarDay struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

// UniversityStats holds the admin dashboard aggregates.
type UniversityStats struct {
	Departments   int     `json:"departments"`
	Classes       int     `json:"classes"`
	Teachers      int     `json:"teachers"`
	Students      int     `json:"students"`
	AvgAttendance float64 `json:"avg_attendance"`
}

// DepartmentForm creates a department.
type DepartmentForm struct {
	Name string `json:"name" validate:"required"`
	Code string `json:"code" validate:"required"`
}

// ClassForm creates a class within a department.
type ClassForm struct {
	Name         string `json:"name" validate:"required"`
	DepartmentID string `json:"department_id" validate:"required"`
	Year         int    `json:"year" validate:"required,min=1,max=6"`
}

// CreatedRef is the generic create-response carrying the new record id.
type CreatedRef struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Alert is one notification for a user.
type Alert struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Severity  string `json:"severity"`
	CreatedAt string `json:"created_at"`
}
