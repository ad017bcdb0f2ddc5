package demo

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"attendboard/internal/auth"
	"attendboard/internal/gateway"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type tokenHolder struct{ token string }

func (t *tokenHolder) Token() string { return t.token }

func newTestServer(t *testing.T) (*httptest.Server, *Store) {
	t.Helper()
	store := NewStore()
	if err := Seed(store); err != nil {
		t.Fatal(err)
	}
	s := NewServer(ServerConfig{
		JWTIssuer:       "attendboard-demo",
		JWTSigningKey:   "test-signing-key",
		AccessTTL:       time.Hour,
		RateLimitPerMin: 1000,
	}, store, NewRecognizer(), nil, zap.NewNop())
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return srv, store
}

func login(t *testing.T, c *gateway.Client, holder *tokenHolder, username, password string) auth.Claims {
	t.Helper()
	grant, err := c.Login(context.Background(), gateway.Credentials{Username: username, Password: password})
	if err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	holder.token = grant.AccessToken
	claims, err := auth.Peek(grant.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	return claims
}

func TestMarkAttendanceEndToEnd(t *testing.T) {
	srv, store := newTestServer(t)
	holder := &tokenHolder{}
	c := gateway.New(srv.URL, 5*time.Second, holder)

	claims := login(t, c, holder, "teacher", "teacher123")

	subjects, err := c.TeacherSubjects(context.Background(), claims.Subject)
	if err != nil {
		t.Fatal(err)
	}
	if len(subjects) != 3 {
		t.Fatalf("got %d subjects, want 3", len(subjects))
	}

	frame := bytes.Repeat([]byte{0x5C, 0x33}, 2048)
	result, err := c.SubmitFrame(context.Background(), "sub-os", frame)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.StudentsPresent) == 0 {
		t.Fatal("no detections for a valid frame against a seeded roster")
	}
	for _, d := range result.StudentsPresent {
		if d.StudentID == "" || d.Name == "" || d.RollNo == "" {
			t.Fatalf("detection missing identity fields: %+v", d)
		}
		if _, ok := store.Student(d.StudentID); !ok {
			t.Fatalf("detection names unknown student %s", d.StudentID)
		}
	}
}

func TestMarkAttendanceUnknownSubject(t *testing.T) {
	srv, _ := newTestServer(t)
	holder := &tokenHolder{}
	c := gateway.New(srv.URL, 5*time.Second, holder)
	login(t, c, holder, "teacher", "teacher123")

	_, err := c.SubmitFrame(context.Background(), "sub-x", bytes.Repeat([]byte{1}, 2048))
	var gerr *gateway.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("error type = %T, want *gateway.Error", err)
	}
	if gerr.Status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", gerr.Status)
	}
	if gerr.Message != "unknown subject sub-x" {
		t.Fatalf("message = %q, want the server detail verbatim", gerr.Message)
	}
}

func TestMarkAttendanceRequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	c := gateway.New(srv.URL, 5*time.Second, &tokenHolder{})

	_, err := c.SubmitFrame(context.Background(), "sub-os", bytes.Repeat([]byte{1}, 2048))
	var gerr *gateway.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("error type = %T, want *gateway.Error", err)
	}
	if gerr.Status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", gerr.Status)
	}
	if gateway.IsNetwork(err) {
		t.Fatal("an auth rejection must not be flagged as a network failure")
	}
}

func TestMarkAttendanceForbiddenForStudents(t *testing.T) {
	srv, _ := newTestServer(t)
	holder := &tokenHolder{}
	c := gateway.New(srv.URL, 5*time.Second, holder)
	login(t, c, holder, "student", "student123")

	_, err := c.SubmitFrame(context.Background(), "sub-os", bytes.Repeat([]byte{1}, 2048))
	var gerr *gateway.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("error type = %T, want *gateway.Error", err)
	}
	if gerr.Status != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", gerr.Status)
	}
}

func TestEnrollStudentEndToEnd(t *testing.T) {
	srv, store := newTestServer(t)
	holder := &tokenHolder{}
	c := gateway.New(srv.URL, 5*time.Second, holder)
	login(t, c, holder, "teacher", "teacher123")

	form := gateway.StudentForm{Name: "Nikhil Menon", RollNo: "CSE3A-05", Year: "3", Branch: "CSE", Section: "A"}
	result, err := c.EnrollStudent(context.Background(), form, bytes.Repeat([]byte{7}, 2048))
	if err != nil {
		t.Fatal(err)
	}
	if result.StudentID == "" || result.RollNo != "CSE3A-05" {
		t.Fatalf("unexpected result: %+v", result)
	}
	st, ok := store.Student(result.StudentID)
	if !ok {
		t.Fatal("enrolled student not in the store")
	}
	if st.ClassID != "cse-3a" {
		t.Fatalf("class = %s, want cse-3a", st.ClassID)
	}

	// The same roll number again is a conflict.
	if _, err := c.EnrollStudent(context.Background(), form, bytes.Repeat([]byte{7}, 2048)); err == nil {
		t.Fatal("duplicate roll accepted")
	}
}

func TestStudentViews(t *testing.T) {
	srv, _ := newTestServer(t)
	holder := &tokenHolder{}
	c := gateway.New(srv.URL, 5*time.Second, holder)
	login(t, c, holder, "teacher", "teacher123")

	stats, err := c.StudentStats(context.Background(), "st-101")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Attended == 0 || stats.TotalClasses == 0 {
		t.Fatalf("seeded history missing from stats: %+v", stats)
	}

	days, err := c.StudentCalendar(context.Background(), "st-101")
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 30 {
		t.Fatalf("calendar has %d days, want 30", len(days))
	}
	var present int
	for _, d := range days {
		if d.Status == "present" {
			present++
		}
	}
	if present == 0 {
		t.Fatal("seeded marks missing from the calendar")
	}

	points, err := c.SubjectTrend(context.Background(), "sub-os")
	if err != nil {
		t.Fatal(err)
	}
	if len(points) == 0 {
		t.Fatal("seeded marks missing from the trend")
	}
}

func TestAdminEndpointsGated(t *testing.T) {
	srv, _ := newTestServer(t)
	holder := &tokenHolder{}
	c := gateway.New(srv.URL, 5*time.Second, holder)
	login(t, c, holder, "teacher", "teacher123")

	if _, err := c.UniversityStats(context.Background()); err == nil {
		t.Fatal("teacher reached an admin endpoint")
	}

	login(t, c, holder, "admin", "admin12345")
	stats, err := c.UniversityStats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Students == 0 || stats.Departments == 0 {
		t.Fatalf("empty aggregates: %+v", stats)
	}

	ref, err := c.CreateDepartment(context.Background(), gateway.DepartmentForm{Name: "Mechanical", Code: "MECH"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateClass(context.Background(), gateway.ClassForm{Name: "MECH 1A", DepartmentID: ref.ID, Year: 1}); err != nil {
		t.Fatal(err)
	}
}
