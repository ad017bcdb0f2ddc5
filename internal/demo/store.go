// Package demo implements the local development backend for the console: an
// in-memory university roster, a deterministic stand-in recognizer, and an
// optional Postgres event log. It exists so the capture workflow can be run
// end to end without the production recognition service.
package demo

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User is a login principal.
type User struct {
	ID           string
	Username     string
	PasswordHash []byte
	Role         string
	Name         string
}

// Department groups classes.
type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Class is a cohort within a department.
type Class struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DepartmentID string `json:"department_id"`
	Year         int    `json:"year"`
}

// Subject is a teachable unit attached to a class and a teacher.
type Subject struct {
	ID           string
	Name         string
	ClassID      string
	ClassLabel   string
	TeacherID    string
	TotalClasses int
}

// Student is an enrolled student.
type Student struct {
	ID      string
	Name    string
	RollNo  string
	Year    string
	Branch  string
	Section string
	ClassID string
}

// Mark is one recorded presence.
type Mark struct {
	ID         string
	SubjectID  string
	StudentID  string
	Confidence float64
	MarkedAt   time.Time
}

// Alert is a notification addressed to a user.
type Alert struct {
	ID        string
	UserID    string
	Message   string
	Severity  string
	CreatedAt time.Time
}

var (
	// ErrDuplicate signals a uniqueness violation (roll number, username).
	ErrDuplicate = errors.New("already exists")
	// ErrNotFound signals a missing record.
	ErrNotFound = errors.New("not found")
)

// Store is the in-memory state behind the demo endpoints.
type Store struct {
	mu          sync.RWMutex
	users       map[string]User // by username
	departments map[string]Department
	classes     map[string]Class
	subjects    map[string]Subject
	students    map[string]Student
	marks       []Mark
	alerts      []Alert
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:       make(map[string]User),
		departments: make(map[string]Department),
		classes:     make(map[string]Class),
		subjects:    make(map[string]Subject),
		students:    make(map[string]Student),
	}
}

// Authenticate checks a username/password pair.
func (s *Store) Authenticate(username, password string) (User, bool) {
	s.mu.RLock()
	u, ok := s.users[username]
	s.mu.RUnlock()
	if !ok {
		return User{}, false
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return User{}, false
	}
	return u, true
}

// AddUser registers a principal.
func (s *Store) AddUser(username, password, role, name string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[username]; exists {
		return User{}, fmt.Errorf("user %q: %w", username, ErrDuplicate)
	}
	u := User{ID: uuid.NewString(), Username: username, PasswordHash: hash, Role: role, Name: name}
	s.users[username] = u
	return u, nil
}

// SubjectsForTeacher lists a teacher's subjects sorted by name.
func (s *Store) SubjectsForTeacher(teacherID string) []Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Subject
	for _, sub := range s.subjects {
		if sub.TeacherID == teacherID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Subject returns a subject by id.
func (s *Store) Subject(id string) (Subject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subjects[id]
	return sub, ok
}

// Roster lists the students of the class a subject belongs to, in stable
// roll-number order so the fake recognizer is deterministic.
func (s *Store) Roster(subjectID string) []Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subjects[subjectID]
	if !ok {
		return nil
	}
	var out []Student
	for _, st := range s.students {
		if st.ClassID == sub.ClassID {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RollNo < out[j].RollNo })
	return out
}

// MarkPresent records presence for a student in a subject. A student already
// marked for the same subject on the same day is not double-counted; the
// existing mark wins and false is returned.
func (s *Store) MarkPresent(subjectID, studentID string, confidence float64, at time.Time) (Mark, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	day := at.UTC().Truncate(24 * time.Hour)
	for _, m := range s.marks {
		if m.SubjectID == subjectID && m.StudentID == studentID &&
			m.MarkedAt.UTC().Truncate(24*time.Hour).Equal(day) {
			return m, false
		}
	}
	m := Mark{
		ID:         uuid.NewString(),
		SubjectID:  subjectID,
		StudentID:  studentID,
		Confidence: confidence,
		MarkedAt:   at.UTC(),
	}
	s.marks = append(s.marks, m)
	return m, true
}

// AddStudent enrolls a student, enforcing roll-number uniqueness.
func (s *Store) AddStudent(st Student) (Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.students {
		if existing.RollNo == st.RollNo {
			return Student{}, fmt.Errorf("roll number %s: %w", st.RollNo, ErrDuplicate)
		}
	}
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	s.students[st.ID] = st
	return st, nil
}

// Student returns a student by id.
func (s *Store) Student(id string) (Student, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[id]
	return st, ok
}

// StatsForStudent summarizes a student's attendance across all subjects of
// their class.
func (s *Store) StatsForStudent(studentID string) (total, attended int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[studentID]
	if !ok {
		return 0, 0
	}
	for _, sub := range s.subjects {
		if sub.ClassID == st.ClassID {
			total += sub.TotalClasses
		}
	}
	for _, m := range s.marks {
		if m.StudentID == studentID {
			attended++
		}
	}
	return total, attended
}

// TrendForSubject returns per-day present counts for the last `days` days.
func (s *Store) TrendForSubject(subjectID string, days int) map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	out := make(map[string]int)
	for _, m := range s.marks {
		if m.SubjectID != subjectID || m.MarkedAt.Before(cutoff) {
			continue
		}
		out[m.MarkedAt.Format("2006-01-02")]++
	}
	return out
}

// CalendarForStudent returns the set of days a student was marked present.
func (s *Store) CalendarForStudent(studentID string) map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool)
	for _, m := range s.marks {
		if m.StudentID == studentID {
			out[m.MarkedAt.Format("2006-01-02")] = true
		}
	}
	return out
}

// Counts returns the university-wide aggregates.
func (s *Store) Counts() (departments, classes, teachers, students int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	teacherSet := make(map[string]struct{})
	for _, sub := range s.subjects {
		teacherSet[sub.TeacherID] = struct{}{}
	}
	return len(s.departments), len(s.classes), len(teacherSet), len(s.students)
}

// AvgAttendance is the mean attendance ratio across students with any
// scheduled classes.
func (s *Store) AvgAttendance() float64 {
	s.mu.RLock()
	ids := make([]string, 0, len(s.students))
	for id := range s.students {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	var sum float64
	var n int
	for _, id := range ids {
		total, attended := s.StatsForStudent(id)
		if total == 0 {
			continue
		}
		sum += float64(attended) / float64(total)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n) * 100
}

// CreateDepartment adds a department.
func (s *Store) CreateDepartment(name, code string) (Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.departments {
		if d.Code == code {
			return Department{}, fmt.Errorf("department %s: %w", code, ErrDuplicate)
		}
	}
	d := Department{ID: uuid.NewString(), Name: name, Code: code}
	s.departments[d.ID] = d
	return d, nil
}

// CreateClass adds a class under an existing department.
func (s *Store) CreateClass(name, departmentID string, year int) (Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.departments[departmentID]; !ok {
		return Class{}, fmt.Errorf("department %s: %w", departmentID, ErrNotFound)
	}
	c := Class{ID: uuid.NewString(), Name: name, DepartmentID: departmentID, Year: year}
	s.classes[c.ID] = c
	return c, nil
}

// AddAlert queues a notification for a user.
func (s *Store) AddAlert(userID, message, severity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, Alert{
		ID:        uuid.NewString(),
		UserID:    userID,
		Message:   message,
		Severity:  severity,
		CreatedAt: time.Now().UTC(),
	})
}

// AlertsFor lists a user's notifications, newest first.
func (s *Store) AlertsFor(userID string, limit int) []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Alert
	for i := len(s.alerts) - 1; i >= 0; i-- {
		if s.alerts[i].UserID == userID {
			out = append(out, s.alerts[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}
