package demo

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"attendboard/internal/auth"
	"attendboard/internal/gateway"
	"attendboard/internal/httpmiddleware"
)

var (
	marksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendboard_demo_marks_total",
		Help: "Attendance marks recorded by the demo backend.",
	})
	enrollTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendboard_demo_enrollments_total",
		Help: "Students enrolled through the demo backend.",
	})
)

// ServerConfig carries what the router needs from the application config.
type ServerConfig struct {
	JWTIssuer       string
	JWTSigningKey   string
	AccessTTL       time.Duration
	RateLimitPerMin int
}

// Server wires the demo endpoints. It mirrors the REST contract the console's
// gateway expects, including the "detail" error field.
type Server struct {
	cfg   ServerConfig
	store *Store
	rec   *Recognizer
	log   *zap.Logger
	// events is optional; nil when no DATABASE_URL is configured.
	events *EventLog
}

// NewServer builds a server around a (usually seeded) store.
func NewServer(cfg ServerConfig, store *Store, rec *Recognizer, events *EventLog, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = NewRecognizer()
	}
	return &Server{cfg: cfg, store: store, rec: rec, events: events, log: log}
}

// Router assembles the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{SkipPaths: []string{"/healthz", "/metrics"}}))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/api/auth/login", s.login)
	r.POST("/api/auth/register", s.register)

	api := r.Group("/api", auth.Bearer(s.cfg.JWTSigningKey, s.cfg.JWTIssuer))
	api.Use(httpmiddleware.NewPrincipalLimiter(s.cfg.RateLimitPerMin).Middleware())

	api.GET("/subjects/teacher/:teacherId", s.teacherSubjects)
	api.POST("/attendance/mark", auth.RequireRole("teacher", "admin"), s.markAttendance)
	api.POST("/students/register", auth.RequireRole("teacher", "admin"), s.registerStudent)
	api.GET("/students/:id/stats", s.studentStats)
	api.GET("/students/:id/prediction", s.studentPrediction)
	api.GET("/attendance/subject/:id/trend", s.subjectTrend)
	api.GET("/attendance/student/:id/calendar", s.studentCalendar)
	api.GET("/admin/university-stats", auth.RequireRole("admin"), s.universityStats)
	api.POST("/admin/departments/create", auth.RequireRole("admin"), s.createDepartment)
	api.POST("/admin/classes/create", auth.RequireRole("admin"), s.createClass)
	api.GET("/alerts/:userId", s.alerts)

	return r
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "username and password are required"})
		return
	}
	u, ok := s.store.Authenticate(req.Username, req.Password)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "invalid username or password"})
		return
	}
	token, _, err := auth.Issue(u.ID, u.Role, u.Name, s.cfg.JWTIssuer, s.cfg.JWTSigningKey, s.cfg.AccessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "token issue failed"})
		return
	}
	c.JSON(http.StatusOK, gateway.TokenGrant{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required,min=8"`
		FullName string `json:"full_name" binding:"required"`
		Role     string `json:"role" binding:"required,oneof=admin teacher student"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if _, err := s.store.AddUser(req.Username, req.Password, req.Role, req.FullName); err != nil {
		c.JSON(http.StatusConflict, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "registered"})
}

func (s *Server) teacherSubjects(c *gin.Context) {
	subjects := s.store.SubjectsForTeacher(c.Param("teacherId"))
	out := make([]gateway.Subject, 0, len(subjects))
	for _, sub := range subjects {
		out = append(out, gateway.Subject{
			ID:           sub.ID,
			Name:         sub.Name,
			ClassLabel:   sub.ClassLabel,
			TotalClasses: sub.TotalClasses,
		})
	}
	c.JSON(http.StatusOK, out)
}

// markAttendance accepts the multipart frame submission, runs the stand-in
// recognizer over the subject's roster, and records the resulting marks.
func (s *Server) markAttendance(c *gin.Context) {
	subjectID := c.PostForm("subject_id")
	if subjectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "subject_id is required"})
		return
	}
	if _, ok := s.store.Subject(subjectID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": fmt.Sprintf("unknown subject %s", subjectID)})
		return
	}
	frame, err := readImagePart(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	detections := s.rec.Detect(frame, s.store.Roster(subjectID))
	now := time.Now().UTC()
	for _, d := range detections {
		mark, recorded := s.store.MarkPresent(subjectID, d.StudentID, d.Confidence, now)
		if !recorded {
			continue
		}
		marksTotal.Inc()
		if s.events != nil {
			if err := s.events.Record(c.Request.Context(), mark); err != nil {
				s.log.Warn("event log write failed", zap.Error(err))
			}
		}
	}

	c.JSON(http.StatusOK, gateway.MarkResult{
		Status:          "ok",
		Count:           len(detections),
		StudentsPresent: detections,
	})
}

func (s *Server) registerStudent(c *gin.Context) {
	var req struct {
		Name    string `form:"name" binding:"required"`
		RollNo  string `form:"roll_no" binding:"required"`
		Year    string `form:"year" binding:"required"`
		Branch  string `form:"branch" binding:"required"`
		Section string `form:"section" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if _, err := readImagePart(c); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	st, err := s.store.AddStudent(Student{
		Name:    req.Name,
		RollNo:  req.RollNo,
		Year:    req.Year,
		Branch:  req.Branch,
		Section: req.Section,
		ClassID: classFor(req.Branch, req.Year, req.Section),
	})
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"detail": err.Error()})
		return
	}
	enrollTotal.Inc()
	c.JSON(http.StatusCreated, gateway.EnrollResult{
		StudentID: st.ID,
		Name:      st.Name,
		RollNo:    st.RollNo,
		Status:    "registered",
	})
}

func (s *Server) studentStats(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.store.Student(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": fmt.Sprintf("unknown student %s", id)})
		return
	}
	total, attended := s.store.StatsForStudent(id)
	stats := gateway.StudentStats{StudentID: id, TotalClasses: total, Attended: attended}
	if total > 0 {
		stats.Percentage = float64(attended) / float64(total) * 100
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) studentPrediction(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.store.Student(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": fmt.Sprintf("unknown student %s", id)})
		return
	}
	total, attended := s.store.StatsForStudent(id)
	pred := gateway.RiskPrediction{StudentID: id}
	if total > 0 {
		ratio := float64(attended) / float64(total)
		pred.AtRisk = ratio < 0.75
		pred.Probability = 1 - ratio
		if pred.AtRisk {
			pred.Advice = "attendance is trending below 75%, plan catch-up sessions"
		}
	}
	c.JSON(http.StatusOK, pred)
}

func (s *Server) subjectTrend(c *gin.Context) {
	subjectID := c.Param("id")
	if _, ok := s.store.Subject(subjectID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": fmt.Sprintf("unknown subject %s", subjectID)})
		return
	}
	roster := len(s.store.Roster(subjectID))
	byDay := s.store.TrendForSubject(subjectID, 30)

	points := make([]gateway.TrendPoint, 0, len(byDay))
	for day := 0; day < 30; day++ {
		date := time.Now().UTC().AddDate(0, 0, -day).Format("2006-01-02")
		present, any := byDay[date]
		if !any {
			continue
		}
		p := gateway.TrendPoint{Date: date, Present: present, Total: roster}
		if roster > 0 {
			p.Percentage = float64(present) / float64(roster) * 100
		}
		points = append(points, p)
	}
	c.JSON(http.StatusOK, points)
}

func (s *Server) studentCalendar(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.store.Student(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": fmt.Sprintf("unknown student %s", id)})
		return
	}
	present := s.store.CalendarForStudent(id)
	days := make([]gateway.CalendarDay, 0, 30)
	for d := 29; d >= 0; d-- {
		date := time.Now().UTC().AddDate(0, 0, -d).Format("2006-01-02")
		status := "absent"
		if present[date] {
			status = "present"
		}
		days = append(days, gateway.CalendarDay{Date: date, Status: status})
	}
	c.JSON(http.StatusOK, days)
}

func (s *Server) universityStats(c *gin.Context) {
	departments, classes, teachers, students := s.store.Counts()
	c.JSON(http.StatusOK, gateway.UniversityStats{
		Departments:   departments,
		Classes:       classes,
		Teachers:      teachers,
		Students:      students,
		AvgAttendance: s.store.AvgAttendance(),
	})
}

func (s *Server) createDepartment(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	d, err := s.store.CreateDepartment(req.Name, req.Code)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gateway.CreatedRef{ID: d.ID, Status: "created"})
}

func (s *Server) createClass(c *gin.Context) {
	var req struct {
		Name         string `json:"name" binding:"required"`
		DepartmentID string `json:"department_id" binding:"required"`
		Year         int    `json:"year" binding:"required,min=1,max=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	cls, err := s.store.CreateClass(req.Name, req.DepartmentID, req.Year)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gateway.CreatedRef{ID: cls.ID, Status: "created"})
}

func (s *Server) alerts(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	alerts := s.store.AlertsFor(c.Param("userId"), limit)
	out := make([]gateway.Alert, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, gateway.Alert{
			ID:        a.ID,
			Message:   a.Message,
			Severity:  a.Severity,
			CreatedAt: a.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}

// readImagePart pulls the image file out of the multipart form.
func readImagePart(c *gin.Context) ([]byte, error) {
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		return nil, fmt.Errorf("image file is required")
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read image")
	}
	return data, nil
}

// classFor maps enrollment fields onto the seeded class ids so new students
// land in an existing cohort.
func classFor(branch, year, section string) string {
	switch branch {
	case "CSE":
		return "cse-3a"
	case "ECE":
		return "ece-2b"
	default:
		return fmt.Sprintf("%s-%s%s", branch, year, section)
	}
}
