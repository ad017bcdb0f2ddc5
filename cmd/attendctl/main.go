// attendctl is the operator console for the attendance system: a role-based
// client over the backend REST API. Teachers capture a photo to mark
// attendance and enroll students, students check their own standing, admins
// manage departments and classes.
package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"attendboard/internal/config"
	"attendboard/internal/gateway"
	"attendboard/internal/session"
)

const usage = `attendctl <command> [flags]

Account
  login        -u <username> -p <password>
  signup       -u <username> -p <password> -name <full name> -role <admin|teacher|student>
  logout
  whoami

Teaching
  subjects     list your subjects
  mark         -subject <id> [-photo <file>]   capture and mark attendance
  enroll       -name -roll -year -branch -section [-photo <file>]

Insights
  stats        [-student <id>]
  prediction   [-student <id>]
  trend        -subject <id>
  calendar     [-student <id>]
  alerts

Administration
  admin-stats
  create-department  -name <name> -code <code>
  create-class       -name <name> -dept <department id> -year <n>
`

type app struct {
	cfg      config.App
	log      *zap.Logger
	sessions *session.Store
	gw       *gateway.Client
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	logger := newLogger(cfg.Env)
	defer logger.Sync()

	sessions := session.NewStore(cfg.SessionPath)
	a := &app{
		cfg:      cfg,
		log:      logger,
		sessions: sessions,
		gw:       gateway.New(cfg.APIBaseURL, cfg.RequestTimeout, sessions),
	}

	cmd, args := os.Args[1], os.Args[2:]
	if err := a.run(cmd, args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", displayMessage(err))
		os.Exit(1)
	}
}

func (a *app) run(cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.cmdLogin(args)
	case "signup":
		return a.cmdSignup(args)
	case "logout":
		return a.cmdLogout()
	case "whoami":
		return a.cmdWhoami()
	case "subjects":
		return a.cmdSubjects(args)
	case "mark":
		return a.cmdMark(args)
	case "enroll":
		return a.cmdEnroll(args)
	case "stats":
		return a.cmdStats(args)
	case "prediction":
		return a.cmdPrediction(args)
	case "trend":
		return a.cmdTrend(args)
	case "calendar":
		return a.cmdCalendar(args)
	case "alerts":
		return a.cmdAlerts(args)
	case "admin-stats":
		return a.cmdAdminStats()
	case "create-department":
		return a.cmdCreateDepartment(args)
	case "create-class":
		return a.cmdCreateClass(args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// requireRole loads the persisted session and gates the screen by role, the
// way the browser app gated its routes.
func (a *app) requireRole(roles ...session.Role) (session.Session, error) {
	sess, err := a.sessions.Current()
	if err != nil {
		return session.Session{}, errors.New("not logged in, run: attendctl login")
	}
	if len(roles) == 0 {
		return sess, nil
	}
	for _, r := range roles {
		if sess.Role == r {
			return sess, nil
		}
	}
	return session.Session{}, fmt.Errorf("this screen needs the %v role, you are logged in as %s", roles, sess.Role)
}

// displayMessage prefers the gateway's normalized message and adds the
// connectivity hint for transport failures.
func displayMessage(err error) string {
	var gerr *gateway.Error
	if errors.As(err, &gerr) {
		if gerr.Network {
			return gerr.Message + " (is the backend running?)"
		}
		return gerr.Message
	}
	return err.Error()
}

func newLogger(env string) *zap.Logger {
	if env == "production" || env == "prod" {
		logger, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return logger
	}
	// Console diagnostics stay on stderr at warn level so command output
	// remains clean.
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
