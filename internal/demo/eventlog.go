package demo

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// EventLog archives attendance marks in Postgres when DATABASE_URL is set,
// so demo data can survive restarts. The in-memory store stays authoritative
// for reads; this is an append-mostly archive.
type EventLog struct {
	db *sql.DB
}

// OpenEventLog connects and ensures the schema exists.
func OpenEventLog(connString string) (*EventLog, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS attendance_marks (
			id          TEXT PRIMARY KEY,
			subject_id  TEXT NOT NULL,
			student_id  TEXT NOT NULL,
			confidence  DOUBLE PRECISION NOT NULL,
			marked_at   TIMESTAMPTZ NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_marks_subject ON attendance_marks (subject_id, marked_at DESC);
	`); err != nil {
		db.Close()
		return nil, err
	}
	return &EventLog{db: db}, nil
}

// Record appends one mark.
func (l *EventLog) Record(ctx context.Context, m Mark) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO attendance_marks (id, subject_id, student_id, confidence, marked_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, m.ID, m.SubjectID, m.StudentID, m.Confidence, m.MarkedAt)
	return err
}

// Recent returns the latest marks for a subject.
func (l *EventLog) Recent(ctx context.Context, subjectID string, limit int) ([]Mark, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, subject_id, student_id, confidence, marked_at
		FROM attendance_marks
		WHERE subject_id = $1
		ORDER BY marked_at DESC
		LIMIT $2
	`, subjectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Mark
	for rows.Next() {
		var m Mark
		if err := rows.Scan(&m.ID, &m.SubjectID, &m.StudentID, &m.Confidence, &m.MarkedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Close closes the connection pool.
func (l *EventLog) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}
