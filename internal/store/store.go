// Package store persists exam history and settings in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/minhph/diem10tin/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS results (
		id TEXT PRIMARY KEY,
		taken_at DATETIME NOT NULL,
		score REAL NOT NULL,
		time_spent_seconds INTEGER NOT NULL DEFAULT 0,
		payload TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS exam_attempts (
		id TEXT PRIMARY KEY,
		exam_id TEXT NOT NULL,
		taken_at DATETIME NOT NULL,
		total_score REAL NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// AppendResult stores a finished quiz result. The whole record is kept as a
// JSON payload so the question snapshot round-trips field for field.
func (s *Store) AppendResult(r model.ExamResult) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result %s: %w", r.ID, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO results (id, taken_at, score, time_spent_seconds, payload) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.TakenAt, r.Score, r.TimeSpentSeconds, string(payload),
	)
	return err
}

// ListResults returns all quiz results, newest first. A corrupt payload row
// is logged and skipped: history degrades to fewer entries, never to an
// error surfaced to the exam flow.
func (s *Store) ListResults() ([]model.ExamResult, error) {
	rows, err := s.db.Query(`SELECT id, payload FROM results ORDER BY taken_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []model.ExamResult{}
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		var r model.ExamResult
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			slog.Warn("skipping corrupt result row", "id", id, "error", err)
			continue
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// AppendAttempt stores a finished mock-exam attempt.
func (s *Store) AppendAttempt(a model.ExamAttempt) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal attempt %s: %w", a.ID, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO exam_attempts (id, exam_id, taken_at, total_score, payload) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.ExamID, a.TakenAt, a.Score.TotalScore, string(payload),
	)
	return err
}

// ListAttempts returns all mock-exam attempts, newest first.
func (s *Store) ListAttempts() ([]model.ExamAttempt, error) {
	rows, err := s.db.Query(`SELECT id, payload FROM exam_attempts ORDER BY taken_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := []model.ExamAttempt{}
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		var a model.ExamAttempt
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			slog.Warn("skipping corrupt attempt row", "id", id, "error", err)
			continue
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// Summary aggregates the quiz history.
func (s *Store) Summary() (model.StatSummary, error) {
	var sum model.StatSummary
	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(AVG(score), 0),
		        COALESCE(MAX(score), 0),
		        COALESCE(SUM(time_spent_seconds), 0)
		 FROM results`,
	).Scan(&sum.TotalExams, &sum.AverageScore, &sum.BestScore, &sum.TotalTimeSeconds)
	return sum, err
}

// ClearHistory removes every stored result and attempt.
func (s *Store) ClearHistory() error {
	_, err := s.db.Exec(`DELETE FROM results; DELETE FROM exam_attempts;`)
	return err
}

// ResultCount returns the number of stored quiz results.
func (s *Store) ResultCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM results`).Scan(&count)
	return count, err
}

// now is separated for tests that pin export timestamps.
var now = time.Now
