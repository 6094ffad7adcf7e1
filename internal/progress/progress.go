// Package progress persists graded attempts in sqlite so per-topic
// strengths and weaknesses outlive the in-memory sessions.
package progress

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/S0tham/Sofida/internal/model"
)

// Tracker is the attempt log. Safe for concurrent use; database/sql
// serializes access to the single sqlite connection pool.
type Tracker struct {
	db *sql.DB
}

// New opens (and if needed creates) the attempt database at dbPath. Use
// ":memory:" for an ephemeral tracker.
func New(dbPath string) (*Tracker, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	t := &Tracker{db: db}
	if err := t.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return t, nil
}

func (t *Tracker) Close() error {
	return t.db.Close()
}

func (t *Tracker) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		exercise_id TEXT NOT NULL,
		exercise_type TEXT NOT NULL,
		skill TEXT NOT NULL,
		topic TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		result TEXT NOT NULL,
		score REAL NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_topic ON attempts(topic);
	CREATE INDEX IF NOT EXISTS idx_attempts_session ON attempts(session_id);
	`
	_, err := t.db.Exec(schema)
	return err
}

// Record stores one graded attempt.
func (t *Tracker) Record(sessionID string, ex *model.Exercise, res *model.CheckResult) error {
	_, err := t.db.Exec(`
		INSERT INTO attempts (session_id, exercise_id, exercise_type, skill, topic, difficulty, result, score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, ex.ID, string(ex.Type), string(ex.Skill), ex.Topic, string(ex.Difficulty),
		string(res.Result), res.Score, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// Stats summarizes recorded attempts. Percentage is rounded to one
// decimal, 0 when nothing is recorded yet.
type Stats struct {
	Total      int     `json:"total"`
	Correct    int     `json:"correct"`
	Percentage float64 `json:"percentage"`
}

// Stats summarizes attempts for one session, or for all sessions when
// sessionID is empty.
func (t *Tracker) Stats(sessionID string) (*Stats, error) {
	var s Stats
	err := t.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN result = 'correct' THEN 1 ELSE 0 END), 0)
		FROM attempts
		WHERE (? = '' OR session_id = ?)`, sessionID, sessionID).Scan(&s.Total, &s.Correct)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	if s.Total > 0 {
		s.Percentage = math.Round(float64(s.Correct)/float64(s.Total)*1000) / 10
	}
	return &s, nil
}

// WeakSpot is a topic and how often it went wrong.
type WeakSpot struct {
	Topic  string `json:"topic"`
	Errors int    `json:"errors"`
}

// WeakSpots returns the three topics with the most non-correct attempts,
// most errors first, for one session or for all sessions when sessionID is
// empty. Topics without errors never appear.
func (t *Tracker) WeakSpots(sessionID string) ([]WeakSpot, error) {
	rows, err := t.db.Query(`
		SELECT topic, COUNT(*) AS errors
		FROM attempts
		WHERE result != 'correct' AND (? = '' OR session_id = ?)
		GROUP BY topic
		ORDER BY errors DESC, topic ASC
		LIMIT 3`, sessionID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query weak spots: %w", err)
	}
	defer rows.Close()

	var spots []WeakSpot
	for rows.Next() {
		var w WeakSpot
		if err := rows.Scan(&w.Topic, &w.Errors); err != nil {
			return nil, fmt.Errorf("scan weak spot: %w", err)
		}
		spots = append(spots, w)
	}
	return spots, rows.Err()
}

// Attempt is one row of the attempt log, used for exports.
type Attempt struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"session_id"`
	ExerciseID   string    `json:"exercise_id"`
	ExerciseType string    `json:"exercise_type"`
	Skill        string    `json:"skill"`
	Topic        string    `json:"topic"`
	Difficulty   string    `json:"difficulty"`
	Result       string    `json:"result"`
	Score        float64   `json:"score"`
	CreatedAt    time.Time `json:"created_at"`
}

// ExportAll returns every recorded attempt, oldest first.
func (t *Tracker) ExportAll() ([]Attempt, error) {
	rows, err := t.db.Query(`
		SELECT id, session_id, exercise_id, exercise_type, skill, topic, difficulty, result, score, created_at
		FROM attempts
		ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.ID, &a.SessionID, &a.ExerciseID, &a.ExerciseType, &a.Skill,
			&a.Topic, &a.Difficulty, &a.Result, &a.Score, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
