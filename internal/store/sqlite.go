package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/fentz26/aitracker/internal/models"
)

// SQLiteStore keeps progress in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at dbPath and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS progress_documents (
		user_id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS progress_history (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		data TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS daily_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		log_date TEXT NOT NULL,
		data TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS decisions (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		inputs_hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		user_id TEXT,
		details TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_progress_history_created ON progress_history(created_at);
	CREATE INDEX IF NOT EXISTS idx_daily_logs_user ON daily_logs(user_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// --- Progress ---

// LoadProgress returns the stored document or nil.
func (s *SQLiteStore) LoadProgress(ctx context.Context, userID string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM progress_documents WHERE user_id = ?`, userID,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	return []byte(data), nil
}

// SaveProgress upserts the document and records a history row in one transaction.
func (s *SQLiteStore) SaveProgress(ctx context.Context, userID string, doc []byte) error {
	if !json.Valid(doc) {
		return ErrInvalidDocument
	}
	now := time.Now().UTC().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO progress_documents (user_id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		userID, string(doc), now,
	)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO progress_history (id, user_id, data, created_at) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), userID, string(doc), now,
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit progress: %w", err)
	}
	return nil
}

// PruneHistory removes history rows older than cutoff.
func (s *SQLiteStore) PruneHistory(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM progress_history WHERE created_at < ?`, cutoff.UTC().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return res.RowsAffected()
}

// CountHistory returns the number of history rows for userID.
func (s *SQLiteStore) CountHistory(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM progress_history WHERE user_id = ?`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

// --- Daily logs ---

// SaveDailyLog inserts a log, filling in its id and creation time.
func (s *SQLiteStore) SaveDailyLog(ctx context.Context, userID string, log *models.DailyLog) error {
	prepareDailyLog(log)
	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("marshal daily log: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO daily_logs (id, user_id, log_date, data, created_at) VALUES (?, ?, ?, ?, ?)`,
		log.ID, userID, log.Date, string(data), log.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert daily log: %w", err)
	}
	return nil
}

// ListDailyLogs returns logs for userID, newest first.
func (s *SQLiteStore) ListDailyLogs(ctx context.Context, userID string, limit int) ([]models.DailyLog, error) {
	query := `SELECT data FROM daily_logs WHERE user_id = ? ORDER BY created_at DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query daily logs: %w", err)
	}
	defer rows.Close()

	var logs []models.DailyLog
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan daily log: %w", err)
		}
		var l models.DailyLog
		if err := json.Unmarshal([]byte(data), &l); err != nil {
			return nil, fmt.Errorf("decode daily log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// --- Decisions ---

// WriteDecision writes an audit record.
func (s *SQLiteStore) WriteDecision(ctx context.Context, d *models.Decision) error {
	prepareDecision(d)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (id, action, inputs_hash, outcome, user_id, details, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Action, d.InputsHash, d.Outcome, d.UserID, d.Details, d.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// ListDecisions returns the newest audit records first.
func (s *SQLiteStore) ListDecisions(ctx context.Context, limit int) ([]models.Decision, error) {
	query := `SELECT id, action, inputs_hash, outcome, user_id, details, created_at FROM decisions ORDER BY created_at DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []models.Decision
	for rows.Next() {
		var d models.Decision
		var userID, details sql.NullString
		var ts int64
		if err := rows.Scan(&d.ID, &d.Action, &d.InputsHash, &d.Outcome, &userID, &details, &ts); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.UserID = userID.String
		d.Details = details.String
		d.Timestamp = time.Unix(0, ts).UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}

func prepareDailyLog(l *models.DailyLog) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	if l.Date == "" {
		l.Date = l.CreatedAt.Format("2006-01-02")
	}
	if l.Mood == "" {
		l.Mood = "neutral"
	}
	if l.TasksCompleted == nil {
		l.TasksCompleted = []string{}
	}
}

func prepareDecision(d *models.Decision) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now().UTC()
	}
}
