package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fentz26/aitracker/internal/models"
)

// PostgresStore keeps progress in PostgreSQL with JSONB documents.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	DSN         string
	MaxConns    int32
	MinConns    int32
	MaxLifetime time.Duration
}

// NewPostgresStore connects, pings and migrates.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	poolConfig.MaxConns = 10
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = 1
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	poolConfig.MaxConnLifetime = 30 * time.Minute
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS progress_documents (
		user_id TEXT PRIMARY KEY,
		data JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS progress_history (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		data JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS daily_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		log_date TEXT NOT NULL,
		data JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS decisions (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		inputs_hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		user_id TEXT,
		details TEXT,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_progress_history_created ON progress_history(created_at);
	CREATE INDEX IF NOT EXISTS idx_daily_logs_user ON daily_logs(user_id, created_at);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// LoadProgress returns the stored document or nil.
func (s *PostgresStore) LoadProgress(ctx context.Context, userID string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM progress_documents WHERE user_id = $1`, userID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	return data, nil
}

// SaveProgress upserts the document and records a history row in one transaction.
func (s *PostgresStore) SaveProgress(ctx context.Context, userID string, doc []byte) error {
	if !json.Valid(doc) {
		return ErrInvalidDocument
	}
	now := time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO progress_documents (user_id, data, updated_at) VALUES ($1, $2::jsonb, $3)
		 ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		userID, string(doc), now,
	)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO progress_history (id, user_id, data, created_at) VALUES ($1, $2, $3::jsonb, $4)`,
		uuid.New().String(), userID, string(doc), now,
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit progress: %w", err)
	}
	return nil
}

// PruneHistory removes history rows older than cutoff.
func (s *PostgresStore) PruneHistory(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM progress_history WHERE created_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SaveDailyLog inserts a log, filling in its id and creation time.
func (s *PostgresStore) SaveDailyLog(ctx context.Context, userID string, log *models.DailyLog) error {
	prepareDailyLog(log)
	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("marshal daily log: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO daily_logs (id, user_id, log_date, data, created_at) VALUES ($1, $2, $3, $4::jsonb, $5)`,
		log.ID, userID, log.Date, string(data), log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert daily log: %w", err)
	}
	return nil
}

// ListDailyLogs returns logs for userID, newest first.
func (s *PostgresStore) ListDailyLogs(ctx context.Context, userID string, limit int) ([]models.DailyLog, error) {
	query := `SELECT data FROM daily_logs WHERE user_id = $1 ORDER BY created_at DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query daily logs: %w", err)
	}
	defer rows.Close()

	var logs []models.DailyLog
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan daily log: %w", err)
		}
		var l models.DailyLog
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, fmt.Errorf("decode daily log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// WriteDecision writes an audit record.
func (s *PostgresStore) WriteDecision(ctx context.Context, d *models.Decision) error {
	prepareDecision(d)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO decisions (id, action, inputs_hash, outcome, user_id, details, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.Action, d.InputsHash, d.Outcome, d.UserID, d.Details, d.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// ListDecisions returns the newest audit records first.
func (s *PostgresStore) ListDecisions(ctx context.Context, limit int) ([]models.Decision, error) {
	query := `SELECT id, action, inputs_hash, outcome, COALESCE(user_id, ''), COALESCE(details, ''), created_at FROM decisions ORDER BY created_at DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []models.Decision
	for rows.Next() {
		var d models.Decision
		if err := rows.Scan(&d.ID, &d.Action, &d.InputsHash, &d.Outcome, &d.UserID, &d.Details, &d.Timestamp); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
