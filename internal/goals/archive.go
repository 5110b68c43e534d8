package goals

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Archive keeps a permanent record of detected goals and how they resolved.
type Archive interface {
	Record(ctx context.Context, goal GoalQuery) error
	Resolve(ctx context.Context, goalID, outcome, clipURL string, at time.Time) error
}

const schema = `CREATE TABLE IF NOT EXISTS goal_events (
	goal_id     TEXT PRIMARY KEY,
	event_id    TEXT NOT NULL,
	goal_order  INTEGER NOT NULL,
	minute      TEXT NOT NULL,
	home        TEXT NOT NULL,
	away        TEXT NOT NULL,
	scoreline   TEXT NOT NULL,
	player      TEXT,
	team        TEXT,
	detected_at TIMESTAMPTZ NOT NULL,
	outcome     TEXT,
	clip_url    TEXT,
	resolved_at TIMESTAMPTZ
)`

const upsertGoal = `INSERT INTO goal_events
	(goal_id, event_id, goal_order, minute, home, away, scoreline, player, team, detected_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (goal_id) DO UPDATE SET
	scoreline = EXCLUDED.scoreline,
	player = EXCLUDED.player,
	team = EXCLUDED.team`

const resolveGoal = `UPDATE goal_events SET outcome = $2, clip_url = $3, resolved_at = $4 WHERE goal_id = $1`

// PostgresArchive stores goals in the goal_events table.
type PostgresArchive struct {
	db *sql.DB
}

// OpenPostgres connects to dsn, verifies the connection and ensures the table exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresArchive, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open goal archive: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping goal archive: %w", err)
	}

	archive := NewPostgresArchive(db)
	if err := archive.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return archive, nil
}

// NewPostgresArchive wraps an open database.
func NewPostgresArchive(db *sql.DB) *PostgresArchive {
	return &PostgresArchive{db: db}
}

// EnsureSchema creates the goal_events table when missing.
func (a *PostgresArchive) EnsureSchema(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating goal_events: %w", err)
	}
	return nil
}

// Record upserts goal by id.
func (a *PostgresArchive) Record(ctx context.Context, goal GoalQuery) error {
	_, err := a.db.ExecContext(ctx, upsertGoal,
		goal.ID, goal.EventID, goal.Order, goal.Minute, goal.Home, goal.Away,
		goal.Scoreline, nullable(goal.Player), nullable(goal.Team), goal.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("archiving goal %s: %w", goal.ID, err)
	}
	return nil
}

// Resolve stores how a goal left the queue.
func (a *PostgresArchive) Resolve(ctx context.Context, goalID, outcome, clipURL string, at time.Time) error {
	if _, err := a.db.ExecContext(ctx, resolveGoal, goalID, outcome, nullable(clipURL), at); err != nil {
		return fmt.Errorf("resolving goal %s: %w", goalID, err)
	}
	return nil
}

// Close releases the database.
func (a *PostgresArchive) Close() error {
	return a.db.Close()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
