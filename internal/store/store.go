// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/pupitre/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for sessions and score aggregates.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			score_id TEXT NOT NULL,
			score_title TEXT NOT NULL,
			composer TEXT NOT NULL,
			mode TEXT NOT NULL,
			started_at TEXT NOT NULL,
			playthrough_started_at TEXT,
			ended_at TEXT,
			completed_at TEXT,
			total_measures INTEGER NOT NULL,
			measures TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS score_aggregates (
			score_id TEXT PRIMARY KEY,
			score_title TEXT NOT NULL,
			composer TEXT NOT NULL,
			status TEXT NOT NULL,
			first_played_at TEXT NOT NULL,
			last_played_at TEXT NOT NULL,
			total_sessions INTEGER NOT NULL,
			total_practice_ms INTEGER NOT NULL,
			measures TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_score_id ON sessions(score_id);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// PutSession inserts or replaces a session snapshot. Sessions are
// written repeatedly while in progress, so the write is an upsert
// keyed by the session ID.
func (s *Store) PutSession(ctx context.Context, sess *model.PracticeSession) error {
	measures, err := json.Marshal(sess.Measures)
	if err != nil {
		return fmt.Errorf("failed to encode measures: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, score_id, score_title, composer, mode, started_at, playthrough_started_at, ended_at, completed_at, total_measures, measures)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			score_id = excluded.score_id,
			score_title = excluded.score_title,
			composer = excluded.composer,
			mode = excluded.mode,
			started_at = excluded.started_at,
			playthrough_started_at = excluded.playthrough_started_at,
			ended_at = excluded.ended_at,
			completed_at = excluded.completed_at,
			total_measures = excluded.total_measures,
			measures = excluded.measures`,
		sess.ID,
		sess.ScoreID,
		sess.ScoreTitle,
		sess.Composer,
		string(sess.Mode),
		sess.StartedAt.Format(time.RFC3339Nano),
		encodeOptionalTime(sess.PlaythroughStartedAt),
		encodeOptionalTime(sess.EndedAt),
		encodeOptionalTime(sess.CompletedAt),
		sess.TotalMeasures,
		string(measures),
	)
	return err
}

// GetSession loads one session by ID, returning nil when absent.
func (s *Store) GetSession(ctx context.Context, id string) (*model.PracticeSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, score_id, score_title, composer, mode, started_at, playthrough_started_at, ended_at, completed_at, total_measures, measures
		 FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sess, err
}

// ListSessionsByScore returns all sessions of a score ordered by start
// time, oldest first.
func (s *Store) ListSessionsByScore(ctx context.Context, scoreID string) ([]*model.PracticeSession, error) {
	return s.querySessions(ctx,
		`SELECT id, score_id, score_title, composer, mode, started_at, playthrough_started_at, ended_at, completed_at, total_measures, measures
		 FROM sessions WHERE score_id = ? ORDER BY started_at ASC`, scoreID)
}

// ListSessions returns every stored session ordered by start time.
func (s *Store) ListSessions(ctx context.Context) ([]*model.PracticeSession, error) {
	return s.querySessions(ctx,
		`SELECT id, score_id, score_title, composer, mode, started_at, playthrough_started_at, ended_at, completed_at, total_measures, measures
		 FROM sessions ORDER BY started_at ASC`)
}

func (s *Store) querySessions(ctx context.Context, query string, args ...any) ([]*model.PracticeSession, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []*model.PracticeSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*model.PracticeSession, error) {
	var sess model.PracticeSession
	var mode, startedAt, measures string
	var playthroughStartedAt, endedAt, completedAt sql.NullString
	if err := row.Scan(
		&sess.ID,
		&sess.ScoreID,
		&sess.ScoreTitle,
		&sess.Composer,
		&mode,
		&startedAt,
		&playthroughStartedAt,
		&endedAt,
		&completedAt,
		&sess.TotalMeasures,
		&measures,
	); err != nil {
		return nil, err
	}
	sess.Mode = model.Mode(mode)
	parsed, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at: %w", err)
	}
	sess.StartedAt = parsed
	if sess.PlaythroughStartedAt, err = decodeOptionalTime(playthroughStartedAt); err != nil {
		return nil, fmt.Errorf("failed to parse playthrough_started_at: %w", err)
	}
	if sess.EndedAt, err = decodeOptionalTime(endedAt); err != nil {
		return nil, fmt.Errorf("failed to parse ended_at: %w", err)
	}
	if sess.CompletedAt, err = decodeOptionalTime(completedAt); err != nil {
		return nil, fmt.Errorf("failed to parse completed_at: %w", err)
	}
	if err := json.Unmarshal([]byte(measures), &sess.Measures); err != nil {
		return nil, fmt.Errorf("failed to decode measures: %w", err)
	}
	return &sess, nil
}

// PutAggregate inserts or replaces the aggregate of a score.
func (s *Store) PutAggregate(ctx context.Context, agg *model.ScoreAggregate) error {
	measures, err := json.Marshal(agg.Measures)
	if err != nil {
		return fmt.Errorf("failed to encode measures: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO score_aggregates (score_id, score_title, composer, status, first_played_at, last_played_at, total_sessions, total_practice_ms, measures)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(score_id) DO UPDATE SET
			score_title = excluded.score_title,
			composer = excluded.composer,
			status = excluded.status,
			first_played_at = excluded.first_played_at,
			last_played_at = excluded.last_played_at,
			total_sessions = excluded.total_sessions,
			total_practice_ms = excluded.total_practice_ms,
			measures = excluded.measures`,
		agg.ScoreID,
		agg.ScoreTitle,
		agg.Composer,
		string(agg.Status),
		agg.FirstPlayedAt.Format(time.RFC3339Nano),
		agg.LastPlayedAt.Format(time.RFC3339Nano),
		agg.TotalSessions,
		agg.TotalPracticeTimeMs,
		string(measures),
	)
	return err
}

// GetAggregate loads the aggregate of a score, returning nil when the
// score has never been practiced.
func (s *Store) GetAggregate(ctx context.Context, scoreID string) (*model.ScoreAggregate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT score_id, score_title, composer, status, first_played_at, last_played_at, total_sessions, total_practice_ms, measures
		 FROM score_aggregates WHERE score_id = ?`, scoreID)
	agg, err := scanAggregate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return agg, err
}

// ListAggregates returns all score aggregates, most recently played
// first.
func (s *Store) ListAggregates(ctx context.Context) ([]*model.ScoreAggregate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT score_id, score_title, composer, status, first_played_at, last_played_at, total_sessions, total_practice_ms, measures
		 FROM score_aggregates ORDER BY last_played_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var aggs []*model.ScoreAggregate
	for rows.Next() {
		agg, err := scanAggregate(rows)
		if err != nil {
			return nil, err
		}
		aggs = append(aggs, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return aggs, nil
}

func scanAggregate(row rowScanner) (*model.ScoreAggregate, error) {
	var agg model.ScoreAggregate
	var status, firstPlayedAt, lastPlayedAt, measures string
	if err := row.Scan(
		&agg.ScoreID,
		&agg.ScoreTitle,
		&agg.Composer,
		&status,
		&firstPlayedAt,
		&lastPlayedAt,
		&agg.TotalSessions,
		&agg.TotalPracticeTimeMs,
		&measures,
	); err != nil {
		return nil, err
	}
	agg.Status = model.Status(status)
	var err error
	if agg.FirstPlayedAt, err = time.Parse(time.RFC3339Nano, firstPlayedAt); err != nil {
		return nil, fmt.Errorf("failed to parse first_played_at: %w", err)
	}
	if agg.LastPlayedAt, err = time.Parse(time.RFC3339Nano, lastPlayedAt); err != nil {
		return nil, fmt.Errorf("failed to parse last_played_at: %w", err)
	}
	if err := json.Unmarshal([]byte(measures), &agg.Measures); err != nil {
		return nil, fmt.Errorf("failed to decode measures: %w", err)
	}
	return &agg, nil
}

func encodeOptionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func decodeOptionalTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
