// Package practice tracks live practice sessions: a single-active
// session state machine recording per-measure attempts and folding
// finished sessions into the score's aggregate.
package practice

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/pupitre/internal/model"
	"github.com/verte-zerg/pupitre/internal/stats"
)

// Store is the persistence boundary the tracker writes through.
// GetAggregate returns nil without error when no aggregate exists yet.
type Store interface {
	PutSession(ctx context.Context, s *model.PracticeSession) error
	GetAggregate(ctx context.Context, scoreID string) (*model.ScoreAggregate, error)
	PutAggregate(ctx context.Context, a *model.ScoreAggregate) error
}

type openAttempt struct {
	measureIndex int
	record       model.AttemptRecord
}

// Tracker is the practice session state machine. At most one session
// is active at a time, and within it at most one measure attempt is
// open. Methods are meant to be called from a single goroutine; only
// the snapshot saves run in the background.
type Tracker struct {
	store Store
	now   func() time.Time
	newID func() string

	session *model.PracticeSession
	attempt *openAttempt

	saveErrs chan error
}

// NewTracker creates a tracker writing through the given store.
func NewTracker(store Store) *Tracker {
	return &Tracker{
		store:    store,
		now:      time.Now,
		newID:    uuid.NewString,
		saveErrs: make(chan error, 8),
	}
}

// SaveErrors exposes failures of the fire-and-forget snapshot saves.
// The channel is never closed; errors are dropped when nobody reads.
func (t *Tracker) SaveErrors() <-chan error {
	return t.saveErrs
}

// Session returns the active session, or nil.
func (t *Tracker) Session() *model.PracticeSession {
	return t.session
}

// StartSession opens a new session for the score. A missing score id
// is a soft failure: nothing happens. Any previously active session is
// simply replaced; it is the caller's job to end it first if its data
// matters.
func (t *Tracker) StartSession(scoreID, title, composer string, mode model.Mode, totalMeasures int) {
	if scoreID == "" {
		return
	}
	t.session = &model.PracticeSession{
		ID:            t.newID(),
		ScoreID:       scoreID,
		ScoreTitle:    title,
		Composer:      composer,
		Mode:          mode,
		StartedAt:     t.now(),
		TotalMeasures: totalMeasures,
	}
	t.attempt = nil
}

// StartMeasureAttempt opens an attempt on the given measure. The first
// attempt at measure 0 stamps playthroughStartedAt. No-op without an
// active session.
func (t *Tracker) StartMeasureAttempt(index int) {
	if t.session == nil {
		return
	}
	now := t.now()
	if index == 0 && t.session.PlaythroughStartedAt == nil {
		t.session.PlaythroughStartedAt = &now
	}
	t.attempt = &openAttempt{
		measureIndex: index,
		record:       model.AttemptRecord{StartedAt: now, Clean: true},
	}
}

// RecordWrongNote counts a wrong note against the open attempt and
// marks it dirty. No-op when no attempt is open.
func (t *Tracker) RecordWrongNote() {
	if t.attempt == nil {
		return
	}
	t.attempt.record.WrongNotes++
	t.attempt.record.Clean = false
}

// EndMeasureAttempt closes the open attempt, appends it to the
// session, and kicks off a background snapshot save. The explicit
// clean override, when non-nil, wins over the wrong-note count. It
// returns the finished attempt, or nil when no attempt was open.
func (t *Tracker) EndMeasureAttempt(explicitClean *bool) *model.AttemptRecord {
	if t.session == nil || t.attempt == nil {
		return nil
	}
	att := t.attempt
	t.attempt = nil

	att.record.DurationMs = t.now().Sub(att.record.StartedAt).Milliseconds()
	if explicitClean != nil {
		att.record.Clean = *explicitClean
	}
	entry := t.session.MeasureFor(att.measureIndex)
	entry.Attempts = append(entry.Attempts, att.record)

	if t.session.CompletedAt == nil && t.session.TotalMeasures > 0 {
		if doneAt, ok := stats.DetectCompletion(t.session); ok {
			t.session.CompletedAt = &doneAt
		}
	}

	t.saveSnapshot()
	finished := att.record
	return &finished
}

// saveSnapshot persists a copy of the session without blocking the
// caller. A failed save is logged and surfaced on SaveErrors, never
// back to the attempt that triggered it.
func (t *Tracker) saveSnapshot() {
	snapshot := t.session.Clone()
	go func() {
		if err := t.store.PutSession(context.Background(), snapshot); err != nil {
			slog.Warn("session snapshot save failed", "session", snapshot.ID, "err", err)
			select {
			case t.saveErrs <- err:
			default:
			}
		}
	}()
}

// ToggleMode ends the current session and immediately opens a new one
// for the same score with the same metadata but the new mode.
func (t *Tracker) ToggleMode(ctx context.Context, mode model.Mode) error {
	if t.session == nil {
		return nil
	}
	scoreID := t.session.ScoreID
	title := t.session.ScoreTitle
	composer := t.session.Composer
	total := t.session.TotalMeasures
	if _, err := t.EndSession(ctx); err != nil {
		return err
	}
	t.StartSession(scoreID, title, composer, mode, total)
	return nil
}

// EndSession finalizes the active session. Sessions with no measure
// entries are discarded without persistence or aggregate update.
// Otherwise the session is persisted and folded into the score's
// aggregate exactly once. Calling with no active session returns nil
// without touching stored data.
func (t *Tracker) EndSession(ctx context.Context) (*model.PracticeSession, error) {
	if t.session == nil {
		return nil, nil
	}
	sess := t.session
	t.session = nil
	t.attempt = nil

	now := t.now()
	sess.EndedAt = &now
	if len(sess.Measures) == 0 {
		return nil, nil
	}

	if err := t.store.PutSession(ctx, sess); err != nil {
		return nil, err
	}

	agg, err := t.store.GetAggregate(ctx, sess.ScoreID)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		agg = stats.NewAggregate(sess.ScoreID)
	}
	stats.FoldSession(agg, sess)
	if err := t.store.PutAggregate(ctx, agg); err != nil {
		return nil, err
	}
	return sess, nil
}
