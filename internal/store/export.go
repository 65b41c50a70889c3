package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/verte-zerg/pupitre/internal/model"
)

// Backup is the JSON container written by Export and read by Import.
type Backup struct {
	ExportedAt time.Time                `json:"exportedAt"`
	Sessions   []*model.PracticeSession `json:"sessions"`
	Aggregates []*model.ScoreAggregate  `json:"aggregates"`
}

// Export writes every session and aggregate as a JSON backup.
func (s *Store) Export(ctx context.Context, w io.Writer) error {
	sessions, err := s.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	aggs, err := s.ListAggregates(ctx)
	if err != nil {
		return fmt.Errorf("failed to list aggregates: %w", err)
	}
	backup := Backup{
		ExportedAt: time.Now().UTC(),
		Sessions:   sessions,
		Aggregates: aggs,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(backup)
}

// Import loads a JSON backup, upserting every record it contains.
// Existing rows with matching IDs are overwritten. Returns the number
// of sessions and aggregates imported.
func (s *Store) Import(ctx context.Context, r io.Reader) (sessions, aggregates int, err error) {
	var backup Backup
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return 0, 0, fmt.Errorf("failed to decode backup: %w", err)
	}
	for _, sess := range backup.Sessions {
		if sess.ID == "" {
			return sessions, aggregates, fmt.Errorf("backup session without id")
		}
		if err := s.PutSession(ctx, sess); err != nil {
			return sessions, aggregates, fmt.Errorf("failed to import session %s: %w", sess.ID, err)
		}
		sessions++
	}
	for _, agg := range backup.Aggregates {
		if agg.ScoreID == "" {
			return sessions, aggregates, fmt.Errorf("backup aggregate without score id")
		}
		if err := s.PutAggregate(ctx, agg); err != nil {
			return sessions, aggregates, fmt.Errorf("failed to import aggregate %s: %w", agg.ScoreID, err)
		}
		aggregates++
	}
	return sessions, aggregates, nil
}
