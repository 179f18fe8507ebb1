package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/stockrail/internal/services/game/storage"
)

// PutSnapshot stores a snapshot, replacing one at the same seq.
func (s *Store) PutSnapshot(ctx context.Context, snapshot storage.Snapshot) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(snapshot.GameID) == "" {
		return fmt.Errorf("game id is required")
	}
	if snapshot.Seq < 0 {
		return fmt.Errorf("snapshot seq cannot be negative")
	}
	if len(snapshot.StateJSON) == 0 {
		return fmt.Errorf("snapshot state is required")
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = s.now()
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO snapshots (game_id, seq, state_json, created_at) VALUES (?, ?, ?, ?)
ON CONFLICT (game_id, seq) DO UPDATE SET state_json = excluded.state_json, created_at = excluded.created_at`,
		snapshot.GameID, snapshot.Seq, snapshot.StateJSON, toMillis(snapshot.CreatedAt))
	if err != nil {
		if isConstraintError(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}

// GetLatestSnapshot returns the snapshot with the highest seq of gameID.
func (s *Store) GetLatestSnapshot(ctx context.Context, gameID string) (storage.Snapshot, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Snapshot{}, err
	}
	if strings.TrimSpace(gameID) == "" {
		return storage.Snapshot{}, fmt.Errorf("game id is required")
	}
	var (
		snap    storage.Snapshot
		created int64
	)
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT game_id, seq, state_json, created_at FROM snapshots WHERE game_id = ? ORDER BY seq DESC LIMIT 1`, gameID).
		Scan(&snap.GameID, &snap.Seq, &snap.StateJSON, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Snapshot{}, storage.ErrNotFound
		}
		return storage.Snapshot{}, fmt.Errorf("get latest snapshot: %w", err)
	}
	snap.CreatedAt = fromMillis(created)
	return snap, nil
}
