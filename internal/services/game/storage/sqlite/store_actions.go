package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/stockrail/internal/services/game/domain/action"
	"github.com/louisbranch/stockrail/internal/services/game/domain/aggregate"
	"github.com/louisbranch/stockrail/internal/services/game/storage"
	"github.com/louisbranch/stockrail/internal/services/game/storage/integrity"
)

// AppendAction stores record at the next seq of its game. A zero Seq is
// assigned; any other Seq must be the next position or ErrSeqConflict is
// returned. Hashes and signature are computed by the store.
func (s *Store) AppendAction(ctx context.Context, record storage.ActionRecord) (storage.ActionRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ActionRecord{}, err
	}
	if strings.TrimSpace(record.GameID) == "" {
		return storage.ActionRecord{}, fmt.Errorf("game id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.ActionRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM games WHERE id = ?`, record.GameID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ActionRecord{}, storage.ErrNotFound
		}
		return storage.ActionRecord{}, fmt.Errorf("check game: %w", err)
	}

	lastSeq, prevChain := 0, ""
	err = tx.QueryRowContext(ctx, `
SELECT seq, chain_hash FROM actions WHERE game_id = ? ORDER BY seq DESC LIMIT 1`, record.GameID).
		Scan(&lastSeq, &prevChain)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return storage.ActionRecord{}, fmt.Errorf("get last action: %w", err)
	}
	if record.Seq == 0 {
		record.Seq = lastSeq + 1
	}
	if record.Seq != lastSeq+1 {
		return storage.ActionRecord{}, fmt.Errorf("append seq %d after %d: %w", record.Seq, lastSeq, storage.ErrSeqConflict)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now()
	}

	if record.Hash, err = integrity.ActionHash(record.GameID, record.Seq, record.Action); err != nil {
		return storage.ActionRecord{}, fmt.Errorf("compute action hash: %w", err)
	}
	record.PrevHash = prevChain
	if record.ChainHash, err = integrity.ChainHash(record.Hash, prevChain); err != nil {
		return storage.ActionRecord{}, fmt.Errorf("compute chain hash: %w", err)
	}
	if s.keyring != nil {
		sig, err := s.keyring.Sign(record.GameID, record.ChainHash)
		if err != nil {
			return storage.ActionRecord{}, fmt.Errorf("sign chain hash: %w", err)
		}
		record.Signature, record.SignatureKeyID = sig.Value, sig.KeyID
	}

	payload, err := json.Marshal(record.Action)
	if err != nil {
		return storage.ActionRecord{}, fmt.Errorf("encode action: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO actions (game_id, seq, action_json, round, hash, prev_hash, chain_hash, signature, signature_key_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.GameID, record.Seq, string(payload), string(record.Round), record.Hash, record.PrevHash,
		record.ChainHash, record.Signature, record.SignatureKeyID, toMillis(record.CreatedAt),
	)
	if err != nil {
		if isConstraintError(err) {
			return storage.ActionRecord{}, fmt.Errorf("append seq %d: %w", record.Seq, storage.ErrSeqConflict)
		}
		return storage.ActionRecord{}, fmt.Errorf("insert action: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE games SET updated_at = ? WHERE id = ?`,
		toMillis(record.CreatedAt), record.GameID); err != nil {
		return storage.ActionRecord{}, fmt.Errorf("touch game: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return storage.ActionRecord{}, fmt.Errorf("commit: %w", err)
	}
	record.CreatedAt = fromMillis(toMillis(record.CreatedAt))
	return record, nil
}

// ListActions returns the actions of gameID after afterSeq in seq order.
func (s *Store) ListActions(ctx context.Context, gameID string, afterSeq, limit int) ([]storage.ActionRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(gameID) == "" {
		return nil, fmt.Errorf("game id is required")
	}
	if limit < 0 {
		return nil, fmt.Errorf("limit cannot be negative")
	}
	if limit == 0 {
		limit = -1
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT game_id, seq, action_json, round, hash, prev_hash, chain_hash, signature, signature_key_id, created_at
FROM actions WHERE game_id = ? AND seq > ? ORDER BY seq LIMIT ?`, gameID, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var records []storage.ActionRecord
	for rows.Next() {
		var (
			r       storage.ActionRecord
			payload string
			round   string
			created int64
		)
		if err := rows.Scan(&r.GameID, &r.Seq, &payload, &round, &r.Hash, &r.PrevHash, &r.ChainHash,
			&r.Signature, &r.SignatureKeyID, &created); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		var a action.Action
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			return nil, fmt.Errorf("decode action %d: %w", r.Seq, err)
		}
		r.Action = a
		r.Round = aggregate.RoundKind(round)
		r.CreatedAt = fromMillis(created)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	return records, nil
}

// VerifyJournal recomputes the hash chain of gameID and checks signatures
// when a keyring is configured. It returns the number of verified actions.
func (s *Store) VerifyJournal(ctx context.Context, gameID string) (int, error) {
	records, err := s.ListActions(ctx, gameID, 0, 0)
	if err != nil {
		return 0, err
	}
	prev := ""
	for i, r := range records {
		if r.Seq != i+1 {
			return i, fmt.Errorf("action %d: seq gap at %d", r.Seq, i+1)
		}
		hash, err := integrity.ActionHash(gameID, r.Seq, r.Action)
		if err != nil {
			return i, err
		}
		if hash != r.Hash {
			return i, fmt.Errorf("action %d: content hash mismatch", r.Seq)
		}
		chain, err := integrity.ChainHash(hash, prev)
		if err != nil {
			return i, err
		}
		if r.PrevHash != prev || chain != r.ChainHash {
			return i, fmt.Errorf("action %d: chain hash mismatch", r.Seq)
		}
		if s.keyring != nil {
			if err := s.keyring.Verify(gameID, chain, integrity.Signature{Value: r.Signature, KeyID: r.SignatureKeyID}); err != nil {
				return i, fmt.Errorf("action %d: %w", r.Seq, err)
			}
		}
		prev = chain
	}
	return len(records), nil
}
