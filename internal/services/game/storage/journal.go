package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/stockrail/internal/services/game/domain/action"
	"github.com/louisbranch/stockrail/internal/services/game/domain/engine"
)

// ErrGameIDRequired indicates a journal without a game.
var ErrGameIDRequired = errors.New("game id is required")

// Journal appends accepted engine actions to an ActionStore.
type Journal struct {
	store  ActionStore
	gameID string
}

// NewJournal returns an engine journal writing to store under gameID.
func NewJournal(store ActionStore, gameID string) (*Journal, error) {
	if store == nil {
		return nil, engine.ErrJournalRequired
	}
	if gameID == "" {
		return nil, ErrGameIDRequired
	}
	return &Journal{store: store, gameID: gameID}, nil
}

// Append implements engine.Journal.
func (j *Journal) Append(ctx context.Context, entry engine.Entry) error {
	_, err := j.store.AppendAction(ctx, ActionRecord{
		GameID:    j.gameID,
		Seq:       entry.Seq,
		Action:    entry.Action,
		Round:     entry.Round,
		CreatedAt: entry.At,
	})
	return err
}

// ActionsOf extracts the actions of records, in order.
func ActionsOf(records []ActionRecord) []action.Action {
	out := make([]action.Action, len(records))
	for i, r := range records {
		out[i] = r.Action
	}
	return out
}
