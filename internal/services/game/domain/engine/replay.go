package engine

import (
	"context"
	"fmt"

	"github.com/louisbranch/stockrail/internal/services/game/domain/action"
	"github.com/louisbranch/stockrail/internal/services/game/domain/aggregate"
)

// Replay rebuilds a game by processing actions in order from an initial
// state. The first rejected action stops the replay.
func Replay(ctx context.Context, initial *aggregate.State, actions []action.Action, opts ...Option) (*Game, error) {
	g, err := New(initial, opts...)
	if err != nil {
		return nil, err
	}
	for i, a := range actions {
		if _, err := g.Process(ctx, a); err != nil {
			return g, fmt.Errorf("replay action %d (%s): %w", i+1, a.Type, err)
		}
	}
	return g, nil
}
