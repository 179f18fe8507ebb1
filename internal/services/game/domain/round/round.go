// Package round implements the start, stock and operating rounds.
//
// Rounds are stateless rule sets over *aggregate.State; the round cursor lives
// in State.Round so a snapshot captures it. Every Process call works on a
// state the caller is prepared to discard: a round returns as soon as a rule
// fails and the engine drops the partially changed clone.
package round

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/action"
	"github.com/louisbranch/stockrail/internal/services/game/domain/aggregate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/board"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/domain/revenue"
)

// Round is the contract shared by every round kind.
type Round interface {
	Kind() aggregate.RoundKind
	// Begin initialises the round cursor.
	Begin(s *aggregate.State) error
	CurrentPlayer(s *aggregate.State) entity.PlayerID
	// PossibleActions lists the legal action templates for the current player.
	PossibleActions(s *aggregate.State) []action.Action
	// Process applies an action. It reports false when the action changed nothing.
	Process(s *aggregate.State, a action.Action) (bool, error)
	Finished(s *aggregate.State) bool
	// End runs the end-of-round rules.
	End(s *aggregate.State) error
	Help(s *aggregate.State) string
}

// Set holds one round implementation per kind.
type Set struct {
	Start     Start
	Stock     Stock
	Operating Operating
}

// NewSet returns the rounds wired to the map and revenue collaborators.
func NewSet(m board.Map, calc revenue.Calculator) Set {
	return Set{Operating: Operating{Map: m, Revenue: calc}}
}

// For returns the round of kind.
func (set Set) For(kind aggregate.RoundKind) (Round, error) {
	switch kind {
	case aggregate.RoundStart:
		return set.Start, nil
	case aggregate.RoundStock:
		return set.Stock, nil
	case aggregate.RoundOperating:
		return set.Operating, nil
	default:
		return nil, apperrors.IllegalState("no round for kind %q", kind)
	}
}

func help(title string, s *aggregate.State, r Round) string {
	var b strings.Builder
	player := r.CurrentPlayer(s)
	fmt.Fprintf(&b, "%s: %s to act (cash %d)\n", title, player, s.Cash(player))
	for _, a := range r.PossibleActions(s) {
		fmt.Fprintf(&b, "  - %s\n", a)
	}
	return b.String()
}

func unsupported(kind aggregate.RoundKind, a action.Action) error {
	return apperrors.IllegalAction("%s is not allowed in a %s round", a.Type, kind)
}
