package engine

import (
	"fmt"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/aggregate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/event"
	"github.com/louisbranch/stockrail/internal/services/game/domain/portfolio"
)

// maxTransitions bounds the round transitions one action can trigger.
const maxTransitions = 16

// defaultEndConditions apply when a definition names none.
var defaultEndConditions = []aggregate.EndCondition{
	{Kind: aggregate.EndBankruptcy, Timing: aggregate.EndImmediate},
	{Kind: aggregate.EndBankBroken, Timing: aggregate.EndOfSet},
	{Kind: aggregate.EndGameOverCell, Timing: aggregate.EndImmediate},
}

// advance checks end conditions and moves through every round that has
// finished, beginning the next one each time.
func (g *Game) advance(s *aggregate.State) error {
	for i := 0; ; i++ {
		if i == maxTransitions {
			return apperrors.IllegalState("round sequence did not settle after %d transitions", maxTransitions)
		}
		if s.Over {
			return nil
		}
		if checkEndConditions(s) {
			return nil
		}
		r, err := g.rounds.For(s.Round.Kind)
		if err != nil {
			return err
		}
		if !r.Finished(s) {
			return nil
		}
		if err := r.End(s); err != nil {
			return err
		}
		if checkEndConditions(s) {
			return nil
		}
		next, done := nextRound(s)
		if done {
			finish(s, *s.Pending)
			return nil
		}
		if s.Round.Kind == aggregate.RoundStock && next == aggregate.RoundStock {
			// Nothing floated: privates still pay before the stock round repeats.
			if err := s.PayPrivateRevenues(); err != nil {
				return err
			}
		}
		if err := g.begin(s, next); err != nil {
			return err
		}
	}
}

func (g *Game) begin(s *aggregate.State, kind aggregate.RoundKind) error {
	if kind == aggregate.RoundOperating && s.Round.Kind != aggregate.RoundOperating {
		s.Round.OperatingRound = 0
		s.Round.OperatingRounds = max(s.Phases.CurrentPhase().OperatingRounds, 1)
	}
	s.Round.Kind = kind
	r, err := g.rounds.For(kind)
	if err != nil {
		return err
	}
	return r.Begin(s)
}

// nextRound picks the round that follows the one that just ended. It reports
// done when a pending end condition closes the game at the end of a set.
func nextRound(s *aggregate.State) (aggregate.RoundKind, bool) {
	switch s.Round.Kind {
	case aggregate.RoundStart:
		return aggregate.RoundStock, false
	case aggregate.RoundStock:
		if s.AnyFloated() {
			return aggregate.RoundOperating, false
		}
		if s.Pending != nil {
			return "", true
		}
		return aggregate.RoundStock, false
	default:
		if s.Round.OperatingRound < s.Round.OperatingRounds && len(s.Bankrupt) == 0 {
			return aggregate.RoundOperating, false
		}
		if s.Pending != nil {
			return "", true
		}
		return aggregate.RoundStock, false
	}
}

// checkEndConditions fires configured end conditions. An immediate one ends
// the game and reports true; an end-of-set one is recorded as pending.
func checkEndConditions(s *aggregate.State) bool {
	conditions := s.Rules.EndConditions
	if len(conditions) == 0 {
		conditions = defaultEndConditions
	}
	fired := func(kind aggregate.EndKind) bool {
		switch kind {
		case aggregate.EndBankruptcy:
			return len(s.Bankrupt) > 0
		case aggregate.EndBankBroken:
			return s.Ledger.Cash(portfolio.Bank) <= 0
		case aggregate.EndGameOverCell:
			return s.Market.IsGameOver()
		case aggregate.EndLastPhase:
			return s.Phases.IsLast()
		}
		return false
	}
	bankruptcyHandled := false
	for _, c := range conditions {
		if c.Kind == aggregate.EndBankruptcy {
			bankruptcyHandled = true
		}
		if !fired(c.Kind) {
			continue
		}
		ending := aggregate.Ending{Kind: c.Kind, Timing: c.Timing}
		if c.Timing == aggregate.EndImmediate {
			finish(s, ending)
			return true
		}
		if s.Pending == nil {
			s.Pending = &ending
			if c.Kind == aggregate.EndBankBroken {
				s.Emit(event.New(event.TypeBankBroken, "the bank is broken; the game ends after this set of operating rounds"))
			}
		}
	}
	// Bankruptcy ends the game even when no condition names it.
	if !bankruptcyHandled && len(s.Bankrupt) > 0 {
		finish(s, aggregate.Ending{Kind: aggregate.EndBankruptcy, Timing: aggregate.EndImmediate})
		return true
	}
	return false
}

func finish(s *aggregate.State, ending aggregate.Ending) {
	s.Over = true
	s.Ended = &ending
	s.Pending = nil
	s.Round.Kind = aggregate.RoundGameOver
	s.Round.Start, s.Round.Stock, s.Round.Operating = nil, nil, nil
	msg := fmt.Sprintf("game over (%s)", ending.Kind)
	if standings := s.Standings(); len(standings) > 0 {
		msg = fmt.Sprintf("game over (%s): %s wins with %d", ending.Kind, standings[0].Player, standings[0].Worth)
	}
	s.Emit(event.New(event.TypeGameOver, "%s", msg).With("reason", string(ending.Kind)))
}
