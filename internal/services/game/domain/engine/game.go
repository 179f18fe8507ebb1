package engine

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	platformotel "github.com/louisbranch/stockrail/internal/platform/otel"
	"github.com/louisbranch/stockrail/internal/services/game/domain/action"
	"github.com/louisbranch/stockrail/internal/services/game/domain/aggregate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/board"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/domain/event"
	"github.com/louisbranch/stockrail/internal/services/game/domain/revenue"
	"github.com/louisbranch/stockrail/internal/services/game/domain/round"
)

var (
	// ErrStateRequired indicates a missing initial state.
	ErrStateRequired = errors.New("game state is required")
)

// Game is the controller of one game.
type Game struct {
	state   *aggregate.State
	rounds  round.Set
	tracer  trace.Tracer
	journal Journal
	now     func() time.Time

	mapImpl   board.Map
	calc      revenue.Calculator
	possible  []action.Action
	published bool
	fresh     bool
	seq       int
}

// Option configures a Game.
type Option func(*Game)

// WithMap replaces the default map collaborator.
func WithMap(m board.Map) Option {
	return func(g *Game) { g.mapImpl = m }
}

// WithRevenue replaces the default revenue calculator.
func WithRevenue(calc revenue.Calculator) Option {
	return func(g *Game) { g.calc = calc }
}

// WithTracer sets the tracer used for Process spans.
func WithTracer(t trace.Tracer) Option {
	return func(g *Game) { g.tracer = t }
}

// WithJournal records every accepted action before it is committed.
func WithJournal(j Journal) Option {
	return func(g *Game) { g.journal = j }
}

// WithClock overrides the journal timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *Game) { g.now = now }
}

// New returns a game over state. A state without a round cursor is started:
// with the start round when it has a start packet, else with a stock round.
func New(state *aggregate.State, opts ...Option) (*Game, error) {
	if state == nil {
		return nil, apperrors.Wrap(apperrors.CodeConfiguration, "new game", ErrStateRequired)
	}
	g := &Game{state: state, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	if g.tracer == nil {
		g.tracer = platformotel.Tracer("engine")
	}
	if g.mapImpl == nil {
		g.mapImpl = board.NewOpen(state.Hexes, state.TileColors)
	}
	if g.calc == nil {
		g.calc = revenue.Declared{MaxPerTrain: state.Rules.MaxRevenuePerTrain}
	}
	g.rounds = round.NewSet(g.mapImpl, g.calc)

	if state.Round.Kind == "" {
		if err := state.CheckInvariants(); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConfiguration, "initial state", err)
		}
		next := state.Clone()
		next.Emit(event.New(event.TypeGameStarted, "game starts with %d players", len(next.Players)))
		first := aggregate.RoundStock
		if len(next.StartPacket) > 0 {
			first = aggregate.RoundStart
		}
		if err := g.begin(next, first); err != nil {
			return nil, err
		}
		if err := g.advance(next); err != nil {
			return nil, err
		}
		g.state = next
	}
	return g, nil
}

// CurrentPlayer returns the player expected to act, or "" once the game is over.
func (g *Game) CurrentPlayer() entity.PlayerID {
	r, ok := g.activeRound()
	if !ok {
		return ""
	}
	return r.CurrentPlayer(g.state)
}

// Help describes the current situation and the legal actions.
func (g *Game) Help() string {
	r, ok := g.activeRound()
	if !ok {
		return "Game over"
	}
	return r.Help(g.state)
}

// SetPossibleActions recomputes and publishes the legal actions of the
// current player. It reports false when no round is active or when the set
// equals the one already published.
func (g *Game) SetPossibleActions() bool {
	r, ok := g.activeRound()
	if !ok {
		g.possible, g.published, g.fresh = nil, true, true
		return false
	}
	next := r.PossibleActions(g.state)
	changed := !g.published || !slices.EqualFunc(next, g.possible, func(a, b action.Action) bool {
		return reflect.DeepEqual(a, b)
	})
	g.possible, g.published, g.fresh = next, true, true
	return changed
}

// PossibleActions returns the legal actions published by SetPossibleActions.
func (g *Game) PossibleActions() []action.Action {
	if !g.fresh {
		g.SetPossibleActions()
	}
	out := make([]action.Action, len(g.possible))
	copy(out, g.possible)
	return out
}

// Process validates and applies an action. It reports whether the action
// changed the game. On error the committed state is unchanged.
func (g *Game) Process(ctx context.Context, a action.Action) (changed bool, err error) {
	ctx, span := g.tracer.Start(ctx, "engine.Process", trace.WithAttributes(
		attribute.String("action.type", string(a.Type)),
		attribute.String("action.player", string(a.Player)),
		attribute.String("round.kind", string(g.state.Round.Kind)),
	))
	defer func() {
		if err != nil {
			span.SetAttributes(attribute.String("error.code", string(apperrors.CodeOf(err))))
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Bool("action.changed", changed))
		span.End()
	}()
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r, ok := g.activeRound()
	if !ok {
		return false, apperrors.IllegalAction("the game is over")
	}
	if current := r.CurrentPlayer(g.state); a.Player != current {
		msg := fmt.Sprintf("it is %s's turn, not %s's", current, a.Player)
		return false, apperrors.WithMetadata(apperrors.CodeIllegalAction, msg, map[string]string{"current_player": string(current)})
	}
	normalized, ok := action.Match(g.PossibleActions(), a)
	if !ok {
		return false, g.classify(r, a)
	}

	next := g.state.Clone()
	changed, err = r.Process(next, normalized)
	if err != nil {
		return false, err
	}
	if err := g.advance(next); err != nil {
		return false, err
	}
	if err := next.CheckInvariants(); err != nil {
		return false, apperrors.Wrap(apperrors.CodeIllegalState, "invariant violated after "+string(a.Type), err)
	}
	if g.journal != nil {
		entry := Entry{Seq: g.seq + 1, Action: normalized, Round: g.state.Round.Kind, At: g.now().UTC()}
		if err := g.journal.Append(ctx, entry); err != nil {
			return false, err
		}
	}
	g.seq++
	g.state = next
	g.fresh = false
	return changed, nil
}

// classify explains why an action outside the legal set was rejected. A
// round that rejects it for missing holdings or funds reports that reason;
// anything else is an illegal action.
func (g *Game) classify(r round.Round, a action.Action) error {
	trial := g.state.Clone()
	_, err := r.Process(trial, a)
	switch apperrors.CodeOf(err) {
	case apperrors.CodeNotHeld, apperrors.CodeInsufficientFunds, apperrors.CodeIllegalAction:
		return err
	}
	return apperrors.IllegalAction("%s is not a legal action for %s", a.Type, a.Player)
}

// IsOver reports whether the game has ended.
func (g *Game) IsOver() bool {
	return g.state.Over
}

// State returns a snapshot of the committed state.
func (g *Game) State() *aggregate.State {
	return g.state.Clone()
}

// Round returns the active round kind.
func (g *Game) Round() aggregate.RoundKind {
	return g.state.Round.Kind
}

// Seq returns the number of accepted actions.
func (g *Game) Seq() int {
	return g.seq
}

// Events returns the report events appended after the first n.
func (g *Game) Events(n int) event.Log {
	return g.state.Log.Since(n)
}

// Standings ranks players by worth.
func (g *Game) Standings() []aggregate.Standing {
	return g.state.Standings()
}

func (g *Game) activeRound() (round.Round, bool) {
	if g.state.Over {
		return nil, false
	}
	r, err := g.rounds.For(g.state.Round.Kind)
	if err != nil {
		return nil, false
	}
	return r, true
}
