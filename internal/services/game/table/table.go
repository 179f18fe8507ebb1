package table

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/action"
	"github.com/louisbranch/stockrail/internal/services/game/domain/aggregate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/engine"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/domain/event"
	"github.com/louisbranch/stockrail/internal/services/game/storage"
)

// ErrClosed indicates a command sent to a stopped table.
var ErrClosed = apperrors.New(apperrors.CodeIllegalState, "table is closed")

// View is a consistent read of a game between two actions.
type View struct {
	GameID        string               `json:"game_id"`
	Seq           int                  `json:"seq"`
	Round         aggregate.RoundKind  `json:"round"`
	CurrentPlayer entity.PlayerID      `json:"current_player,omitempty"`
	Help          string               `json:"help"`
	Possible      []action.Action      `json:"possible,omitempty"`
	Over          bool                 `json:"over"`
	Standings     []aggregate.Standing `json:"standings"`
	State         *aggregate.State     `json:"state"`
}

// Result is the outcome of an accepted action.
type Result struct {
	Changed bool      `json:"changed"`
	Events  event.Log `json:"events,omitempty"`
	View    View      `json:"view"`
}

// Table serializes access to one game.
type Table struct {
	id            string
	store         Store
	snapshotEvery int

	cmds chan func(*engine.Game)
	quit chan struct{}
	done chan struct{}
	stop sync.Once
}

func newTable(id string, game *engine.Game, store Store, snapshotEvery int) *Table {
	t := &Table{
		id:            id,
		store:         store,
		snapshotEvery: snapshotEvery,
		cmds:          make(chan func(*engine.Game)),
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	go t.loop(game)
	return t
}

func (t *Table) loop(game *engine.Game) {
	defer close(t.done)
	for {
		select {
		case cmd := <-t.cmds:
			cmd(game)
		case <-t.quit:
			return
		}
	}
}

// ID returns the game id.
func (t *Table) ID() string {
	return t.id
}

// do queues fn and waits for it to run. The context bounds the wait in the
// queue only; a dequeued command always runs to completion.
func (t *Table) do(ctx context.Context, fn func(*engine.Game)) error {
	ran := make(chan struct{})
	cmd := func(g *engine.Game) {
		defer close(ran)
		fn(g)
	}
	select {
	case t.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		return ErrClosed
	}
	<-ran
	return nil
}

// View reads the current game.
func (t *Table) View(ctx context.Context) (View, error) {
	var view View
	err := t.do(ctx, func(g *engine.Game) {
		view = t.view(g)
	})
	return view, err
}

// Process applies a to the game. Rejected actions leave the game unchanged.
func (t *Table) Process(ctx context.Context, a action.Action) (Result, error) {
	var (
		result Result
		perr   error
	)
	err := t.do(ctx, func(g *engine.Game) {
		ctx := context.WithoutCancel(ctx)
		before := len(g.Events(0))
		changed, err := g.Process(ctx, a)
		if err != nil {
			perr = err
			return
		}
		t.persist(ctx, g)
		result = Result{Changed: changed, Events: g.Events(before), View: t.view(g)}
	})
	if err != nil {
		return Result{}, err
	}
	return result, perr
}

// Close stops the table. Queued callers receive ErrClosed.
func (t *Table) Close() {
	t.stop.Do(func() { close(t.quit) })
	<-t.done
}

func (t *Table) view(g *engine.Game) View {
	return View{
		GameID:        t.id,
		Seq:           g.Seq(),
		Round:         g.Round(),
		CurrentPlayer: g.CurrentPlayer(),
		Help:          g.Help(),
		Possible:      g.PossibleActions(),
		Over:          g.IsOver(),
		Standings:     g.Standings(),
		State:         g.State(),
	}
}

// persist writes periodic snapshots and marks finished games. The action is
// already journaled, so failures here are logged and retried on the next
// snapshot point.
func (t *Table) persist(ctx context.Context, g *engine.Game) {
	if t.store == nil {
		return
	}
	over := g.IsOver()
	if over || (t.snapshotEvery > 0 && g.Seq()%t.snapshotEvery == 0) {
		if err := putSnapshot(ctx, t.store, t.id, g); err != nil {
			log.Printf("table %s: %v", t.id, err)
		}
	}
	if over {
		if err := t.store.SetGameStatus(ctx, t.id, storage.GameOver, time.Now().UTC()); err != nil {
			log.Printf("table %s: mark over: %v", t.id, err)
		}
	}
}

func putSnapshot(ctx context.Context, store storage.SnapshotStore, id string, g *engine.Game) error {
	data, err := json.Marshal(g.State())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := store.PutSnapshot(ctx, storage.Snapshot{GameID: id, Seq: g.Seq(), StateJSON: data}); err != nil {
		return fmt.Errorf("put snapshot %d: %w", g.Seq(), err)
	}
	return nil
}
