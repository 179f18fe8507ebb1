package table

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/platform/id"
	"github.com/louisbranch/stockrail/internal/services/game/definition"
	"github.com/louisbranch/stockrail/internal/services/game/domain/action"
	"github.com/louisbranch/stockrail/internal/services/game/domain/aggregate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/engine"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/storage"
)

// DefaultSnapshotEvery is the number of actions between state snapshots.
const DefaultSnapshotEvery = 25

// Store is the persistence a registry needs.
type Store interface {
	storage.GameStore
	storage.ActionStore
	storage.SnapshotStore
}

// JournalVerifier checks the integrity of a stored journal. Stores that
// implement it are verified before a game is restored.
type JournalVerifier interface {
	VerifyJournal(ctx context.Context, gameID string) (int, error)
}

// CreateRequest describes a new game.
type CreateRequest struct {
	// Title selects an embedded definition; empty means the default game.
	Title string `json:"title,omitempty"`
	// Definition is a custom YAML definition and takes precedence over Title.
	Definition []byte `json:"definition,omitempty"`
	// Players are seated in order and double as player ids.
	Players []string `json:"players"`
}

// Registry creates, restores and hands out tables.
type Registry struct {
	store         Store
	snapshotEvery int
	tracer        trace.Tracer
	now           func() time.Time
	newID         func() (string, error)

	mu     sync.Mutex
	tables map[string]*Table
}

// Option configures a Registry.
type Option func(*Registry)

// WithSnapshotEvery sets the snapshot interval; zero snapshots only at game over.
func WithSnapshotEvery(n int) Option {
	return func(r *Registry) { r.snapshotEvery = n }
}

// WithTracer sets the tracer passed to every engine.
func WithTracer(t trace.Tracer) Option {
	return func(r *Registry) { r.tracer = t }
}

// WithClock overrides the clock used for records and journal entries.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithIDGenerator overrides how game ids are generated.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(r *Registry) { r.newID = fn }
}

// NewRegistry returns a registry backed by store.
func NewRegistry(store Store, opts ...Option) (*Registry, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	r := &Registry{
		store:         store,
		snapshotEvery: DefaultSnapshotEvery,
		now:           time.Now,
		newID:         id.NewID,
		tables:        make(map[string]*Table),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Create builds a new game, records it and opens its table.
func (r *Registry) Create(ctx context.Context, req CreateRequest) (View, error) {
	def, err := resolve(req.Title, req.Definition)
	if err != nil {
		return View{}, err
	}
	players, err := seat(req.Players)
	if err != nil {
		return View{}, err
	}
	state, err := def.Build(players)
	if err != nil {
		return View{}, err
	}
	gameID, err := r.newID()
	if err != nil {
		return View{}, err
	}

	now := r.now().UTC()
	record := storage.GameRecord{
		ID:         gameID,
		Title:      def.Name,
		Definition: req.Definition,
		Players:    players,
		Status:     storage.GameActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.store.CreateGame(ctx, record); err != nil {
		return View{}, err
	}
	game, err := r.engine(ctx, gameID, state, nil)
	if err != nil {
		return View{}, err
	}
	if err := putSnapshot(ctx, r.store, gameID, game); err != nil {
		return View{}, err
	}

	t := newTable(gameID, game, r.store, r.snapshotEvery)
	r.mu.Lock()
	r.tables[gameID] = t
	r.mu.Unlock()
	return t.View(ctx)
}

// Get returns the table of gameID, restoring it from storage when needed.
func (r *Registry) Get(ctx context.Context, gameID string) (*Table, error) {
	if strings.TrimSpace(gameID) == "" {
		return nil, apperrors.New(apperrors.CodeIllegalAction, "game id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tables[gameID]; ok {
		return t, nil
	}
	t, err := r.restore(ctx, gameID)
	if err != nil {
		return nil, err
	}
	r.tables[gameID] = t
	return t, nil
}

// Process applies a to gameID.
func (r *Registry) Process(ctx context.Context, gameID string, a action.Action) (Result, error) {
	t, err := r.Get(ctx, gameID)
	if err != nil {
		return Result{}, err
	}
	return t.Process(ctx, a)
}

// View reads gameID.
func (r *Registry) View(ctx context.Context, gameID string) (View, error) {
	t, err := r.Get(ctx, gameID)
	if err != nil {
		return View{}, err
	}
	return t.View(ctx)
}

// Games lists stored games, most recently updated first.
func (r *Registry) Games(ctx context.Context, limit int) ([]storage.GameRecord, error) {
	return r.store.ListGames(ctx, limit)
}

// Record returns the stored record of gameID.
func (r *Registry) Record(ctx context.Context, gameID string) (storage.GameRecord, error) {
	return r.store.GetGame(ctx, gameID)
}

// Actions lists the journal of gameID after afterSeq.
func (r *Registry) Actions(ctx context.Context, gameID string, afterSeq, limit int) ([]storage.ActionRecord, error) {
	if _, err := r.store.GetGame(ctx, gameID); err != nil {
		return nil, err
	}
	return r.store.ListActions(ctx, gameID, afterSeq, limit)
}

// Close stops every open table.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for gameID, t := range r.tables {
		t.Close()
		delete(r.tables, gameID)
	}
}

// restore rebuilds a game from its definition and replays its journal. The
// rebuilt state must match the latest snapshot taken at the same seq.
func (r *Registry) restore(ctx context.Context, gameID string) (*Table, error) {
	record, err := r.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	def, err := resolve(record.Title, record.Definition)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", gameID, err)
	}
	state, err := def.Build(record.Players)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", gameID, err)
	}
	if verifier, ok := r.store.(JournalVerifier); ok {
		if _, err := verifier.VerifyJournal(ctx, gameID); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeIllegalState, "verify journal of "+gameID, err)
		}
	}
	records, err := r.store.ListActions(ctx, gameID, 0, 0)
	if err != nil {
		return nil, err
	}
	game, err := r.engine(ctx, gameID, state, storage.ActionsOf(records))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIllegalState, "replay "+gameID, err)
	}

	snap, err := r.store.GetLatestSnapshot(ctx, gameID)
	switch {
	case err == nil && snap.Seq == game.Seq():
		current, err := json.Marshal(game.State())
		if err != nil {
			return nil, fmt.Errorf("encode state: %w", err)
		}
		if !bytes.Equal(current, snap.StateJSON) {
			return nil, apperrors.IllegalState("game %s diverges from its snapshot at seq %d", gameID, snap.Seq)
		}
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}
	return newTable(gameID, game, r.store, r.snapshotEvery), nil
}

// engine builds a journaled game and replays actions through it. Replayed
// actions are already in the journal and are not appended again.
func (r *Registry) engine(ctx context.Context, gameID string, state *aggregate.State, actions []action.Action) (*engine.Game, error) {
	journal, err := storage.NewJournal(r.store, gameID)
	if err != nil {
		return nil, err
	}
	opts := []engine.Option{
		engine.WithJournal(resumeJournal{Journal: journal, after: len(actions)}),
		engine.WithClock(r.now),
	}
	if r.tracer != nil {
		opts = append(opts, engine.WithTracer(r.tracer))
	}
	return engine.Replay(ctx, state, actions, opts...)
}

type resumeJournal struct {
	engine.Journal
	after int
}

func (j resumeJournal) Append(ctx context.Context, entry engine.Entry) error {
	if entry.Seq <= j.after {
		return nil
	}
	return j.Journal.Append(ctx, entry)
}

func resolve(title string, custom []byte) (definition.Definition, error) {
	if len(custom) > 0 {
		return definition.Parse(custom)
	}
	if strings.TrimSpace(title) == "" {
		title = definition.DefaultName
	}
	return definition.Lookup(title)
}

func seat(names []string) ([]entity.Player, error) {
	players := make([]entity.Player, 0, len(names))
	seen := make(map[string]bool, len(names))
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, apperrors.Configuration("player %d has no name", i+1)
		}
		if seen[name] {
			return nil, apperrors.Configuration("player %s is seated twice", name)
		}
		seen[name] = true
		players = append(players, entity.Player{ID: entity.PlayerID(name), Name: name, Seat: i})
	}
	if len(players) == 0 {
		return nil, apperrors.Configuration("players are required")
	}
	return players, nil
}
