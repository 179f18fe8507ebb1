package storage

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/action"
	"github.com/louisbranch/stockrail/internal/services/game/domain/aggregate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
)

// ErrNotFound indicates a requested persistence record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrSeqConflict indicates an append whose seq is not the next journal position.
var ErrSeqConflict = apperrors.New(apperrors.CodeIllegalState, "action seq conflict")

// GameStatus is the lifecycle status of a stored game.
type GameStatus string

const (
	GameActive GameStatus = "active"
	GameOver   GameStatus = "over"
)

// GameRecord describes one game.
type GameRecord struct {
	ID string
	// Title names the definition the game was built from.
	Title string
	// Definition holds the YAML of a custom title; empty for embedded titles.
	Definition []byte
	Players    []entity.Player
	Status     GameStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ActionRecord is one accepted action in the journal.
type ActionRecord struct {
	GameID    string
	Seq       int
	Action    action.Action
	Round     aggregate.RoundKind
	Hash      string
	PrevHash  string
	ChainHash string
	// Signature and SignatureKeyID are set when the store signs the journal.
	Signature      string
	SignatureKeyID string
	CreatedAt      time.Time
}

// Snapshot is the serialized state of a game after Seq actions.
type Snapshot struct {
	GameID    string
	Seq       int
	StateJSON []byte
	CreatedAt time.Time
}

// GameStore persists game records.
type GameStore interface {
	CreateGame(ctx context.Context, game GameRecord) error
	GetGame(ctx context.Context, id string) (GameRecord, error)
	ListGames(ctx context.Context, limit int) ([]GameRecord, error)
	SetGameStatus(ctx context.Context, id string, status GameStatus, at time.Time) error
}

// ActionStore persists the action journal.
type ActionStore interface {
	// AppendAction stores record at the next seq, filling its hashes.
	AppendAction(ctx context.Context, record ActionRecord) (ActionRecord, error)
	// ListActions returns actions with seq greater than afterSeq, ascending.
	// A limit of zero returns all of them.
	ListActions(ctx context.Context, gameID string, afterSeq, limit int) ([]ActionRecord, error)
}

// SnapshotStore persists state snapshots.
type SnapshotStore interface {
	PutSnapshot(ctx context.Context, snapshot Snapshot) error
	GetLatestSnapshot(ctx context.Context, gameID string) (Snapshot, error)
}

// Store is the full persistence surface of the game service.
type Store interface {
	GameStore
	ActionStore
	SnapshotStore
	Close() error
}
