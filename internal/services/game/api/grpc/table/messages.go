package table

import (
	"time"

	"github.com/louisbranch/stockrail/internal/services/game/domain/action"
	"github.com/louisbranch/stockrail/internal/services/game/domain/aggregate"
	"github.com/louisbranch/stockrail/internal/services/game/storage"
	gametable "github.com/louisbranch/stockrail/internal/services/game/table"
)

// CreateGameRequest starts a new game.
type CreateGameRequest struct {
	Title string `json:"title,omitempty"`
	// Definition is the YAML of a custom game and takes precedence over Title.
	Definition string   `json:"definition,omitempty"`
	Players    []string `json:"players"`
}

// GetGameRequest reads one game.
type GetGameRequest struct {
	GameID string `json:"game_id"`
}

// ListGamesRequest lists stored games.
type ListGamesRequest struct {
	Limit int `json:"limit,omitempty"`
}

// ListActionsRequest reads a game's journal after AfterSeq.
type ListActionsRequest struct {
	GameID   string `json:"game_id"`
	AfterSeq int    `json:"after_seq,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// ProcessRequest submits one action.
type ProcessRequest struct {
	GameID string        `json:"game_id"`
	Action action.Action `json:"action"`
}

// Game summarizes a stored game.
type Game struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Players   []string  `json:"players"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GameResponse carries a game and its current view.
type GameResponse struct {
	Game Game           `json:"game"`
	View gametable.View `json:"view"`
}

// ListGamesResponse carries stored games.
type ListGamesResponse struct {
	Games []Game `json:"games"`
}

// JournalEntry is one recorded action.
type JournalEntry struct {
	Seq       int                 `json:"seq"`
	Action    action.Action       `json:"action"`
	Round     aggregate.RoundKind `json:"round"`
	ChainHash string              `json:"chain_hash"`
	Signed    bool                `json:"signed"`
	CreatedAt time.Time           `json:"created_at"`
}

// ListActionsResponse carries journal entries in seq order.
type ListActionsResponse struct {
	Actions []JournalEntry `json:"actions"`
}

// ProcessResponse carries the outcome of an accepted action.
type ProcessResponse struct {
	Result gametable.Result `json:"result"`
}

func gameFromRecord(r storage.GameRecord) Game {
	players := make([]string, len(r.Players))
	for i, p := range r.Players {
		players[i] = p.Name
	}
	return Game{
		ID:        r.ID,
		Title:     r.Title,
		Players:   players,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func entryFromRecord(r storage.ActionRecord) JournalEntry {
	return JournalEntry{
		Seq:       r.Seq,
		Action:    r.Action,
		Round:     r.Round,
		ChainHash: r.ChainHash,
		Signed:    r.Signature != "",
		CreatedAt: r.CreatedAt,
	}
}
