package table

import (
	"context"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/platform/timeouts"
	gametable "github.com/louisbranch/stockrail/internal/services/game/table"
)

const (
	defaultListGamesLimit = 20
	maxListGamesLimit     = 100
)

// Service implements TableService over a table registry.
type Service struct {
	registry *gametable.Registry
}

// NewService returns a TableService backed by registry.
func NewService(registry *gametable.Registry) *Service {
	return &Service{registry: registry}
}

// CreateGame builds and records a new game.
func (s *Service) CreateGame(ctx context.Context, in *CreateGameRequest) (*GameResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "create game request is required")
	}
	req := gametable.CreateRequest{Title: strings.TrimSpace(in.Title), Players: in.Players}
	if strings.TrimSpace(in.Definition) != "" {
		req.Definition = []byte(in.Definition)
	}
	view, err := s.registry.Create(ctx, req)
	if err != nil {
		return nil, apperrors.HandleError(err)
	}
	return s.game(ctx, view)
}

// GetGame returns a game and its current view.
func (s *Service) GetGame(ctx context.Context, in *GetGameRequest) (*GameResponse, error) {
	if in == nil || strings.TrimSpace(in.GameID) == "" {
		return nil, status.Error(codes.InvalidArgument, "game id is required")
	}
	view, err := s.registry.View(ctx, in.GameID)
	if err != nil {
		return nil, apperrors.HandleError(err)
	}
	return s.game(ctx, view)
}

// ListGames returns stored games, most recently updated first.
func (s *Service) ListGames(ctx context.Context, in *ListGamesRequest) (*ListGamesResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "list games request is required")
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultListGamesLimit
	}
	if limit > maxListGamesLimit {
		limit = maxListGamesLimit
	}
	records, err := s.registry.Games(ctx, limit)
	if err != nil {
		return nil, apperrors.HandleError(err)
	}
	resp := &ListGamesResponse{Games: make([]Game, 0, len(records))}
	for _, r := range records {
		resp.Games = append(resp.Games, gameFromRecord(r))
	}
	return resp, nil
}

// ListActions returns a game's journal.
func (s *Service) ListActions(ctx context.Context, in *ListActionsRequest) (*ListActionsResponse, error) {
	if in == nil || strings.TrimSpace(in.GameID) == "" {
		return nil, status.Error(codes.InvalidArgument, "game id is required")
	}
	if in.AfterSeq < 0 || in.Limit < 0 {
		return nil, status.Error(codes.InvalidArgument, "after_seq and limit cannot be negative")
	}
	records, err := s.registry.Actions(ctx, in.GameID, in.AfterSeq, in.Limit)
	if err != nil {
		return nil, apperrors.HandleError(err)
	}
	resp := &ListActionsResponse{Actions: make([]JournalEntry, 0, len(records))}
	for _, r := range records {
		resp.Actions = append(resp.Actions, entryFromRecord(r))
	}
	return resp, nil
}

// Process applies one action to a game.
func (s *Service) Process(ctx context.Context, in *ProcessRequest) (*ProcessResponse, error) {
	if in == nil || strings.TrimSpace(in.GameID) == "" {
		return nil, status.Error(codes.InvalidArgument, "game id is required")
	}
	if in.Action.Type == "" {
		return nil, status.Error(codes.InvalidArgument, "action type is required")
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.TableQueue)
	defer cancel()
	result, err := s.registry.Process(ctx, in.GameID, in.Action)
	if err != nil {
		return nil, apperrors.HandleError(err)
	}
	return &ProcessResponse{Result: result}, nil
}

func (s *Service) game(ctx context.Context, view gametable.View) (*GameResponse, error) {
	record, err := s.registry.Record(ctx, view.GameID)
	if err != nil {
		return nil, apperrors.HandleError(err)
	}
	return &GameResponse{Game: gameFromRecord(record), View: view}, nil
}
