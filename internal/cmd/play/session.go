package play

import (
	"context"
	"errors"

	"github.com/louisbranch/stockrail/internal/platform/timeouts"
	grpcmeta "github.com/louisbranch/stockrail/internal/services/game/api/grpc/metadata"
	"github.com/louisbranch/stockrail/internal/services/game/api/grpc/table"
	"github.com/louisbranch/stockrail/internal/services/game/domain/action"
	"github.com/louisbranch/stockrail/internal/services/game/render"
	gametable "github.com/louisbranch/stockrail/internal/services/game/table"
)

// session is one game seen by the prompt, local or on a server.
type session interface {
	ID() string
	View(ctx context.Context) (gametable.View, error)
	Process(ctx context.Context, a action.Action) (gametable.Result, error)
	Journal(ctx context.Context) ([]render.JournalLine, error)
}

type localSession struct {
	registry *gametable.Registry
	gameID   string
}

func (s localSession) ID() string { return s.gameID }

func (s localSession) View(ctx context.Context) (gametable.View, error) {
	return s.registry.View(ctx, s.gameID)
}

func (s localSession) Process(ctx context.Context, a action.Action) (gametable.Result, error) {
	return s.registry.Process(ctx, s.gameID, a)
}

func (s localSession) Journal(ctx context.Context) ([]render.JournalLine, error) {
	records, err := s.registry.Actions(ctx, s.gameID, 0, 0)
	if err != nil {
		return nil, err
	}
	lines := make([]render.JournalLine, len(records))
	for i, r := range records {
		lines[i] = render.JournalLine{Seq: r.Seq, Round: r.Round, Action: r.Action}
	}
	return lines, nil
}

type remoteSession struct {
	client *table.Client
	gameID string
}

func (s remoteSession) ID() string { return s.gameID }

func (s remoteSession) View(ctx context.Context) (gametable.View, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.GRPCRequest)
	defer cancel()
	resp, err := s.client.GetGame(ctx, &table.GetGameRequest{GameID: s.gameID})
	if err != nil {
		return gametable.View{}, err
	}
	return resp.View, nil
}

func (s remoteSession) Process(ctx context.Context, a action.Action) (gametable.Result, error) {
	ctx, cancel := context.WithTimeout(grpcmeta.OutgoingPlayer(ctx, string(a.Player)), timeouts.GRPCRequest)
	defer cancel()
	resp, err := s.client.Process(ctx, &table.ProcessRequest{GameID: s.gameID, Action: a})
	if err != nil {
		return gametable.Result{}, err
	}
	return resp.Result, nil
}

func (s remoteSession) Journal(ctx context.Context) ([]render.JournalLine, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.GRPCRequest)
	defer cancel()
	resp, err := s.client.ListActions(ctx, &table.ListActionsRequest{GameID: s.gameID})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("empty journal response")
	}
	lines := make([]render.JournalLine, len(resp.Actions))
	for i, e := range resp.Actions {
		lines[i] = render.JournalLine{Seq: e.Seq, Round: e.Round, Action: e.Action}
	}
	return lines, nil
}
