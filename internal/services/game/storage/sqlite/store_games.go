package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/storage"
)

// CreateGame stores a new game record.
func (s *Store) CreateGame(ctx context.Context, game storage.GameRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(game.ID) == "" {
		return fmt.Errorf("game id is required")
	}
	if strings.TrimSpace(game.Title) == "" {
		return fmt.Errorf("game title is required")
	}
	players, err := json.Marshal(game.Players)
	if err != nil {
		return fmt.Errorf("encode players: %w", err)
	}
	if game.Status == "" {
		game.Status = storage.GameActive
	}
	if game.CreatedAt.IsZero() {
		game.CreatedAt = s.now()
	}
	if game.UpdatedAt.IsZero() {
		game.UpdatedAt = game.CreatedAt
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO games (id, title, definition, players_json, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		game.ID, game.Title, game.Definition, string(players), string(game.Status),
		toMillis(game.CreatedAt), toMillis(game.UpdatedAt),
	)
	if err != nil {
		if isConstraintError(err) {
			return apperrors.Newf(apperrors.CodeAlreadyExists, "game %s already exists", game.ID)
		}
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

// GetGame returns a game record by id.
func (s *Store) GetGame(ctx context.Context, id string) (storage.GameRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.GameRecord{}, err
	}
	if strings.TrimSpace(id) == "" {
		return storage.GameRecord{}, fmt.Errorf("game id is required")
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, title, definition, players_json, status, created_at, updated_at
FROM games WHERE id = ?`, id)
	game, err := scanGame(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.GameRecord{}, storage.ErrNotFound
		}
		return storage.GameRecord{}, fmt.Errorf("get game: %w", err)
	}
	return game, nil
}

// ListGames returns the most recently updated games first.
func (s *Store) ListGames(ctx context.Context, limit int) ([]storage.GameRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, title, definition, players_json, status, created_at, updated_at
FROM games ORDER BY updated_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []storage.GameRecord
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return games, nil
}

// SetGameStatus updates the status of a game.
func (s *Store) SetGameStatus(ctx context.Context, id string, status storage.GameStatus, at time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx, `UPDATE games SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), toMillis(at), id)
	if err != nil {
		return fmt.Errorf("update game status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update game status: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (storage.GameRecord, error) {
	var (
		game       storage.GameRecord
		players    string
		status     string
		created    int64
		updated    int64
		definition []byte
	)
	if err := row.Scan(&game.ID, &game.Title, &definition, &players, &status, &created, &updated); err != nil {
		return storage.GameRecord{}, err
	}
	var seated []entity.Player
	if err := json.Unmarshal([]byte(players), &seated); err != nil {
		return storage.GameRecord{}, fmt.Errorf("decode players: %w", err)
	}
	game.Definition = definition
	game.Players = seated
	game.Status = storage.GameStatus(status)
	game.CreatedAt = fromMillis(created)
	game.UpdatedAt = fromMillis(updated)
	return game, nil
}
