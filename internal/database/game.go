// internal/database/game.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/chesslive/internal/game"
	"github.com/jason-s-yu/chesslive/internal/models"
	"github.com/jason-s-yu/chesslive/internal/session"
)

const gameColumns = `id, name, COALESCE(white_username, ''), COALESCE(black_username, ''), board, game_over, COALESCE(result, '')`

func scanGame(row pgx.Row) (*models.Game, error) {
	var g models.Game
	if err := row.Scan(&g.ID, &g.Name, &g.WhiteUsername, &g.BlackUsername, &g.Board, &g.Over, &g.Result); err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateGame inserts a fresh game at the standard starting position.
func (s *Store) CreateGame(ctx context.Context, name string) (*models.Game, error) {
	q := `INSERT INTO games (name, board) VALUES ($1, $2) RETURNING ` + gameColumns
	g, err := scanGame(s.pool.QueryRow(ctx, q, name, game.StartingBoard))
	if err != nil {
		return nil, fmt.Errorf("failed to insert game: %w", err)
	}
	return g, nil
}

// ListGames returns every game ordered by id.
func (s *Store) ListGames(ctx context.Context) ([]*models.Game, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+gameColumns+` FROM games ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var out []*models.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) GetGame(ctx context.Context, id int) (*models.Game, error) {
	g, err := scanGame(s.pool.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", session.ErrGameNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game %d: %w", id, err)
	}
	return g, nil
}

func (s *Store) UpdateGame(ctx context.Context, g *models.Game) error {
	q := `UPDATE games
	      SET white_username=NULLIF($2, ''), black_username=NULLIF($3, ''),
	          board=$4, game_over=$5, result=NULLIF($6, ''), updated_at=NOW()
	      WHERE id=$1`
	tag, err := s.pool.Exec(ctx, q, g.ID, g.WhiteUsername, g.BlackUsername, g.Board, g.Over, g.Result)
	if err != nil {
		return fmt.Errorf("failed to update game %d: %w", g.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", session.ErrGameNotFound, g.ID)
	}
	return nil
}

// SetSeat claims or releases a seat under a row lock so that two players
// racing for the same color cannot both win. A user holding one color cannot
// claim the other.
func (s *Store) SetSeat(ctx context.Context, id int, username string, color models.Color) (bool, error) {
	ok := false
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var white, black string
		err := tx.QueryRow(ctx,
			`SELECT COALESCE(white_username, ''), COALESCE(black_username, '') FROM games WHERE id=$1 FOR UPDATE`,
			id,
		).Scan(&white, &black)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		var q string
		switch color {
		case "":
			q = `UPDATE games SET
			       white_username = CASE WHEN white_username = $2 THEN NULL ELSE white_username END,
			       black_username = CASE WHEN black_username = $2 THEN NULL ELSE black_username END,
			       updated_at = NOW()
			     WHERE id=$1`
		case models.White:
			if (white != "" && white != username) || black == username {
				return nil
			}
			q = `UPDATE games SET white_username=$2, updated_at=NOW() WHERE id=$1`
		case models.Black:
			if (black != "" && black != username) || white == username {
				return nil
			}
			q = `UPDATE games SET black_username=$2, updated_at=NOW() WHERE id=$1`
		default:
			return fmt.Errorf("unknown color %q", color)
		}
		if _, err := tx.Exec(ctx, q, id, username); err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("set seat on game %d: %w", id, err)
	}
	return ok, nil
}
