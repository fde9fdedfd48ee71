package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/chesslive/internal/models"
	"github.com/jason-s-yu/chesslive/internal/rating"
	"github.com/jason-s-yu/chesslive/internal/session"
)

// RecordResult applies a Glicko-2 update to both players of a finished game
// and appends a row per player to the ratings history.
func (s *Store) RecordResult(ctx context.Context, res session.GameResult) error {
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		white, err := lockUser(ctx, tx, res.White)
		if err != nil {
			return err
		}
		black, err := lockUser(ctx, tx, res.Black)
		if err != nil {
			return err
		}

		newWhite, newBlack := rating.Rate1v1(*white, *black, res.Result)
		for _, pair := range [][2]models.User{{*white, newWhite}, {*black, newBlack}} {
			before, after := pair[0], pair[1]
			if _, err := tx.Exec(ctx,
				`UPDATE users SET rating=$2, rating_rd=$3, rating_sigma=$4 WHERE id=$1`,
				after.ID, after.Rating, after.Phi, after.Sigma,
			); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO ratings (user_id, game_id, old_rating, new_rating, result, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				after.ID, res.GameID, before.Rating, after.Rating, res.Result, res.EndedAt,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record result for game %d: %w", res.GameID, err)
	}
	return nil
}

func lockUser(ctx context.Context, tx pgx.Tx, username string) (*models.User, error) {
	u, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username)=lower($1) FOR UPDATE`, username))
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: %s", models.ErrUserNotFound, username)
	}
	return u, err
}
