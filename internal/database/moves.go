package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/chesslive/internal/session"
)

// InsertMoves bulk-copies a batch of move records into the moves table.
func (s *Store) InsertMoves(ctx context.Context, recs []session.MoveRecord) error {
	if len(recs) == 0 {
		return nil
	}
	n, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"moves"},
		[]string{"game_id", "username", "move", "board", "played_at"},
		pgx.CopyFromSlice(len(recs), func(i int) ([]any, error) {
			r := recs[i]
			return []any{r.GameID, r.Username, r.Move, r.Board, time.UnixMilli(r.Timestamp).UTC()}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy moves: %w", err)
	}
	if int(n) != len(recs) {
		return fmt.Errorf("copy moves: wrote %d of %d rows", n, len(recs))
	}
	return nil
}

// MovesFor returns the recorded moves of a game in play order.
func (s *Store) MovesFor(ctx context.Context, gameID int) ([]session.MoveRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT game_id, username, move, board, played_at FROM moves WHERE game_id=$1 ORDER BY played_at, id`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("query moves: %w", err)
	}
	defer rows.Close()

	var out []session.MoveRecord
	for rows.Next() {
		var r session.MoveRecord
		var at time.Time
		if err := rows.Scan(&r.GameID, &r.Username, &r.Move, &r.Board, &at); err != nil {
			return nil, err
		}
		r.Timestamp = at.UnixMilli()
		out = append(out, r)
	}
	return out, rows.Err()
}
