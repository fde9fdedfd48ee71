package session

import (
	"context"
	"time"

	"github.com/jason-s-yu/chesslive/internal/models"
)

// AuthResolver maps an auth token to a username. Unknown or expired tokens
// yield an error wrapping ErrAuthInvalid.
type AuthResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// GameStore is the persistence collaborator for game records.
type GameStore interface {
	// GetGame returns a copy of the game or an error wrapping ErrGameNotFound.
	GetGame(ctx context.Context, id int) (*models.Game, error)
	// UpdateGame persists board, seats, over flag and result.
	UpdateGame(ctx context.Context, g *models.Game) error
	// SetSeat seats username at color. An empty color vacates whatever seat
	// username holds. It returns false if the game does not exist, the seat
	// belongs to someone else, or username already holds the other color.
	SetSeat(ctx context.Context, id int, username string, color models.Color) (bool, error)
}

// RulesEngine is the opaque chess rules capability. Boards are FEN strings.
type RulesEngine interface {
	IsLegal(board string, m models.Move) bool
	Apply(board string, m models.Move) (string, error)
	IsTerminal(board string) bool
	Turn(board string) (models.Color, error)
	// Outcome returns the PGN result and a human readable reason for a
	// terminal board, or empty strings while the game is running.
	Outcome(board string) (result, reason string)
}

// MoveRecord is published for every accepted move.
type MoveRecord struct {
	GameID    int    `json:"game_id"`
	Username  string `json:"username"`
	Move      string `json:"move"`
	Board     string `json:"board"`
	Timestamp int64  `json:"timestamp"`
}

// MoveRecorder receives accepted moves, typically for an asynchronous history log.
type MoveRecorder interface {
	RecordMove(ctx context.Context, rec MoveRecord) error
}

// GameResult describes a finished game between two seated players.
type GameResult struct {
	GameID  int
	White   string
	Black   string
	Result  string
	Reason  string
	EndedAt time.Time
}

// ResultRecorder is notified once when a game ends.
type ResultRecorder interface {
	RecordResult(ctx context.Context, res GameResult) error
}
