// internal/session/errors.go
package session

import (
	"errors"
	"fmt"
)

// Domain errors. Each one is answered to the acting connection only and never
// closes the connection.
var (
	ErrMalformedCommand = errors.New("malformed command")
	ErrAuthInvalid      = errors.New("unauthorized")
	ErrGameNotFound     = errors.New("game not found")
	ErrSeatOccupied     = errors.New("seat already taken")
	ErrNotASeatedPlayer = errors.New("not a seated player")
	ErrNotJoined        = errors.New("not joined to this game")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrIllegalMove      = errors.New("illegal move")
	ErrGameAlreadyOver  = errors.New("game is already over")
	ErrGameOver         = errors.New("game is over, no more moves can be made")

	// ErrConnClosed is returned by Conn.Send once the peer is gone.
	ErrConnClosed = errors.New("connection closed")
)

// TransportError reports a failed send to one connection.
type TransportError struct {
	GameID int
	Token  string
	ConnID string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("send to conn %s (game %d): %v", e.ConnID, e.GameID, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// isDomainError reports whether err is one of the protocol-level errors above,
// as opposed to a collaborator or transport failure.
func isDomainError(err error) bool {
	for _, target := range []error{
		ErrMalformedCommand, ErrAuthInvalid, ErrGameNotFound, ErrSeatOccupied,
		ErrNotASeatedPlayer, ErrNotJoined, ErrNotYourTurn, ErrIllegalMove, ErrGameAlreadyOver, ErrGameOver,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
