// internal/models/game.go
package models

import "strings"

// Color identifies one side of the board.
type Color string

const (
	White Color = "WHITE"
	Black Color = "BLACK"
)

// ParseColor accepts "WHITE"/"BLACK" in any case.
func ParseColor(s string) (Color, bool) {
	switch Color(strings.ToUpper(s)) {
	case White:
		return White, true
	case Black:
		return Black, true
	}
	return "", false
}

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// Lower is used in player-facing notifications ("white", "black").
func (c Color) Lower() string {
	return strings.ToLower(string(c))
}

// Result strings follow PGN conventions.
const (
	ResultWhiteWins = "1-0"
	ResultBlackWins = "0-1"
	ResultDraw      = "1/2-1/2"
)

// WinFor returns the result string for a win by the given color.
func WinFor(c Color) string {
	if c == White {
		return ResultWhiteWins
	}
	return ResultBlackWins
}

// Game is a stored game record. It doubles as the LOAD_GAME snapshot sent to clients.
type Game struct {
	ID            int    `json:"gameID"`
	Name          string `json:"gameName"`
	WhiteUsername string `json:"whiteUsername,omitempty"`
	BlackUsername string `json:"blackUsername,omitempty"`

	// Board is the current position in FEN.
	Board  string `json:"board"`
	Over   bool   `json:"gameOver"`
	Result string `json:"result,omitempty"`
}

// SeatOf returns the color held by username, if any.
func (g *Game) SeatOf(username string) (Color, bool) {
	switch {
	case username == "":
		return "", false
	case g.WhiteUsername == username:
		return White, true
	case g.BlackUsername == username:
		return Black, true
	}
	return "", false
}

// PlayerFor returns the username seated at color.
func (g *Game) PlayerFor(c Color) string {
	if c == White {
		return g.WhiteUsername
	}
	return g.BlackUsername
}

// Vacate clears whichever seat username holds.
func (g *Game) Vacate(username string) {
	if g.WhiteUsername == username {
		g.WhiteUsername = ""
	}
	if g.BlackUsername == username {
		g.BlackUsername = ""
	}
}

// Clone returns a copy safe to hand out while the original keeps changing.
func (g *Game) Clone() *Game {
	c := *g
	return &c
}
