package models

import "regexp"

var squarePattern = regexp.MustCompile(`^[a-h][1-8]$`)

// Move describes a single piece movement in algebraic square notation,
// e.g. {From: "e7", To: "e8", Promotion: "q"}.
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// Valid reports whether the squares and the optional promotion piece are well formed.
func (m Move) Valid() bool {
	if !squarePattern.MatchString(m.From) || !squarePattern.MatchString(m.To) || m.From == m.To {
		return false
	}
	switch m.Promotion {
	case "", "q", "r", "b", "n":
		return true
	}
	return false
}

// UCI returns the move in UCI long algebraic notation ("e2e4", "e7e8q").
func (m Move) UCI() string {
	return m.From + m.To + m.Promotion
}

func (m Move) String() string {
	return m.UCI()
}
