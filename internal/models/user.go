package models

import (
	"errors"

	"github.com/google/uuid"
)

type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email,omitempty"`
	Password string    `json:"password,omitempty"`
	Username string    `json:"username"`

	// Glicko2 rating, shown to players as an Elo-like number
	Rating int     `json:"rating"`
	Phi    float64 `json:"-"`
	Sigma  float64 `json:"-"`
}

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
)
