package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/chesslive/internal/models"
	"github.com/jason-s-yu/chesslive/internal/session"
)

// UserLookup finds users by id.
type UserLookup interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Resolver turns session auth tokens into usernames.
type Resolver struct {
	issuer *TokenIssuer
	users  UserLookup
}

var _ session.AuthResolver = (*Resolver)(nil)

func NewResolver(issuer *TokenIssuer, users UserLookup) *Resolver {
	return &Resolver{issuer: issuer, users: users}
}

// Resolve verifies token and looks up the user it was issued to. Bad tokens
// and unknown users wrap session.ErrAuthInvalid; lookup failures do not.
func (r *Resolver) Resolve(ctx context.Context, token string) (string, error) {
	sub, err := r.issuer.AuthenticateJWT(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", session.ErrAuthInvalid, err)
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return "", fmt.Errorf("%w: invalid user id in token", session.ErrAuthInvalid)
	}
	u, err := r.users.GetUserByID(ctx, id)
	if errors.Is(err, models.ErrUserNotFound) {
		return "", fmt.Errorf("%w: unknown user", session.ErrAuthInvalid)
	}
	if err != nil {
		return "", fmt.Errorf("lookup user %s: %w", id, err)
	}
	return u.Username, nil
}
