// internal/auth/tokens.go
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// TokenIssuer signs and verifies EdDSA JWTs whose subject is a user id.
type TokenIssuer struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// ttl of 0 issues tokens without an exp claim.
	ttl time.Duration
	now func() time.Time
}

// NewTokenIssuer generates a fresh ed25519 key pair. Tokens do not survive a restart.
func NewTokenIssuer(ttl time.Duration) (*TokenIssuer, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return &TokenIssuer{privateKey: priv, publicKey: pub, ttl: ttl, now: time.Now}, nil
}

// LoadTokenIssuer reads raw ed25519 private/public keys from disk.
func LoadTokenIssuer(privatePath, publicPath string, ttl time.Duration) (*TokenIssuer, error) {
	privateKeyData, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}
	publicKeyData, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key file: %w", err)
	}
	if len(privateKeyData) != ed25519.PrivateKeySize || len(publicKeyData) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("unexpected ed25519 key sizes %d/%d", len(privateKeyData), len(publicKeyData))
	}
	return &TokenIssuer{
		privateKey: ed25519.PrivateKey(privateKeyData),
		publicKey:  ed25519.PublicKey(publicKeyData),
		ttl:        ttl,
		now:        time.Now,
	}, nil
}

// TTL is the configured token lifetime; 0 means tokens never expire.
func (ti *TokenIssuer) TTL() time.Duration {
	return ti.ttl
}

// CreateJWT signs a token with "sub" = userID.
func (ti *TokenIssuer) CreateJWT(userID string) (string, error) {
	now := ti.now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
	}
	if ti.ttl > 0 {
		claims["exp"] = now.Add(ti.ttl).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(ti.privateKey)
}

// AuthenticateJWT verifies tokenString and returns its "sub" claim.
func (ti *TokenIssuer) AuthenticateJWT(tokenString string) (string, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ti.publicKey, nil
	}, jwt.WithTimeFunc(ti.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !t.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: invalid jwt claims", ErrInvalidToken)
	}
	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("%w: missing sub in jwt", ErrInvalidToken)
	}
	return userID, nil
}
