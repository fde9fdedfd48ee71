// internal/handlers/server.go
package handlers

import (
	"context"
	"net/http"

	"github.com/jason-s-yu/chesslive/internal/auth"
	"github.com/jason-s-yu/chesslive/internal/middleware"
	"github.com/jason-s-yu/chesslive/internal/models"
	"github.com/jason-s-yu/chesslive/internal/session"
	"github.com/sirupsen/logrus"
)

// UserStore is what the account endpoints need from persistence.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// GameCatalog creates and lists games.
type GameCatalog interface {
	CreateGame(ctx context.Context, name string) (*models.Game, error)
	ListGames(ctx context.Context) ([]*models.Game, error)
}

// Server bundles the HTTP and WebSocket endpoints of the chess service.
type Server struct {
	Users      UserStore
	Games      GameCatalog
	Tokens     *auth.TokenIssuer
	Auth       session.AuthResolver
	Dispatcher *session.Dispatcher
	Logger     *logrus.Logger

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// Routes registers every endpoint on a fresh mux wrapped in request logging.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// user endpoints
	mux.HandleFunc("POST /user/create", s.CreateUserHandler)
	mux.HandleFunc("POST /user/login", s.LoginHandler)

	// game endpoints
	mux.HandleFunc("POST /game/create", s.CreateGameHandler)
	mux.HandleFunc("GET /game/list", s.ListGamesHandler)

	// game websocket
	mux.HandleFunc("GET /ws", GameWSHandler(s.Logger, s.Dispatcher))

	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics)
	}

	return middleware.LogMiddleware(s.Logger)(mux)
}

// authenticate resolves the request's token to a username, writing a 401 on
// failure.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := extractToken(r)
	if token == "" {
		http.Error(w, "missing auth token", http.StatusUnauthorized)
		return "", false
	}
	username, err := s.Auth.Resolve(r.Context(), token)
	if err != nil {
		s.Logger.WithError(err).Debug("http auth failed")
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return "", false
	}
	return username, true
}
