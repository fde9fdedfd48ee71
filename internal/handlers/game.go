// internal/handlers/game.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jason-s-yu/chesslive/internal/models"
	"github.com/sirupsen/logrus"
)

type createGameRequest struct {
	GameName string `json:"gameName"`
}

type createGameResponse struct {
	GameID int `json:"gameID"`
}

// CreateGameHandler opens a new game at the starting position.
func (s *Server) CreateGameHandler(w http.ResponseWriter, r *http.Request) {
	username, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	req.GameName = strings.TrimSpace(req.GameName)
	if req.GameName == "" {
		http.Error(w, "gameName is required", http.StatusBadRequest)
		return
	}

	g, err := s.Games.CreateGame(r.Context(), req.GameName)
	if err != nil {
		s.Logger.WithError(err).Error("failed to create game")
		http.Error(w, "error creating game", http.StatusInternalServerError)
		return
	}
	s.Logger.WithFields(logrus.Fields{"game": g.ID, "user": username}).Info("game created")
	writeJSON(w, http.StatusOK, createGameResponse{GameID: g.ID})
}

// ListGamesHandler returns every game, running or finished.
func (s *Server) ListGamesHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	games, err := s.Games.ListGames(r.Context())
	if err != nil {
		s.Logger.WithError(err).Error("failed to list games")
		http.Error(w, "error listing games", http.StatusInternalServerError)
		return
	}
	if games == nil {
		games = []*models.Game{}
	}
	writeJSON(w, http.StatusOK, games)
}
