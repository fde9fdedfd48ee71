package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jason-s-yu/chesslive/internal/auth"
	"github.com/jason-s-yu/chesslive/internal/models"
)

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type createUserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AuthToken string `json:"authToken"`
}

// CreateUserHandler registers an account and returns a token for it.
//
// Request payload:
//
//	{
//	  "username": "magnus",
//	  "password": "password",
//	  "email": "optional@example.com"
//	}
func (s *Server) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user := models.User{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
	}
	if err := s.Users.CreateUser(r.Context(), &user); err != nil {
		if errors.Is(err, models.ErrUsernameTaken) {
			http.Error(w, "username already exists", http.StatusConflict)
			return
		}
		s.Logger.WithError(err).Error("failed to create user")
		http.Error(w, "error creating user", http.StatusInternalServerError)
		return
	}

	token, err := s.Tokens.CreateJWT(user.ID.String())
	if err != nil {
		s.Logger.WithError(err).Error("failed to sign token")
		http.Error(w, "error creating user", http.StatusInternalServerError)
		return
	}
	s.setAuthCookie(w, token)
	writeJSON(w, http.StatusCreated, createUserResponse{
		ID:        user.ID.String(),
		Username:  user.Username,
		AuthToken: token,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AuthToken string `json:"authToken"`
}

// LoginHandler checks a username and password and returns a fresh token. The
// token is also sent as the auth_token cookie.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}

	user, err := s.Users.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, models.ErrUserNotFound) {
			s.Logger.WithError(err).Error("failed to load user")
		}
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}
	match, err := auth.ComparePasswordAndHash(req.Password, user.Password)
	if err != nil || !match {
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}

	token, err := s.Tokens.CreateJWT(user.ID.String())
	if err != nil {
		s.Logger.WithError(err).Error("failed to sign token")
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}
	s.setAuthCookie(w, token)
	writeJSON(w, http.StatusOK, loginResponse{AuthToken: token})
}

func (s *Server) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		MaxAge:   int(s.Tokens.TTL().Seconds()),
	})
}
