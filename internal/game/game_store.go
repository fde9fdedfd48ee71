package game

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/chesslive/internal/auth"
	"github.com/jason-s-yu/chesslive/internal/models"
	"github.com/jason-s-yu/chesslive/internal/rating"
	"github.com/jason-s-yu/chesslive/internal/session"
)

// MemoryStore keeps games and users in process memory. It serves the same
// contracts as the PostgreSQL store and is used for tests and for running
// without a database.
type MemoryStore struct {
	mu     sync.Mutex
	games  map[int]*models.Game
	nextID int
	users  map[string]*models.User // keyed by lower-cased username
}

var (
	_ session.GameStore      = (*MemoryStore)(nil)
	_ session.ResultRecorder = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games: make(map[int]*models.Game),
		users: make(map[string]*models.User),
	}
}

// CreateGame stores a new game at the starting position.
func (s *MemoryStore) CreateGame(_ context.Context, name string) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	g := &models.Game{
		ID:    s.nextID,
		Name:  name,
		Board: StartingBoard,
	}
	s.games[g.ID] = g
	return g.Clone(), nil
}

// ListGames returns copies of all games ordered by id.
func (s *MemoryStore) ListGames(_ context.Context) ([]*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Game, 0, len(s.games))
	for _, g := range s.games {
		out = append(out, g.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetGame(_ context.Context, id int) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", session.ErrGameNotFound, id)
	}
	return g.Clone(), nil
}

func (s *MemoryStore) UpdateGame(_ context.Context, g *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[g.ID]; !ok {
		return fmt.Errorf("%w: %d", session.ErrGameNotFound, g.ID)
	}
	s.games[g.ID] = g.Clone()
	return nil
}

// SetSeat claims color for username, or vacates their seat when color is empty.
func (s *MemoryStore) SetSeat(_ context.Context, id int, username string, color models.Color) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return false, nil
	}
	switch color {
	case "":
		g.Vacate(username)
	case models.White:
		if (g.WhiteUsername != "" && g.WhiteUsername != username) || g.BlackUsername == username {
			return false, nil
		}
		g.WhiteUsername = username
	case models.Black:
		if (g.BlackUsername != "" && g.BlackUsername != username) || g.WhiteUsername == username {
			return false, nil
		}
		g.BlackUsername = username
	default:
		return false, fmt.Errorf("unknown color %q", color)
	}
	return true, nil
}

// CreateUser hashes the password and stores the user, assigning an id if needed.
func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	hash, err := auth.CreateHash(user.Password, auth.Params)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(user.Username)
	if _, exists := s.users[key]; exists {
		return models.ErrUsernameTaken
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Password = hash
	if user.Rating == 0 {
		user.Rating = 1500
	}
	stored := *user
	s.users[key] = &stored
	return nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(username)]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrUserNotFound
}

// RecordResult applies the rating update for a finished game.
func (s *MemoryStore) RecordResult(_ context.Context, res session.GameResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	white, ok := s.users[strings.ToLower(res.White)]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrUserNotFound, res.White)
	}
	black, ok := s.users[strings.ToLower(res.Black)]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrUserNotFound, res.Black)
	}
	newWhite, newBlack := rating.Rate1v1(*white, *black, res.Result)
	*white, *black = newWhite, newBlack
	return nil
}
