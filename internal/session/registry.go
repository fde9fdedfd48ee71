// internal/session/registry.go
package session

import "sync"

// Entry is one registered connection together with the token it joined with.
type Entry struct {
	Token string
	Conn  Conn
}

// gameConns holds the connections of a single game.
type gameConns struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

// Registry maps (game id, auth token) to the live connection for that pair.
// Each game has its own bucket so registrations in different games never
// contend on the same lock.
type Registry struct {
	games sync.Map // int -> *gameConns
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) bucket(gameID int, create bool) *gameConns {
	if b, ok := r.games.Load(gameID); ok {
		return b.(*gameConns)
	}
	if !create {
		return nil
	}
	b, _ := r.games.LoadOrStore(gameID, &gameConns{conns: make(map[string]Conn)})
	return b.(*gameConns)
}

// Add registers conn for (gameID, token), replacing any previous connection.
func (r *Registry) Add(gameID int, token string, conn Conn) {
	b := r.bucket(gameID, true)
	b.mu.Lock()
	b.conns[token] = conn
	b.mu.Unlock()
}

// Remove drops the entry for (gameID, token). Removing an absent entry is a no-op.
func (r *Registry) Remove(gameID int, token string) {
	b := r.bucket(gameID, false)
	if b == nil {
		return
	}
	b.mu.Lock()
	delete(b.conns, token)
	b.mu.Unlock()
}

// RemoveConn drops the entry only if it still points at conn. It returns true
// if something was removed.
func (r *Registry) RemoveConn(gameID int, token string, conn Conn) bool {
	b := r.bucket(gameID, false)
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if cur, ok := b.conns[token]; ok && cur == conn {
		delete(b.conns, token)
		return true
	}
	return false
}

// Lookup returns the connection registered for (gameID, token).
func (r *Registry) Lookup(gameID int, token string) (Conn, bool) {
	b := r.bucket(gameID, false)
	if b == nil {
		return nil, false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.conns[token]
	return c, ok
}

// ConnectionsFor returns a point-in-time copy of the game's connections. The
// slice is not affected by later registry mutations.
func (r *Registry) ConnectionsFor(gameID int) []Entry {
	b := r.bucket(gameID, false)
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Entry, 0, len(b.conns))
	for tok, c := range b.conns {
		out = append(out, Entry{Token: tok, Conn: c})
	}
	return out
}

// Len returns the total number of registered connections across all games.
func (r *Registry) Len() int {
	n := 0
	r.games.Range(func(_, v any) bool {
		b := v.(*gameConns)
		b.mu.RLock()
		n += len(b.conns)
		b.mu.RUnlock()
		return true
	})
	return n
}
