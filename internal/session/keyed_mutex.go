package session

import "sync"

type refLock struct {
	mu   sync.Mutex
	refs int
}

// keyedMutex serializes work per game id. Locks are created on demand and
// dropped once nobody holds or waits for them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int]*refLock
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int]*refLock)}
}

// Lock blocks until the lock for id is held and returns its release func.
func (k *keyedMutex) Lock(id int) func() {
	k.mu.Lock()
	l, ok := k.locks[id]
	if !ok {
		l = &refLock{}
		k.locks[id] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
