package session

import (
	"context"
	"encoding/json"
	"sync"
)

// MockConn records every frame sent to it. It is exported for the external
// dispatcher tests.
type MockConn struct {
	id string

	mu      sync.Mutex
	frames  [][]byte
	closed  bool
	failErr error
}

func NewMockConn(id string) *MockConn {
	return &MockConn{id: id}
}

func (m *MockConn) ID() string { return m.id }

func (m *MockConn) Send(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrConnClosed
	}
	if m.failErr != nil {
		return m.failErr
	}
	m.frames = append(m.frames, append([]byte(nil), data...))
	return nil
}

func (m *MockConn) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close makes the connection report closed, as a dropped peer would.
func (m *MockConn) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

// FailWith makes every subsequent Send return err while staying open.
func (m *MockConn) FailWith(err error) {
	m.mu.Lock()
	m.failErr = err
	m.mu.Unlock()
}

// Messages decodes the recorded frames.
func (m *MockConn) Messages() []ServerMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ServerMessage, 0, len(m.frames))
	for _, f := range m.frames {
		var msg ServerMessage
		if err := json.Unmarshal(f, &msg); err != nil {
			panic(err)
		}
		out = append(out, msg)
	}
	return out
}

// Reset forgets the recorded frames.
func (m *MockConn) Reset() {
	m.mu.Lock()
	m.frames = nil
	m.mu.Unlock()
}
