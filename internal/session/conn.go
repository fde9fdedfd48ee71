package session

import "context"

// Conn is a live bidirectional channel to one client. Implementations must be
// safe for concurrent Send calls.
type Conn interface {
	// ID identifies the connection in logs.
	ID() string
	// Send writes one message. Once the peer is gone it returns an error
	// wrapping ErrConnClosed.
	Send(ctx context.Context, data []byte) error
	// Closed reports whether the channel is known to be closed.
	Closed() bool
}
