// internal/session/broadcast.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultWriteTimeout bounds a single send when the broadcaster has no explicit timeout.
const DefaultWriteTimeout = 3 * time.Second

// Broadcaster delivers server messages to the connections of a game.
type Broadcaster struct {
	registry     *Registry
	logger       *logrus.Logger
	metrics      *Metrics
	writeTimeout time.Duration
}

// NewBroadcaster returns a Broadcaster over registry. metrics may be nil.
func NewBroadcaster(registry *Registry, logger *logrus.Logger, metrics *Metrics, writeTimeout time.Duration) *Broadcaster {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &Broadcaster{
		registry:     registry,
		logger:       logger,
		metrics:      metrics,
		writeTimeout: writeTimeout,
	}
}

// Broadcast sends msg to every connection registered for gameID except the one
// registered under excludeToken ("" excludes nobody). Closed connections are
// skipped and removed from the registry after the pass; a failing peer never
// stops delivery to the others. The returned error joins one *TransportError
// per failed connection.
func (b *Broadcaster) Broadcast(ctx context.Context, gameID int, excludeToken string, msg ServerMessage) error {
	data, err := msg.encode()
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Kind, err)
	}

	var (
		dead []Entry
		errs []error
	)
	for _, e := range b.registry.ConnectionsFor(gameID) {
		if excludeToken != "" && e.Token == excludeToken {
			continue
		}
		if e.Conn.Closed() {
			dead = append(dead, e)
			continue
		}
		if err := b.send(ctx, e.Conn, data); err != nil {
			b.metrics.sendFailed()
			errs = append(errs, &TransportError{GameID: gameID, Token: e.Token, ConnID: e.Conn.ID(), Err: err})
			if errors.Is(err, ErrConnClosed) || e.Conn.Closed() {
				dead = append(dead, e)
			}
		}
	}

	pruned := 0
	for _, e := range dead {
		if b.registry.RemoveConn(gameID, e.Token, e.Conn) {
			pruned++
		}
	}
	if pruned > 0 {
		b.metrics.pruned(pruned)
		b.logger.WithFields(logrus.Fields{
			"game":   gameID,
			"pruned": pruned,
		}).Debug("removed closed connections")
	}
	if len(errs) > 0 {
		b.logger.WithFields(logrus.Fields{
			"game":     gameID,
			"kind":     msg.Kind,
			"failures": len(errs),
		}).Warn("broadcast had failed sends")
	}
	return errors.Join(errs...)
}

// SendDirect delivers msg to conn only. Failures are returned, not swallowed.
func (b *Broadcaster) SendDirect(ctx context.Context, conn Conn, msg ServerMessage) error {
	data, err := msg.encode()
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Kind, err)
	}
	if err := b.send(ctx, conn, data); err != nil {
		b.metrics.sendFailed()
		return &TransportError{ConnID: conn.ID(), Err: err}
	}
	return nil
}

func (b *Broadcaster) send(ctx context.Context, conn Conn, data []byte) error {
	if conn.Closed() {
		return ErrConnClosed
	}
	sendCtx, cancel := context.WithTimeout(ctx, b.writeTimeout)
	defer cancel()
	return conn.Send(sendCtx, data)
}
