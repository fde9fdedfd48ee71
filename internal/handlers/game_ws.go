// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/chesslive/internal/middleware"
	"github.com/jason-s-yu/chesslive/internal/session"
	"github.com/sirupsen/logrus"
)

// wsConn adapts a WebSocket to session.Conn. Once a write fails or the read
// loop exits the connection reports itself closed so broadcasts prune it.
type wsConn struct {
	id     string
	c      *websocket.Conn
	closed atomic.Bool
}

var _ session.Conn = (*wsConn)(nil)

func newWSConn(c *websocket.Conn) *wsConn {
	return &wsConn{id: uuid.NewString(), c: c}
}

func (w *wsConn) ID() string { return w.id }

func (w *wsConn) Closed() bool { return w.closed.Load() }

// Send writes one text frame. coder/websocket tears the connection down when a
// write times out, so any write error leaves the connection closed.
func (w *wsConn) Send(ctx context.Context, data []byte) error {
	if w.closed.Load() {
		return session.ErrConnClosed
	}
	if err := w.c.Write(ctx, websocket.MessageText, data); err != nil {
		w.closed.Store(true)
		return fmt.Errorf("%w: %v", session.ErrConnClosed, err)
	}
	return nil
}

// GameWSHandler upgrades the request to a WebSocket speaking the chess
// session protocol. Every text frame is handed to the dispatcher; the
// connection carries its own auth tokens per command, so the upgrade itself
// is unauthenticated.
func GameWSHandler(logger *logrus.Logger, d *session.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.WithError(err).Warn("WebSocket accept error")
			return
		}
		defer c.Close(websocket.StatusInternalError, "internal server error")

		if c.Subprotocol() != Subprotocol {
			logger.WithField("subprotocol", c.Subprotocol()).Warn("client connected with invalid subprotocol")
			c.Close(BadSubprotocolError, "client must use the 'chess' subprotocol")
			return
		}

		conn := newWSConn(c)
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		err = readCommands(r.Context(), c, conn, d, logger)
		conn.closed.Store(true)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readCommands blocks until the client goes away. Normal closures return nil.
func readCommands(ctx context.Context, c *websocket.Conn, conn *wsConn, d *session.Dispatcher, logger *logrus.Logger) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			logger.WithField("conn", conn.ID()).Warn("ignoring non-text message")
			continue
		}
		d.Handle(ctx, conn, data)
	}
}
