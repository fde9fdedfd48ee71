// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the game endpoint.
const (
	BadSubprotocolError websocket.StatusCode = 3000 // Client connected without the "chess" subprotocol.
)

// Subprotocol is the WebSocket subprotocol clients must request.
const Subprotocol = "chess"
