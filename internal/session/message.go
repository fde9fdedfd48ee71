package session

import (
	"encoding/json"

	"github.com/jason-s-yu/chesslive/internal/models"
)

// MessageKind discriminates outbound messages.
type MessageKind string

const (
	KindNotification MessageKind = "NOTIFICATION"
	KindLoadGame     MessageKind = "LOAD_GAME"
	KindError        MessageKind = "ERROR"
)

// ServerMessage is everything the server pushes to a client.
type ServerMessage struct {
	Kind    MessageKind  `json:"kind"`
	Message string       `json:"message,omitempty"`
	Game    *models.Game `json:"game,omitempty"`
}

func Notification(text string) ServerMessage {
	return ServerMessage{Kind: KindNotification, Message: text}
}

func LoadGame(g *models.Game) ServerMessage {
	return ServerMessage{Kind: KindLoadGame, Game: g}
}

func Error(text string) ServerMessage {
	return ServerMessage{Kind: KindError, Message: text}
}

func (m ServerMessage) encode() ([]byte, error) {
	return json.Marshal(m)
}
