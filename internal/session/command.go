// internal/session/command.go
package session

import (
	"encoding/json"
	"fmt"

	"github.com/jason-s-yu/chesslive/internal/models"
)

// CommandType is the discriminant of an inbound message.
type CommandType string

const (
	CommandJoinPlayer   CommandType = "JOIN_PLAYER"
	CommandJoinObserver CommandType = "JOIN_OBSERVER"
	CommandLeave        CommandType = "LEAVE"
	CommandResign       CommandType = "RESIGN"
	CommandMakeMove     CommandType = "MAKE_MOVE"
)

// Header holds the fields every command carries.
type Header struct {
	AuthToken string
	GameID    int
}

// Command is one of JoinPlayer, JoinObserver, Leave, Resign or MakeMove.
type Command interface {
	Type() CommandType
	Head() Header
	command()
}

type JoinPlayer struct {
	Header
	Color models.Color
}

type JoinObserver struct{ Header }

type Leave struct{ Header }

type Resign struct{ Header }

type MakeMove struct {
	Header
	Move models.Move
}

func (h Header) Head() Header { return h }
func (Header) command()       {}

func (JoinPlayer) Type() CommandType   { return CommandJoinPlayer }
func (JoinObserver) Type() CommandType { return CommandJoinObserver }
func (Leave) Type() CommandType        { return CommandLeave }
func (Resign) Type() CommandType       { return CommandResign }
func (MakeMove) Type() CommandType     { return CommandMakeMove }

// wireCommand is the JSON shape of an inbound command. Pointers distinguish
// missing fields from zero values.
type wireCommand struct {
	CommandType CommandType  `json:"commandType"`
	AuthToken   *string      `json:"authToken"`
	GameID      *int         `json:"gameID"`
	Color       *string      `json:"color,omitempty"`
	Move        *models.Move `json:"move,omitempty"`
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedCommand, fmt.Sprintf(format, args...))
}

// Decode parses one inbound message. It either returns a fully populated
// command or an error wrapping ErrMalformedCommand.
func Decode(data []byte) (Command, error) {
	var w wireCommand
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, malformed("%v", err)
	}
	if w.AuthToken == nil || *w.AuthToken == "" {
		return nil, malformed("missing authToken")
	}
	if w.GameID == nil {
		return nil, malformed("missing gameID")
	}
	h := Header{AuthToken: *w.AuthToken, GameID: *w.GameID}

	switch w.CommandType {
	case CommandJoinPlayer:
		if w.Color == nil {
			return nil, malformed("missing color")
		}
		c, ok := models.ParseColor(*w.Color)
		if !ok {
			return nil, malformed("invalid color %q", *w.Color)
		}
		return JoinPlayer{Header: h, Color: c}, nil
	case CommandJoinObserver:
		return JoinObserver{Header: h}, nil
	case CommandLeave:
		return Leave{Header: h}, nil
	case CommandResign:
		return Resign{Header: h}, nil
	case CommandMakeMove:
		if w.Move == nil {
			return nil, malformed("missing move")
		}
		if !w.Move.Valid() {
			return nil, malformed("invalid move %q", w.Move.UCI())
		}
		return MakeMove{Header: h, Move: *w.Move}, nil
	case "":
		return nil, malformed("missing commandType")
	default:
		return nil, malformed("unknown commandType %q", w.CommandType)
	}
}

// Encode renders a command in its wire form.
func Encode(cmd Command) ([]byte, error) {
	h := cmd.Head()
	w := wireCommand{
		CommandType: cmd.Type(),
		AuthToken:   &h.AuthToken,
		GameID:      &h.GameID,
	}
	switch c := cmd.(type) {
	case JoinPlayer:
		color := string(c.Color)
		w.Color = &color
	case MakeMove:
		mv := c.Move
		w.Move = &mv
	}
	return json.Marshal(w)
}
