// internal/session/dispatcher.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/chesslive/internal/models"
	"github.com/sirupsen/logrus"
)

// Dispatcher runs session commands against the game store and rules engine
// and decides who hears about the result. Commands for the same game are
// serialized; commands for different games run in parallel.
type Dispatcher struct {
	auth     AuthResolver
	games    GameStore
	rules    RulesEngine
	registry *Registry
	out      *Broadcaster
	locks    *keyedMutex
	logger   *logrus.Logger

	metrics *Metrics
	moves   MoveRecorder
	results ResultRecorder
	now     func() time.Time
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithMetrics records command outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithMoveRecorder publishes every accepted move to r.
func WithMoveRecorder(r MoveRecorder) Option {
	return func(d *Dispatcher) { d.moves = r }
}

// WithResultRecorder reports finished games to r.
func WithResultRecorder(r ResultRecorder) Option {
	return func(d *Dispatcher) { d.results = r }
}

func NewDispatcher(auth AuthResolver, games GameStore, rules RulesEngine, registry *Registry, out *Broadcaster, logger *logrus.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		auth:     auth,
		games:    games,
		rules:    rules,
		registry: registry,
		out:      out,
		locks:    newKeyedMutex(),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle decodes one inbound message from conn and dispatches it. Malformed
// messages are answered with an ERROR and the connection stays usable.
func (d *Dispatcher) Handle(ctx context.Context, conn Conn, data []byte) {
	// A command that started runs to completion even if the reader goes away.
	ctx = context.WithoutCancel(ctx)

	cmd, err := Decode(data)
	if err != nil {
		d.metrics.observeCommand("UNKNOWN", "malformed")
		d.logger.WithFields(logrus.Fields{"conn": conn.ID(), "error": err}).Warn("malformed command")
		d.answer(ctx, conn, err)
		return
	}
	_ = d.Dispatch(ctx, conn, cmd)
}

// Dispatch runs cmd for conn and returns the error that was answered to the
// client, if any. Broadcast failures towards other connections are logged and
// do not fail the command.
func (d *Dispatcher) Dispatch(ctx context.Context, conn Conn, cmd Command) error {
	h := cmd.Head()
	unlock := d.locks.Lock(h.GameID)
	defer unlock()

	var err error
	switch c := cmd.(type) {
	case JoinPlayer:
		err = d.joinPlayer(ctx, conn, c)
	case JoinObserver:
		err = d.joinObserver(ctx, conn, c)
	case Leave:
		err = d.leave(ctx, c)
	case Resign:
		err = d.resign(ctx, c)
	case MakeMove:
		err = d.makeMove(ctx, c)
	default:
		err = fmt.Errorf("%w: unsupported command %T", ErrMalformedCommand, cmd)
	}

	fields := logrus.Fields{
		"game":    h.GameID,
		"command": cmd.Type(),
		"conn":    conn.ID(),
	}
	var te *TransportError
	switch {
	case err == nil:
		d.metrics.observeCommand(cmd.Type(), "ok")
		d.logger.WithFields(fields).Debug("command applied")
		return nil
	case errors.As(err, &te):
		d.metrics.observeCommand(cmd.Type(), "transport_error")
		d.logger.WithFields(fields).WithError(err).Warn("could not answer command")
		return err
	case isDomainError(err):
		d.metrics.observeCommand(cmd.Type(), "rejected")
		d.logger.WithFields(fields).WithError(err).Info("command rejected")
	default:
		d.metrics.observeCommand(cmd.Type(), "error")
		d.logger.WithFields(fields).WithError(err).Error("command failed")
	}
	d.answer(ctx, conn, err)
	return err
}

// answer sends err back to the acting connection. A finished game is reported
// as a NOTIFICATION, everything else as an ERROR.
func (d *Dispatcher) answer(ctx context.Context, conn Conn, err error) {
	var msg ServerMessage
	switch {
	case errors.Is(err, ErrGameOver):
		msg = Notification(ErrGameOver.Error())
	case isDomainError(err):
		msg = Error("Error: " + err.Error())
	default:
		msg = Error("Error: internal server error")
	}
	if sendErr := d.out.SendDirect(ctx, conn, msg); sendErr != nil {
		d.logger.WithFields(logrus.Fields{"conn": conn.ID(), "error": sendErr}).Warn("failed to send error reply")
	}
}

func (d *Dispatcher) resolve(ctx context.Context, token string) (string, error) {
	username, err := d.auth.Resolve(ctx, token)
	if err != nil {
		return "", err
	}
	if username == "" {
		return "", ErrAuthInvalid
	}
	return username, nil
}

func (d *Dispatcher) joinPlayer(ctx context.Context, conn Conn, c JoinPlayer) error {
	username, err := d.resolve(ctx, c.AuthToken)
	if err != nil {
		return err
	}
	g, err := d.games.GetGame(ctx, c.GameID)
	if err != nil {
		return err
	}
	heldBefore := g.PlayerFor(c.Color) == username
	ok, err := d.games.SetSeat(ctx, c.GameID, username, c.Color)
	if err != nil {
		return fmt.Errorf("set seat: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s is taken", ErrSeatOccupied, c.Color.Lower())
	}
	if c.Color == models.White {
		g.WhiteUsername = username
	} else {
		g.BlackUsername = username
	}

	undo := d.register(c.GameID, c.AuthToken, conn)
	if err := d.out.SendDirect(ctx, conn, LoadGame(g)); err != nil {
		undo()
		if !heldBefore {
			if _, serr := d.games.SetSeat(ctx, c.GameID, username, ""); serr != nil {
				d.logger.WithFields(logrus.Fields{"game": c.GameID, "user": username, "error": serr}).Error("failed to release seat")
			}
		}
		return err
	}
	d.announce(ctx, c.GameID, c.AuthToken, Notification(fmt.Sprintf("%s has joined as %s", username, c.Color.Lower())))
	return nil
}

func (d *Dispatcher) joinObserver(ctx context.Context, conn Conn, c JoinObserver) error {
	username, err := d.resolve(ctx, c.AuthToken)
	if err != nil {
		return err
	}
	g, err := d.games.GetGame(ctx, c.GameID)
	if err != nil {
		return err
	}

	undo := d.register(c.GameID, c.AuthToken, conn)
	if err := d.out.SendDirect(ctx, conn, LoadGame(g)); err != nil {
		undo()
		return err
	}
	d.announce(ctx, c.GameID, c.AuthToken, Notification(fmt.Sprintf("%s is watching", username)))
	return nil
}

// register adds conn under (gameID, token) and returns a func that puts back
// whatever was registered there before.
func (d *Dispatcher) register(gameID int, token string, conn Conn) (undo func()) {
	prev, hadPrev := d.registry.Lookup(gameID, token)
	d.registry.Add(gameID, token, conn)
	return func() {
		if !d.registry.RemoveConn(gameID, token, conn) {
			return
		}
		if hadPrev {
			d.registry.Add(gameID, token, prev)
		}
	}
}

func (d *Dispatcher) leave(ctx context.Context, c Leave) error {
	if _, ok := d.registry.Lookup(c.GameID, c.AuthToken); !ok {
		return nil
	}
	username, err := d.resolve(ctx, c.AuthToken)
	if err != nil {
		return err
	}
	g, err := d.games.GetGame(ctx, c.GameID)
	if err != nil {
		return err
	}
	if _, seated := g.SeatOf(username); seated {
		ok, err := d.games.SetSeat(ctx, c.GameID, username, "")
		if err != nil {
			return fmt.Errorf("clear seat: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: %d", ErrGameNotFound, c.GameID)
		}
	}

	d.registry.Remove(c.GameID, c.AuthToken)
	d.announce(ctx, c.GameID, c.AuthToken, Notification(fmt.Sprintf("%s left the game", username)))
	return nil
}

func (d *Dispatcher) resign(ctx context.Context, c Resign) error {
	if _, ok := d.registry.Lookup(c.GameID, c.AuthToken); !ok {
		return ErrNotJoined
	}
	username, err := d.resolve(ctx, c.AuthToken)
	if err != nil {
		return err
	}
	g, err := d.games.GetGame(ctx, c.GameID)
	if err != nil {
		return err
	}
	if g.Over {
		return ErrGameAlreadyOver
	}
	color, seated := g.SeatOf(username)
	if !seated {
		return ErrNotASeatedPlayer
	}

	result := GameResult{
		GameID:  g.ID,
		White:   g.WhiteUsername,
		Black:   g.BlackUsername,
		Result:  models.WinFor(color.Opponent()),
		Reason:  "resignation",
		EndedAt: d.now(),
	}
	updated := g.Clone()
	updated.Over = true
	updated.Result = result.Result
	updated.Vacate(username)
	if err := d.games.UpdateGame(ctx, updated); err != nil {
		return fmt.Errorf("update game: %w", err)
	}

	d.registry.Remove(c.GameID, c.AuthToken)
	d.announce(ctx, c.GameID, c.AuthToken, Notification(fmt.Sprintf("%s resigned, game over", username)))
	d.recordResult(ctx, result)
	return nil
}

func (d *Dispatcher) makeMove(ctx context.Context, c MakeMove) error {
	username, err := d.resolve(ctx, c.AuthToken)
	if err != nil {
		return err
	}
	g, err := d.games.GetGame(ctx, c.GameID)
	if err != nil {
		return err
	}
	if g.Over {
		return ErrGameOver
	}
	if _, seated := g.SeatOf(username); !seated {
		return ErrNotASeatedPlayer
	}
	turn, err := d.rules.Turn(g.Board)
	if err != nil {
		return fmt.Errorf("read turn: %w", err)
	}
	if g.PlayerFor(turn) != username {
		return ErrNotYourTurn
	}
	if !d.rules.IsLegal(g.Board, c.Move) {
		return fmt.Errorf("%w: %s", ErrIllegalMove, c.Move)
	}
	board, err := d.rules.Apply(g.Board, c.Move)
	if err != nil {
		return fmt.Errorf("apply %s: %w", c.Move, err)
	}

	updated := g.Clone()
	updated.Board = board
	var reason string
	if d.rules.IsTerminal(board) {
		updated.Over = true
		updated.Result, reason = d.rules.Outcome(board)
	}
	if err := d.games.UpdateGame(ctx, updated); err != nil {
		return fmt.Errorf("update game: %w", err)
	}

	d.announce(ctx, c.GameID, "", LoadGame(updated))
	d.announce(ctx, c.GameID, "", Notification(fmt.Sprintf("%s made a move: %s", username, c.Move)))
	if updated.Over {
		d.announce(ctx, c.GameID, "", Notification(fmt.Sprintf("game over: %s (%s)", reason, updated.Result)))
	}

	d.recordMove(ctx, MoveRecord{
		GameID:    c.GameID,
		Username:  username,
		Move:      c.Move.UCI(),
		Board:     board,
		Timestamp: d.now().UnixMilli(),
	})
	if updated.Over {
		d.recordResult(ctx, GameResult{
			GameID:  g.ID,
			White:   g.WhiteUsername,
			Black:   g.BlackUsername,
			Result:  updated.Result,
			Reason:  reason,
			EndedAt: d.now(),
		})
	}
	return nil
}

// announce broadcasts msg; per-connection failures are already logged by the
// broadcaster and do not fail the command.
func (d *Dispatcher) announce(ctx context.Context, gameID int, excludeToken string, msg ServerMessage) {
	_ = d.out.Broadcast(ctx, gameID, excludeToken, msg)
}

func (d *Dispatcher) recordMove(ctx context.Context, rec MoveRecord) {
	if d.moves == nil {
		return
	}
	if err := d.moves.RecordMove(ctx, rec); err != nil {
		d.logger.WithFields(logrus.Fields{"game": rec.GameID, "move": rec.Move, "error": err}).Warn("failed to record move")
	}
}

func (d *Dispatcher) recordResult(ctx context.Context, res GameResult) {
	if d.results == nil || res.White == "" || res.Black == "" {
		return
	}
	if err := d.results.RecordResult(ctx, res); err != nil {
		d.logger.WithFields(logrus.Fields{"game": res.GameID, "error": err}).Warn("failed to record result")
	}
}
