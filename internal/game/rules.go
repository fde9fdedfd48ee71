// internal/game/rules.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/chesslive/internal/models"
	"github.com/jason-s-yu/chesslive/internal/session"
	"github.com/notnil/chess"
)

// StartingBoard is the standard initial position in FEN.
const StartingBoard = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var promotions = map[string]chess.PieceType{
	"":  chess.NoPieceType,
	"q": chess.Queen,
	"r": chess.Rook,
	"b": chess.Bishop,
	"n": chess.Knight,
}

// ChessRules implements session.RulesEngine with standard chess rules. Boards
// are exchanged as FEN strings, so positions carry no move history and draws
// by repetition are never detected.
type ChessRules struct{}

var _ session.RulesEngine = ChessRules{}

// load rebuilds a game positioned at board.
func (ChessRules) load(board string) (*chess.Game, error) {
	opt, err := chess.FEN(board)
	if err != nil {
		return nil, fmt.Errorf("decode board %q: %w", board, err)
	}
	return chess.NewGame(opt), nil
}

// find returns the legal move matching m, or nil.
func (ChessRules) find(g *chess.Game, m models.Move) *chess.Move {
	promo, ok := promotions[m.Promotion]
	if !ok {
		return nil
	}
	for _, mv := range g.ValidMoves() {
		if mv.S1().String() == m.From && mv.S2().String() == m.To && mv.Promo() == promo {
			return mv
		}
	}
	return nil
}

func (r ChessRules) IsLegal(board string, m models.Move) bool {
	g, err := r.load(board)
	if err != nil || g.Outcome() != chess.NoOutcome {
		return false
	}
	return r.find(g, m) != nil
}

func (r ChessRules) Apply(board string, m models.Move) (string, error) {
	g, err := r.load(board)
	if err != nil {
		return "", err
	}
	if g.Outcome() != chess.NoOutcome {
		return "", fmt.Errorf("%w: position is final", session.ErrIllegalMove)
	}
	mv := r.find(g, m)
	if mv == nil {
		return "", fmt.Errorf("%w: %s", session.ErrIllegalMove, m)
	}
	if err := g.Move(mv); err != nil {
		return "", fmt.Errorf("%w: %v", session.ErrIllegalMove, err)
	}
	return g.Position().String(), nil
}

func (r ChessRules) IsTerminal(board string) bool {
	g, err := r.load(board)
	if err != nil {
		return false
	}
	return g.Outcome() != chess.NoOutcome
}

func (r ChessRules) Turn(board string) (models.Color, error) {
	g, err := r.load(board)
	if err != nil {
		return "", err
	}
	if g.Position().Turn() == chess.White {
		return models.White, nil
	}
	return models.Black, nil
}

func (r ChessRules) Outcome(board string) (string, string) {
	g, err := r.load(board)
	if err != nil || g.Outcome() == chess.NoOutcome {
		return "", ""
	}
	return string(g.Outcome()), describeMethod(g.Method())
}

func describeMethod(m chess.Method) string {
	switch m {
	case chess.Checkmate:
		return "checkmate"
	case chess.Stalemate:
		return "stalemate"
	case chess.InsufficientMaterial:
		return "insufficient material"
	case chess.FivefoldRepetition, chess.ThreefoldRepetition:
		return "repetition"
	case chess.SeventyFiveMoveRule, chess.FiftyMoveRule:
		return "move rule"
	}
	return "game ended"
}
