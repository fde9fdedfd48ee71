package game

import (
	"testing"

	"github.com/jason-s-yu/chesslive/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mv(from, to string) models.Move {
	return models.Move{From: from, To: to}
}

func play(t *testing.T, board string, moves ...models.Move) string {
	t.Helper()
	r := ChessRules{}
	for _, m := range moves {
		require.True(t, r.IsLegal(board, m), "%s should be legal on %s", m, board)
		next, err := r.Apply(board, m)
		require.NoError(t, err)
		board = next
	}
	return board
}

func TestStartingPosition(t *testing.T) {
	r := ChessRules{}

	turn, err := r.Turn(StartingBoard)
	require.NoError(t, err)
	assert.Equal(t, models.White, turn)
	assert.False(t, r.IsTerminal(StartingBoard))

	result, reason := r.Outcome(StartingBoard)
	assert.Empty(t, result)
	assert.Empty(t, reason)
}

func TestLegality(t *testing.T) {
	r := ChessRules{}
	assert.True(t, r.IsLegal(StartingBoard, mv("e2", "e4")))
	assert.True(t, r.IsLegal(StartingBoard, mv("g1", "f3")))
	assert.False(t, r.IsLegal(StartingBoard, mv("e2", "e5")))
	assert.False(t, r.IsLegal(StartingBoard, mv("e7", "e5")), "black cannot move first")
	assert.False(t, r.IsLegal(StartingBoard, models.Move{From: "e2", To: "e4", Promotion: "q"}))
	assert.False(t, r.IsLegal("not a fen", mv("e2", "e4")))
}

func TestApplyAdvancesTurn(t *testing.T) {
	r := ChessRules{}
	board := play(t, StartingBoard, mv("e2", "e4"))

	turn, err := r.Turn(board)
	require.NoError(t, err)
	assert.Equal(t, models.Black, turn)
	assert.Contains(t, board, "4P3")

	_, err = r.Apply(board, mv("d2", "d4"))
	assert.Error(t, err)
}

func TestPromotion(t *testing.T) {
	r := ChessRules{}
	board := "8/P6k/8/8/8/8/8/K7 w - - 0 1"

	assert.False(t, r.IsLegal(board, mv("a7", "a8")), "promotion piece is required")
	next, err := r.Apply(board, models.Move{From: "a7", To: "a8", Promotion: "n"})
	require.NoError(t, err)
	assert.Contains(t, next, "N7/")
}

func TestFoolsMate(t *testing.T) {
	r := ChessRules{}
	board := play(t, StartingBoard, mv("f2", "f3"), mv("e7", "e5"), mv("g2", "g4"), mv("d8", "h4"))

	assert.True(t, r.IsTerminal(board))
	result, reason := r.Outcome(board)
	assert.Equal(t, models.ResultBlackWins, result)
	assert.Equal(t, "checkmate", reason)
	assert.False(t, r.IsLegal(board, mv("e2", "e4")))
}

func TestStalemate(t *testing.T) {
	r := ChessRules{}
	// Black to move, no legal moves, not in check.
	board := "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"

	assert.True(t, r.IsTerminal(board))
	result, reason := r.Outcome(board)
	assert.Equal(t, models.ResultDraw, result)
	assert.Equal(t, "stalemate", reason)
}
