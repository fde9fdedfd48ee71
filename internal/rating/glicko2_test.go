package rating

import (
	"testing"

	"github.com/jason-s-yu/chesslive/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestRate1v1(t *testing.T) {
	white := models.User{Username: "a", Rating: 1500}
	black := models.User{Username: "b", Rating: 1500}

	w, b := Rate1v1(white, black, models.ResultWhiteWins)
	assert.Greater(t, w.Rating, 1500, "winner's rating should go up")
	assert.Less(t, b.Rating, 1500, "loser's rating should go down")
	assert.Less(t, w.Phi, DefaultRD, "deviation shrinks after a game")

	w, b = Rate1v1(white, black, models.ResultDraw)
	assert.Equal(t, 1500, w.Rating)
	assert.Equal(t, 1500, b.Rating)
}

func TestRate1v1UnknownResult(t *testing.T) {
	white := models.User{Rating: 1600}
	black := models.User{Rating: 1400}

	w, b := Rate1v1(white, black, "")
	assert.Equal(t, white, w)
	assert.Equal(t, black, b)
}

func TestUpsetMovesMoreThanExpectedWin(t *testing.T) {
	strong := models.User{Rating: 1800}
	weak := models.User{Rating: 1400}

	_, upset := Rate1v1(strong, weak, models.ResultBlackWins)
	favored, _ := Rate1v1(strong, weak, models.ResultWhiteWins)

	assert.Greater(t, upset.Rating-1400, favored.Rating-1800)
}

func TestGlicko2Example(t *testing.T) {
	// Example from Glickman's Glicko-2 paper, first opponent only.
	r := NewGlicko2Rating(1500, 200, 0.06)
	opp := NewGlicko2Rating(1400, 30, 0.06)

	got := update(r, opp, 1)
	assert.InDelta(t, 1563.6, got.Display(), 1.0)
	assert.InDelta(t, 0.06, got.Sigma, 0.001)
}
