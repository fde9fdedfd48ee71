package rating

import (
	"math"

	"github.com/jason-s-yu/chesslive/internal/models"
)

// Scores returns white's and black's score for a PGN result. ok is false for
// unknown results.
func Scores(result string) (white, black float64, ok bool) {
	switch result {
	case models.ResultWhiteWins:
		return 1, 0, true
	case models.ResultBlackWins:
		return 0, 1, true
	case models.ResultDraw:
		return 0.5, 0.5, true
	}
	return 0, 0, false
}

// Rate1v1 updates both players after one game. Users without rating state
// start from the defaults.
func Rate1v1(white, black models.User, result string) (models.User, models.User) {
	ws, bs, ok := Scores(result)
	if !ok {
		return white, black
	}
	wr, br := toGlicko(white), toGlicko(black)
	return fromGlicko(white, update(wr, br, ws)), fromGlicko(black, update(br, wr, bs))
}

func toGlicko(u models.User) Glicko2Rating {
	rating, rd, sigma := float64(u.Rating), u.Phi, u.Sigma
	if u.Rating == 0 {
		rating = DefaultRating
	}
	if rd == 0 {
		rd = DefaultRD
	}
	if sigma == 0 {
		sigma = DefaultSigma
	}
	return NewGlicko2Rating(rating, rd, sigma)
}

func fromGlicko(u models.User, r Glicko2Rating) models.User {
	u.Rating = int(math.Round(r.Display()))
	u.Phi = r.RD()
	u.Sigma = r.Sigma
	return u
}
