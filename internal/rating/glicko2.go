// internal/rating/glicko2.go
package rating

import "math"

const (
	// GlickoScale converts between the 1500-based display scale and Glicko2's mu.
	GlickoScale = 173.7178
	// DefaultRating is the starting display rating.
	DefaultRating = 1500.0
	// DefaultRD is the starting rating deviation on the display scale.
	DefaultRD = 350.0
	// DefaultSigma is the starting volatility.
	DefaultSigma = 0.06
	// Tau constrains volatility changes between rating periods.
	Tau = 0.5
	// Epsilon is the convergence tolerance of the volatility iteration.
	Epsilon = 0.000001
)

// Glicko2Rating is a rating in Glicko2 space.
type Glicko2Rating struct {
	Mu    float64
	Phi   float64
	Sigma float64
}

// NewGlicko2Rating converts a display rating and deviation into Glicko2 space.
func NewGlicko2Rating(rating, rd, sigma float64) Glicko2Rating {
	return Glicko2Rating{
		Mu:    (rating - DefaultRating) / GlickoScale,
		Phi:   rd / GlickoScale,
		Sigma: sigma,
	}
}

// Display returns the 1500-based rating.
func (r Glicko2Rating) Display() float64 {
	return r.Mu*GlickoScale + DefaultRating
}

// RD returns the rating deviation on the display scale.
func (r Glicko2Rating) RD() float64 {
	return r.Phi * GlickoScale
}

// update applies a single game against opp with score in [0..1].
func update(r, opp Glicko2Rating, score float64) Glicko2Rating {
	gVal := g(opp.Phi)
	eVal := expected(r.Mu, opp.Mu, opp.Phi)

	v := 1.0 / (gVal * gVal * eVal * (1 - eVal))
	delta := v * gVal * (score - eVal)

	// volatility: Illinois variant of regula falsi
	a := math.Log(r.Sigma * r.Sigma)
	fn := func(x float64) float64 { return f(x, r.Phi, v, delta, a) }

	A := a
	var B float64
	if delta*delta > r.Phi*r.Phi+v {
		B = math.Log(delta*delta - r.Phi*r.Phi - v)
	} else {
		k := 1.0
		for fn(a-k*Tau) < 0 {
			k++
		}
		B = a - k*Tau
	}
	fA, fB := fn(A), fn(B)
	for i := 0; i < 100 && math.Abs(B-A) > Epsilon; i++ {
		C := A + (A-B)*fA/(fB-fA)
		fC := fn(C)
		if fC*fB <= 0 {
			A, fA = B, fB
		} else {
			fA /= 2
		}
		B, fB = C, fC
	}
	sigma := math.Exp(A / 2)

	phiStar := math.Sqrt(r.Phi*r.Phi + sigma*sigma)
	phi := 1.0 / math.Sqrt(1.0/(phiStar*phiStar)+1.0/v)
	return Glicko2Rating{
		Mu:    r.Mu + phi*phi*gVal*(score-eVal),
		Phi:   phi,
		Sigma: sigma,
	}
}

func g(phi float64) float64 {
	return 1.0 / math.Sqrt(1.0+3.0*phi*phi/(math.Pi*math.Pi))
}

func expected(mu, oppMu, oppPhi float64) float64 {
	return 1.0 / (1.0 + math.Exp(-g(oppPhi)*(mu-oppMu)))
}

func f(x, phi, v, delta, a float64) float64 {
	ex := math.Exp(x)
	num := ex * (delta*delta - phi*phi - v - ex)
	den := 2.0 * (phi*phi + v + ex) * (phi*phi + v + ex)
	return num/den - (x-a)/(Tau*Tau)
}
