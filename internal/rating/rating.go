// Package rating holds the two scalar value types shared by every rating
// system: Rating, a Gaussian belief (mu, sigma), and TanhTerm, its
// logistic-equivalent representation used by the robust-average solves.
package rating

import (
	"math"

	"ratingcore/internal/numerics"
)

// Rating is a scalar Gaussian belief about a player's latent skill.
// Sigma must always be > 0.
type Rating struct {
	Mu    float64
	Sigma float64
}

// WithNoise returns a new Rating whose variance has grown by nu^2,
// representing simulation-clock drift since the last observation.
// WithNoise(0) is the identity.
func (r Rating) WithNoise(nu float64) Rating {
	return Rating{Mu: r.Mu, Sigma: math.Hypot(r.Sigma, nu)}
}

// TowardsNoise pulls r towards a target rating L: the result keeps a
// fraction d of r's distance from L's mean (d=1 leaves r's mean as is,
// d=0 lands on L's), and its variance is L.Sigma^2 plus d^2 times
// (sigma^2 - L.Sigma^2). None of the player noise strategies call it.
func (r Rating) TowardsNoise(d float64, target Rating) Rating {
	mu := target.Mu + d*(r.Mu-target.Mu)
	variance := target.Sigma*target.Sigma + d*d*(r.Sigma*r.Sigma-target.Sigma*target.Sigma)
	return Rating{Mu: mu, Sigma: math.Sqrt(variance)}
}

// TanhTerm is the logistic-factor representation of a Rating: its
// contribution to the log-likelihood derivative at x is
// -tanh((x-Mu)*WArg) * WOut.
type TanhTerm struct {
	Mu   float64
	WArg float64
	WOut float64
}

// NewTanhTerm converts a Rating into its tanh-factor form:
// w = pi/(sigma*sqrt(3)), WArg = w/2, WOut = w.
func NewTanhTerm(r Rating) TanhTerm {
	w := math.Pi / (r.Sigma * math.Sqrt(3))
	return TanhTerm{Mu: r.Mu, WArg: w / 2, WOut: w}
}

// BaseValue returns the tanh term's log-likelihood-derivative
// contribution at x.
func (t TanhTerm) BaseValue(x float64) float64 {
	return -math.Tanh((x-t.Mu)*t.WArg) * t.WOut
}

// BaseValueDerivative returns d/dx of BaseValue at x.
func (t TanhTerm) BaseValueDerivative(x float64) float64 {
	th := math.Tanh((x - t.Mu) * t.WArg)
	return -(1 - th*th) * t.WArg * t.WOut
}

// EffectivePrecision is the tanh term's implied Gaussian precision weight:
// WArg*WOut*2/(pi/sqrt(3))^2.
func (t TanhTerm) EffectivePrecision() float64 {
	return t.WArg * t.WOut * 2 / (numerics.K * numerics.K)
}

// AsNumericsTerm adapts a TanhTerm to the numerics.Term shape expected by
// RobustAverage.
func (t TanhTerm) AsNumericsTerm() numerics.Term {
	return numerics.Term{Mu: t.Mu, WArg: t.WArg, WOut: t.WOut}
}
