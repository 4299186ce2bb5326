package systems

import (
	"math"

	"github.com/sirupsen/logrus"

	"ratingcore/internal/numerics"
	"ratingcore/internal/rating"
)

// GlickoConfig configures the Glicko system (spec.md 4.3.1).
type GlickoConfig struct {
	Beta     float64 // performance sd
	SigDrift float64
}

// DefaultGlickoConfig returns the spec.md 6 system defaults:
// beta = 400*k/ln(10), sigDrift = 35.
func DefaultGlickoConfig() GlickoConfig {
	return GlickoConfig{
		Beta:     400 * numerics.K / math.Ln10,
		SigDrift: 35,
	}
}

// Glicko implements the Glicko rating system.
type Glicko struct {
	Config GlickoConfig
	log    *logrus.Logger
}

// NewGlicko constructs a Glicko system with the given config and logger.
func NewGlicko(cfg GlickoConfig, log *logrus.Logger) *Glicko {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Glicko{Config: cfg, log: log}
}

type glickoCache struct {
	rating rating.Rating
	lo     int
	g      float64
}

// RoundUpdate implements System.
func (s *Glicko) RoundUpdate(contestWeight float64, standings []Standing) {
	n := len(standings)
	if n == 0 {
		return
	}
	if n == 1 {
		s.log.WithField("field_size", n).Debug("glicko: single-entrant round, mu unchanged, sigma still shrinks")
	}
	beta := s.Config.Beta

	cache := make([]glickoCache, n)
	for i, st := range standings {
		st.Player.CollapseNoise(s.Config.SigDrift)
		r := st.Player.ApproxPosterior
		g := 1 / math.Sqrt(1+(r.Sigma/beta)*(r.Sigma/beta))
		cache[i] = glickoCache{rating: r, lo: st.Lo, g: g}
	}

	for i, st := range standings {
		me := cache[i]
		var update float64
		for j, foe := range cache {
			if j == i {
				continue
			}
			p := numerics.LogisticCDF((me.rating.Mu - foe.rating.Mu) / math.Hypot(foe.rating.Sigma, beta))
			update += foe.g * (outcome(me.lo, foe.lo) - p)
		}
		update /= float64(n)

		info := 0.25 // spec.md 4.3.1/9: one-highly-informative-match heuristic, overrides Fisher info
		q := numerics.K / beta
		info *= q * q

		newSigma := math.Sqrt(1 / (1/(me.rating.Sigma*me.rating.Sigma) + info))
		newMu := me.rating.Mu + q*newSigma*newSigma*update

		perf := rating.Rating{Mu: newMu, Sigma: newSigma}
		st.Player.UpdateRating(perf, newMu)
	}
}
