package systems

import (
	"math"

	"github.com/sirupsen/logrus"

	"ratingcore/internal/numerics"
	"ratingcore/internal/rating"
)

// BARConfig configures the Bayesian Approximation Ranking system
// (spec.md 4.3.2).
type BARConfig struct {
	Beta     float64
	SigDrift float64
	Kappa    float64 // floor on the multiplicative sigma decay, default 1e-4
}

// DefaultBARConfig returns the spec.md 6 defaults: same beta/sigDrift as
// Glicko, kappa = 1e-4.
func DefaultBARConfig() BARConfig {
	return BARConfig{
		Beta:     400 * numerics.K / math.Ln10,
		SigDrift: 35,
		Kappa:    1e-4,
	}
}

// BAR implements the Bayesian Approximation Ranking system.
type BAR struct {
	Config BARConfig
	log    *logrus.Logger
}

// NewBAR constructs a BAR system with the given config and logger.
func NewBAR(cfg BARConfig, log *logrus.Logger) *BAR {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &BAR{Config: cfg, log: log}
}

// RoundUpdate implements System.
func (s *BAR) RoundUpdate(contestWeight float64, standings []Standing) {
	n := len(standings)
	if n == 0 {
		return
	}
	beta := s.Config.Beta
	sigmaPerf := beta / math.Sqrt(contestWeight)

	cache := make([]glickoCache, n)
	for i, st := range standings {
		st.Player.CollapseNoise(s.Config.SigDrift)
		r := st.Player.ApproxPosterior
		cache[i] = glickoCache{rating: r, lo: st.Lo}
	}

	for i, st := range standings {
		me := cache[i]
		var update float64
		for j, foe := range cache {
			if j == i {
				continue
			}
			c2 := me.rating.Sigma*me.rating.Sigma + foe.rating.Sigma*foe.rating.Sigma + 2*sigmaPerf*sigmaPerf
			p := numerics.LogisticCDF((me.rating.Mu - foe.rating.Mu) / math.Sqrt(c2))
			update += outcome(me.lo, foe.lo) - p
		}
		update /= float64(n)

		info := 0.25 / (me.rating.Sigma*me.rating.Sigma + 2*sigmaPerf*sigmaPerf) // spec.md 4.3.2/9: single-match heuristic

		decay := 1 - info*me.rating.Sigma*me.rating.Sigma
		if decay < s.Config.Kappa {
			decay = s.Config.Kappa
			s.log.WithFields(logrus.Fields{"player_mu": me.rating.Mu}).Debug("bar: sigma decay floored at kappa")
		}
		newSigma := me.rating.Sigma * math.Sqrt(decay)
		newMu := me.rating.Mu + update*me.rating.Sigma*me.rating.Sigma

		perf := rating.Rating{Mu: newMu, Sigma: newSigma}
		st.Player.UpdateRating(perf, newMu)
	}
}
