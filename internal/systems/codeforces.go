package systems

import (
	"math"

	"github.com/sirupsen/logrus"

	"ratingcore/internal/metrics"
	"ratingcore/internal/numerics"
	"ratingcore/internal/rating"
)

// CodeforcesConfig configures the Codeforces-like system (spec.md 4.3.3).
type CodeforcesConfig struct {
	Beta         float64
	SystemWeight float64
}

// DefaultCodeforcesConfig returns the spec.md 6 defaults: same beta as
// Glicko, weight = 1.
func DefaultCodeforcesConfig() CodeforcesConfig {
	return CodeforcesConfig{
		Beta:         400 * numerics.K / math.Ln10,
		SystemWeight: 1,
	}
}

// Codeforces implements the Codeforces-like rating system.
type Codeforces struct {
	Config CodeforcesConfig
	log    *logrus.Logger
}

// NewCodeforces constructs a Codeforces-like system.
func NewCodeforces(cfg CodeforcesConfig, log *logrus.Logger) *Codeforces {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Codeforces{Config: cfg, log: log}
}

// RoundUpdate implements System.
//
// Each entrant's geoRank is the geometric mean of their actual standing
// position (acRank: a sig-scaled count of the field strictly better or
// worse than them, plus a continuity term) and their expected position
// implied by pairwise logistic win probabilities against the whole field
// (exRank) — spec.md 4.3.3, matching the original Elo-MMR codeforces
// system's ac_rank/ex_rank/geo_rank construction exactly (every entrant
// shares the same performance sigma this round, so the 1/sig terms
// common to both ranks factor out consistently). geoRank is converted to
// an offset and solved as a robust average over every entrant's tanh
// term (including the player's own); when the field is fully tied,
// geoOffset is 0 and the solved performance is the common prior mu.
func (s *Codeforces) RoundUpdate(contestWeight float64, standings []Standing) {
	n := len(standings)
	if n == 0 {
		return
	}
	sigPerf := s.Config.Beta / math.Sqrt(contestWeight)
	wt := contestWeight * s.Config.SystemWeight
	invSig := 1 / sigPerf
	allOffset := float64(n) * invSig

	mus := make([]float64, n)
	terms := make([]numerics.Term, n)
	for i, st := range standings {
		mus[i] = st.Player.ApproxPosterior.Mu
		terms[i] = rating.NewTanhTerm(rating.Rating{Mu: mus[i], Sigma: sigPerf}).AsNumericsTerm()
	}

	for i, st := range standings {
		myMu := mus[i]

		posOffset := float64(st.Lo) * invSig
		negOffset := float64(n-1-st.Hi) * invSig
		acRank := 0.5 * (posOffset - negOffset + allOffset + invSig)

		exRank := 0.5 * invSig
		for _, foeMu := range mus {
			exRank += numerics.LogisticCDF((foeMu-myMu)/sigPerf) * invSig
		}

		geoRank := math.Sqrt(acRank * exRank)
		geoOffset := 2*geoRank - invSig - allOffset

		perf := numerics.RobustAverage(terms, numerics.K*geoOffset, 0, func(absG float64) {
			metrics.NewtonResidual.Observe(absG)
			metrics.NewtonNonconvergent.Inc()
			s.log.WithField("residual", absG).Warn("codeforces: seed solve did not fully converge")
		})

		newMu := (myMu + wt*perf) / (1 + wt)
		r := rating.Rating{Mu: newMu, Sigma: st.Player.ApproxPosterior.Sigma}
		st.Player.UpdateRating(r, perf)
	}
}
