package systems

import (
	"math"

	"github.com/sirupsen/logrus"

	"ratingcore/internal/numerics"
	"ratingcore/internal/rating"
)

// TopcoderConfig configures the Topcoder-like system (spec.md 4.3.4).
type TopcoderConfig struct {
	WeightMultiplier float64
}

// DefaultTopcoderConfig returns the spec.md 6 default: weightMultiplier=1.
func DefaultTopcoderConfig() TopcoderConfig {
	return TopcoderConfig{WeightMultiplier: 1}
}

// Topcoder implements the Topcoder-like rating system.
type Topcoder struct {
	Config TopcoderConfig
	log    *logrus.Logger
}

// NewTopcoder constructs a Topcoder-like system.
func NewTopcoder(cfg TopcoderConfig, log *logrus.Logger) *Topcoder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Topcoder{Config: cfg, log: log}
}

// numContestsBefore returns the number of contests a player competed in
// prior to the one currently being scored (the just-pushed placeholder
// event does not count).
func numContestsBefore(st Standing) int {
	n := len(st.Player.EventHistory)
	if n == 0 {
		return 0
	}
	return n - 1
}

// RoundUpdate implements System.
func (s *Topcoder) RoundUpdate(contestWeight float64, standings []Standing) {
	n := len(standings)
	if n == 0 {
		return
	}

	mus := make([]float64, n)
	sigmas := make([]float64, n)
	for i, st := range standings {
		mus[i] = st.Player.ApproxPosterior.Mu
		sigmas[i] = st.Player.ApproxPosterior.Sigma
	}

	var meanVolSq, meanMu float64
	for i := range standings {
		meanVolSq += sigmas[i] * sigmas[i]
		meanMu += mus[i]
	}
	meanVolSq /= float64(n)
	meanMu /= float64(n)

	var sampleVarMu float64
	if n > 1 {
		for _, mu := range mus {
			sampleVarMu += (mu - meanMu) * (mu - meanMu)
		}
		sampleVarMu /= float64(n - 1)
	}
	cFactor := math.Sqrt(meanVolSq + sampleVarMu)

	const wL = 1/0.82 - 1
	weightMultiplier := s.Config.WeightMultiplier
	capMultiplier := weightMultiplier * (1 + wL) / (1 + wL*weightMultiplier)

	for i, st := range standings {
		myMu, mySigma := mus[i], sigmas[i]

		exRank := 1.0
		for j := range standings {
			if j == i {
				continue
			}
			exRank += numerics.NormalCDF((mus[j] - myMu) / math.Hypot(mySigma, sigmas[j]))
		}
		acRank := 1 + 0.5*(float64(st.Lo)+float64(st.Hi))

		// the -0.5 continuity correction keeps (rank-0.5)/n strictly
		// inside (0,1) even for the best or worst entrant in the field,
		// where rank/n alone would hit the inverse CDF's asymptote.
		exPerf := -numerics.NormalInverseCDF((exRank - 0.5) / float64(n))
		acPerf := -numerics.NormalInverseCDF((acRank - 0.5) / float64(n))
		perfAs := myMu + cFactor*(acPerf-exPerf)

		// numContests counts this contest itself, matching the original
		// Topcoder formula's denominator convention (avoids a div-by-zero
		// on a player's very first rated contest).
		numContests := numContestsBefore(st) + 1
		weight := (1/(0.82-0.42/float64(numContests)) - 1) * weightMultiplier
		switch {
		case myMu >= 2500:
			weight *= 0.8
		case myMu >= 2000:
			weight *= 0.9
		}

		cap := (150 + 1500/float64(numContests+1)) * capMultiplier

		try := (myMu + weight*perfAs) / (1 + weight)
		if try < myMu-cap {
			try = myMu - cap
			s.log.WithField("player_mu", myMu).Debug("topcoder: delta clamped at lower cap")
		} else if try > myMu+cap {
			try = myMu + cap
			s.log.WithField("player_mu", myMu).Debug("topcoder: delta clamped at upper cap")
		}

		newSigma := math.Sqrt((try-myMu)*(try-myMu)/weight + mySigma*mySigma/(1+weight))

		r := rating.Rating{Mu: try, Sigma: newSigma}
		st.Player.UpdateRating(r, perfAs)
	}
}
