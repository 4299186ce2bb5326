package systems

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"ratingcore/internal/metrics"
	"ratingcore/internal/numerics"
	"ratingcore/internal/rating"
)

// TrueSkillConfig configures the TrueSkill-through-factor-graph system
// (spec.md 4.3.5).
type TrueSkillConfig struct {
	Epsilon        float64 // tie threshold
	Beta           float64
	ConvergenceEps float64
	SigDrift       float64
	MaxSweeps      int
}

// DefaultTrueSkillConfig returns the spec.md 6 defaults: eps=1, beta=175,
// convergenceEps=1e-4, sigDrift=35.
func DefaultTrueSkillConfig() TrueSkillConfig {
	return TrueSkillConfig{
		Epsilon:        1,
		Beta:           175,
		ConvergenceEps: 1e-4,
		SigDrift:       35,
		MaxSweeps:      64,
	}
}

// TrueSkill implements TrueSkill-through-a-factor-graph. Each standing is
// its own performance variable (spec.md 4.3.5's "team" of one member);
// adjacent standings sharing a tie range are linked by a Leq(epsilon)
// within-group slack factor, adjacent standings in distinct place groups
// by a Greater(2*epsilon) strict-separation factor on their performance
// difference. Messages are tracked in mu/sigma^2 form and the graph is
// swept forward/backward until the largest mean shift on any edge drops
// below ConvergenceEps, or MaxSweeps is exhausted (spec.md 7's bounded
// soft-convergence failure mode).
type TrueSkill struct {
	Config TrueSkillConfig
	log    *logrus.Logger
}

// NewTrueSkill constructs a TrueSkill system.
func NewTrueSkill(cfg TrueSkillConfig, log *logrus.Logger) *TrueSkill {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &TrueSkill{Config: cfg, log: log}
}

type tsPair struct {
	i, j int
	tie  bool
}

// RoundUpdate implements System.
func (s *TrueSkill) RoundUpdate(contestWeight float64, standings []Standing) {
	n := len(standings)
	if n == 0 {
		return
	}
	beta := s.Config.Beta

	for _, st := range standings {
		st.Player.CollapseNoise(s.Config.SigDrift)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return standings[order[a]].Lo < standings[order[b]].Lo
	})

	perfMu := make([]float64, n)
	perfVar := make([]float64, n)
	for i, st := range standings {
		prior := st.Player.ApproxPosterior
		perfMu[i] = prior.Mu
		perfVar[i] = prior.Sigma*prior.Sigma + beta*beta
	}

	var pairs []tsPair
	for k := 0; k+1 < n; k++ {
		i, j := order[k], order[k+1]
		tie := standings[i].Lo == standings[j].Lo && standings[i].Hi == standings[j].Hi
		pairs = append(pairs, tsPair{i: i, j: j, tie: tie})
	}

	sweep := 0
	for ; sweep < s.Config.MaxSweeps; sweep++ {
		maxDelta := 0.0
		forward := sweep%2 == 0
		for idx := range pairs {
			k := idx
			if !forward {
				k = len(pairs) - 1 - idx
			}
			p := pairs[k]
			delta := s.applyPairwiseFactor(perfMu, perfVar, p)
			if math.Abs(delta) > maxDelta {
				maxDelta = math.Abs(delta)
			}
		}
		if maxDelta < s.Config.ConvergenceEps {
			break
		}
	}
	sweepsRun := sweep
	if sweep < s.Config.MaxSweeps {
		sweepsRun++ // the sweep that converged
	}
	metrics.TrueSkillSweeps.Observe(float64(sweepsRun))
	if sweep >= s.Config.MaxSweeps {
		metrics.TrueSkillSweepsExhausted.Inc()
		s.log.WithField("max_sweeps", s.Config.MaxSweeps).Warn("trueskill: message passing exhausted sweep budget before converging")
	}

	for i, st := range standings {
		skillVar := perfVar[i] - beta*beta
		if skillVar < 1e-6 {
			skillVar = 1e-6
		}
		r := rating.Rating{Mu: perfMu[i], Sigma: math.Sqrt(skillVar)}
		st.Player.UpdateRating(r, perfMu[i])
	}
}

// applyPairwiseFactor performs one moment-matching correction on the
// edge between standings i and j (i ranked at or above j), returning the
// signed change applied to the difference's mean.
func (s *TrueSkill) applyPairwiseFactor(perfMu, perfVar []float64, p tsPair) float64 {
	i, j := p.i, p.j
	muD := perfMu[i] - perfMu[j]
	varD := perfVar[i] + perfVar[j]
	sigD := math.Sqrt(varD)

	var newMuD, newSigD float64
	if p.tie {
		newMuD, newSigD = truncateWithin(muD, sigD, s.Config.Epsilon)
	} else {
		newMuD, newSigD = truncateGreater(muD, sigD, 2*s.Config.Epsilon)
	}
	newVarD := newSigD * newSigD
	deltaMu := newMuD - muD
	varRatio := newVarD / varD

	perfMu[i] += (perfVar[i] / varD) * deltaMu
	perfVar[i] *= 1 - (perfVar[i]/varD)*(1-varRatio)
	perfMu[j] -= (perfVar[j] / varD) * deltaMu
	perfVar[j] *= 1 - (perfVar[j]/varD)*(1-varRatio)

	return deltaMu
}

// truncateWithin computes the moment-matched (mu, sigma) of N(mu,sigma)
// truncated to [-eps, eps] — the Leq(eps) tie factor (spec.md 4.3.5):
// alpha = moment0(-eps) - moment0(eps) where moment0 is the survival
// function, mu = m1/alpha, sigma^2 = max(0, m2/alpha - mu^2).
func truncateWithin(mu, sigma, eps float64) (newMu, newSigma float64) {
	a := (-eps - mu) / sigma
	b := (eps - mu) / sigma
	z := numerics.NormalCDF(b) - numerics.NormalCDF(a)
	if z < 1e-12 {
		z = 1e-12
	}
	pa := numerics.NormalPDF(a)
	pb := numerics.NormalPDF(b)
	newMu = mu - sigma*(pb-pa)/z
	varFactor := 1 - (b*pb-a*pa)/z - ((pb-pa)/z)*((pb-pa)/z)
	if varFactor < 1e-9 {
		varFactor = 1e-9
	}
	newSigma = sigma * math.Sqrt(varFactor)
	return newMu, newSigma
}

// truncateGreater computes the moment-matched (mu, sigma) of N(mu,sigma)
// truncated to (eps, +inf) — the Greater(eps) strict factor (spec.md
// 4.3.5): alpha = moment0(eps).
func truncateGreater(mu, sigma, eps float64) (newMu, newSigma float64) {
	a := (eps - mu) / sigma
	z := numerics.NormalCDF(-a)
	if z < 1e-12 {
		z = 1e-12
	}
	pa := numerics.NormalPDF(a)
	newMu = mu + sigma*pa/z
	varFactor := 1 + a*pa/z - (pa/z)*(pa/z)
	if varFactor < 1e-9 {
		varFactor = 1e-9
	}
	newSigma = sigma * math.Sqrt(varFactor)
	return newMu, newSigma
}
