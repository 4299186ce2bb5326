// Package player implements per-contestant state: a Gaussian prior
// factor, a bounded deque of logistic (tanh) factors, an append-only
// event history, and the simulation-clock bookkeeping every rating
// system shares (spec.md 3, 4.2).
package player

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"ratingcore/internal/metrics"
	"ratingcore/internal/numerics"
	"ratingcore/internal/rating"
)

// PlayerEvent is one contest participation record, append-only.
type PlayerEvent struct {
	ContestIndex int
	RatingMu     float64
	RatingSigma  float64
	PerfScore    float64
	Place        int
}

// DisplayRating is the conservative lower-bound rating shown on a
// leaderboard: mu - 3*(sigma-80), per spec.md 3.
func (e PlayerEvent) DisplayRating() float64 {
	return e.RatingMu - 3*(e.RatingSigma-80)
}

// Player is the mutable per-contestant state. It is exclusively owned by
// a process-wide handle->Player mapping; a contest driver hands out
// exactly one exclusive mutable reference per handle per contest.
type Player struct {
	NormalFactor    rating.Rating
	LogisticFactors []rating.TanhTerm // bounded deque, oldest at index 0
	EventHistory    []PlayerEvent
	ApproxPosterior rating.Rating
	UpdateTime      uint64
	DeltaTime       uint64

	log *logrus.Logger
}

// New constructs a fresh Player at the given prior rating and creation
// timestamp (seconds since epoch).
func New(prior rating.Rating, createdAt uint64, log *logrus.Logger) *Player {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Player{
		NormalFactor:    prior,
		ApproxPosterior: prior,
		UpdateTime:      createdAt,
		log:             log,
	}
}

// PushPlaceholder appends the zero-valued placeholder event the driver
// writes before invoking round_update, and advances the simulation
// clock. It is a structural precondition of every round_update call.
func (p *Player) PushPlaceholder(contestIndex int, place int, timeSeconds uint64) {
	if n := len(p.EventHistory); n > 0 {
		if p.EventHistory[n-1].ContestIndex >= contestIndex {
			panic(fmt.Sprintf("player: contestIndex %d is not strictly increasing after %d", contestIndex, p.EventHistory[n-1].ContestIndex))
		}
	}
	p.DeltaTime = timeSeconds - p.UpdateTime
	p.UpdateTime = timeSeconds
	p.EventHistory = append(p.EventHistory, PlayerEvent{ContestIndex: contestIndex, Place: place})
}

// UpdateRating asserts the last event is still a zero placeholder and
// writes the rounded posterior mu/sigma and performance into it.
func (p *Player) UpdateRating(r rating.Rating, perf float64) {
	n := len(p.EventHistory)
	if n == 0 {
		panic("player: UpdateRating called with no pushed placeholder event")
	}
	last := &p.EventHistory[n-1]
	if last.RatingMu != 0 || last.RatingSigma != 0 || last.PerfScore != 0 {
		panic("player: UpdateRating called on an already-written event")
	}
	if r.Sigma <= 0 || math.IsNaN(r.Sigma) {
		panic(fmt.Sprintf("player: invalid sigma %v after update", r.Sigma))
	}
	last.RatingMu = math.Round(r.Mu)
	last.RatingSigma = math.Round(r.Sigma)
	last.PerfScore = math.Round(perf)
	p.ApproxPosterior = r
}

// LastEvent returns the most recent event, or the zero value if the
// player has no history.
func (p *Player) LastEvent() PlayerEvent {
	if n := len(p.EventHistory); n > 0 {
		return p.EventHistory[n-1]
	}
	return PlayerEvent{}
}

// ApproximatePosterior recomputes ApproxPosterior as the fusion of
// NormalFactor with every logistic factor, via robust averaging, per
// spec.md 4.2. perfSig is the performance-noise sd folded in for the
// resulting sigma.
func (p *Player) ApproximatePosterior(perfSig float64) rating.Rating {
	wn := 1 / (p.NormalFactor.Sigma * p.NormalFactor.Sigma)
	terms := make([]numerics.Term, len(p.LogisticFactors))
	for i, t := range p.LogisticFactors {
		terms[i] = t.AsNumericsTerm()
	}
	mu := numerics.RobustAverage(terms, -p.NormalFactor.Mu*wn, wn, func(absG float64) {
		metrics.NewtonResidual.Observe(absG)
		metrics.NewtonNonconvergent.Inc()
		p.log.WithField("residual", absG).Warn("player: robust average did not fully converge")
	})

	wPost := 1 / (p.ApproxPosterior.Sigma * p.ApproxPosterior.Sigma)
	wPerf := 1 / (perfSig * perfSig)
	sigma := math.Sqrt(1 / (wPost + wPerf))

	p.ApproxPosterior = rating.Rating{Mu: mu, Sigma: sigma}
	return p.ApproxPosterior
}

// UpdateRatingWithNormal performs Gaussian-only posterior fusion into
// NormalFactor (precision-weighted mean), then, if any logistic factors
// are present, recomputes ApproxPosterior.
func (p *Player) UpdateRatingWithNormal(perf rating.Rating) {
	w1 := 1 / (p.NormalFactor.Sigma * p.NormalFactor.Sigma)
	w2 := 1 / (perf.Sigma * perf.Sigma)
	mu := (p.NormalFactor.Mu*w1 + perf.Mu*w2) / (w1 + w2)
	sigma := math.Sqrt(1 / (w1 + w2))
	p.NormalFactor = rating.Rating{Mu: mu, Sigma: sigma}
	p.ApproxPosterior = p.NormalFactor

	if len(p.LogisticFactors) > 0 {
		p.ApproximatePosterior(perf.Sigma)
	}
}

// UpdateRatingWithLogistic pushes perf as a new tanh factor, evicting and
// folding the oldest factor into NormalFactor if the deque is at
// capacity, then recomputes ApproxPosterior.
func (p *Player) UpdateRatingWithLogistic(perf rating.Rating, maxHistory int) {
	if len(p.LogisticFactors) >= maxHistory {
		oldest := p.LogisticFactors[0]
		p.LogisticFactors = p.LogisticFactors[1:]
		p.foldIntoNormal(oldest)
	}
	p.LogisticFactors = append(p.LogisticFactors, rating.NewTanhTerm(perf))
	p.ApproximatePosterior(perf.Sigma)
}

// foldIntoNormal weight-preservingly fuses an evicted logistic factor's
// implied Gaussian into NormalFactor.
func (p *Player) foldIntoNormal(t rating.TanhTerm) {
	wOld := 1 / (p.NormalFactor.Sigma * p.NormalFactor.Sigma)
	wTerm := t.EffectivePrecision()
	mu := (p.NormalFactor.Mu*wOld + t.Mu*wTerm) / (wOld + wTerm)
	sigma := math.Sqrt(1 / (wOld + wTerm))
	p.NormalFactor = rating.Rating{Mu: mu, Sigma: sigma}
}

// CollapseNoise discards logistic history entirely, folds everything
// into a single Gaussian, and adds noise nu (transfer_speed = infinity).
func (p *Player) CollapseNoise(nu float64) {
	p.ApproxPosterior = p.ApproxPosterior.WithNoise(nu)
	p.LogisticFactors = nil
	p.NormalFactor = p.ApproxPosterior
}

// InFrontNoise scales sigmas multiplicatively by a decay factor implied
// by nu, without discarding logistic history (transfer_speed = 0).
func (p *Player) InFrontNoise(nu float64) {
	oldSigma := p.ApproxPosterior.Sigma
	p.ApproxPosterior = p.ApproxPosterior.WithNoise(nu)
	decay := p.ApproxPosterior.Sigma / oldSigma
	p.NormalFactor.Sigma *= decay
	for i := range p.LogisticFactors {
		p.LogisticFactors[i].WOut /= decay * decay
	}
}

// BestNoise interpolates between collapse and in-front behavior via the
// transfer speed tau, per spec.md 4.2.
func (p *Player) BestNoise(nu, tau float64) {
	oldSigma := p.ApproxPosterior.Sigma
	newPosterior := p.ApproxPosterior.WithNoise(nu)
	decay := (oldSigma * oldSigma) / (newPosterior.Sigma * newPosterior.Sigma)
	transfer := math.Pow(decay, tau)

	wNormOld := 1 / (p.NormalFactor.Sigma * p.NormalFactor.Sigma)
	var logisticWeight float64
	for _, t := range p.LogisticFactors {
		logisticWeight += t.EffectivePrecision()
	}

	wFromNormOld := transfer * wNormOld
	wFromTransfers := (1 - transfer) * (wNormOld + logisticWeight)
	newNormalSigma := math.Sqrt(1 / (decay * (wFromNormOld + wFromTransfers)))

	p.NormalFactor = rating.Rating{Mu: newPosterior.Mu, Sigma: newNormalSigma}
	for i := range p.LogisticFactors {
		p.LogisticFactors[i].WOut *= transfer * decay
	}
	p.ApproxPosterior = newPosterior
}
