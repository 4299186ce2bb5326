package systems

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"ratingcore/internal/metrics"
	"ratingcore/internal/numerics"
	"ratingcore/internal/rating"
)

// EloMmrVariant selects how an EloMmr system folds its solved performance
// back into a player's posterior: Gaussian discards rank-order factors
// entirely (UpdateRatingWithNormal), Logistic keeps a bounded history of
// tanh factors (UpdateRatingWithLogistic) and drifts them with transfer
// speed Tau instead of collapsing them every round (spec.md 4.3.6).
type EloMmrVariant int

const (
	EloMmrGaussian EloMmrVariant = iota
	EloMmrLogistic
)

// EloMmrConfig configures the Elo-MMR central system.
type EloMmrConfig struct {
	Variant EloMmrVariant

	SigLimit    float64 // sigma a fully-converged player's rating settles at
	DriftPerDay float64 // variance added per day of inactivity since the player's last contest
	WeightLimit float64 // per-contest weight, as a fraction of the full-information weight
	Tau         float64 // logistic transfer speed (Variant == EloMmrLogistic only)

	SplitTies bool

	SubsampleSize   int     // opponent count a player's window grows to reach (it may overshoot); <=0 means the whole field; also caps the logistic history
	SubsampleBucket float64 // mu/sigma quantization width used to merge nearby opponents before subsampling

	NoobDelay []float64 // weight multiplier for a player's 0th, 1st, ... contest; missing indices default to 1
}

// DefaultEloMmrConfig returns the spec.md 6 defaults for the requested
// variant: weightLimit=0.2, sigLimit=80, driftPerDay=0, tau=1 (ignored for
// the Gaussian variant), splitTies=false, subsampleSize unbounded (<=0),
// subsampleBucket=1e-5 (effectively no bucket merging).
func DefaultEloMmrConfig(variant EloMmrVariant) EloMmrConfig {
	return EloMmrConfig{
		Variant:         variant,
		SigLimit:        80,
		DriftPerDay:     0,
		WeightLimit:     0.2,
		Tau:             1,
		SplitTies:       false,
		SubsampleSize:   0,
		SubsampleBucket: 1e-5,
	}
}

// FastEloMmrConfig returns DefaultEloMmrConfig with the mmx-fast/mmr-fast
// overrides from spec.md 6: subsampleSize=100, subsampleBucket=2.
func FastEloMmrConfig(variant EloMmrVariant) EloMmrConfig {
	cfg := DefaultEloMmrConfig(variant)
	cfg.SubsampleSize = 100
	cfg.SubsampleBucket = 2
	return cfg
}

// EloMmr implements the Elo-MMR rating system: a per-player weighted
// performance solve against a subsampled, bucket-merged slice of the
// field, followed by a posterior fold that is either purely Gaussian or
// keeps a bounded logistic history (spec.md 4.3.6).
type EloMmr struct {
	Config EloMmrConfig
	log    *logrus.Logger
}

// NewEloMmr constructs an Elo-MMR system with the given config and logger.
func NewEloMmr(cfg EloMmrConfig, log *logrus.Logger) *EloMmr {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &EloMmr{Config: cfg, log: log}
}

// mmrEntrant identifies one standing contributing to a bucket: its tie
// rank (lo, for comparison against other entrants) and its standings
// index (for excluding a player's own record from its own opponent pool
// — two distinct players can share a rank under a tie, so the rank alone
// cannot tell a player apart from a tied opponent).
type mmrEntrant struct {
	rank int
	idx  int
}

// mmrRecord is one (possibly merged) opponent bucket: a rating
// distribution shared by every entrant in entrants, represented as a
// Gaussian (mu, sigma) and, when the system runs in the logistic
// variant, the equivalent tanh-factor weights.
type mmrRecord struct {
	mu, sigma  float64
	wArg, wOut float64
	entrants   []mmrEntrant
}

// RoundUpdate implements System.
func (s *EloMmr) RoundUpdate(contestWeight float64, standings []Standing) {
	n := len(standings)
	if n == 0 {
		return
	}

	weights := make([]float64, n)
	sigPerfs := make([]float64, n)
	for i, st := range standings {
		mult := 1.0
		if before := numContestsBefore(st); before < len(s.Config.NoobDelay) {
			mult = s.Config.NoobDelay[before]
		}
		weight := contestWeight * s.Config.WeightLimit * mult
		if weight <= 0 {
			weight = 1e-9
		}
		weights[i] = weight
		sigPerfs[i] = math.Sqrt((1+1/weight)*s.Config.SigLimit*s.Config.SigLimit + s.Config.DriftPerDay/weight)
	}

	records := make([]mmrRecord, n)
	for i, st := range standings {
		deltaDays := float64(st.Player.DeltaTime) / 86400
		sigDrift := math.Sqrt(weights[i]*s.Config.SigLimit*s.Config.SigLimit + s.Config.DriftPerDay*deltaDays)
		if s.Config.Variant == EloMmrLogistic {
			st.Player.BestNoise(sigDrift, s.Config.Tau)
		} else {
			st.Player.CollapseNoise(sigDrift)
		}

		r := st.Player.ApproxPosterior.WithNoise(sigPerfs[i])
		rec := mmrRecord{mu: r.Mu, sigma: r.Sigma, entrants: []mmrEntrant{{rank: st.Lo, idx: i}}}
		if s.Config.Variant == EloMmrLogistic {
			t := rating.NewTanhTerm(r)
			rec.wArg, rec.wOut = t.WArg, t.WOut
		}
		records[i] = rec
	}

	merged := mergeBuckets(records, s.Config.SubsampleBucket, s.Config.Variant == EloMmrLogistic)
	muOf := make([]float64, len(merged))
	for i, r := range merged {
		muOf[i] = r.mu
	}

	for i, st := range standings {
		lo, hi := subsampleWindow(muOf, merged, i, st.Player.ApproxPosterior.Mu, s.Config.SubsampleSize)
		myRank := st.Lo

		perf := numerics.SafeguardedNewton(-6000, 9000, func(x float64) (float64, float64) {
			var g, gPrime float64
			for idx := lo; idx <= hi; idx++ {
				rec := merged[idx]
				for _, e := range rec.entrants {
					if e.idx == i {
						continue
					}
					cmp := 0
					switch {
					case e.rank > myRank:
						cmp = 1
					case e.rank < myRank:
						cmp = -1
					}
					v, vPrime := s.evalTerm(rec, x, cmp)
					g += v
					gPrime += vPrime
				}
			}
			return g, gPrime
		}, func(absG float64) {
			metrics.NewtonResidual.Observe(absG)
			metrics.NewtonNonconvergent.Inc()
			s.log.WithField("residual", absG).Warn("elommr: performance solve did not fully converge")
		})

		perfRating := rating.Rating{Mu: perf, Sigma: sigPerfs[i]}
		if s.Config.Variant == EloMmrLogistic {
			cap := s.Config.SubsampleSize
			if cap <= 0 {
				cap = 1 << 30
			}
			st.Player.UpdateRatingWithLogistic(perfRating, cap)
		} else {
			st.Player.UpdateRatingWithNormal(perfRating)
		}
		st.Player.UpdateRating(st.Player.ApproxPosterior, perf)
	}
}

// evalTerm dispatches a single opponent bucket's (value, derivative)
// contribution at trial performance x: cmp > 0 means the standing beat
// this bucket (a "greater" factor, always <= 0), cmp < 0 means it lost to
// this bucket (a "less" factor, always >= 0), cmp == 0 is a tie.
func (s *EloMmr) evalTerm(rec mmrRecord, x float64, cmp int) (float64, float64) {
	if s.Config.Variant == EloMmrLogistic {
		return evalTanh(rec.mu, rec.wArg, rec.wOut, x, cmp, s.Config.SplitTies)
	}
	return evalGaussian(rec.mu, rec.sigma, x, cmp, s.Config.SplitTies)
}

func evalGaussian(mu, sigma, x float64, cmp int, splitTies bool) (float64, float64) {
	z := (x - mu) / sigma
	f := numerics.NormalPDF(z) / sigma
	fPrime := -z * f / sigma

	less := func() (float64, float64) {
		denom := numerics.NormalCDF(-z)
		if denom < 1e-300 {
			denom = 1e-300
		}
		v := f / denom
		return v, fPrime/denom + v*v
	}
	greater := func() (float64, float64) {
		denom := numerics.NormalCDF(z)
		if denom < 1e-300 {
			denom = 1e-300
		}
		v := -f / denom
		return v, -fPrime/denom + v*v
	}

	switch {
	case cmp > 0:
		return greater()
	case cmp < 0:
		return less()
	default:
		lv, lvp := less()
		gv, gvp := greater()
		if splitTies {
			return 0.5 * (lv + gv), 0.5 * (lvp + gvp)
		}
		return lv + gv, lvp + gvp
	}
}

func evalTanh(mu, wArg, wOut, x float64, cmp int, splitTies bool) (float64, float64) {
	th := math.Tanh((x - mu) * wArg)
	base := th * wOut
	baseDeriv := (1 - th*th) * wArg * wOut

	switch {
	case cmp > 0:
		return base - wOut, baseDeriv
	case cmp < 0:
		return base + wOut, baseDeriv
	default:
		if splitTies {
			return base, baseDeriv
		}
		return 2 * base, 2 * baseDeriv
	}
}

// mergeBuckets sorts records by mu and folds adjacent records sharing a
// (mu bucket, sigma bucket) pair into one weighted-average representative,
// per spec.md 4.3.6's opponent-pool reduction step.
func mergeBuckets(records []mmrRecord, bucketWidth float64, logistic bool) []mmrRecord {
	if bucketWidth <= 0 {
		bucketWidth = 1
	}
	sorted := append([]mmrRecord(nil), records...)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].mu < sorted[b].mu })

	merged := make([]mmrRecord, 0, len(sorted))
	for _, r := range sorted {
		if len(merged) > 0 {
			last := &merged[len(merged)-1]
			sameMu := math.Floor(last.mu/bucketWidth) == math.Floor(r.mu/bucketWidth)
			sameSig := math.Floor(last.sigma/bucketWidth) == math.Floor(r.sigma/bucketWidth)
			if sameMu && sameSig {
				w1 := float64(len(last.entrants))
				w2 := float64(len(r.entrants))
				total := w1 + w2
				last.mu = (last.mu*w1 + r.mu*w2) / total
				last.sigma = (last.sigma*w1 + r.sigma*w2) / total
				if logistic {
					last.wArg = (last.wArg*w1 + r.wArg*w2) / total
					last.wOut = (last.wOut*w1 + r.wOut*w2) / total
				}
				last.entrants = append(last.entrants, r.entrants...)
				continue
			}
		}
		merged = append(merged, r)
	}
	return merged
}

// subsampleWindow finds the contiguous window of merged (sorted by mu)
// centered on anchor and expands it symmetrically until it covers at
// least limit opponents (entrants other than myIdx), or the slice is
// exhausted. limit <= 0 means the whole slice.
func subsampleWindow(muOf []float64, merged []mmrRecord, myIdx int, anchor float64, limit int) (lo, hi int) {
	if len(merged) == 0 {
		return 0, -1
	}
	mid := sort.SearchFloat64s(muOf, anchor)
	if mid >= len(merged) {
		mid = len(merged) - 1
	}
	lo, hi = mid, mid
	if limit <= 0 {
		return 0, len(merged) - 1
	}

	count := func(idx int) int {
		n := 0
		for _, e := range merged[idx].entrants {
			if e.idx != myIdx {
				n++
			}
		}
		return n
	}
	opponents := count(mid)
	for opponents < limit {
		grew := false
		if lo > 0 {
			lo--
			opponents += count(lo)
			grew = true
		}
		if hi < len(merged)-1 {
			hi++
			opponents += count(hi)
			grew = true
		}
		if !grew {
			break
		}
	}
	return lo, hi
}
