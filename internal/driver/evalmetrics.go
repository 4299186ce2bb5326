package driver

import (
	"fmt"
	"math"
	"sort"
)

// ratingsOutcomeFree mirrors Contest.OutcomeFree over an already-filtered
// ParticipantRating slice: the field is outcome-free if the first entry's
// tie range already covers everyone.
func ratingsOutcomeFree(standings []ParticipantRating) bool {
	if len(standings) == 0 {
		return true
	}
	return standings[0].Hi+1 >= len(standings)
}

// PairwiseMetric scores how often the rating order agrees with the
// observed contest order: every (loser, winner) pair the ratings order
// correctly earns credit, and every tied pair earns the same credit as a
// correctly-ordered one. Like its
// upstream original, the result is normalized by (n-1) rather than the
// total pair count, so a perfect field scores 100*n, not 100 — this is
// the literal formula from the original, kept as-is rather than
// renormalized, since it is meant to be compared across contests of
// the same size rather than read as a bounded percentage. standings must
// be in rank order (as returned by GetParticipantRatings against the
// original contest standings). Grounded on
// multi-skill/src/metrics.rs's pairwise_metric. weight is 0 for an
// outcome-free field.
func PairwiseMetric(standings []ParticipantRating) (weight, score float64) {
	if ratingsOutcomeFree(standings) {
		return 0, 0
	}
	var correctPairs, totalPairs float64
	for _, loser := range standings {
		for _, winner := range standings {
			if winner.Lo >= loser.Lo {
				break
			}
			if winner.Rating.Mu > loser.Rating.Mu {
				correctPairs += 2
			}
			totalPairs += 2
		}
	}
	n := float64(len(standings))
	tiedPairs := n*(n-1) - totalPairs
	return n, 100 * (correctPairs + tiedPairs) / (n - 1)
}

// PercentileDistanceMetric scores how far each entrant's rating-implied
// placement (sorted by mu, descending) falls from the interval of
// observed ranks it would need to land in to agree with the contest,
// averaged over the field on a 0-100 scale. Grounded on
// multi-skill/src/metrics.rs's percentile_distance_metric.
func PercentileDistanceMetric(standings []ParticipantRating) (weight, score float64) {
	if ratingsOutcomeFree(standings) {
		return 0, 0
	}
	byRating := make([]ParticipantRating, len(standings))
	copy(byRating, standings)
	sort.Slice(byRating, func(a, b int) bool { return byRating[a].Rating.Mu > byRating[b].Rating.Mu })

	var sumError float64
	for i, p := range byRating {
		closest := i
		if closest < p.Lo {
			closest = p.Lo
		}
		if closest > p.Hi {
			closest = p.Hi
		}
		sumError += math.Abs(float64(i - closest))
	}
	n := float64(len(standings))
	return n, 100 * sumError / (n - 1)
}

// CrossEntropyMetric scores the rating gap between every (loser, winner)
// pair against the logistic Elo win-probability formula at the given
// scale (the Codeforces convention uses 400), in base-2 bits per pair.
// Grounded on multi-skill/src/metrics.rs's cross_entropy_metric.
func CrossEntropyMetric(standings []ParticipantRating, scale float64) (weight, score float64) {
	if ratingsOutcomeFree(standings) {
		return 0, 0
	}
	var sumCE float64
	for _, loser := range standings {
		for _, winner := range standings {
			if winner.Lo >= loser.Lo {
				break
			}
			ratingDiff := loser.Rating.Mu - winner.Rating.Mu
			invProb := 1 + math.Pow(10, ratingDiff/scale)
			sumCE += math.Log2(invProb)
		}
	}
	n := float64(len(standings))
	return n, 2 * sumCE / (n - 1)
}

// TopK returns the prefix of standings whose 0-indexed rank is below k.
// It may return more than k entries when a tie straddles the boundary.
// standings must be in rank order (ascending Lo). Grounded on
// multi-skill/src/metrics.rs's top_k.
func TopK(standings []ParticipantRating, k int) []ParticipantRating {
	idx := sort.Search(len(standings), func(i int) bool { return standings[i].Lo >= k })
	return standings[:idx]
}

// weightedSum is one metric's running (weight, value-sum) accumulator, so
// that the reported average over many contests is weight-averaged rather
// than contest-averaged.
type weightedSum struct {
	label string
	wt    float64
	sum   float64
}

// PerformanceReport accumulates PairwiseMetric/PercentileDistanceMetric/
// CrossEntropyMetric scores across a sequence of contests. Grounded on
// multi-skill/src/metrics.rs's PerformanceReport and its `+`/`+=`
// operator overloads, folded here into an Add method.
type PerformanceReport struct {
	metrics []weightedSum
}

// Add folds one contest's metric observations into the running report.
func (r *PerformanceReport) Add(other PerformanceReport) {
	if len(r.metrics) == 0 {
		r.metrics = make([]weightedSum, len(other.metrics))
		copy(r.metrics, other.metrics)
		return
	}
	for i := range r.metrics {
		r.metrics[i].wt += other.metrics[i].wt
		r.metrics[i].sum += other.metrics[i].sum
	}
}

// String renders each metric's weight-averaged value, labelled.
func (r PerformanceReport) String() string {
	s := "["
	for i, m := range r.metrics {
		if i > 0 {
			s += ", "
		}
		avg := 0.0
		if m.wt > 0 {
			avg = m.sum / m.wt
		}
		s += fmt.Sprintf("%s=%.4f", m.label, avg)
	}
	return s + "]"
}

// ComputeContestMetrics evaluates one contest's rating predictions against
// its observed standings: pairwise and percentile-distance agreement over
// everyone, over entrants with at least 5 prior contests, and over the
// top 100 by rank, plus cross-entropy at Elo's traditional scales (200
// through 600 in steps of 50). Grounded on
// multi-skill/src/metrics.rs's compute_metrics_custom.
func ComputeContestMetrics(players PlayersByName, standings []ContestStanding) PerformanceReport {
	everyone := GetParticipantRatings(players, standings, 0)
	experienced := GetParticipantRatings(players, standings, 5)
	top100 := TopK(everyone, 100)

	// Each metric call already returns (weight, score); following
	// multi-skill/src/metrics.rs's PerformanceReport literally, the
	// per-metric field stored here is the raw (weight, score) pair, not
	// weight*score — String()/Add() divide and sum these exactly as the
	// original's Display/+ operator do.
	var ms []weightedSum
	add := func(label string, wt, score float64) {
		ms = append(ms, weightedSum{label: label, wt: wt, sum: score})
	}

	wt, sc := PairwiseMetric(everyone)
	add("pairwise/everyone", wt, sc)
	wt, sc = PairwiseMetric(experienced)
	add("pairwise/experienced", wt, sc)
	wt, sc = PairwiseMetric(top100)
	add("pairwise/top100", wt, sc)
	wt, sc = PercentileDistanceMetric(everyone)
	add("percentile/everyone", wt, sc)
	wt, sc = PercentileDistanceMetric(experienced)
	add("percentile/experienced", wt, sc)
	wt, sc = PercentileDistanceMetric(top100)
	add("percentile/top100", wt, sc)
	for scale := 200.0; scale <= 600; scale += 50 {
		wt, sc = CrossEntropyMetric(experienced, scale)
		add(fmt.Sprintf("crossentropy/scale%.0f", scale), wt, sc)
	}

	return PerformanceReport{metrics: ms}
}
