// Package metrics exposes the core's Prometheus instrumentation: contest
// throughput and the convergence behaviour of the two iterative solvers
// (the safeguarded Newton search shared by RobustAverage/Elo-MMR, and
// TrueSkill's message-passing sweep).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ContestsProcessed counts every contest that reached round_update (an
// outcome-free no-op contest does not increment this).
var ContestsProcessed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ratingcore",
	Subsystem: "driver",
	Name:      "contests_processed_total",
	Help:      "Total contests that reached round_update.",
})

// ContestSize observes the entrant count of every processed contest.
var ContestSize = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "ratingcore",
	Subsystem: "driver",
	Name:      "contest_size",
	Help:      "Entrant count of each processed contest.",
	Buckets:   []float64{2, 5, 10, 25, 50, 100, 250, 1000},
})

// NewtonResidual observes the absolute residual |g(x)| the safeguarded
// Newton search settles on, for the searches that end above 1e-10 (its
// callers in internal/player and internal/systems feed it from the same
// warn callback as NewtonNonconvergent).
var NewtonResidual = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "ratingcore",
	Subsystem: "solver",
	Name:      "newton_residual",
	Help:      "Absolute residual of the safeguarded Newton search's final iterate, for searches ending above 1e-10.",
	Buckets:   []float64{1e-12, 1e-10, 1e-8, 1e-6, 1e-4, 1e-2, 1},
})

// NewtonNonconvergent counts safeguarded Newton searches that exited with
// a residual above the 1e-10 threshold spec.md 7 treats as a soft failure.
var NewtonNonconvergent = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ratingcore",
	Subsystem: "solver",
	Name:      "newton_nonconvergent_total",
	Help:      "Total safeguarded Newton searches that did not converge to |g|<=1e-10.",
})

// TrueSkillSweeps observes how many forward/backward sweeps a contest's
// factor graph needed before convergenceEps or maxSweeps was hit.
var TrueSkillSweeps = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "ratingcore",
	Subsystem: "trueskill",
	Name:      "sweeps",
	Help:      "Forward/backward sweep count per TrueSkill round_update call.",
	Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
})

// TrueSkillSweepsExhausted counts TrueSkill round_update calls that hit
// maxSweeps before convergenceEps was reached.
var TrueSkillSweepsExhausted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ratingcore",
	Subsystem: "trueskill",
	Name:      "sweeps_exhausted_total",
	Help:      "Total TrueSkill round_update calls that exhausted maxSweeps before converging.",
})
