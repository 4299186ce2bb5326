// Package driver implements the contest driver spec.md 4.4 describes:
// the sequential, per-contest glue between a PlayersByName roster, a
// Contest's wire-level standings, and a systems.System's round_update.
// It owns player lifecycle (lazy creation, duplicate-handle detection)
// and leaves all rating math to internal/systems.
package driver

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"ratingcore/internal/metrics"
	"ratingcore/internal/player"
	"ratingcore/internal/rating"
	"ratingcore/internal/systems"
)

// ContestStanding is one handle's placement within a Contest, per
// spec.md 3's wire shape `(handle, lo, hi)`.
type ContestStanding struct {
	Handle string
	Lo, Hi int
}

// Contest is the wire-level input to simulate_contest (spec.md 3/6):
// `{name, url?, weight=1.0, timeSeconds, standings}`.
type Contest struct {
	Name        string
	URL         string
	Weight      float64
	TimeSeconds uint64
	Standings   []ContestStanding
}

// OutcomeFree reports whether every entrant in the contest shares the
// same tie group as the first-place standing, per spec.md 3:
// `standings.empty ∨ standings[0].hi+1 ≥ standings.size`.
func (c Contest) OutcomeFree() bool {
	if len(c.Standings) == 0 {
		return true
	}
	return c.Standings[0].Hi+1 >= len(c.Standings)
}

// PlayersByName is the process-wide handle->Player roster simulate_contest
// mutates in its setup phase (spec.md 4.4, 5).
type PlayersByName map[string]*player.Player

// DuplicateHandleError reports the fatal structural error spec.md 7
// requires when one contest lists the same handle twice.
type DuplicateHandleError struct {
	Handle string
}

func (e *DuplicateHandleError) Error() string {
	return fmt.Sprintf("driver: duplicate handle %q in one contest", e.Handle)
}

// SimulateContest runs one contest through sys, mutating players in
// place (spec.md 4.4):
//
//  1. outcomeFree(contest) is a log-warned no-op.
//  2. Unseen handles are created at (muNoob, sigmaNoob).
//  3. A duplicate handle within the contest is a fatal error before any
//     event is appended.
//  4. Every participant gets a placeholder event and its simulation
//     clock advanced.
//  5. sys.RoundUpdate folds the round into each player's posterior.
func SimulateContest(players PlayersByName, contest Contest, sys systems.System, muNoob, sigmaNoob float64, log *logrus.Logger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if contest.OutcomeFree() {
		log.WithField("contest", contest.Name).Warn("driver: outcome-free contest, skipping round_update")
		return nil
	}

	seen := make(map[string]struct{}, len(contest.Standings))
	for _, cs := range contest.Standings {
		if _, dup := seen[cs.Handle]; dup {
			return &DuplicateHandleError{Handle: cs.Handle}
		}
		seen[cs.Handle] = struct{}{}
	}

	standings := make([]systems.Standing, len(contest.Standings))
	for i, cs := range contest.Standings {
		p, ok := players[cs.Handle]
		if !ok {
			p = player.New(rating.Rating{Mu: muNoob, Sigma: sigmaNoob}, contest.TimeSeconds, log)
			players[cs.Handle] = p
		}
		p.PushPlaceholder(len(p.EventHistory), cs.Lo, contest.TimeSeconds)
		standings[i] = systems.Standing{Player: p, Lo: cs.Lo, Hi: cs.Hi}
	}

	sys.RoundUpdate(contest.Weight, standings)
	metrics.ContestsProcessed.Inc()
	metrics.ContestSize.Observe(float64(len(standings)))
	return nil
}

// ParticipantRating is one filtered, renormalised entry returned by
// GetParticipantRatings.
type ParticipantRating struct {
	Handle string
	Rating rating.Rating
	Lo, Hi int
}

// GetParticipantRatings filters standings to players whose event history
// is at least minHistory long, then renormalises the surviving (lo, hi)
// ranges so tie-groups stay contiguous (spec.md 6): the i-th surviving
// entry's lo/hi become positions within the filtered sequence rather than
// the original contest.
func GetParticipantRatings(players PlayersByName, standings []ContestStanding, minHistory int) []ParticipantRating {
	type kept struct {
		handle string
		origLo int
		origHi int
		r      rating.Rating
	}
	var survivors []kept
	for _, cs := range standings {
		p, ok := players[cs.Handle]
		if !ok || len(p.EventHistory) < minHistory {
			continue
		}
		survivors = append(survivors, kept{cs.Handle, cs.Lo, cs.Hi, p.ApproxPosterior})
	}

	out := make([]ParticipantRating, len(survivors))
	for i, s := range survivors {
		out[i] = ParticipantRating{Handle: s.handle, Rating: s.r}
	}

	// renormalise (lo, hi): entries that shared an original tie group
	// must still share a (possibly smaller) contiguous group after
	// filtering, indexed by survivor position rather than original
	// contest position.
	i := 0
	for i < len(survivors) {
		j := i
		for j < len(survivors) && survivors[j].origLo == survivors[i].origLo && survivors[j].origHi == survivors[i].origHi {
			j++
		}
		for k := i; k < j; k++ {
			out[k].Lo = i
			out[k].Hi = j - 1
		}
		i = j
	}
	return out
}

// GetRatingSystemByName constructs the named rating system with spec.md 6
// defaults. Recognised names: bar, glicko, cfsys, tcsys, trueskill, mmx,
// mmx-fast, mmr, mmr-fast. mmx/mmx-fast select the Gaussian Elo-MMR
// variant, mmr/mmr-fast select Logistic(tau=1); the -fast variants set
// subsampleSize=100, subsampleBucket=2.
func GetRatingSystemByName(name string, log *logrus.Logger) (systems.System, error) {
	switch name {
	case "bar":
		return systems.NewBAR(systems.DefaultBARConfig(), log), nil
	case "glicko":
		return systems.NewGlicko(systems.DefaultGlickoConfig(), log), nil
	case "cfsys":
		return systems.NewCodeforces(systems.DefaultCodeforcesConfig(), log), nil
	case "tcsys":
		return systems.NewTopcoder(systems.DefaultTopcoderConfig(), log), nil
	case "trueskill":
		return systems.NewTrueSkill(systems.DefaultTrueSkillConfig(), log), nil
	case "mmx":
		return systems.NewEloMmr(systems.DefaultEloMmrConfig(systems.EloMmrGaussian), log), nil
	case "mmx-fast":
		return systems.NewEloMmr(systems.FastEloMmrConfig(systems.EloMmrGaussian), log), nil
	case "mmr":
		return systems.NewEloMmr(systems.DefaultEloMmrConfig(systems.EloMmrLogistic), log), nil
	case "mmr-fast":
		return systems.NewEloMmr(systems.FastEloMmrConfig(systems.EloMmrLogistic), log), nil
	default:
		return nil, fmt.Errorf("driver: unrecognised rating system %q", name)
	}
}
