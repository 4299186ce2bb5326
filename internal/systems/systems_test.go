package systems_test

import (
	"ratingcore/internal/obslog"
	"ratingcore/internal/player"
	"ratingcore/internal/rating"
	"ratingcore/internal/systems"
)

func newFieldPlayer(mu, sigma float64) *player.Player {
	return player.New(rating.Rating{Mu: mu, Sigma: sigma}, 0, obslog.Noop())
}

// twoPlayerWin builds a two-entrant field where standing[0] beats
// standing[1] outright (spec.md 8's seed scenario 6) and pushes the
// placeholder events every System.RoundUpdate requires to already exist.
func twoPlayerWin(muA, sigA, muB, sigB float64) []systems.Standing {
	a := newFieldPlayer(muA, sigA)
	b := newFieldPlayer(muB, sigB)
	a.PushPlaceholder(0, 0, 1000)
	b.PushPlaceholder(0, 1, 1000)
	return []systems.Standing{
		{Player: a, Lo: 0, Hi: 0},
		{Player: b, Lo: 1, Hi: 1},
	}
}

// allTied builds a field of n entrants who all tie for first.
func allTied(n int, mu, sigma float64) []systems.Standing {
	standings := make([]systems.Standing, n)
	for i := range standings {
		p := newFieldPlayer(mu, sigma)
		p.PushPlaceholder(0, 0, 1000)
		standings[i] = systems.Standing{Player: p, Lo: 0, Hi: n - 1}
	}
	return standings
}
