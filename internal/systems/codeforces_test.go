package systems_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ratingcore/internal/obslog"
	"ratingcore/internal/systems"
)

func TestCodeforcesWinnerRatingIncreasesLoserDecreases(t *testing.T) {
	standings := twoPlayerWin(1500, 200, 1500, 200)
	sys := systems.NewCodeforces(systems.DefaultCodeforcesConfig(), obslog.Noop())

	sys.RoundUpdate(1, standings)

	winner := standings[0].Player.LastEvent()
	loser := standings[1].Player.LastEvent()
	require.Greater(t, winner.RatingMu, 1500.0)
	require.Less(t, loser.RatingMu, 1500.0)
}

// TestCodeforcesMonotoneWeightEffect checks spec.md 8's scenario 5: a
// larger SystemWeight must move the winner's rating further from their
// prior, all else held equal.
func TestCodeforcesMonotoneWeightEffect(t *testing.T) {
	low := systems.DefaultCodeforcesConfig()
	low.SystemWeight = 0.5
	high := systems.DefaultCodeforcesConfig()
	high.SystemWeight = 2.0

	lowStandings := twoPlayerWin(1500, 200, 1500, 200)
	systems.NewCodeforces(low, obslog.Noop()).RoundUpdate(1, lowStandings)

	highStandings := twoPlayerWin(1500, 200, 1500, 200)
	systems.NewCodeforces(high, obslog.Noop()).RoundUpdate(1, highStandings)

	lowDelta := lowStandings[0].Player.LastEvent().RatingMu - 1500
	highDelta := highStandings[0].Player.LastEvent().RatingMu - 1500
	require.Greater(t, highDelta, lowDelta)
}

func TestCodeforcesAllTiedFieldLeavesRatingUnchanged(t *testing.T) {
	standings := allTied(5, 1500, 200)
	sys := systems.NewCodeforces(systems.DefaultCodeforcesConfig(), obslog.Noop())

	sys.RoundUpdate(1, standings)

	for _, st := range standings {
		require.InDelta(t, 1500, st.Player.LastEvent().RatingMu, 1e-6)
	}
}
