package systems_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ratingcore/internal/obslog"
	"ratingcore/internal/systems"
)

func TestTopcoderWinnerRatingIncreasesLoserDecreases(t *testing.T) {
	standings := twoPlayerWin(1500, 200, 1500, 200)
	sys := systems.NewTopcoder(systems.DefaultTopcoderConfig(), obslog.Noop())

	sys.RoundUpdate(1, standings)

	winner := standings[0].Player.LastEvent()
	loser := standings[1].Player.LastEvent()
	require.Greater(t, winner.RatingMu, 1500.0)
	require.Less(t, loser.RatingMu, 1500.0)
}

func TestTopcoderFirstContestDoesNotDivideByZero(t *testing.T) {
	standings := twoPlayerWin(1500, 350, 1500, 350)
	sys := systems.NewTopcoder(systems.DefaultTopcoderConfig(), obslog.Noop())

	require.NotPanics(t, func() {
		sys.RoundUpdate(1, standings)
	})
	for _, st := range standings {
		last := st.Player.LastEvent()
		require.False(t, last.RatingMu != last.RatingMu, "rating mu must not be NaN")
	}
}

func TestTopcoderDeltaStaysWithinCap(t *testing.T) {
	standings := twoPlayerWin(1500, 50, 1500, 50)
	sys := systems.NewTopcoder(systems.DefaultTopcoderConfig(), obslog.Noop())

	sys.RoundUpdate(1, standings)

	// first rated contest: numContests = 1, so cap = 150 + 1500/2 = 900
	for _, st := range standings {
		delta := st.Player.LastEvent().RatingMu - 1500
		require.Less(t, delta, 900.0)
		require.Greater(t, delta, -900.0)
	}
}
