package systems_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ratingcore/internal/obslog"
	"ratingcore/internal/systems"
)

func TestGlickoWinnerRatingIncreasesLoserDecreases(t *testing.T) {
	standings := twoPlayerWin(1500, 200, 1500, 200)
	sys := systems.NewGlicko(systems.DefaultGlickoConfig(), obslog.Noop())

	sys.RoundUpdate(1, standings)

	winner := standings[0].Player.LastEvent()
	loser := standings[1].Player.LastEvent()
	require.Greater(t, winner.RatingMu, 1500.0)
	require.Less(t, loser.RatingMu, 1500.0)
	require.Less(t, winner.RatingSigma, 200.0)
	require.Less(t, loser.RatingSigma, 200.0)
}

func TestGlickoAllTiedFieldLeavesRatingUnchanged(t *testing.T) {
	standings := allTied(4, 1500, 200)
	sys := systems.NewGlicko(systems.DefaultGlickoConfig(), obslog.Noop())

	sys.RoundUpdate(1, standings)

	for _, st := range standings {
		require.InDelta(t, 1500, st.Player.LastEvent().RatingMu, 1e-6)
	}
}

func TestGlickoSingleEntrantRoundShrinksSigmaOnly(t *testing.T) {
	p := newFieldPlayer(1500, 200)
	p.PushPlaceholder(0, 0, 1000)
	standings := []systems.Standing{{Player: p, Lo: 0, Hi: 0}}
	sys := systems.NewGlicko(systems.DefaultGlickoConfig(), obslog.Noop())

	sys.RoundUpdate(1, standings)

	last := p.LastEvent()
	require.InDelta(t, 1500, last.RatingMu, 1e-6)
	require.Less(t, last.RatingSigma, 200.0)
}
