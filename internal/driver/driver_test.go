package driver_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ratingcore/internal/driver"
	"ratingcore/internal/obslog"
	"ratingcore/internal/systems"
)

func fixedFieldContest(name string, weight float64, timeSeconds uint64) driver.Contest {
	return driver.Contest{
		Name:        name,
		Weight:      weight,
		TimeSeconds: timeSeconds,
		Standings: []driver.ContestStanding{
			{Handle: "newcomer", Lo: 0, Hi: 0},
			{Handle: "p2", Lo: 1, Hi: 1},
			{Handle: "p3", Lo: 2, Hi: 2},
			{Handle: "p4", Lo: 3, Hi: 3},
			{Handle: "p5", Lo: 4, Hi: 4},
			{Handle: "p6", Lo: 5, Hi: 5},
		},
	}
}

// TestSimulateContestSingleNewcomerVsFixedField covers spec.md 8's
// scenario 1: a newcomer placing first against a 1500/350 field has its
// mu strictly increase, the last-place entrant's mu strictly decrease,
// and the field's net mu movement stay small.
func TestSimulateContestSingleNewcomerVsFixedField(t *testing.T) {
	log := obslog.Noop()
	players := make(driver.PlayersByName)
	sys := systems.NewEloMmr(systems.DefaultEloMmrConfig(systems.EloMmrLogistic), log)
	contest := fixedFieldContest("seed-1", 1, 1000)

	err := driver.SimulateContest(players, contest, sys, 1500, 350, log)
	require.NoError(t, err)

	first := players["newcomer"].LastEvent()
	last := players["p6"].LastEvent()
	require.Greater(t, first.RatingMu, 1500.0)
	require.Less(t, last.RatingMu, 1500.0)

	var sumDelta float64
	for _, h := range []string{"newcomer", "p2", "p3", "p4", "p5", "p6"} {
		sumDelta += players[h].LastEvent().RatingMu - 1500
	}
	require.Less(t, sumDelta, 10.0)
	require.Greater(t, sumDelta, -10.0)
}

// TestSimulateContestAllTiedFieldNoOps covers spec.md 8's scenario 2: an
// all-tied contest is a warned no-op, and no player's event history
// grows.
func TestSimulateContestAllTiedFieldNoOps(t *testing.T) {
	log := obslog.Noop()
	players := make(driver.PlayersByName)
	contest := driver.Contest{
		Name:        "tied",
		Weight:      1,
		TimeSeconds: 1000,
		Standings: []driver.ContestStanding{
			{Handle: "A", Lo: 0, Hi: 2},
			{Handle: "B", Lo: 0, Hi: 2},
			{Handle: "C", Lo: 0, Hi: 2},
		},
	}

	sys := systems.NewGlicko(systems.DefaultGlickoConfig(), log)
	err := driver.SimulateContest(players, contest, sys, 1500, 350, log)
	require.NoError(t, err)
	require.Empty(t, players)
}

// TestSimulateContestDuplicateHandleIsFatal covers spec.md 8's scenario
// 3: a duplicate handle in one contest raises before any event is
// appended.
func TestSimulateContestDuplicateHandleIsFatal(t *testing.T) {
	log := obslog.Noop()
	players := make(driver.PlayersByName)
	contest := driver.Contest{
		Name:        "dup",
		Weight:      1,
		TimeSeconds: 1000,
		Standings: []driver.ContestStanding{
			{Handle: "A", Lo: 0, Hi: 0},
			{Handle: "A", Lo: 1, Hi: 1},
		},
	}

	sys := systems.NewGlicko(systems.DefaultGlickoConfig(), log)
	err := driver.SimulateContest(players, contest, sys, 1500, 350, log)

	var dupErr *driver.DuplicateHandleError
	require.ErrorAs(t, err, &dupErr)
	require.Empty(t, players["A"])
}

func TestSimulateContestLazilyCreatesAndAdvancesClock(t *testing.T) {
	log := obslog.Noop()
	players := make(driver.PlayersByName)
	sys := systems.NewGlicko(systems.DefaultGlickoConfig(), log)

	contest1 := driver.Contest{
		Name: "c1", Weight: 1, TimeSeconds: 1000,
		Standings: []driver.ContestStanding{{Handle: "A", Lo: 0, Hi: 0}, {Handle: "B", Lo: 1, Hi: 1}},
	}
	require.NoError(t, driver.SimulateContest(players, contest1, sys, 1500, 350, log))
	require.Len(t, players, 2)
	require.Len(t, players["A"].EventHistory, 1)

	contest2 := driver.Contest{
		Name: "c2", Weight: 1, TimeSeconds: 1500,
		Standings: []driver.ContestStanding{{Handle: "A", Lo: 0, Hi: 0}, {Handle: "B", Lo: 1, Hi: 1}},
	}
	require.NoError(t, driver.SimulateContest(players, contest2, sys, 1500, 350, log))
	require.Len(t, players["A"].EventHistory, 2)
	require.EqualValues(t, 500, players["A"].DeltaTime)
}

func TestGetParticipantRatingsFiltersAndRenormalisesTieGroups(t *testing.T) {
	log := obslog.Noop()
	players := make(driver.PlayersByName)
	sys := systems.NewGlicko(systems.DefaultGlickoConfig(), log)

	c1 := driver.Contest{
		Name: "c1", Weight: 1, TimeSeconds: 1000,
		Standings: []driver.ContestStanding{
			{Handle: "A", Lo: 0, Hi: 1},
			{Handle: "B", Lo: 0, Hi: 1},
			{Handle: "C", Lo: 2, Hi: 2},
			{Handle: "D", Lo: 3, Hi: 4},
			{Handle: "E", Lo: 3, Hi: 4},
		},
	}
	require.NoError(t, driver.SimulateContest(players, c1, sys, 1500, 350, log))

	c2 := driver.Contest{
		Name: "c2", Weight: 1, TimeSeconds: 1500,
		Standings: []driver.ContestStanding{
			{Handle: "A", Lo: 0, Hi: 0},
			{Handle: "B", Lo: 1, Hi: 1},
		},
	}
	require.NoError(t, driver.SimulateContest(players, c2, sys, 1500, 350, log))

	out := driver.GetParticipantRatings(players, c1.Standings, 2)
	require.Len(t, out, 2)
	for _, r := range out {
		require.Equal(t, 0, r.Lo)
		require.Equal(t, 1, r.Hi)
	}
}

func TestGetRatingSystemByNameRecognisesAllSpecNames(t *testing.T) {
	log := obslog.Noop()
	for _, name := range []string{"bar", "glicko", "cfsys", "tcsys", "trueskill", "mmx", "mmx-fast", "mmr", "mmr-fast"} {
		sys, err := driver.GetRatingSystemByName(name, log)
		require.NoError(t, err, name)
		require.NotNil(t, sys, name)
	}

	_, err := driver.GetRatingSystemByName("not-a-system", log)
	require.Error(t, err)
}
