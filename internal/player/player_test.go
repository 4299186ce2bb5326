package player_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ratingcore/internal/obslog"
	"ratingcore/internal/player"
	"ratingcore/internal/rating"
)

func newTestPlayer(mu, sigma float64) *player.Player {
	return player.New(rating.Rating{Mu: mu, Sigma: sigma}, 0, obslog.Noop())
}

func TestPushPlaceholderThenUpdateRatingFillsEvent(t *testing.T) {
	p := newTestPlayer(1500, 350)
	p.PushPlaceholder(0, 2, 1000)
	placeholder := p.LastEvent()
	require.Equal(t, 0, placeholder.ContestIndex)
	require.Equal(t, 2, placeholder.Place)
	require.Zero(t, placeholder.RatingMu)
	require.Zero(t, placeholder.RatingSigma)
	require.Zero(t, placeholder.PerfScore)

	p.UpdateRating(rating.Rating{Mu: 1550, Sigma: 300}, 1600)
	last := p.LastEvent()
	require.Equal(t, 1550.0, last.RatingMu)
	require.Equal(t, 300.0, last.RatingSigma)
	require.Equal(t, 1600.0, last.PerfScore)
}

func TestUpdateRatingPanicsWithoutPlaceholder(t *testing.T) {
	p := newTestPlayer(1500, 350)
	require.Panics(t, func() {
		p.UpdateRating(rating.Rating{Mu: 1500, Sigma: 350}, 1500)
	})
}

func TestUpdateRatingPanicsOnDoubleWrite(t *testing.T) {
	p := newTestPlayer(1500, 350)
	p.PushPlaceholder(0, 0, 1000)
	p.UpdateRating(rating.Rating{Mu: 1500, Sigma: 350}, 1500)
	require.Panics(t, func() {
		p.UpdateRating(rating.Rating{Mu: 1500, Sigma: 350}, 1500)
	})
}

func TestUpdateRatingWithNormalFusesTowardsPerf(t *testing.T) {
	p := newTestPlayer(1500, 350)
	p.PushPlaceholder(0, 0, 1000)
	p.UpdateRatingWithNormal(rating.Rating{Mu: 1700, Sigma: 100})
	require.Greater(t, p.NormalFactor.Mu, 1500.0)
	require.Less(t, p.NormalFactor.Mu, 1700.0)
	require.Less(t, p.NormalFactor.Sigma, 350.0)
}

func TestUpdateRatingWithLogisticEvictsOldestAtCapacity(t *testing.T) {
	p := newTestPlayer(1500, 350)
	for i := 0; i < 5; i++ {
		p.PushPlaceholder(i, 0, uint64(1000+i))
		p.UpdateRatingWithLogistic(rating.Rating{Mu: 1500 + float64(i)*10, Sigma: 80}, 3)
	}
	require.LessOrEqual(t, len(p.LogisticFactors), 3)
	require.Equal(t, 1520.0, p.LogisticFactors[0].Mu)
}

func TestCollapseNoiseClearsLogisticFactors(t *testing.T) {
	p := newTestPlayer(1500, 350)
	p.PushPlaceholder(0, 0, 1000)
	p.UpdateRatingWithLogistic(rating.Rating{Mu: 1550, Sigma: 80}, 5)
	require.NotEmpty(t, p.LogisticFactors)

	p.CollapseNoise(35)
	require.Empty(t, p.LogisticFactors)
	require.Equal(t, p.ApproxPosterior, p.NormalFactor)
}

func TestInFrontNoiseGrowsSigmaWithoutClearingFactors(t *testing.T) {
	p := newTestPlayer(1500, 350)
	p.PushPlaceholder(0, 0, 1000)
	p.UpdateRatingWithLogistic(rating.Rating{Mu: 1550, Sigma: 80}, 5)
	sigmaBefore := p.ApproxPosterior.Sigma

	p.InFrontNoise(35)
	require.Greater(t, p.ApproxPosterior.Sigma, sigmaBefore)
	require.NotEmpty(t, p.LogisticFactors)
}

func TestBestNoiseInterpolates(t *testing.T) {
	p := newTestPlayer(1500, 350)
	p.PushPlaceholder(0, 0, 1000)
	p.UpdateRatingWithLogistic(rating.Rating{Mu: 1550, Sigma: 80}, 5)

	p.BestNoise(35, 1.0)
	require.Greater(t, p.NormalFactor.Sigma, 0.0)
	require.Greater(t, p.ApproxPosterior.Sigma, 0.0)
}
