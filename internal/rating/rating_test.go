package rating_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ratingcore/internal/rating"
)

func TestWithNoiseIdentity(t *testing.T) {
	r := rating.Rating{Mu: 1500, Sigma: 350}
	require.Equal(t, r, r.WithNoise(0))
}

func TestWithNoiseVarianceGrowth(t *testing.T) {
	r := rating.Rating{Mu: 1500, Sigma: 200}
	noised := r.WithNoise(35)
	require.InDelta(t, 35.0*35.0, noised.Sigma*noised.Sigma-r.Sigma*r.Sigma, 1e-9)
}

func TestTanhTermBaseDerivativeAtMu(t *testing.T) {
	r := rating.Rating{Mu: 1500, Sigma: 200}
	term := rating.NewTanhTerm(r)
	require.InDelta(t, -term.WArg*term.WOut, term.BaseValueDerivative(term.Mu), 1e-9)
}

func TestTowardsNoiseFullFractionKeepsOwnMean(t *testing.T) {
	target := rating.Rating{Mu: 1000, Sigma: 50}
	r := rating.Rating{Mu: 1500, Sigma: 300}
	// d=1 means fully towards r's own mean (no movement) but variance uses
	// target's sigma plus the full residual.
	result := r.TowardsNoise(1, target)
	require.InDelta(t, r.Mu, result.Mu, 1e-9)
}
