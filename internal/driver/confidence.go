package driver

import (
	"math"
	"math/rand"
	"sort"
)

// WilsonCI95 returns the 95% Wilson score interval for a Bernoulli win
// rate over total paired comparisons, crediting ties as half a win.
func WilsonCI95(wins, ties, total int) (low, hi float64) {
	if total <= 0 {
		return 0, 1
	}
	const z = 1.96
	n := float64(total)
	p := (float64(wins) + 0.5*float64(ties)) / n
	den := 1 + (z*z)/n
	center := p + (z*z)/(2*n)
	half := z * math.Sqrt(p*(1-p)/n+(z*z)/(4*n*n))
	return (center - half) / den, (center + half) / den
}

// BootstrapCI95 returns a 95% bootstrap interval for the mean of vals
// (e.g. a run's per-contest Δμ samples), resampling with replacement B
// times.
func BootstrapCI95(vals []float64, B int) (low, hi float64) {
	n := len(vals)
	if n == 0 || B <= 1 {
		return 0, 0
	}
	means := make([]float64, B)
	for b := 0; b < B; b++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += vals[rand.Intn(n)]
		}
		means[b] = sum / float64(n)
	}
	sort.Float64s(means)
	lo := int(0.025 * float64(B-1))
	hiIdx := int(0.975 * float64(B-1))
	return means[lo], means[hiIdx]
}
