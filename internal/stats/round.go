package stats

import "math"

// Decimals is the precision of every reported bound, statistic and p-value.
const Decimals = 4

// Round rounds x to Decimals places.
func Round(x float64) float64 {
	const scale = 1e4
	r := math.Round(x*scale) / scale
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}
