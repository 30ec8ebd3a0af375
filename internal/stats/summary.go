package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Summary holds the descriptive quantities every inference step starts from.
type Summary struct {
	Mean       float64
	StdErr     float64 // Standard error of the mean, Bessel-corrected
	SampleSize int
}

// DegreesOfFreedom is n-1, the t-distribution parameter.
func (s Summary) DegreesOfFreedom() int {
	return s.SampleSize - 1
}

// Degenerate reports whether the sample had zero variance.
func (s Summary) Degenerate() bool {
	return s.StdErr == 0
}

// Summarize computes the mean and standard error of values.
// A constant sample is not an error here; StdErr is then exactly 0.
func Summarize(values []float64) (Summary, error) {
	n := len(values)
	if n < 2 {
		return Summary{}, fmt.Errorf("%w: got %d", ErrInsufficientData, n)
	}

	mean := stat.Mean(values, nil)
	sd := stat.StdDev(values, nil)
	if allEqual(values) {
		sd = 0
	}

	return Summary{
		Mean:       mean,
		StdErr:     sd / math.Sqrt(float64(n)),
		SampleSize: n,
	}, nil
}

// allEqual guards against rounding residue in the variance of a constant sample.
func allEqual(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
