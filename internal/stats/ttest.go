package stats

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// TestResult is the outcome of a two-sided one-sample test of the mean.
type TestResult struct {
	Statistic float64
	PValue    float64
	NullValue float64
}

// ParseNullValue reads the reference mean, e.g. "12".
func ParseNullValue(text string) (float64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: value is missing", ErrInvalidHypothesis)
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: got %q", ErrInvalidHypothesis, text)
	}
	return v, nil
}

// Test compares the sample mean against nullValue.
// The statistic (mean-null)/SE is rounded before the p-value is taken from
// it, so the reported pair is self-consistent. A zero standard error is
// rejected with ErrDegenerateSample.
func Test(summary Summary, nullValue float64, method Method) (TestResult, error) {
	if !method.valid() {
		return TestResult{}, fmt.Errorf("%w: got %q", ErrUnknownMethod, string(method))
	}
	if summary.SampleSize < 2 {
		return TestResult{}, fmt.Errorf("%w: got %d", ErrInsufficientData, summary.SampleSize)
	}
	if math.IsNaN(nullValue) || math.IsInf(nullValue, 0) {
		return TestResult{}, fmt.Errorf("%w: got %v", ErrInvalidHypothesis, nullValue)
	}
	if summary.Degenerate() {
		return TestResult{}, fmt.Errorf("%w: test statistic is undefined", ErrDegenerateSample)
	}

	statistic := Round((summary.Mean - nullValue) / summary.StdErr)

	return TestResult{
		Statistic: statistic,
		PValue:    Round(TwoSidedPValue(statistic, method, summary.DegreesOfFreedom())),
		NullValue: nullValue,
	}, nil
}

// TwoSidedPValue returns 2·(1 - F(|statistic|)) clamped to [0, 1].
func TwoSidedPValue(statistic float64, method Method, df int) float64 {
	x := math.Abs(statistic)

	var cdf float64
	if method == MethodT {
		cdf = distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}.CDF(x)
	} else {
		cdf = distuv.Normal{Mu: 0, Sigma: 1}.CDF(x)
	}

	p := 2 * (1 - cdf)
	return math.Max(0, math.Min(1, p))
}
