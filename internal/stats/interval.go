package stats

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// Interval is a two-sided confidence interval for the population mean.
type Interval struct {
	Lower    float64
	Upper    float64
	Level    float64 // Confidence level in percent
	Critical float64 // z or t multiplier applied to the standard error
}

// ParseConfidenceLevel reads a bare percentage such as "95".
func ParseConfidenceLevel(text string) (float64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: value is missing", ErrInvalidConfidenceLevel)
	}
	level, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: got %q", ErrInvalidConfidenceLevel, text)
	}
	if err := checkLevel(level); err != nil {
		return 0, err
	}
	return level, nil
}

func checkLevel(level float64) error {
	if math.IsNaN(level) || level <= 0 || level >= 100 {
		return fmt.Errorf("%w: got %v", ErrInvalidConfidenceLevel, level)
	}
	return nil
}

// CriticalValue returns the two-sided quantile at 1-alpha/2, where
// alpha = 1 - level/100. df is ignored for MethodZ.
func CriticalValue(level float64, method Method, df int) (float64, error) {
	if err := checkLevel(level); err != nil {
		return 0, err
	}
	alpha := 1 - level/100
	p := 1 - alpha/2

	switch method {
	case MethodZ:
		return distuv.Normal{Mu: 0, Sigma: 1}.Quantile(p), nil
	case MethodT:
		if df < 1 {
			return 0, fmt.Errorf("%w: %d degrees of freedom", ErrInsufficientData, df)
		}
		return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}.Quantile(p), nil
	}
	return 0, fmt.Errorf("%w: got %q", ErrUnknownMethod, string(method))
}

// Estimate computes mean ± c·SE with both bounds rounded to Decimals places.
//
// A zero-variance sample yields the zero-width interval [mean, mean]; no
// division by the standard error takes place, so the result stays finite.
func Estimate(summary Summary, level float64, method Method) (Interval, error) {
	if !method.valid() {
		return Interval{}, fmt.Errorf("%w: got %q", ErrUnknownMethod, string(method))
	}
	if summary.SampleSize < 2 {
		return Interval{}, fmt.Errorf("%w: got %d", ErrInsufficientData, summary.SampleSize)
	}

	c, err := CriticalValue(level, method, summary.DegreesOfFreedom())
	if err != nil {
		return Interval{}, err
	}

	margin := c * summary.StdErr
	return Interval{
		Lower:    Round(summary.Mean - margin),
		Upper:    Round(summary.Mean + margin),
		Level:    level,
		Critical: c,
	}, nil
}

// Width is Upper - Lower.
func (iv Interval) Width() float64 {
	return iv.Upper - iv.Lower
}

// Contains reports whether x lies within the closed interval.
func (iv Interval) Contains(x float64) bool {
	return x >= iv.Lower && x <= iv.Upper
}
