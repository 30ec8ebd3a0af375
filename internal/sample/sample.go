// Package sample turns user-supplied text or tabular files into a validated
// numeric sample.
package sample

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"meanstat/internal/stats"
)

// Separator joins and splits sample values in their text form.
const Separator = ","

// Sample is an ordered, immutable sequence of at least two finite numbers.
type Sample struct {
	values []float64
}

// New validates values and copies them into a Sample.
func New(values []float64) (Sample, error) {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Sample{}, fmt.Errorf("%w: value %d is not finite", stats.ErrInvalidInput, i+1)
		}
	}
	if len(values) < 2 {
		return Sample{}, fmt.Errorf("%w: got %d", stats.ErrInsufficientData, len(values))
	}
	cp := make([]float64, len(values))
	copy(cp, values)
	return Sample{values: cp}, nil
}

// Parse reads comma-separated decimal literals such as "12.5, 13.0,11.8".
func Parse(text string) (Sample, error) {
	if strings.TrimSpace(text) == "" {
		return Sample{}, fmt.Errorf("%w: no data given", stats.ErrInvalidInput)
	}

	tokens := strings.Split(text, Separator)
	values := make([]float64, 0, len(tokens))
	for i, tok := range tokens {
		v, ok := parseNumber(tok)
		if !ok {
			return Sample{}, fmt.Errorf("%w: token %d is %q", stats.ErrInvalidInput, i+1, strings.TrimSpace(tok))
		}
		values = append(values, v)
	}
	return New(values)
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Len returns the sample size.
func (s Sample) Len() int {
	return len(s.values)
}

// Values returns a copy of the observations.
func (s Sample) Values() []float64 {
	cp := make([]float64, len(s.values))
	copy(cp, s.values)
	return cp
}

// String renders the sample in the text form Parse accepts.
func (s Sample) String() string {
	parts := make([]string, len(s.values))
	for i, v := range s.values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, Separator)
}
