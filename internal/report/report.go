// Package report renders inference results as the text shown to users and
// written to result files.
package report

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"meanstat/internal/stats"
)

// Default file names used when saving without an explicit path.
const (
	IntervalFile = "resultado_intervalo_confianza.txt"
	TestFile     = "resultado_pruebas_medias.txt"
)

// ErrNoResult is returned when asked to save an empty result.
var ErrNoResult = errors.New("no results to save")

// Interval renders "Intervalo de confianza: (<lower>, <upper>)".
func Interval(iv stats.Interval) string {
	return fmt.Sprintf("Intervalo de confianza: (%s, %s)", Float(iv.Lower), Float(iv.Upper))
}

// Test renders the statistic and p-value on two lines.
func Test(res stats.TestResult) string {
	return fmt.Sprintf("Estadístico: %s\nValor p: %s", Float(res.Statistic), Float(res.PValue))
}

// Float formats x as the shortest decimal that round-trips, always keeping a
// fractional part ("1.0", "0.1573") and switching to exponent notation below
// 1e-4 and from 1e16.
func Float(x float64) string {
	switch {
	case math.IsNaN(x):
		return "nan"
	case math.IsInf(x, 1):
		return "inf"
	case math.IsInf(x, -1):
		return "-inf"
	}

	abs := math.Abs(x)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(x, 'e', -1, 64)
	}
	s := strconv.FormatFloat(x, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Save writes text to path, replacing any previous file.
func Save(path, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrNoResult
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}
