// Package record stores analysis results in the history database and
// rebuilds their curves from stored rows.
package record

import (
	"fmt"
	"strconv"
	"time"

	"meanstat/internal/analysis"
	"meanstat/internal/curve"
	"meanstat/internal/db"
	"meanstat/internal/report"
)

// Clock returns the timestamp written to created_at.
type Clock func() time.Time

func stamp(now Clock) string {
	if now == nil {
		now = time.Now
	}
	return now().UTC().Format(time.RFC3339)
}

// Interval inserts an interval result and returns its id.
func Interval(database *db.DB, res *analysis.IntervalResult, now Clock) (int64, error) {
	lower, upper, critical := res.Interval.Lower, res.Interval.Upper, res.Interval.Critical
	row := &db.Analysis{
		Kind:       string(analysis.KindInterval),
		Method:     string(res.Method),
		Sample:     res.Sample.String(),
		SampleSize: int64(res.Summary.SampleSize),
		Mean:       res.Summary.Mean,
		StdErr:     res.Summary.StdErr,
		Parameter:  res.Interval.Level,
		Lower:      &lower,
		Upper:      &upper,
		Critical:   &critical,
		ResultText: res.Text,
		CreatedAt:  stamp(now),
	}

	id, err := database.InsertAnalysis(row)
	if err != nil {
		return 0, fmt.Errorf("insert analysis: %w", err)
	}
	return id, nil
}

// Test inserts a hypothesis test result and returns its id.
func Test(database *db.DB, res *analysis.TestOutcome, now Clock) (int64, error) {
	statistic, pValue := res.Result.Statistic, res.Result.PValue
	row := &db.Analysis{
		Kind:       string(analysis.KindTest),
		Method:     string(res.Method),
		Sample:     res.Sample.String(),
		SampleSize: int64(res.Summary.SampleSize),
		Mean:       res.Summary.Mean,
		StdErr:     res.Summary.StdErr,
		Parameter:  res.Result.NullValue,
		Statistic:  &statistic,
		PValue:     &pValue,
		ResultText: res.Text,
		CreatedAt:  stamp(now),
	}

	id, err := database.InsertAnalysis(row)
	if err != nil {
		return 0, fmt.Errorf("insert analysis: %w", err)
	}
	return id, nil
}

// Curve recomputes the curve of a stored analysis from its sample and
// parameters. The pipeline is deterministic so the result matches the
// original run.
func Curve(a *db.Analysis) (curve.Spec, error) {
	param := strconv.FormatFloat(a.Parameter, 'g', -1, 64)

	switch analysis.Kind(a.Kind) {
	case analysis.KindInterval:
		res, err := analysis.RunInterval(analysis.IntervalRequest{Data: a.Sample, Confidence: param, Method: a.Method})
		if err != nil {
			return curve.Spec{}, err
		}
		if res.Curve == nil {
			return curve.Spec{}, fmt.Errorf("analysis %d: %w", a.ID, errNoCurve)
		}
		return *res.Curve, nil
	case analysis.KindTest:
		res, err := analysis.RunTest(analysis.TestRequest{Data: a.Sample, Null: param, Method: a.Method})
		if err != nil {
			return curve.Spec{}, err
		}
		return res.Curve, nil
	}
	return curve.Spec{}, fmt.Errorf("analysis %d: unknown kind %q", a.ID, a.Kind)
}

// DefaultFile is the result file name for the analysis kind.
func DefaultFile(kind string) string {
	if analysis.Kind(kind) == analysis.KindTest {
		return report.TestFile
	}
	return report.IntervalFile
}
