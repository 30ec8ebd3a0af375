// Package analysis runs the two inference pipelines end to end:
// parse → summarize → estimate or test → describe the curve → format text.
//
// Every call is independent and returns either a complete result or an
// error; nothing is cached between calls.
package analysis

import (
	"fmt"
	"strings"

	"meanstat/internal/curve"
	"meanstat/internal/report"
	"meanstat/internal/sample"
	"meanstat/internal/stats"
)

// Kind names the pipeline that produced a result.
type Kind string

const (
	KindInterval Kind = "interval"
	KindTest     Kind = "test"
)

// IntervalRequest carries the raw user input for a confidence interval.
type IntervalRequest struct {
	Data       string `json:"data"`
	Confidence string `json:"confidence"`
	Method     string `json:"method"`
}

// TestRequest carries the raw user input for a test of the mean.
type TestRequest struct {
	Data   string `json:"data"`
	Null   string `json:"null"`
	Method string `json:"method"`
}

// IntervalResult is a finished interval analysis.
type IntervalResult struct {
	Sample   sample.Sample
	Method   stats.Method
	Summary  stats.Summary
	Interval stats.Interval
	// Curve is nil for a zero-variance sample, which has no density to draw.
	Curve *curve.Spec
	Text  string
}

// TestOutcome is a finished hypothesis test.
type TestOutcome struct {
	Sample  sample.Sample
	Method  stats.Method
	Summary stats.Summary
	Result  stats.TestResult
	Curve   curve.Spec
	Text    string
}

// RunInterval validates req and computes the interval.
func RunInterval(req IntervalRequest) (*IntervalResult, error) {
	s, err := parseData(req.Data)
	if err != nil {
		return nil, err
	}
	level, err := stats.ParseConfidenceLevel(req.Confidence)
	if err != nil {
		return nil, err
	}
	method, err := stats.ParseMethod(req.Method)
	if err != nil {
		return nil, err
	}

	summary, err := stats.Summarize(s.Values())
	if err != nil {
		return nil, err
	}
	iv, err := stats.Estimate(summary, level, method)
	if err != nil {
		return nil, err
	}

	res := &IntervalResult{
		Sample:   s,
		Method:   method,
		Summary:  summary,
		Interval: iv,
		Text:     report.Interval(iv),
	}
	if !summary.Degenerate() {
		spec, err := curve.ForInterval(summary, method, iv)
		if err != nil {
			return nil, err
		}
		res.Curve = &spec
	}
	return res, nil
}

// RunTest validates req and runs the test against the null value.
func RunTest(req TestRequest) (*TestOutcome, error) {
	s, err := parseData(req.Data)
	if err != nil {
		return nil, err
	}
	null, err := stats.ParseNullValue(req.Null)
	if err != nil {
		return nil, err
	}
	method, err := stats.ParseMethod(req.Method)
	if err != nil {
		return nil, err
	}

	summary, err := stats.Summarize(s.Values())
	if err != nil {
		return nil, err
	}
	res, err := stats.Test(summary, null, method)
	if err != nil {
		return nil, err
	}
	spec, err := curve.ForTest(summary, method, res)
	if err != nil {
		return nil, err
	}

	return &TestOutcome{
		Sample:  s,
		Method:  method,
		Summary: summary,
		Result:  res,
		Curve:   spec,
		Text:    report.Test(res),
	}, nil
}

func parseData(text string) (sample.Sample, error) {
	if strings.TrimSpace(text) == "" {
		return sample.Sample{}, fmt.Errorf("%w: no data given", stats.ErrInvalidInput)
	}
	return sample.Parse(text)
}
