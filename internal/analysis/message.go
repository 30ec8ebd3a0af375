package analysis

import (
	"errors"

	"meanstat/internal/report"
	"meanstat/internal/stats"
)

var messages = []struct {
	err error
	msg string
}{
	{stats.ErrInvalidInput, "Enter the sample as numbers separated by commas."},
	{stats.ErrInsufficientData, "The sample needs at least two values."},
	{stats.ErrInvalidConfidenceLevel, "Enter a confidence level between 0 and 100 (for example 95)."},
	{stats.ErrInvalidHypothesis, "Enter the null hypothesis as a number."},
	{stats.ErrUnknownMethod, "Select a valid test type (Z or t)."},
	{stats.ErrDegenerateSample, "All sample values are equal; the standard error is zero."},
	{stats.ErrUnsupportedFormat, "Load a .csv, .xlsx or .parquet file."},
	{stats.ErrFileRead, "The file could not be read."},
	{report.ErrNoResult, "There are no results to save."},
}

// Message maps an error to the sentence shown to the user. Unknown errors
// fall back to their own text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return err.Error()
}

// IsUserError reports whether err came from invalid input rather than from
// the environment (storage, network).
func IsUserError(err error) bool {
	for _, m := range messages {
		if m.err == stats.ErrFileRead {
			continue
		}
		if errors.Is(err, m.err) {
			return true
		}
	}
	return false
}
