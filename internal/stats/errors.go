package stats

import "errors"

// Errors returned by sample parsing and the inference procedures. Callers
// match them with errors.Is; the wrapped message names the offending input.
var (
	ErrInvalidInput           = errors.New("sample must be comma-separated numbers")
	ErrInvalidConfidenceLevel = errors.New("confidence level must be a number between 0 and 100")
	ErrInvalidHypothesis      = errors.New("null hypothesis must be a number")
	ErrUnknownMethod          = errors.New("method must be Z or t")
	ErrInsufficientData       = errors.New("sample needs at least 2 values")
	ErrDegenerateSample       = errors.New("sample has zero variance")
	ErrUnsupportedFormat      = errors.New("unsupported file format")
	ErrFileRead               = errors.New("cannot read file")
)
