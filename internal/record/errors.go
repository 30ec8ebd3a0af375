package record

import (
	"fmt"

	"meanstat/internal/stats"
)

var errNoCurve = fmt.Errorf("%w: no curve for a zero-width interval", stats.ErrDegenerateSample)
