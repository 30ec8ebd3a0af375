package stats

import (
	"fmt"
	"strings"
)

// Method selects the reference distribution used for inference.
type Method string

const (
	// MethodZ uses the standard normal distribution.
	MethodZ Method = "Z"
	// MethodT uses Student's t with n-1 degrees of freedom.
	MethodT Method = "t"
)

// ParseMethod accepts the tokens "Z" and "t" in either case.
func ParseMethod(text string) (Method, error) {
	switch strings.TrimSpace(text) {
	case "Z", "z":
		return MethodZ, nil
	case "t", "T":
		return MethodT, nil
	}
	return "", fmt.Errorf("%w: got %q", ErrUnknownMethod, text)
}

func (m Method) valid() bool {
	return m == MethodZ || m == MethodT
}

// Title is the distribution name shown next to the plotted curve.
func (m Method) Title() string {
	if m == MethodT {
		return "Distribución t-Student"
	}
	return "Distribución Normal (Z)"
}
