// Package curve describes the probability density plot that accompanies an
// interval or a test result. It only produces data; drawing is left to the
// caller (see package render).
package curve

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"meanstat/internal/stats"
)

// Span is the half-width of the x-range in standard errors.
const Span = 4

// DefaultPoints is how many samples Points draws when asked for n <= 1.
const DefaultPoints = 100

// Reference line labels.
const (
	LabelLower     = "Límite inferior"
	LabelUpper     = "Límite superior"
	LabelMean      = "Media muestral"
	LabelNull      = "Hipótesis Nula (H0)"
	LabelStatistic = "Estadístico de prueba"
)

// Plot titles.
const (
	TitleInterval = "Intervalo de Confianza"
	TitleTest     = "Prueba de Medias"
	AxisX         = "Valores"
	AxisY         = "Densidad de probabilidad"
)

// ReferenceLine is a labelled vertical marker.
type ReferenceLine struct {
	Position float64 `json:"position"`
	Label    string  `json:"label"`
	Color    string  `json:"color"`
	Dashed   bool    `json:"dashed"`
}

// Spec is everything a renderer needs to draw the density and its markers.
type Spec struct {
	Title            string          `json:"title"`
	Method           stats.Method    `json:"method"`
	DistTitle        string          `json:"dist_title"`
	XMin             float64         `json:"x_min"`
	XMax             float64         `json:"x_max"`
	Mean             float64         `json:"mean"`
	Scale            float64         `json:"scale"`
	DegreesOfFreedom int             `json:"degrees_of_freedom,omitempty"` // 0 for the Z method
	Lines            []ReferenceLine `json:"lines"`
}

// Point is one (x, density) sample of the curve.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Describe builds a spec centred on the sample mean spanning ±Span standard
// errors. The sample-mean line is always appended after refs.
func Describe(summary stats.Summary, method stats.Method, refs ...ReferenceLine) (Spec, error) {
	if method != stats.MethodZ && method != stats.MethodT {
		return Spec{}, fmt.Errorf("%w: got %q", stats.ErrUnknownMethod, string(method))
	}
	if summary.SampleSize < 2 {
		return Spec{}, fmt.Errorf("%w: got %d", stats.ErrInsufficientData, summary.SampleSize)
	}
	if summary.Degenerate() {
		return Spec{}, fmt.Errorf("%w: density has no spread", stats.ErrDegenerateSample)
	}

	spec := Spec{
		Method:    method,
		DistTitle: method.Title(),
		XMin:      summary.Mean - Span*summary.StdErr,
		XMax:      summary.Mean + Span*summary.StdErr,
		Mean:      summary.Mean,
		Scale:     summary.StdErr,
	}
	if method == stats.MethodT {
		spec.DegreesOfFreedom = summary.DegreesOfFreedom()
	}

	spec.Lines = append(spec.Lines, refs...)
	spec.Lines = append(spec.Lines, ReferenceLine{
		Position: summary.Mean,
		Label:    LabelMean,
		Color:    "black",
	})
	return spec, nil
}

// ForInterval marks the interval bounds.
func ForInterval(summary stats.Summary, method stats.Method, iv stats.Interval) (Spec, error) {
	spec, err := Describe(summary, method,
		ReferenceLine{Position: iv.Lower, Label: LabelLower, Color: "red", Dashed: true},
		ReferenceLine{Position: iv.Upper, Label: LabelUpper, Color: "green", Dashed: true},
	)
	if err != nil {
		return Spec{}, err
	}
	spec.Title = TitleInterval
	return spec, nil
}

// ForTest marks the null value and the statistic, placed at
// mean + statistic·SE on the value axis.
func ForTest(summary stats.Summary, method stats.Method, res stats.TestResult) (Spec, error) {
	spec, err := Describe(summary, method,
		ReferenceLine{Position: res.NullValue, Label: LabelNull, Color: "orange", Dashed: true},
		ReferenceLine{Position: summary.Mean + res.Statistic*summary.StdErr, Label: LabelStatistic, Color: "red", Dashed: true},
	)
	if err != nil {
		return Spec{}, err
	}
	spec.Title = TitleTest
	return spec, nil
}

// Density evaluates the location-scale density at x.
func (s Spec) Density(x float64) float64 {
	if s.Method == stats.MethodT {
		return distuv.StudentsT{Mu: s.Mean, Sigma: s.Scale, Nu: float64(s.DegreesOfFreedom)}.Prob(x)
	}
	return distuv.Normal{Mu: s.Mean, Sigma: s.Scale}.Prob(x)
}

// Points samples the density at n evenly spaced x values, endpoints included.
func (s Spec) Points(n int) []Point {
	if n <= 1 {
		n = DefaultPoints
	}
	step := (s.XMax - s.XMin) / float64(n-1)
	pts := make([]Point, n)
	for i := range pts {
		x := s.XMin + float64(i)*step
		if i == n-1 {
			x = s.XMax
		}
		pts[i] = Point{X: x, Y: s.Density(x)}
	}
	return pts
}

// Peak is the density at the mean, the curve's maximum.
func (s Spec) Peak() float64 {
	return s.Density(s.Mean)
}
