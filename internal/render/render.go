// Package render draws a curve.Spec with gonum/plot.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"meanstat/internal/curve"
)

// Default canvas size, 6x4 inches.
const (
	Width  = 6 * vg.Inch
	Height = 4 * vg.Inch
)

var palette = map[string]color.Color{
	"black":  color.Black,
	"blue":   color.RGBA{R: 31, G: 119, B: 180, A: 255},
	"red":    color.RGBA{R: 214, G: 39, B: 40, A: 255},
	"green":  color.RGBA{R: 44, G: 160, B: 44, A: 255},
	"orange": color.RGBA{R: 255, G: 127, B: 14, A: 255},
}

func lookup(name string) color.Color {
	if c, ok := palette[name]; ok {
		return c
	}
	return color.Black
}

// Plot builds the density line, reference lines, legend and grid.
func Plot(spec curve.Spec) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = spec.Title
	p.X.Label.Text = curve.AxisX
	p.Y.Label.Text = curve.AxisY
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	pts := spec.Points(curve.DefaultPoints)
	xys := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	density, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("density line: %w", err)
	}
	density.Color = lookup("blue")
	density.Width = vg.Points(1.5)
	p.Add(density)
	p.Legend.Add(spec.DistTitle, density)

	top := spec.Peak() * 1.05
	for _, ref := range spec.Lines {
		line, err := plotter.NewLine(plotter.XYs{{X: ref.Position, Y: 0}, {X: ref.Position, Y: top}})
		if err != nil {
			return nil, fmt.Errorf("reference line %q: %w", ref.Label, err)
		}
		line.Color = lookup(ref.Color)
		if ref.Dashed {
			line.Dashes = []vg.Length{vg.Points(5), vg.Points(3)}
		}
		p.Add(line)
		p.Legend.Add(ref.Label, line)
	}

	p.Y.Min = 0
	p.Y.Max = top
	return p, nil
}

// Save writes the plot to path; the extension picks the format
// (png, svg, pdf, ...).
func Save(spec curve.Spec, path string) error {
	p, err := Plot(spec)
	if err != nil {
		return err
	}
	if err := p.Save(Width, Height, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

// WriteSVG writes the plot as SVG.
func WriteSVG(w io.Writer, spec curve.Spec) error {
	p, err := Plot(spec)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(Width, Height, "svg")
	if err != nil {
		return fmt.Errorf("svg writer: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// SVG returns the plot as SVG bytes.
func SVG(spec curve.Spec) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteSVG(&buf, spec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
