package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"meanstat/internal/analysis"
	"meanstat/internal/curve"
	"meanstat/internal/record"
	"meanstat/internal/render"
	"meanstat/internal/report"
	"meanstat/internal/sample"
	"meanstat/internal/stats"
)

// inputFlags are shared by the interval and test commands.
type inputFlags struct {
	data     string
	file     string
	method   string
	save     string
	plot     string
	noRecord bool
}

func (f *inputFlags) register(cmd *cobra.Command, defaultFile string) {
	cmd.Flags().StringVar(&f.data, "data", "", "comma-separated sample values")
	cmd.Flags().StringVar(&f.file, "file", "", "load the sample from a .csv, .xlsx or .parquet file")
	cmd.Flags().StringVar(&f.method, "method", string(stats.MethodZ), "distribution: Z or t")
	cmd.Flags().StringVar(&f.save, "save", "", "save the result text (default file "+defaultFile+")")
	cmd.Flags().Lookup("save").NoOptDefVal = defaultFile
	cmd.Flags().StringVar(&f.plot, "plot", "", "write the curve to an image (.png, .svg, .pdf)")
	cmd.Flags().BoolVar(&f.noRecord, "no-record", false, "do not store the analysis in history")
}

// sampleText returns the data to analyse, reading --file when given.
func (f *inputFlags) sampleText() (string, error) {
	if f.file == "" {
		return f.data, nil
	}
	if f.data != "" {
		return "", fmt.Errorf("use either --data or --file, not both")
	}
	s, err := sample.ParseFile(f.file)
	if err != nil {
		return "", err
	}
	logger.Debug("loaded sample", zap.String("file", f.file), zap.Int("values", s.Len()))
	return s.String(), nil
}

// finish writes the optional outputs shared by both commands.
func (f *inputFlags) finish(text string, spec *curve.Spec, store func() (int64, error)) error {
	green := color.New(color.FgGreen)
	dim := color.New(color.Faint)

	if f.save != "" {
		if err := report.Save(f.save, text); err != nil {
			return err
		}
		_, _ = green.Printf("Saved %s\n", f.save)
	}

	if f.plot != "" {
		if spec == nil {
			color.Yellow("Zero-width interval, no curve to plot")
		} else {
			if err := render.Save(*spec, f.plot); err != nil {
				return err
			}
			_, _ = green.Printf("Wrote %s\n", f.plot)
		}
	}

	if f.noRecord {
		return nil
	}
	id, err := store()
	if err != nil {
		return err
	}
	_, _ = dim.Printf("Recorded analysis #%d\n", id)
	return nil
}

func printSummary(title string, method stats.Method, summary stats.Summary) {
	cyan := color.New(color.FgCyan)
	dim := color.New(color.Faint)

	_, _ = cyan.Println(title)
	_, _ = dim.Println(strings.Repeat("-", 40))
	fmt.Printf("Method:      %s\n", method.Title())
	fmt.Printf("Sample size: %d\n", summary.SampleSize)
	fmt.Printf("Mean:        %s\n", report.Float(summary.Mean))
	fmt.Printf("Std. error:  %s\n", report.Float(summary.StdErr))
}

func intervalCmd() *cobra.Command {
	var in inputFlags
	var confidence string

	cmd := &cobra.Command{
		Use:   "interval",
		Short: "Confidence interval for the mean",
		Long:  report.IntervalHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := in.sampleText()
			if err != nil {
				return err
			}

			res, err := analysis.RunInterval(analysis.IntervalRequest{Data: data, Confidence: confidence, Method: in.method})
			if err != nil {
				return err
			}

			printSummary(curve.TitleInterval, res.Method, res.Summary)
			fmt.Printf("Critical:    %s\n\n", report.Float(res.Interval.Critical))
			color.Green("%s", res.Text)

			return in.finish(res.Text, res.Curve, func() (int64, error) {
				database, err := openDB()
				if err != nil {
					return 0, err
				}
				defer closeDB(database)
				return record.Interval(database, res, nil)
			})
		},
	}

	in.register(cmd, report.IntervalFile)
	cmd.Flags().StringVar(&confidence, "confidence", "95", "confidence level in percent")

	return cmd
}

func testCmd() *cobra.Command {
	var in inputFlags
	var null string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Two-sided test of the mean against a null value",
		Long:  report.TestHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := in.sampleText()
			if err != nil {
				return err
			}

			res, err := analysis.RunTest(analysis.TestRequest{Data: data, Null: null, Method: in.method})
			if err != nil {
				return err
			}

			printSummary(curve.TitleTest, res.Method, res.Summary)
			fmt.Printf("H0:          %s\n\n", report.Float(res.Result.NullValue))
			color.Green("%s", res.Text)

			spec := res.Curve
			return in.finish(res.Text, &spec, func() (int64, error) {
				database, err := openDB()
				if err != nil {
					return 0, err
				}
				defer closeDB(database)
				return record.Test(database, res, nil)
			})
		},
	}

	in.register(cmd, report.TestFile)
	cmd.Flags().StringVar(&null, "null", "", "value of the mean under the null hypothesis")

	return cmd
}

func loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load [file]",
		Short: "Print a data file as comma-separated sample text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sample.ParseFile(args[0])
			if err != nil {
				return err
			}
			fmt.Println(s.String())
			_, _ = color.New(color.Faint).Printf("%d values\n", s.Len())
			return nil
		},
	}
}
