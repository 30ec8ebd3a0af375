package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"meanstat/internal/db"
	"meanstat/internal/record"
	"meanstat/internal/render"
	"meanstat/internal/report"
	"meanstat/internal/web"
)

func shortDate(date string) string {
	if len(date) > 19 {
		return date[:19]
	}
	return date
}

// oneLine joins a multi-line result for table output.
func oneLine(text string) string {
	return strings.ReplaceAll(text, "\n", "  ")
}

func listCmd() *cobra.Command {
	var limit int
	var kind, since string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded analyses",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(database)

			analyses, err := database.ListAnalyses(limit, kind, since)
			if err != nil {
				return err
			}

			if len(analyses) == 0 {
				fmt.Println("No analyses found")
				return nil
			}

			cyan := color.New(color.FgCyan)
			dim := color.New(color.Faint)

			_, _ = cyan.Printf("%-6s %-9s %-3s %-5s %-20s %s\n", "ID", "Kind", "M", "n", "Date", "Result")
			_, _ = dim.Println(strings.Repeat("-", 90))

			for _, a := range analyses {
				fmt.Printf("%-6d %-9s %-3s %-5d %-20s %s\n",
					a.ID, a.Kind, a.Method, a.SampleSize, shortDate(a.CreatedAt), oneLine(a.ResultText))
			}

			total, err := database.CountAnalyses(kind)
			if err != nil {
				return err
			}
			if total > len(analyses) {
				_, _ = dim.Printf("%d of %d shown\n", len(analyses), total)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "max analyses to show")
	cmd.Flags().StringVar(&kind, "kind", "", "filter by kind (interval, test)")
	cmd.Flags().StringVar(&since, "since", "", "filter analyses since date (YYYY-MM-DD)")

	return cmd
}

func showCmd() *cobra.Command {
	var plotPath, savePath string

	cmd := &cobra.Command{
		Use:   "show [analysis_id]",
		Short: "Show a recorded analysis",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(database)

			var a *db.Analysis
			if len(args) == 0 {
				a, err = database.GetLatestAnalysis()
				if err != nil {
					return fmt.Errorf("no analyses found: %w", err)
				}
			} else {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid analysis ID: %w", err)
				}
				a, err = database.GetAnalysis(id)
				if err != nil {
					return fmt.Errorf("analysis not found: %w", err)
				}
			}

			cyan := color.New(color.FgCyan)
			dim := color.New(color.Faint)

			_, _ = cyan.Printf("Analysis #%d (%s)\n", a.ID, a.Kind)
			_, _ = dim.Println(strings.Repeat("-", 50))
			fmt.Printf("Date:        %s\n", a.CreatedAt)
			fmt.Printf("Method:      %s\n", a.Method)
			fmt.Printf("Sample:      %s\n", a.Sample)
			fmt.Printf("Sample size: %d\n", a.SampleSize)
			fmt.Printf("Mean:        %s\n", report.Float(a.Mean))
			fmt.Printf("Std. error:  %s\n", report.Float(a.StdErr))
			if a.Critical != nil {
				fmt.Printf("Confidence:  %s%%\n", report.Float(a.Parameter))
				fmt.Printf("Critical:    %s\n", report.Float(*a.Critical))
			} else {
				fmt.Printf("H0:          %s\n", report.Float(a.Parameter))
			}
			fmt.Println()
			color.Green("%s", a.ResultText)

			if savePath != "" {
				if err := report.Save(savePath, a.ResultText); err != nil {
					return err
				}
				color.Green("Saved %s", savePath)
			}
			if plotPath != "" {
				spec, err := record.Curve(a)
				if err != nil {
					return err
				}
				if err := render.Save(spec, plotPath); err != nil {
					return err
				}
				color.Green("Wrote %s", plotPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&plotPath, "plot", "", "write the curve to an image (.png, .svg, .pdf)")
	cmd.Flags().StringVar(&savePath, "save", "", "save the result text")

	return cmd
}

func deleteCmd() *cobra.Command {
	var before string

	cmd := &cobra.Command{
		Use:   "delete [analysis_id]",
		Short: "Delete analyses",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(database)

			if before != "" {
				count, err := database.DeleteAnalysesBefore(before)
				if err != nil {
					return err
				}
				color.Green("Deleted %d analyses before %s", count, before)
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("specify analysis_id or --before date")
			}

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid analysis ID: %w", err)
			}

			if err := database.DeleteAnalysis(id); err != nil {
				return fmt.Errorf("delete analysis #%d: %w", id, err)
			}

			color.Green("Deleted analysis #%d", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&before, "before", "", "delete analyses before date (YYYY-MM-DD)")

	return cmd
}

func serveCmd() *cobra.Command {
	var port int
	var open bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web UI server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !verbose {
				l, err := newServeLogger()
				if err != nil {
					return err
				}
				logger = l
			}

			database, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(database)

			logger.Info("curve cache", zap.String("dir", web.DefaultCacheDir()))
			addr := fmt.Sprintf(":%d", port)
			server := web.NewServer(database, addr, logger)
			return server.Start(open)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on")
	cmd.Flags().BoolVar(&open, "open", false, "open browser automatically")

	return cmd
}

// newServeLogger logs at info level so request and startup lines show.
func newServeLogger() (*zap.Logger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l.With(zap.Int("pid", os.Getpid())), nil
}
