package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"meanstat/internal/analysis"
	"meanstat/internal/db"
)

const envDB = "MEANSTAT_DB"

var (
	dbPath  string
	verbose bool
	logger  = zap.NewNop()
)

func defaultDBPath() string {
	if dsn := os.Getenv(envDB); dsn != "" {
		return dsn
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "meanstat.db"
	}
	return filepath.Join(home, ".local", "share", "meanstat", "history.db")
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// openDB opens the history store. The caller closes it with closeDB.
func openDB() (*db.DB, error) {
	database, err := db.Open(dbPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("opened history", zap.String("path", database.Path()))
	return database, nil
}

func closeDB(database *db.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error closing database: %v\n", err)
	}
}

func main() {
	// A missing .env is fine; the environment and flags still apply.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
	}

	rootCmd := &cobra.Command{
		Use:           "meanstat",
		Short:         "Confidence intervals and tests for a population mean",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(verbose)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			logger = l
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath(), "database path or postgres:// DSN (env "+envDB+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(intervalCmd())
	rootCmd.AddCommand(testCmd())
	rootCmd.AddCommand(loadCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(serveCmd())

	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		color.Red("%s", analysis.Message(err))
		if analysis.IsUserError(err) {
			logger.Debug("rejected input", zap.Error(err))
		}
		os.Exit(1)
	}
}
