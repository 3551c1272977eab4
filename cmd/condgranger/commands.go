// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 18th 2026
// Project: Conditional Granger Causality Analysis of Multivariate Time Series
// Class: 02-613 at Carnegie Mellon University

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"Conditional_Granger_Causality_Project/internal/config"
	"Conditional_Granger_Causality_Project/internal/store"
)

// app carries what the root command resolved for its subcommands.
type app struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
	storeKind  string
	dbPath     string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "condgranger",
		Short: "Infer conditional Granger causality among time series",
		Long: `condgranger screens every ordered pair of signals with a bivariate
Granger test, fits a joint autoregressive model and rewrites links that are
explained by a third signal as mediated paths.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", "", "Path to a .env file (default .env when present)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&a.storeKind, "store", "", "Run store backend: memory or sqlite")
	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path for the sqlite store")

	rootCmd.AddCommand(newAnalyzeCmd(a))
	rootCmd.AddCommand(newRunsCmd(a))
	return rootCmd
}

// load resolves the configuration. Flags win over the environment, which wins
// over the configuration file.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, a.envFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if flags.Changed("store") {
		cfg.Store.Kind = a.storeKind
	}
	if flags.Changed("db") {
		cfg.Store.Path = a.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = cfg.Log.Logger(cmd.ErrOrStderr())
	return nil
}

// openStore returns an initialized store; callers close it with
// store.CloseIfSupported.
func (a *app) openStore(ctx context.Context) (store.Store, error) {
	s, err := store.NewStore(a.cfg.Store.Kind, a.cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := s.Init(ctx); err != nil {
		return nil, fmt.Errorf("init %s store: %w", a.cfg.Store.Kind, err)
	}
	if a.cfg.Store.Kind != "sqlite" {
		a.logger.Debug("runs are kept in memory and discarded on exit", "store", a.cfg.Store.Kind)
	}
	return s, nil
}
