// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 18th 2026
// Project: Conditional Granger Causality Analysis of Multivariate Time Series
// Class: 02-613 at Carnegie Mellon University

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"Conditional_Granger_Causality_Project/internal/causality"
	"Conditional_Granger_Causality_Project/internal/graph"
	"Conditional_Granger_Causality_Project/internal/report"
	"Conditional_Granger_Causality_Project/internal/store"
	"Conditional_Granger_Causality_Project/internal/timeseries"
)

type analyzeFlags struct {
	input     string
	maxLag    int
	criterion string
	workers   int
	dotPath   string
	csvPath   string
	noisePath string
	title     string
}

func newAnalyzeCmd(a *app) *cobra.Command {
	f := &analyzeFlags{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the conditional Granger causality analysis on a CSV file",
		Long: `analyze reads a CSV file whose header names the signals and whose rows
are time points, prints the causality summary and saves the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAnalyze(cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.input, "input", "i", "", "CSV file with one column per signal")
	cmd.Flags().IntVar(&f.maxLag, "max-lag", 0, "Maximum lag considered by every test")
	cmd.Flags().StringVar(&f.criterion, "criterion", "", "Order selection criterion: bic or aic")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Concurrent model fits (0 = one per CPU)")
	cmd.Flags().StringVar(&f.dotPath, "dot", "", "Write the final causal graph as DOT to this path")
	cmd.Flags().StringVar(&f.csvPath, "csv", "", "Write the final edge list as CSV to this path")
	cmd.Flags().StringVar(&f.noisePath, "noise", "", "Write the residual noise covariance as CSV to this path")
	cmd.Flags().StringVar(&f.title, "title", "causality", "Graph name used in the DOT output")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (a *app) runAnalyze(cmd *cobra.Command, f *analyzeFlags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	cfg := a.cfg

	// 1. Merge command flags over the loaded configuration
	flags := cmd.Flags()
	if flags.Changed("max-lag") {
		cfg.Analysis.MaxLag = f.maxLag
	}
	if flags.Changed("criterion") {
		cfg.Analysis.Criterion = f.criterion
	}
	if flags.Changed("workers") {
		cfg.Analysis.Workers = f.workers
	}
	if flags.Changed("dot") {
		cfg.Output.DOT = f.dotPath
	}
	if flags.Changed("csv") {
		cfg.Output.CSV = f.csvPath
	}
	if flags.Changed("noise") {
		cfg.Output.Noise = f.noisePath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// 2. Load the signals
	set, err := timeseries.LoadCSV(f.input)
	if err != nil {
		return err
	}
	a.logger.Info("loaded signals", "path", f.input, "samples", set.Len(), "signals", set.Count())

	// 3. Build the analyzer
	opts, err := cfg.Options(a.logger)
	if err != nil {
		return err
	}
	analyzer, err := causality.New(opts)
	if err != nil {
		return err
	}

	// 4. Run the pipeline
	res, err := analyzer.Compute(ctx, set)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", f.input, err)
	}
	report.PrintResult(out, res, set.Names)

	// 5. Optional exports
	if err := a.export(res, set.Names, f.title); err != nil {
		return err
	}

	// 6. Persist the run
	s, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.CloseIfSupported(s)

	run := store.NewRun(f.input, set.Names, set.Len(), opts, res)
	if err := s.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	fmt.Fprintf(out, "Run ID: %s\n", run.ID)
	return nil
}

func (a *app) export(res *causality.Result, names []string, title string) error {
	out := a.cfg.Output

	if out.DOT != "" {
		data, err := graph.MarshalDOT(res.Links, names, title)
		if err != nil {
			return fmt.Errorf("encode graph: %w", err)
		}
		if err := report.WriteFile(out.DOT, func(w io.Writer) error {
			_, err := w.Write(append(data, '\n'))
			return err
		}); err != nil {
			return err
		}
		a.logger.Info("wrote causal graph", "path", out.DOT)
	}

	if out.CSV != "" {
		if err := report.WriteFile(out.CSV, func(w io.Writer) error {
			return report.WriteEdgesCSV(w, res, names)
		}); err != nil {
			return err
		}
		a.logger.Info("wrote edge list", "path", out.CSV)
	}

	if out.Noise != "" {
		if err := report.WriteFile(out.Noise, func(w io.Writer) error {
			return report.WriteMatrixCSV(w, res.NoiseCov, names)
		}); err != nil {
			return err
		}
		a.logger.Info("wrote noise covariance", "path", out.Noise)
	}
	return nil
}
