// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 18th 2026
// Project: Conditional Granger Causality Analysis of Multivariate Time Series
// Class: 02-613 at Carnegie Mellon University

package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"Conditional_Granger_Causality_Project/internal/graph"
	"Conditional_Granger_Causality_Project/internal/report"
	"Conditional_Granger_Causality_Project/internal/store"
)

func newRunsCmd(a *app) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored analysis runs",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd)
		},
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "Print the summary of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShow(cmd, args[0])
		},
	}

	runsCmd.AddCommand(listCmd, showCmd)
	return runsCmd
}

func (a *app) runList(cmd *cobra.Command) error {
	ctx := cmd.Context()
	s, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.CloseIfSupported(s)

	runs, err := s.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs stored")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tINPUT\tSIGNALS\tSAMPLES\tLAG\tCRITERION\tLINKS")
	for _, run := range runs {
		res := run.Result()
		links := 0
		if res.Links != nil {
			links = len(graph.Edges(res.Links))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%d\n",
			run.ID, run.CreatedAt.Format(time.RFC3339), run.Input,
			len(run.Names), run.Samples, run.LagOrder, run.Criterion, links)
	}
	return tw.Flush()
}

func (a *app) runShow(cmd *cobra.Command, id string) error {
	ctx := cmd.Context()
	s, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.CloseIfSupported(s)

	run, ok, err := s.GetRun(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("run %s not found", id)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s (%s)\n", run.ID, run.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "Input: %s, %d samples, max lag %d, %s\n\n", run.Input, run.Samples, run.MaxLag, run.Criterion)
	report.PrintResult(out, run.Result(), run.Names)
	return nil
}
