// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 18th 2026
// Project: Conditional Granger Causality Analysis of Multivariate Time Series
// Class: 02-613 at Carnegie Mellon University

// Package report prints causality results and exports them to CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"gonum.org/v1/gonum/mat"

	"Conditional_Granger_Causality_Project/internal/causality"
	"Conditional_Granger_Causality_Project/internal/graph"
)

// Edge kinds in exported edge lists
const (
	KindDirect   = "direct"
	KindMediated = "mediated"
)

// EdgeKind tells whether the final edge j -> i survived as a direct link or was
// written as part of a mediated path.
func EdgeKind(res *causality.Result, i, j int) string {
	if res.Direct.At(i, j) == 1 {
		return KindDirect
	}
	return KindMediated
}

func name(names []string, k int) string {
	if k < len(names) {
		return names[k]
	}
	return fmt.Sprintf("Var%d", k+1)
}

// PrintResult writes a human readable summary of res.
func PrintResult(w io.Writer, res *causality.Result, names []string) {
	if res == nil {
		fmt.Fprintln(w, "causality result is nil")
		return
	}
	N, _ := res.Links.Dims()

	fmt.Fprintln(w, "      Conditional Granger Causality Summary      ")
	fmt.Fprintf(w, "Number of signals (N):   %d\n", N)
	fmt.Fprintf(w, "Joint lag order:         %d\n", res.LagOrder)
	fmt.Fprintf(w, "Per-signal orders:       %v\n", res.SignalOrders)
	if len(names) > 0 {
		fmt.Fprintf(w, "Signals:                 %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintln(w)

	// Pairwise screening
	fmt.Fprintln(w, "=== Results of pairwise analysis ===")
	screened := graph.Edges(res.Screened)
	if len(screened) == 0 {
		fmt.Fprintln(w, "no pairwise link detected")
	}
	for _, e := range screened {
		fmt.Fprintf(w, "signal %d (%s) -> %d (%s) detected\n",
			e.From+1, name(names, e.From), e.To+1, name(names, e.To))
	}
	fmt.Fprintln(w)

	// Mediation
	fmt.Fprintln(w, "=== Mediated links ===")
	if len(res.Mediations) == 0 {
		fmt.Fprintln(w, "none")
	}
	for _, m := range res.Mediations {
		fmt.Fprintf(w, "signal %d -> %d is mediated by signal %d (ratio %.6f)\n",
			m.Driver+1, m.Target+1, m.Mediator+1, m.Ratio)
	}
	fmt.Fprintln(w)

	// Final graph
	fmt.Fprintln(w, "=== Final links ===")
	fmt.Fprintf(w, "%-20s -> %-20s | Kind\n", "Driver", "Target")
	fmt.Fprintln(w, "------------------------------------------------------")
	for _, e := range graph.Edges(res.Links) {
		fmt.Fprintf(w, "%-20s -> %-20s | %s\n",
			name(names, e.From), name(names, e.To), EdgeKind(res, e.To, e.From))
	}
	if order, err := graph.Order(res.Links); err == nil {
		labels := make([]string, len(order))
		for k, s := range order {
			labels[k] = name(names, s)
		}
		fmt.Fprintf(w, "Causal order: %s\n", strings.Join(labels, " -> "))
	} else {
		for _, c := range graph.Cycles(res.Links) {
			labels := make([]string, len(c))
			for k, s := range c {
				labels[k] = name(names, s)
			}
			fmt.Fprintf(w, "Feedback loop: %s\n", strings.Join(labels, ", "))
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Link matrix (row = target, column = driver):")
	fmt.Fprintf(w, "%v\n\n", mat.Formatted(res.Links, mat.Prefix("  ")))

	if res.NoiseCov != nil {
		fmt.Fprintln(w, "Residual noise covariance matrix:")
		fmt.Fprintf(w, "%v\n", mat.Formatted(res.NoiseCov, mat.Prefix("  ")))
	}
	fmt.Fprintln(w, "=================================================")
}

// WriteEdgesCSV writes the final edges of res.
// Columns: Driver, Target, DriverIndex, TargetIndex, Kind
func WriteEdgesCSV(w io.Writer, res *causality.Result, names []string) error {
	writer := csv.NewWriter(w)

	header := []string{"Driver", "Target", "DriverIndex", "TargetIndex", "Kind"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, e := range graph.Edges(res.Links) {
		rec := []string{
			name(names, e.From),
			name(names, e.To),
			fmt.Sprintf("%d", e.From+1),
			fmt.Sprintf("%d", e.To+1),
			EdgeKind(res, e.To, e.From),
		}
		if err := writer.Write(rec); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteMatrixCSV writes m with a header and a leading name column.
func WriteMatrixCSV(w io.Writer, m mat.Matrix, names []string) error {
	r, c := m.Dims()
	writer := csv.NewWriter(w)

	header := make([]string, c+1)
	for j := 0; j < c; j++ {
		header[j+1] = name(names, j)
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for i := 0; i < r; i++ {
		rec := make([]string, c+1)
		rec[0] = name(names, i)
		for j := 0; j < c; j++ {
			rec[j+1] = fmt.Sprintf("%g", m.At(i, j))
		}
		if err := writer.Write(rec); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile creates path and hands it to write.
func WriteFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}
