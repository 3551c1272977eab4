// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 18th 2026
// Project: Conditional Granger Causality Analysis of Multivariate Time Series
// Class: 02-613 at Carnegie Mellon University

package main

import (
	"fmt"
	"os"
)

// condgranger reads a CSV of simultaneously observed signals, infers the
// conditional Granger causality graph among them and stores the run.

func main() {
	// Execute the root command. Cobra handles parsing the arguments.
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
