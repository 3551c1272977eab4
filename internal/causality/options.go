// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 18th 2026
// Project: Conditional Granger Causality Analysis of Multivariate Time Series
// Class: 02-613 at Carnegie Mellon University

package causality

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"Conditional_Granger_Causality_Project/internal/granger"
	"Conditional_Granger_Causality_Project/internal/regression"
	"Conditional_Granger_Causality_Project/internal/timeseries"
)

var (
	// ErrConfig reports invalid construction parameters.
	ErrConfig = errors.New("config error")
	// ErrShape reports signals of unequal length or too few signals.
	ErrShape = timeseries.ErrShape
	// ErrNumerical reports a regression that produced degenerate or non-finite output.
	ErrNumerical = regression.ErrNumerical
)

const (
	// ScreeningPValue is the p-value a pairwise test must fall strictly below.
	ScreeningPValue = 0.01
	// MediationThreshold is the log variance ratio under which a link is mediated.
	MediationThreshold = 0.01
)

// PairwiseTester is the bivariate causality oracle used for screening.
type PairwiseTester interface {
	Test(target, driver []float64, maxLag int, criterion regression.Criterion) (*granger.Result, error)
}

// Options configure an Analyzer. Only MaxLag and Criterion affect the result.
type Options struct {
	// Maximum lag order tested, >= 1
	MaxLag int
	// Criterion ranking candidate lag orders
	Criterion regression.Criterion
	// Number of concurrent fits; 0 means runtime.NumCPU()
	Workers int

	// Logger receives detection and mediation messages; nil discards them
	Logger *slog.Logger
	// Regressor defaults to regression.OLS
	Regressor regression.Regressor
	// Pairwise defaults to granger.NewTester() sharing Regressor
	Pairwise PairwiseTester
}

// DefaultOptions mirrors the defaults of the command line: lag 1, BIC.
func DefaultOptions() Options {
	return Options{MaxLag: 1, Criterion: regression.BIC}
}

func (o Options) validate() error {
	if o.MaxLag <= 0 {
		return fmt.Errorf("%w: requires max lag to be a strictly positive integer, got %d", ErrConfig, o.MaxLag)
	}
	if !o.Criterion.Valid() {
		return fmt.Errorf("%w: requires criterion to be 'bic' or 'aic', got %s", ErrConfig, o.Criterion)
	}
	if o.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrConfig, o.Workers)
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.Workers == 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Regressor == nil {
		o.Regressor = regression.OLS{}
	}
	if o.Pairwise == nil {
		o.Pairwise = &granger.Tester{Regressor: o.Regressor}
	}
	return o
}
