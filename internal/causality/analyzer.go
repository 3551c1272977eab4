// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 18th 2026
// Project: Conditional Granger Causality Analysis of Multivariate Time Series
// Class: 02-613 at Carnegie Mellon University

// Package causality infers directed conditional Granger causality among a set
// of simultaneously observed signals.
//
// The pipeline runs four stages, each consuming the complete output of the
// previous one:
//
//  1. screening: bivariate Granger tests on every ordered pair give the
//     direct-link matrix,
//  2. lag order selection for the joint (VAR) model,
//  3. joint model fit and residual noise covariance,
//  4. mediation testing: each screened link is kept as direct or rewritten as
//     a path through a third signal.
//
// Fits inside a stage are independent and run concurrently; every fit writes
// to its own slot so results do not depend on scheduling.
package causality

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"Conditional_Granger_Causality_Project/internal/timeseries"
)

// Result is the outcome of one Compute call. Link matrices are N x N with a
// zero diagonal and are indexed by 0-based signal identity: entry (i, j) = 1
// stands for an edge j -> i.
type Result struct {
	// Links is the final link matrix
	Links *mat.Dense
	// Screened is the direct-link matrix as produced by pairwise screening
	Screened *mat.Dense
	// Direct is the direct-link matrix after mediated links were cleared
	Direct *mat.Dense
	// LagOrder is the shared order of the joint model
	LagOrder int
	// SignalOrders are the per-signal optimal orders LagOrder was derived from
	SignalOrders []int
	// NoiseCov is the residual covariance of the joint model
	NoiseCov   *mat.SymDense
	Mediations []Mediation
}

// Analyzer runs the conditional Granger causality pipeline with fixed options.
// It holds no state between calls and is safe for concurrent use.
type Analyzer struct {
	opts Options
}

// New validates opts and returns an Analyzer.
func New(opts Options) (*Analyzer, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Analyzer{opts: opts.withDefaults()}, nil
}

// Options returns the effective options.
func (a *Analyzer) Options() Options { return a.opts }

// ComputeSignals builds a signal set from one slice per signal and runs Compute.
func (a *Analyzer) ComputeSignals(ctx context.Context, signals ...[]float64) (*Result, error) {
	if len(signals) < 2 {
		return nil, tooFewSignals(len(signals))
	}
	set, err := timeseries.New(signals, nil)
	if err != nil {
		return nil, err
	}
	return a.Compute(ctx, set)
}

// Compute runs the whole pipeline. It returns a complete result or an error
// wrapping ErrShape, ErrConfig or ErrNumerical; there are no partial results.
func (a *Analyzer) Compute(ctx context.Context, set *timeseries.SignalSet) (*Result, error) {
	if set == nil || set.Y == nil {
		return nil, fmt.Errorf("%w: signal set not provided", ErrShape)
	}
	T, N := set.Y.Dims()
	if N < 2 {
		return nil, tooFewSignals(N)
	}
	if T <= a.opts.MaxLag+1 {
		return nil, fmt.Errorf("%w: %d samples are too few for max lag %d", ErrShape, T, a.opts.MaxLag)
	}

	opts := a.opts
	logger := opts.Logger.With("signals", N, "samples", T)
	y := set.Y

	// 1. Pairwise screening
	screened, err := screen(ctx, y, opts.Pairwise, opts.MaxLag, opts.Criterion, opts.Workers, logger)
	if err != nil {
		return nil, fmt.Errorf("pairwise screening: %w", err)
	}

	// 2. Shared lag order of the joint model
	lag, perSignal, err := selectLagOrder(ctx, y, opts.Regressor, opts.MaxLag, opts.Criterion, opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("lag order selection: %w", err)
	}
	logger.Debug("joint lag order selected", "lag", lag, "per_signal", perSignal, "criterion", opts.Criterion.String())

	// 3. Full joint model and its noise covariance
	joint, err := fitJoint(ctx, y, opts.Regressor, lag, opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("joint model: %w", err)
	}

	// 4. Mediation testing against the joint noise
	direct := mat.DenseCopyOf(screened)
	links, mediations, err := testMediation(ctx, y, direct, joint.NoiseCov, opts.Regressor, lag, opts.Workers, logger)
	if err != nil {
		return nil, fmt.Errorf("mediation test: %w", err)
	}

	return &Result{
		Links:        links,
		Screened:     screened,
		Direct:       direct,
		LagOrder:     lag,
		SignalOrders: perSignal,
		NoiseCov:     joint.NoiseCov,
		Mediations:   mediations,
	}, nil
}

func tooFewSignals(n int) error {
	return fmt.Errorf("%w: %w: at least 2 signals are required, got %d", ErrShape, ErrConfig, n)
}
