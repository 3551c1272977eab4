// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 18th 2026
// Project: Conditional Granger Causality Analysis of Multivariate Time Series
// Class: 02-613 at Carnegie Mellon University

// Package granger implements the bivariate Granger causality test used to
// screen every ordered pair of signals.
package granger

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"Conditional_Granger_Causality_Project/internal/lagmat"
	"Conditional_Granger_Causality_Project/internal/regression"
)

// Result holds the outcome of one pairwise test of driver -> target.
type Result struct {
	// Ratio is ln(restricted residual variance) - ln(unrestricted residual variance)
	Ratio      float64
	FStatistic float64
	PValue     float64
	// Lag order chosen by the information criterion
	Lag int
}

// Tester runs the pairwise test with a pluggable regression oracle.
type Tester struct {
	Regressor regression.Regressor
}

// NewTester returns a Tester backed by ordinary least squares.
func NewTester() *Tester {
	return &Tester{Regressor: regression.OLS{}}
}

// Test asks whether driver Granger-causes target.
//
// The lag order is the first minimum of the criterion over 1..maxLag for the
// unrestricted model (target on lags of target and driver). At that order the
// restricted model drops the driver lags and the F statistic compares the two.
func (g *Tester) Test(target, driver []float64, maxLag int, criterion regression.Criterion) (*Result, error) {
	if len(target) != len(driver) {
		return nil, fmt.Errorf("signals must have the same size: %d != %d", len(target), len(driver))
	}
	if maxLag <= 0 {
		return nil, fmt.Errorf("requires max lag to be strictly positive, got %d", maxLag)
	}

	T := len(target)
	y := mat.NewDense(T, 2, nil)
	y.SetCol(0, target)
	y.SetCol(1, driver)

	// 1. Select the lag order on the unrestricted model
	var (
		best      *regression.Fit
		bestLag   int
		bestScore = math.Inf(1)
	)
	for lag := 1; lag <= maxLag; lag++ {
		d, err := lagmat.Build(y, []int{0, 1}, lag)
		if err != nil {
			return nil, err
		}
		fit, err := g.Regressor.Fit(d.Response, d.X)
		if err != nil {
			return nil, fmt.Errorf("unrestricted fit at lag %d: %w", lag, err)
		}
		score := criterion.Score(fit)
		if math.IsNaN(score) {
			return nil, fmt.Errorf("%w: %s is NaN at lag %d", regression.ErrNumerical, criterion, lag)
		}
		if best == nil || score < bestScore {
			best, bestLag, bestScore = fit, lag, score
		}
	}

	// 2. Restricted model: own lags only
	d, err := lagmat.Build(y, []int{0}, bestLag)
	if err != nil {
		return nil, err
	}
	restricted, err := g.Regressor.Fit(d.Response, d.X)
	if err != nil {
		return nil, fmt.Errorf("restricted fit at lag %d: %w", bestLag, err)
	}

	rssU := best.RSS
	rssR := restricted.RSS
	if best.Degenerate() || restricted.Degenerate() {
		return nil, fmt.Errorf("%w: degenerate residual variance (restricted %g, unrestricted %g)",
			regression.ErrNumerical, rssR, rssU)
	}

	// Both models share the same rows, so the variance ratio is the RSS ratio.
	ratio := math.Log(rssR) - math.Log(rssU)

	// 3. F statistic and p-value
	q := float64(bestLag)                     // number of restrictions
	dof := float64(best.NObs - 2*bestLag - 1) // denominator degrees of freedom
	if dof <= 0 {
		return nil, fmt.Errorf("insufficient degrees of freedom: %f", dof)
	}

	// In theory rssR >= rssU, floating point can make the difference slightly negative
	num := rssR - rssU
	if num < 0 {
		num = 0
	}

	fStatistic := 0.0
	pValue := 1.0
	if num > 0 {
		fStatistic = (num / q) / (rssU / dof)
		if fStatistic > 0 && !math.IsNaN(fStatistic) && !math.IsInf(fStatistic, 0) {
			fDist := distuv.F{D1: q, D2: dof}
			pValue = 1.0 - fDist.CDF(fStatistic)
		} else {
			fStatistic = 0
		}
	}

	// Final sanity clamp on pValue to ensure it's in [0, 1]
	pValue = math.Min(math.Max(pValue, 0), 1)

	return &Result{
		Ratio:      ratio,
		FStatistic: fStatistic,
		PValue:     pValue,
		Lag:        bestLag,
	}, nil
}
