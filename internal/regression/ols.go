// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 18th 2026
// Project: Conditional Granger Causality Analysis of Multivariate Time Series
// Class: 02-613 at Carnegie Mellon University

// Package regression fits ordinary least squares models and scores them with
// information criteria. It is the regression oracle used by the lag-order
// selection, the joint model and the mediation test.
package regression

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrNumerical is returned when a fit cannot produce finite residuals or scores.
var ErrNumerical = errors.New("numerical error")

// rankTol is the relative singular value cutoff used by the SVD fallback.
const rankTol = 1e-12

// degenerateTol is the fraction of the response's sum of squares below which a
// residual sum of squares is rounding noise.
const degenerateTol = 1e-20

// Fit holds the outcome of a single least squares regression.
type Fit struct {
	// Coefficients in design-matrix column order
	Coefficients []float64
	// Observed minus fitted, one per row of the design
	Residuals []float64
	// Residual sum of squares
	RSS float64
	// Number of observations (rows)
	NObs int
	// Numerical rank of the design, intercept included
	Rank int
	// Sum of squared responses, the scale RSS is judged against
	ResponseSS float64

	LogLikelihood float64
	AIC           float64
	BIC           float64
}

// Regressor is the regression oracle consumed by the causality pipeline.
type Regressor interface {
	Fit(y []float64, x *mat.Dense) (*Fit, error)
}

// OLS is a stateless ordinary least squares Regressor. The zero value is ready to use.
type OLS struct{}

// Fit regresses y on the columns of x. The caller is responsible for including
// an intercept column in x.
//
// It first solves the normal equations beta = (X'X)^(-1) X'y; when X'X is
// singular or badly conditioned it falls back to the SVD minimum-norm solution.
func (OLS) Fit(y []float64, x *mat.Dense) (*Fit, error) {
	if x == nil {
		return nil, fmt.Errorf("%w: design matrix not provided", ErrNumerical)
	}
	n, m := x.Dims()
	if n == 0 || m == 0 {
		return nil, fmt.Errorf("%w: empty design matrix (%d x %d)", ErrNumerical, n, m)
	}
	if len(y) != n {
		return nil, fmt.Errorf("response has %d rows, design has %d", len(y), n)
	}
	for t, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite response at row %d", ErrNumerical, t)
		}
	}

	yVec := mat.NewVecDense(n, append([]float64(nil), y...))
	beta := mat.NewVecDense(m, nil)
	rank := m

	// 1. Normal equations
	var xtx mat.Dense
	xtx.Mul(x.T(), x)

	var xtxInv mat.Dense
	if errInv := xtxInv.Inverse(&xtx); errInv == nil {
		var xty mat.VecDense
		xty.MulVec(x.T(), yVec)
		beta.MulVec(&xtxInv, &xty)
	} else {
		// 2. Fallback: minimum-norm least squares through the SVD
		var svd mat.SVD
		if ok := svd.Factorize(x, mat.SVDFullU|mat.SVDFullV); !ok {
			return nil, fmt.Errorf("%w: X'X singular and SVD factorization failed: %v", ErrNumerical, errInv)
		}
		rank = svd.Rank(rankTol)

		// rank 0 means X is numerically all zeros, beta stays zero
		if rank > 0 {
			yMat := mat.NewDense(n, 1, yVec.RawVector().Data)
			var b mat.Dense
			svd.SolveTo(&b, yMat, rank)
			for i := 0; i < m; i++ {
				beta.SetVec(i, b.At(i, 0))
			}
		}
	}

	// 3. Residuals: observed minus fitted
	var yHat mat.VecDense
	yHat.MulVec(x, beta)

	var resid mat.VecDense
	resid.SubVec(yVec, &yHat)

	rss := mat.Dot(&resid, &resid)
	if math.IsNaN(rss) || math.IsInf(rss, 0) {
		return nil, fmt.Errorf("%w: residual sum of squares is %v", ErrNumerical, rss)
	}

	fit := &Fit{
		Coefficients: mat.Col(nil, 0, beta),
		Residuals:    mat.Col(nil, 0, &resid),
		RSS:          rss,
		NObs:         n,
		Rank:         rank,
		ResponseSS:   mat.Dot(yVec, yVec),
	}
	fit.LogLikelihood, fit.AIC, fit.BIC = informationCriteria(rss, n, rank)
	return fit, nil
}

// Degenerate reports whether the residual variance is zero up to rounding. A
// response that lies in the span of the design, such as a constant signal,
// leaves residuals of order 1e-16 times its magnitude.
func (f *Fit) Degenerate() bool {
	return !(f.RSS > degenerateTol*f.ResponseSS)
}

// informationCriteria returns the Gaussian log-likelihood and the AIC/BIC
// scores for a fit with the given residual sum of squares. Every column of the
// design, intercept included, counts as one parameter.
func informationCriteria(rss float64, n, k int) (llf, aic, bic float64) {
	nobs := float64(n)
	llf = -nobs / 2 * (math.Log(2*math.Pi) + math.Log(rss/nobs) + 1)
	aic = -2*llf + 2*float64(k)
	bic = -2*llf + math.Log(nobs)*float64(k)
	return llf, aic, bic
}
