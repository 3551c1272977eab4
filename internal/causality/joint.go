// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 18th 2026
// Project: Conditional Granger Causality Analysis of Multivariate Time Series
// Class: 02-613 at Carnegie Mellon University

package causality

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"Conditional_Granger_Causality_Project/internal/lagmat"
	"Conditional_Granger_Causality_Project/internal/regression"
)

// JointModel is the full VAR fitted equation by equation at one shared lag order.
type JointModel struct {
	Lag int
	// Residuals is (T-Lag) x N; column k belongs to signal k's equation
	Residuals *mat.Dense
	// NoiseCov is the sample covariance of the residual columns
	NoiseCov *mat.SymDense
	// Coefficients[k] follows the design column order of lagmat.Rotate(N, k)
	Coefficients [][]float64
}

// selectLagOrder picks one lag order for the joint model. For each signal k the
// rotated design (k leading) is fitted at every lag 1..maxLag and the first
// lag with the minimum criterion wins; the shared order is the ceiling of the
// mean of these per-signal optima.
func selectLagOrder(
	ctx context.Context,
	y *mat.Dense,
	reg regression.Regressor,
	maxLag int,
	criterion regression.Criterion,
	workers int,
) (int, []int, error) {
	_, N := y.Dims()

	// scores[k*maxLag + lag-1]
	scores := make([]float64, N*maxLag)
	err := parallel(ctx, workers, N*maxLag, func(_ context.Context, idx int) error {
		k, lag := idx/maxLag, idx%maxLag+1
		d, err := lagmat.Build(y, lagmat.Rotate(N, k), lag)
		if err != nil {
			return err
		}
		fit, err := reg.Fit(d.Response, d.X)
		if err != nil {
			return fmt.Errorf("order selection for signal %d at lag %d: %w", k+1, lag, err)
		}
		score := criterion.Score(fit)
		if math.IsNaN(score) {
			return fmt.Errorf("%w: %s is NaN for signal %d at lag %d", ErrNumerical, criterion, k+1, lag)
		}
		scores[idx] = score
		return nil
	})
	if err != nil {
		return 0, nil, err
	}

	perSignal := make([]int, N)
	for k := 0; k < N; k++ {
		perSignal[k] = argminLag(scores[k*maxLag : (k+1)*maxLag])
	}
	return meanOrder(perSignal), perSignal, nil
}

// argminLag returns the 1-based position of the first minimum of scores.
func argminLag(scores []float64) int {
	best := 0
	for l := 1; l < len(scores); l++ {
		if scores[l] < scores[best] {
			best = l
		}
	}
	return best + 1
}

// meanOrder is the ceiling of the arithmetic mean of the per-signal orders.
func meanOrder(orders []int) int {
	sum := 0
	for _, o := range orders {
		sum += o
	}
	// integer ceiling keeps exact means such as 2.0 from rounding up
	return (sum + len(orders) - 1) / len(orders)
}

// fitJoint fits one equation per signal at the shared lag order, each with the
// signal rotated to lead, and estimates the residual noise covariance.
func fitJoint(ctx context.Context, y *mat.Dense, reg regression.Regressor, lag, workers int) (*JointModel, error) {
	T, N := y.Dims()

	residuals := mat.NewDense(T-lag, N, nil)
	coefficients := make([][]float64, N)
	err := parallel(ctx, workers, N, func(_ context.Context, k int) error {
		d, err := lagmat.Build(y, lagmat.Rotate(N, k), lag)
		if err != nil {
			return err
		}
		fit, err := reg.Fit(d.Response, d.X)
		if err != nil {
			return fmt.Errorf("joint model equation %d: %w", k+1, err)
		}
		if fit.Degenerate() {
			return fmt.Errorf("%w: joint model equation %d leaves no residual variance (RSS %g)",
				ErrNumerical, k+1, fit.RSS)
		}
		// column k is this goroutine's slot
		residuals.SetCol(k, fit.Residuals)
		coefficients[k] = fit.Coefficients
		return nil
	})
	if err != nil {
		return nil, err
	}

	if T-lag < 2 {
		return nil, fmt.Errorf("%w: %d residual rows are too few for a covariance", ErrNumerical, T-lag)
	}
	noise := mat.NewSymDense(N, nil)
	stat.CovarianceMatrix(noise, residuals, nil)

	for k := 0; k < N; k++ {
		v := noise.At(k, k)
		if !(v > 0) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: residual variance of signal %d is %g", ErrNumerical, k+1, v)
		}
	}

	return &JointModel{
		Lag:          lag,
		Residuals:    residuals,
		NoiseCov:     noise,
		Coefficients: coefficients,
	}, nil
}
