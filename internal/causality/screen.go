// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 18th 2026
// Project: Conditional Granger Causality Analysis of Multivariate Time Series
// Class: 02-613 at Carnegie Mellon University

package causality

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"

	"Conditional_Granger_Causality_Project/internal/granger"
	"Conditional_Granger_Causality_Project/internal/regression"
)

// screen runs the pairwise oracle over every ordered pair (i, j), i != j, and
// returns the direct-link matrix: entry (i, j) is 1 when signal j Granger-causes
// signal i with a positive ratio and a p-value strictly below ScreeningPValue.
func screen(
	ctx context.Context,
	y *mat.Dense,
	tester PairwiseTester,
	maxLag int,
	criterion regression.Criterion,
	workers int,
	logger *slog.Logger,
) (*mat.Dense, error) {
	_, N := y.Dims()

	signals := make([][]float64, N)
	for k := range signals {
		signals[k] = mat.Col(nil, k, y)
	}

	// One slot per ordered pair, diagonal slots stay nil.
	results := make([]*granger.Result, N*N)
	err := parallel(ctx, workers, N*N, func(_ context.Context, idx int) error {
		i, j := idx/N, idx%N
		if i == j {
			return nil
		}
		res, err := tester.Test(signals[i], signals[j], maxLag, criterion)
		if err != nil {
			return fmt.Errorf("pairwise test %d -> %d: %w", j+1, i+1, err)
		}
		if math.IsNaN(res.Ratio) || math.IsNaN(res.PValue) {
			return fmt.Errorf("%w: pairwise test %d -> %d returned NaN", ErrNumerical, j+1, i+1)
		}
		results[idx] = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	direct := mat.NewDense(N, N, nil)
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			res := results[i*N+j]
			if res == nil {
				continue
			}
			if res.Ratio > 0 && res.PValue < ScreeningPValue {
				logger.Info("pairwise link detected",
					"driver", j+1, "target", i+1,
					"ratio", res.Ratio, "p_value", res.PValue, "lag", res.Lag)
				direct.Set(i, j, 1)
			}
		}
	}
	return direct, nil
}
