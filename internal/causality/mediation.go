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

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	"Conditional_Granger_Causality_Project/internal/lagmat"
	"Conditional_Granger_Causality_Project/internal/regression"
)

// Mediation records a screened link Driver -> Target explained by Mediator.
type Mediation struct {
	Target   int     `json:"target"`
	Driver   int     `json:"driver"`
	Mediator int     `json:"mediator"`
	Ratio    float64 `json:"ratio"`
}

// reducedColumns is the signal set of the reduced regression for link j -> i:
// signal i first, then at most two of the signals left after removing i and j,
// in their original order.
func reducedColumns(N, i, j int) []int {
	cols := []int{i}
	for c := 0; c < N && len(cols) < 3; c++ {
		if c != i && c != j {
			cols = append(cols, c)
		}
	}
	return cols
}

// reducedRatio fits the reduced model for link j -> i and returns
// ln(var_noise) - ln(noise[i][i]), where var_noise is the population variance
// of the reduced residuals.
func reducedRatio(y *mat.Dense, reg regression.Regressor, noise mat.Symmetric, i, j, lag int) (float64, error) {
	_, N := y.Dims()
	d, err := lagmat.Build(y, reducedColumns(N, i, j), lag)
	if err != nil {
		return 0, err
	}
	fit, err := reg.Fit(d.Response, d.X)
	if err != nil {
		return 0, fmt.Errorf("reduced model for %d -> %d: %w", j+1, i+1, err)
	}
	if fit.Degenerate() {
		return 0, fmt.Errorf("%w: reduced model for %d -> %d leaves no residual variance (RSS %g)",
			ErrNumerical, j+1, i+1, fit.RSS)
	}

	varNoise, err := stats.PopulationVariance(fit.Residuals)
	if err != nil {
		return 0, fmt.Errorf("%w: reduced residual variance for %d -> %d: %v", ErrNumerical, j+1, i+1, err)
	}
	full := noise.At(i, i)
	if !(varNoise > 0) || !(full > 0) {
		return 0, fmt.Errorf("%w: degenerate variance for %d -> %d (reduced %g, full %g)",
			ErrNumerical, j+1, i+1, varNoise, full)
	}

	ratio := math.Log(varNoise) - math.Log(full)
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0, fmt.Errorf("%w: mediation ratio for %d -> %d is %v", ErrNumerical, j+1, i+1, ratio)
	}
	return ratio, nil
}

// testMediation decides, for every screened link j -> i, whether it is direct
// or mediated by a third signal. direct is updated in place: mediated links are
// cleared. It returns the final link matrix and the mediation decisions.
//
// Candidates k are scanned in ascending order. The first candidate whose ratio
// falls below MediationThreshold wins: (i, k) and (k, j) are set and the scan
// stops. Every candidate that does not qualify marks (i, j) as direct and the
// scan goes on. The reduced model does not depend on k. A link with no
// candidate at all (N < 3) stays direct.
func testMediation(
	ctx context.Context,
	y *mat.Dense,
	direct *mat.Dense,
	noise mat.Symmetric,
	reg regression.Regressor,
	lag, workers int,
	logger *slog.Logger,
) (*mat.Dense, []Mediation, error) {
	_, N := y.Dims()

	// Screened links in row-major order.
	type link struct{ i, j int }
	var links []link
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			if direct.At(i, j) == 1 {
				links = append(links, link{i, j})
			}
		}
	}

	// Reduced models are only needed when a third signal exists.
	ratios := make([]float64, len(links))
	jobs := len(links)
	if N < 3 {
		jobs = 0
	}
	err := parallel(ctx, workers, jobs, func(_ context.Context, idx int) error {
		r, err := reducedRatio(y, reg, noise, links[idx].i, links[idx].j, lag)
		if err != nil {
			return err
		}
		ratios[idx] = r
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	final := mat.NewDense(N, N, nil)
	var mediations []Mediation
	for idx, l := range links {
		i, j := l.i, l.j
		mediated := false
		for k := 0; k < N; k++ {
			if k == i || k == j {
				continue
			}
			if ratios[idx] < MediationThreshold {
				logger.Info("link is mediated",
					"driver", j+1, "target", i+1, "mediator", k+1, "ratio", ratios[idx])
				direct.Set(i, j, 0)
				final.Set(i, k, 1)
				final.Set(k, j, 1)
				mediations = append(mediations, Mediation{Target: i, Driver: j, Mediator: k, Ratio: ratios[idx]})
				mediated = true
				break
			}
			final.Set(i, j, 1)
		}
		if !mediated {
			final.Set(i, j, 1)
		}
	}
	return final, mediations, nil
}
