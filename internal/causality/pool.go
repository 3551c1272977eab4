// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 18th 2026
// Project: Conditional Granger Causality Analysis of Multivariate Time Series
// Class: 02-613 at Carnegie Mellon University

package causality

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// parallel runs job(idx) for idx in [0, n) on at most workers goroutines.
// Each job must write only to its own slot of a preallocated destination, so
// the merged result does not depend on scheduling. The first error cancels the
// remaining jobs and is returned.
func parallel(ctx context.Context, workers, n int, job func(ctx context.Context, idx int) error) error {
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for idx := 0; idx < n; idx++ {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			return job(gCtx, idx)
		})
	}
	return g.Wait()
}
