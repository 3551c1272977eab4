// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 18th 2026
// Project: Conditional Granger Causality Analysis of Multivariate Time Series
// Class: 02-613 at Carnegie Mellon University

// Package lagmat builds the lagged design matrices shared by every regression
// in the causality pipeline.
//
// For a lag order L and an ordered list of signal columns c_0..c_{m-1}, row t
// of the design (t = 0..T-L-1) holds
//
//	y[t+L-1, c_0] .. y[t, c_0] | ... | y[t+L-1, c_{m-1}] .. y[t, c_{m-1}] | 1
//
// and the response is y[t+L, c_0]. The first L samples are dropped for lack of
// history and the intercept is the last column.
package lagmat

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"Conditional_Granger_Causality_Project/internal/timeseries"
)

// Design is a regression-ready response vector and predictor block.
type Design struct {
	// Response is the leading signal at times L..T-1
	Response []float64
	// X has len(Columns)*Lag lagged columns followed by the intercept
	X *mat.Dense
	// Columns are the original signal indices in block order; Columns[0] leads
	Columns []int
	Lag     int
}

// Rotate returns the column order of an n-signal set rotated so that lead is
// first and the others keep their relative order: lead, lead+1, .., n-1, 0, .., lead-1.
func Rotate(n, lead int) []int {
	order := make([]int, n)
	for c := 0; c < n; c++ {
		order[c] = (lead + c) % n
	}
	return order
}

// Build assembles the design for the given columns of y (T x N) at lag order lag.
func Build(y mat.Matrix, columns []int, lag int) (*Design, error) {
	T, N := y.Dims()
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: no columns selected", timeseries.ErrShape)
	}
	for _, c := range columns {
		if c < 0 || c >= N {
			return nil, fmt.Errorf("%w: column %d out of range [0, %d)", timeseries.ErrShape, c, N)
		}
	}
	if lag < 1 || lag >= T {
		return nil, fmt.Errorf("%w: lag order %d needs 1 <= lag < T = %d", timeseries.ErrShape, lag, T)
	}

	rows := T - lag
	m := len(columns)*lag + 1
	X := mat.NewDense(rows, m, nil)
	response := make([]float64, rows)

	for t := 0; t < rows; t++ {
		response[t] = y.At(t+lag, columns[0])

		col := 0
		for _, c := range columns {
			for l := 1; l <= lag; l++ {
				X.Set(t, col, y.At(t+lag-l, c))
				col++
			}
		}
		// intercept
		X.Set(t, col, 1.0)
	}

	return &Design{
		Response: response,
		X:        X,
		Columns:  append([]int(nil), columns...),
		Lag:      lag,
	}, nil
}
