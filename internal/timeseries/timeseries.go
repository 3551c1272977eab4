// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 18th 2026
// Project: Conditional Granger Causality Analysis of Multivariate Time Series
// Class: 02-613 at Carnegie Mellon University

// Package timeseries holds the signal set shared by every stage of the
// causality analysis and loads it from CSV.
package timeseries

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrShape is returned when signals do not form a rectangular T x N set.
var ErrShape = errors.New("shape error")

// SignalSet is a batch of N time-aligned signals of equal length T.
type SignalSet struct {
	// Matrix for data, T rows (time) x N columns (signals)
	Y *mat.Dense
	// One name per column
	Names []string
}

// New builds a SignalSet from one slice per signal. Names may be nil, in which
// case signals are named "1".."N".
func New(signals [][]float64, names []string) (*SignalSet, error) {
	if len(signals) == 0 {
		return nil, fmt.Errorf("%w: no signals supplied", ErrShape)
	}

	T := len(signals[0])
	for i, s := range signals {
		if len(s) != T {
			return nil, fmt.Errorf(
				"%w: all the signals must have the same size, signal %d has %d samples, signal 1 has %d",
				ErrShape, i+1, len(s), T,
			)
		}
	}
	if T == 0 {
		return nil, fmt.Errorf("%w: signals are empty", ErrShape)
	}

	if names == nil {
		names = DefaultNames(len(signals))
	}
	if len(names) != len(signals) {
		return nil, fmt.Errorf("%w: %d names for %d signals", ErrShape, len(names), len(signals))
	}

	N := len(signals)
	Y := mat.NewDense(T, N, nil)
	for k, s := range signals {
		Y.SetCol(k, s)
	}

	return &SignalSet{Y: Y, Names: append([]string(nil), names...)}, nil
}

// DefaultNames returns the 1-based labels "1".."n".
func DefaultNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("%d", i+1)
	}
	return names
}

// Len returns the number of samples per signal.
func (s *SignalSet) Len() int {
	T, _ := s.Y.Dims()
	return T
}

// Count returns the number of signals.
func (s *SignalSet) Count() int {
	_, N := s.Y.Dims()
	return N
}

// Signal returns a copy of signal k.
func (s *SignalSet) Signal(k int) []float64 {
	return mat.Col(nil, k, s.Y)
}
