// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 18th 2026
// Project: Conditional Granger Causality Analysis of Multivariate Time Series
// Class: 02-613 at Carnegie Mellon University

// Package store persists causality analysis runs.
package store

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"Conditional_Granger_Causality_Project/internal/causality"
)

// CurrentSchemaVersion is written into every encoded run.
const CurrentSchemaVersion = 1

// ErrVersionMismatch is returned when a stored run has another schema version.
var ErrVersionMismatch = errors.New("run record version mismatch")

// Run is one stored analysis: its inputs, options and result.
type Run struct {
	SchemaVersion int       `json:"schema_version"`
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Input         string    `json:"input"`
	Names         []string  `json:"names"`
	Samples       int       `json:"samples"`
	MaxLag        int       `json:"max_lag"`
	Criterion     string    `json:"criterion"`

	LagOrder     int                   `json:"lag_order"`
	SignalOrders []int                 `json:"signal_orders"`
	Links        [][]float64           `json:"links"`
	Screened     [][]float64           `json:"screened"`
	Direct       [][]float64           `json:"direct"`
	NoiseCov     [][]float64           `json:"noise_cov"`
	Mediations   []causality.Mediation `json:"mediations"`
}

// NewRun captures res under a fresh ID.
func NewRun(input string, names []string, samples int, opts causality.Options, res *causality.Result) Run {
	return Run{
		SchemaVersion: CurrentSchemaVersion,
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Input:         input,
		Names:         append([]string(nil), names...),
		Samples:       samples,
		MaxLag:        opts.MaxLag,
		Criterion:     opts.Criterion.String(),
		LagOrder:      res.LagOrder,
		SignalOrders:  append([]int(nil), res.SignalOrders...),
		Links:         denseRows(res.Links),
		Screened:      denseRows(res.Screened),
		Direct:        denseRows(res.Direct),
		NoiseCov:      symRows(res.NoiseCov),
		Mediations:    append([]causality.Mediation(nil), res.Mediations...),
	}
}

// Result rebuilds the causality result stored in r.
func (r Run) Result() *causality.Result {
	res := &causality.Result{
		Links:        dense(r.Links),
		Screened:     dense(r.Screened),
		Direct:       dense(r.Direct),
		LagOrder:     r.LagOrder,
		SignalOrders: r.SignalOrders,
		Mediations:   r.Mediations,
	}
	if n := len(r.NoiseCov); n > 0 {
		sym := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				sym.SetSym(i, j, r.NoiseCov[i][j])
			}
		}
		res.NoiseCov = sym
	}
	return res
}

func denseRows(m *mat.Dense) [][]float64 {
	if m == nil {
		return nil
	}
	return rows(m)
}

func symRows(m *mat.SymDense) [][]float64 {
	if m == nil {
		return nil
	}
	return rows(m)
}

func rows(m mat.Matrix) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}

func dense(data [][]float64) *mat.Dense {
	if len(data) == 0 {
		return nil
	}
	m := mat.NewDense(len(data), len(data[0]), nil)
	for i, row := range data {
		m.SetRow(i, row)
	}
	return m
}

// EncodeRun serializes r as JSON.
func EncodeRun(r Run) ([]byte, error) {
	return json.Marshal(r)
}

// DecodeRun parses a run and checks its schema version.
func DecodeRun(data []byte) (Run, error) {
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return Run{}, err
	}
	if run.SchemaVersion != CurrentSchemaVersion {
		return Run{}, ErrVersionMismatch
	}
	return run, nil
}
