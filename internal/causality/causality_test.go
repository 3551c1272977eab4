// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 18th 2026
// Project: Conditional Granger Causality Analysis of Multivariate Time Series
// Class: 02-613 at Carnegie Mellon University

package causality

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"testing"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"Conditional_Granger_Causality_Project/internal/granger"
	"Conditional_Granger_Causality_Project/internal/lagmat"
	"Conditional_Granger_Causality_Project/internal/regression"
	"Conditional_Granger_Causality_Project/internal/timeseries"
)

// ============================================================================
// HELPER FUNCTIONS
// ============================================================================

// chain returns A, B, C where A is white noise, B follows A one sample later
// and C follows B one sample later. There is no direct A -> C path.
func chain(seed int64, T int) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	a := make([]float64, T)
	b := make([]float64, T)
	c := make([]float64, T)
	for t := 0; t < T; t++ {
		a[t] = rng.NormFloat64()
		b[t] = 0.3 * rng.NormFloat64()
		c[t] = 0.3 * rng.NormFloat64()
		if t > 0 {
			b[t] += 0.8 * a[t-1]
			c[t] += 0.8 * b[t-1]
		}
	}
	return [][]float64{a, b, c}
}

// ar2 returns n independent AR(2) series.
func ar2(seed int64, T, n int) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([][]float64, n)
	for k := range out {
		x := make([]float64, T)
		for t := 0; t < T; t++ {
			x[t] = rng.NormFloat64()
			if t >= 2 {
				x[t] += 0.5*x[t-1] - 0.4*x[t-2]
			}
		}
		out[k] = x
	}
	return out
}

func assertSquareZeroDiagonal(t *testing.T, m *mat.Dense, n int) {
	t.Helper()
	r, c := m.Dims()
	require.Equal(t, n, r)
	require.Equal(t, n, c)
	for i := 0; i < n; i++ {
		assert.Zero(t, m.At(i, i), "diagonal entry %d", i)
	}
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newAnalyzer(t *testing.T, maxLag int, c regression.Criterion) *Analyzer {
	t.Helper()
	a, err := New(Options{MaxLag: maxLag, Criterion: c})
	require.NoError(t, err)
	return a
}

// ============================================================================
// CONFIGURATION AND SHAPE ERRORS
// ============================================================================

func TestNewRejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{name: "zero max lag", opts: Options{MaxLag: 0}},
		{name: "negative max lag", opts: Options{MaxLag: -3}},
		{name: "unknown criterion", opts: Options{MaxLag: 1, Criterion: regression.Criterion(7)}},
		{name: "negative workers", opts: Options{MaxLag: 1, Workers: -1}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := New(test.opts)
			assert.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestComputeRejectsBadSignals(t *testing.T) {
	a := newAnalyzer(t, 1, regression.BIC)
	ctx := context.Background()

	_, err := a.ComputeSignals(ctx, []float64{1, 2, 3, 4}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrShape)

	_, err = a.ComputeSignals(ctx, []float64{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrShape)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = a.ComputeSignals(ctx)
	assert.ErrorIs(t, err, ErrShape)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = a.ComputeSignals(ctx, []float64{1, 2}, []float64{3, 4})
	assert.ErrorIs(t, err, ErrShape)

	_, err = a.Compute(ctx, nil)
	assert.ErrorIs(t, err, ErrShape)
}

// ============================================================================
// SCREENING
// ============================================================================

// fakeTester answers from a table keyed by the first sample of each signal.
type fakeTester struct {
	results map[[2]float64]*granger.Result
}

func (f *fakeTester) Test(target, driver []float64, _ int, _ regression.Criterion) (*granger.Result, error) {
	if res, ok := f.results[[2]float64{target[0], driver[0]}]; ok {
		return res, nil
	}
	return &granger.Result{Ratio: 0, PValue: 1}, nil
}

func TestScreenThresholds(t *testing.T) {
	// Signal k starts with the value k.
	y := mat.NewDense(4, 3, []float64{
		0, 1, 2,
		5, 3, 1,
		2, 2, 7,
		1, 0, 4,
	})
	tester := &fakeTester{results: map[[2]float64]*granger.Result{
		{0, 1}: {Ratio: 0.2, PValue: 0.001},  // 1 -> 0 detected
		{0, 2}: {Ratio: 0.2, PValue: 0.01},   // p not strictly below
		{1, 0}: {Ratio: 0, PValue: 0.0001},   // ratio not positive
		{1, 2}: {Ratio: -0.5, PValue: 0.001}, // negative ratio
		{2, 0}: {Ratio: 1e-9, PValue: 0.009}, // detected
	}}

	direct, err := screen(context.Background(), y, tester, 1, regression.BIC, 2, discard())
	require.NoError(t, err)

	want := mat.NewDense(3, 3, []float64{
		0, 1, 0,
		0, 0, 0,
		1, 0, 0,
	})
	assert.True(t, mat.Equal(want, direct), "got\n%v", mat.Formatted(direct))
}

func TestScreenNaNIsNumericalError(t *testing.T) {
	y := mat.NewDense(3, 2, []float64{0, 1, 2, 3, 4, 5})
	tester := &fakeTester{results: map[[2]float64]*granger.Result{
		{0, 1}: {Ratio: math.NaN(), PValue: 0},
	}}

	_, err := screen(context.Background(), y, tester, 1, regression.BIC, 1, discard())
	assert.ErrorIs(t, err, ErrNumerical)
}

// ============================================================================
// LAG ORDER SELECTION
// ============================================================================

func TestArgminLag(t *testing.T) {
	tests := []struct {
		scores []float64
		want   int
	}{
		{scores: []float64{3}, want: 1},
		{scores: []float64{3, 1, 2}, want: 2},
		{scores: []float64{5, 1, 1, 0.5, 0.5}, want: 4},
		{scores: []float64{2, 2, 2}, want: 1},
		{scores: []float64{math.Inf(1), -1, -1}, want: 2},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, argminLag(test.scores), "scores %v", test.scores)
	}
}

func TestMeanOrder(t *testing.T) {
	tests := []struct {
		orders []int
		want   int
	}{
		{orders: []int{1, 1}, want: 1},
		{orders: []int{1, 2}, want: 2},
		{orders: []int{2, 2, 2}, want: 2},
		{orders: []int{1, 1, 2}, want: 2},
		{orders: []int{1, 1, 1, 2}, want: 2},
		{orders: []int{3, 1, 1}, want: 2},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, meanOrder(test.orders), "orders %v", test.orders)
	}
}

// scriptedRegressor returns a criterion score that depends on the number of
// lags in the design and on the leading signal, recognized by the response.
type scriptedRegressor struct {
	mock.Mock
}

func (s *scriptedRegressor) Fit(y []float64, x *mat.Dense) (*regression.Fit, error) {
	args := s.Called(y[0], x.RawMatrix().Cols)
	return args.Get(0).(*regression.Fit), args.Error(1)
}

func TestSelectLagOrderAveragesPerSignalOptima(t *testing.T) {
	// Two signals, signal 0 is constant 10, signal 1 is constant 20.
	y := mat.NewDense(8, 2, nil)
	for r := 0; r < 8; r++ {
		y.Set(r, 0, 10)
		y.Set(r, 1, 20)
	}

	reg := &scriptedRegressor{}
	// Design width is 2*lag+1. Signal 0 is best at lag 1, signal 1 ties at 2 and 3.
	reg.On("Fit", 10.0, 3).Return(&regression.Fit{BIC: 1}, nil)
	reg.On("Fit", 10.0, 5).Return(&regression.Fit{BIC: 4}, nil)
	reg.On("Fit", 10.0, 7).Return(&regression.Fit{BIC: 2}, nil)
	reg.On("Fit", 20.0, 3).Return(&regression.Fit{BIC: 9}, nil)
	reg.On("Fit", 20.0, 5).Return(&regression.Fit{BIC: 3}, nil)
	reg.On("Fit", 20.0, 7).Return(&regression.Fit{BIC: 3}, nil)

	lag, per, err := selectLagOrder(context.Background(), y, reg, 3, regression.BIC, 4)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, per)
	// ceil((1 + 2) / 2) = 2
	assert.Equal(t, 2, lag)
	reg.AssertNumberOfCalls(t, "Fit", 6)
}

func TestSelectLagOrderUsesConfiguredCriterion(t *testing.T) {
	y := mat.NewDense(6, 2, nil)
	for r := 0; r < 6; r++ {
		y.Set(r, 0, 1)
		y.Set(r, 1, 2)
	}

	reg := &scriptedRegressor{}
	reg.On("Fit", mock.Anything, 3).Return(&regression.Fit{AIC: 5, BIC: 1}, nil)
	reg.On("Fit", mock.Anything, 5).Return(&regression.Fit{AIC: 1, BIC: 5}, nil)

	lag, _, err := selectLagOrder(context.Background(), y, reg, 2, regression.AIC, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, lag)

	lag, _, err = selectLagOrder(context.Background(), y, reg, 2, regression.BIC, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, lag)
}

func TestSelectLagOrderRecoversTrueOrder(t *testing.T) {
	set, err := timeseries.New(ar2(11, 1000, 2), nil)
	require.NoError(t, err)

	lag, per, err := selectLagOrder(context.Background(), set.Y, regression.OLS{}, 5, regression.BIC, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, per)
	assert.Equal(t, 2, lag)
}

// ============================================================================
// JOINT MODEL
// ============================================================================

func TestFitJointNoiseCovariance(t *testing.T) {
	set, err := timeseries.New(chain(3, 300), nil)
	require.NoError(t, err)

	joint, err := fitJoint(context.Background(), set.Y, regression.OLS{}, 2, 3)
	require.NoError(t, err)

	rows, cols := joint.Residuals.Dims()
	assert.Equal(t, 298, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, 3, joint.NoiseCov.SymmetricDim())

	// Diagonal k is the sample variance (n-1) of equation k's residuals,
	// which match a direct fit of the rotated design.
	for k := 0; k < 3; k++ {
		d, err := lagmat.Build(set.Y, lagmat.Rotate(3, k), 2)
		require.NoError(t, err)
		fit, err := regression.OLS{}.Fit(d.Response, d.X)
		require.NoError(t, err)

		want, err := stats.SampleVariance(fit.Residuals)
		require.NoError(t, err)
		assert.InDelta(t, want, joint.NoiseCov.At(k, k), 1e-10)
		assert.Len(t, joint.Coefficients[k], 3*2+1)
	}

	// C's equation leaves only its own noise, 0.3^2.
	assert.InDelta(t, 0.09, joint.NoiseCov.At(2, 2), 0.03)
}

// ============================================================================
// MEDIATION
// ============================================================================

func TestReducedColumns(t *testing.T) {
	assert.Equal(t, []int{2, 1}, reducedColumns(3, 2, 0))
	assert.Equal(t, []int{0, 2, 3}, reducedColumns(4, 0, 1))
	assert.Equal(t, []int{3, 0, 2}, reducedColumns(5, 3, 1))
	assert.Equal(t, []int{1}, reducedColumns(2, 1, 0))
}

// reducedVariance fits the reduced model of link j -> i and returns the
// population variance of its residuals.
func reducedVariance(t *testing.T, y *mat.Dense, i, j, lag int) float64 {
	t.Helper()
	_, N := y.Dims()
	d, err := lagmat.Build(y, reducedColumns(N, i, j), lag)
	require.NoError(t, err)
	fit, err := regression.OLS{}.Fit(d.Response, d.X)
	require.NoError(t, err)
	v, err := stats.PopulationVariance(fit.Residuals)
	require.NoError(t, err)
	return v
}

func TestMediationFiresForInjectedVarianceReduction(t *testing.T) {
	set, err := timeseries.New(chain(5, 400), nil)
	require.NoError(t, err)
	y := set.Y

	// Link A(0) -> C(2) with full-model noise equal to the reduced variance:
	// ln(var_noise) - ln(noise[2][2]) = 0 < 0.01, so B(1) mediates.
	varNoise := reducedVariance(t, y, 2, 0, 1)
	noise := mat.NewSymDense(3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, varNoise,
	})
	direct := mat.NewDense(3, 3, nil)
	direct.Set(2, 0, 1)

	final, mediations, err := testMediation(context.Background(), y, direct, noise, regression.OLS{}, 1, 2, discard())
	require.NoError(t, err)

	require.Len(t, mediations, 1)
	assert.Equal(t, Mediation{Target: 2, Driver: 0, Mediator: 1, Ratio: mediations[0].Ratio}, mediations[0])
	assert.InDelta(t, 0, mediations[0].Ratio, 1e-12)
	assert.Less(t, mediations[0].Ratio, MediationThreshold)

	assert.Equal(t, 0.0, direct.At(2, 0), "mediated link is cleared")
	assert.Equal(t, 1.0, final.At(2, 1))
	assert.Equal(t, 1.0, final.At(1, 0))
	assert.Equal(t, 0.0, final.At(2, 0))
}

func TestMediationKeepsDirectLink(t *testing.T) {
	set, err := timeseries.New(chain(5, 400), nil)
	require.NoError(t, err)
	y := set.Y

	// Full-model noise well below the reduced variance: ratio = 0.5.
	varNoise := reducedVariance(t, y, 2, 0, 1)
	noise := mat.NewSymDense(3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, varNoise * math.Exp(-0.5),
	})
	direct := mat.NewDense(3, 3, nil)
	direct.Set(2, 0, 1)

	final, mediations, err := testMediation(context.Background(), y, direct, noise, regression.OLS{}, 1, 1, discard())
	require.NoError(t, err)

	assert.Empty(t, mediations)
	assert.Equal(t, 1.0, direct.At(2, 0))
	want := mat.NewDense(3, 3, nil)
	want.Set(2, 0, 1)
	assert.True(t, mat.Equal(want, final), "got\n%v", mat.Formatted(final))
}

func TestMediationFirstCandidateWins(t *testing.T) {
	set, err := timeseries.New(ar2(8, 200, 4), nil)
	require.NoError(t, err)
	y := set.Y

	// Link 1 -> 0 has candidates 2 and 3; the reduced model is [0, 2, 3].
	varNoise := reducedVariance(t, y, 0, 1, 2)
	noise := mat.NewSymDense(4, nil)
	for k := 0; k < 4; k++ {
		noise.SetSym(k, k, 1)
	}
	noise.SetSym(0, 0, varNoise*math.Exp(0.1))

	direct := mat.NewDense(4, 4, nil)
	direct.Set(0, 1, 1)

	final, mediations, err := testMediation(context.Background(), y, direct, noise, regression.OLS{}, 2, 4, discard())
	require.NoError(t, err)

	require.Len(t, mediations, 1)
	assert.Equal(t, 2, mediations[0].Mediator)
	assert.InDelta(t, -0.1, mediations[0].Ratio, 1e-9)

	want := mat.NewDense(4, 4, nil)
	want.Set(0, 2, 1)
	want.Set(2, 1, 1)
	assert.True(t, mat.Equal(want, final), "got\n%v", mat.Formatted(final))
}

func TestMediationDegenerateVariance(t *testing.T) {
	set, err := timeseries.New(chain(5, 50), nil)
	require.NoError(t, err)

	noise := mat.NewSymDense(3, nil) // zero variance on the diagonal
	direct := mat.NewDense(3, 3, nil)
	direct.Set(2, 0, 1)

	_, _, err = testMediation(context.Background(), set.Y, direct, noise, regression.OLS{}, 1, 1, discard())
	assert.ErrorIs(t, err, ErrNumerical)
}

func TestMediationWithoutCandidates(t *testing.T) {
	y := mat.NewDense(5, 2, nil)
	direct := mat.NewDense(2, 2, []float64{0, 1, 1, 0})
	noise := mat.NewSymDense(2, nil)

	final, mediations, err := testMediation(context.Background(), y, direct, noise, regression.OLS{}, 1, 1, discard())
	require.NoError(t, err)
	assert.Empty(t, mediations)
	assert.True(t, mat.Equal(direct, final))
}

// ============================================================================
// END TO END
// ============================================================================

func TestComputeChainMediatesSpuriousLink(t *testing.T) {
	a := newAnalyzer(t, 2, regression.BIC)
	res, err := a.ComputeSignals(context.Background(), chain(42, 1000)...)
	require.NoError(t, err)

	for _, m := range []*mat.Dense{res.Links, res.Screened, res.Direct} {
		assertSquareZeroDiagonal(t, m, 3)
	}

	// A -> B and B -> C are screened and survive as direct links.
	assert.Equal(t, 1.0, res.Screened.At(1, 0))
	assert.Equal(t, 1.0, res.Screened.At(2, 1))
	assert.Equal(t, 1.0, res.Links.At(1, 0))
	assert.Equal(t, 1.0, res.Links.At(2, 1))

	// There is no direct A -> C edge in the result.
	assert.Equal(t, 0.0, res.Links.At(2, 0))
	assert.Equal(t, 0.0, res.Direct.At(2, 0))
	for _, m := range res.Mediations {
		if m.Target == 2 && m.Driver == 0 {
			assert.Equal(t, 1, m.Mediator)
			assert.Less(t, m.Ratio, MediationThreshold)
		}
	}

	assert.GreaterOrEqual(t, res.LagOrder, 1)
	assert.LessOrEqual(t, res.LagOrder, 2)
	assert.Len(t, res.SignalOrders, 3)
}

func TestComputeProperties(t *testing.T) {
	a := newAnalyzer(t, 3, regression.AIC)
	signals := chain(9, 500)
	signals = append(signals, ar2(10, 500, 1)...)

	res, err := a.ComputeSignals(context.Background(), signals...)
	require.NoError(t, err)

	N := len(signals)
	assertSquareZeroDiagonal(t, res.Links, N)
	assertSquareZeroDiagonal(t, res.Screened, N)

	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			// a cleared link was screened first
			if res.Direct.At(i, j) == 1 {
				assert.Equal(t, 1.0, res.Screened.At(i, j))
			}
		}
	}
	for _, m := range res.Mediations {
		assert.Equal(t, 1.0, res.Screened.At(m.Target, m.Driver))
		assert.Equal(t, 0.0, res.Direct.At(m.Target, m.Driver))
		assert.Equal(t, 1.0, res.Links.At(m.Target, m.Mediator))
		assert.Equal(t, 1.0, res.Links.At(m.Mediator, m.Driver))
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	signals := chain(21, 400)

	serial, err := New(Options{MaxLag: 3, Criterion: regression.BIC, Workers: 1})
	require.NoError(t, err)
	wide, err := New(Options{MaxLag: 3, Criterion: regression.BIC, Workers: 16})
	require.NoError(t, err)

	first, err := serial.ComputeSignals(context.Background(), signals...)
	require.NoError(t, err)
	second, err := serial.ComputeSignals(context.Background(), signals...)
	require.NoError(t, err)
	third, err := wide.ComputeSignals(context.Background(), signals...)
	require.NoError(t, err)

	for _, other := range []*Result{second, third} {
		assert.True(t, mat.Equal(first.Links, other.Links))
		assert.True(t, mat.Equal(first.Screened, other.Screened))
		assert.True(t, mat.Equal(first.NoiseCov, other.NoiseCov))
		assert.Equal(t, first.LagOrder, other.LagOrder)
		assert.Equal(t, first.Mediations, other.Mediations)
	}
}

func TestComputeTwoSignals(t *testing.T) {
	signals := chain(4, 600)[:2]

	res, err := newAnalyzer(t, 2, regression.BIC).ComputeSignals(context.Background(), signals...)
	require.NoError(t, err)

	assert.Empty(t, res.Mediations)
	assert.True(t, mat.Equal(res.Screened, res.Links))
	assert.Equal(t, 1.0, res.Links.At(1, 0))
}

func TestComputeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newAnalyzer(t, 1, regression.BIC).ComputeSignals(ctx, chain(1, 50)...)
	assert.ErrorIs(t, err, context.Canceled)
}

// ============================================================================
// DEGENERATE SIGNALS
// ============================================================================

// withConstant replaces signal k of a chain with the constant 3.
func withConstant(signals [][]float64, k int) [][]float64 {
	c := make([]float64, len(signals[k]))
	for t := range c {
		c[t] = 3
	}
	signals[k] = c
	return signals
}

func TestComputeConstantSignalIsNumericalError(t *testing.T) {
	a := newAnalyzer(t, 2, regression.BIC)

	_, err := a.ComputeSignals(context.Background(), withConstant(chain(42, 500), 2)...)
	assert.ErrorIs(t, err, ErrNumerical)
}

func TestFitJointConstantSignalIsNumericalError(t *testing.T) {
	set, err := timeseries.New(withConstant(chain(42, 300), 2), nil)
	require.NoError(t, err)

	_, err = fitJoint(context.Background(), set.Y, regression.OLS{}, 1, 2)
	assert.ErrorIs(t, err, ErrNumerical)
}

func TestMediationConstantTargetIsNumericalError(t *testing.T) {
	set, err := timeseries.New(withConstant(chain(42, 300), 2), nil)
	require.NoError(t, err)

	noise := mat.NewSymDense(3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	direct := mat.NewDense(3, 3, nil)
	direct.Set(2, 0, 1)

	_, _, err = testMediation(context.Background(), set.Y, direct, noise, regression.OLS{}, 1, 1, discard())
	assert.ErrorIs(t, err, ErrNumerical)
}
