package optimize

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/montewalk/quant/trading"
)

// Covariance matrices with a condition number beyond this are treated
// as numerically singular.
const maxCondition = 1e12

const weightTolerance = 1e-9

// MeanVariance computes the long-only, fully-invested weights that
// maximize the Sharpe ratio (risk-free baseline of zero) over the
// lookback window.
//
// The solver computes the unconstrained tangency portfolio
// w ∝ Σ⁻¹μ and enforces the long-only constraint by iteratively
// dropping assets that come out negative, re-solving on the survivors
// until all weights are non-negative. A covariance matrix that cannot
// be factorized, or an ill-conditioned one, is reported as a
// numerical failure rather than NaN weights.
func (o *Optimizer) MeanVariance(ctx context.Context, tickers []string, lookbackDays int) (Allocation, error) {
	series, err := o.returnSeries(ctx, tickers, lookbackDays)
	if err != nil {
		return Allocation{}, err
	}

	n := len(tickers)
	periods := float64(o.periodsPerYear)

	// Annualized mean vector and covariance matrix.
	mu := make([]float64, n)
	for i, rets := range series {
		mu[i] = stat.Mean(rets, nil) * periods
	}

	obs := len(series[0])
	samples := mat.NewDense(obs, n, nil)
	for j, rets := range series {
		for i, r := range rets {
			samples.Set(i, j, r)
		}
	}
	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, samples, nil)
	cov.ScaleSym(periods, cov)

	weights, err := solveLongOnly(mu, cov)
	if err != nil {
		return Allocation{}, err
	}

	alloc := Allocation{Weights: make(map[string]float64, n)}
	for i, t := range tickers {
		alloc.Weights[t] = weights[i]
		alloc.ExpectedReturn += weights[i] * mu[i]
	}

	var variance float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			variance += weights[i] * weights[j] * cov.At(i, j)
		}
	}
	alloc.Volatility = math.Sqrt(variance)
	if alloc.Volatility > 0 {
		alloc.Sharpe = alloc.ExpectedReturn / alloc.Volatility
	}

	if math.IsNaN(alloc.Volatility) || math.IsNaN(alloc.ExpectedReturn) {
		return Allocation{}, trading.Errf(trading.KindNumerical,
			"optimization produced non-finite statistics")
	}
	return alloc, nil
}

// solveLongOnly returns non-negative weights summing to one, or a
// numerical error when the covariance cannot support a solution.
func solveLongOnly(mu []float64, cov *mat.SymDense) ([]float64, error) {
	n := len(mu)

	active := make([]int, n)
	for i := range active {
		active[i] = i
	}

	for len(active) > 0 {
		k := len(active)

		sub := mat.NewSymDense(k, nil)
		b := mat.NewVecDense(k, nil)
		for i, ai := range active {
			b.SetVec(i, mu[ai])
			for j, aj := range active {
				if j >= i {
					sub.SetSym(i, j, cov.At(ai, aj))
				}
			}
		}

		var ch mat.Cholesky
		if ok := ch.Factorize(sub); !ok {
			return nil, trading.Errf(trading.KindNumerical,
				"covariance matrix is singular or not positive definite")
		}
		if cond := ch.Cond(); cond > maxCondition {
			return nil, trading.Errf(trading.KindNumerical,
				"covariance matrix is ill-conditioned (cond %.3g)", cond)
		}

		var w mat.VecDense
		if err := ch.SolveVecTo(&w, b); err != nil {
			return nil, trading.WrapErr(trading.KindNumerical, err,
				"solve tangency weights")
		}

		sum := 0.0
		for i := 0; i < k; i++ {
			sum += w.AtVec(i)
		}
		if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
			return nil, trading.Errf(trading.KindNumerical,
				"tangency solution has no positive total weight")
		}

		// Keep only assets with a non-negative normalized weight;
		// drop the rest and re-solve.
		next := active[:0]
		negatives := false
		for i, ai := range active {
			if w.AtVec(i)/sum < -weightTolerance {
				negatives = true
				continue
			}
			next = append(next, ai)
		}

		if !negatives {
			out := make([]float64, n)
			for i, ai := range active {
				v := w.AtVec(i) / sum
				if v < 0 {
					v = 0
				}
				out[ai] = v
			}
			// Renormalize after clipping tiny negatives so the
			// weights sum to one exactly within tolerance.
			total := 0.0
			for _, v := range out {
				total += v
			}
			for i := range out {
				out[i] /= total
			}
			return out, nil
		}
		active = next
	}

	return nil, trading.Errf(trading.KindNumerical,
		"no long-only solution: every asset was eliminated")
}
