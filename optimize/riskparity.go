package optimize

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/montewalk/quant/trading"
)

// RiskParity weights each ticker inversely to its historical
// volatility: weight_i = (1/vol_i) / Σ(1/vol_j). A ticker with zero
// measured volatility is a data-quality failure, not a division.
func (o *Optimizer) RiskParity(ctx context.Context, tickers []string, lookbackDays int) (Allocation, error) {
	series, err := o.returnSeries(ctx, tickers, lookbackDays)
	if err != nil {
		return Allocation{}, err
	}

	invVols := make([]float64, len(tickers))
	total := 0.0
	for i, rets := range series {
		vol := stat.StdDev(rets, nil)
		if vol == 0 || math.IsNaN(vol) {
			return Allocation{}, trading.Errf(trading.KindNumerical,
				"ticker %q has zero volatility over the lookback; refusing to weight it", tickers[i])
		}
		invVols[i] = 1 / vol
		total += invVols[i]
	}

	alloc := Allocation{Weights: make(map[string]float64, len(tickers))}
	for i, t := range tickers {
		alloc.Weights[t] = invVols[i] / total
	}
	return alloc, nil
}
