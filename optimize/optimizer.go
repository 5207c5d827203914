package optimize

import (
	"context"
	"time"

	"github.com/montewalk/quant/market"
	"github.com/montewalk/quant/trading"
)

// Optimizer computes target portfolio weights from historical return
// series. It is read-only and independent of the ledger.
type Optimizer struct {
	prices         market.Provider
	periodsPerYear int
}

func New(prices market.Provider, periodsPerYear int) *Optimizer {
	if periodsPerYear <= 0 {
		periodsPerYear = 252
	}
	return &Optimizer{prices: prices, periodsPerYear: periodsPerYear}
}

// Allocation is a long-only, fully-invested weight vector plus its
// expected annualized statistics.
type Allocation struct {
	Weights map[string]float64

	ExpectedReturn float64
	Volatility     float64
	Sharpe         float64
}

// returnSeries fetches and aligns daily return series for the
// tickers: one row per ticker, all rows covering the same trailing
// window.
func (o *Optimizer) returnSeries(ctx context.Context, tickers []string, lookbackDays int) ([][]float64, error) {
	if len(tickers) == 0 {
		return nil, trading.Errf(trading.KindValidation, "at least one ticker is required")
	}
	seen := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		if t == "" {
			return nil, trading.Errf(trading.KindValidation, "empty ticker symbol")
		}
		if seen[t] {
			return nil, trading.Errf(trading.KindValidation, "duplicate ticker %q", t)
		}
		seen[t] = true
	}
	if lookbackDays < 2 {
		lookbackDays = 252
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -lookbackDays)

	closes := make([][]float64, len(tickers))
	aligned := -1
	for i, t := range tickers {
		bars, err := o.prices.Bars(ctx, t, start, end)
		if err != nil {
			return nil, err
		}
		closes[i] = market.Closes(bars)
		if aligned == -1 || len(closes[i]) < aligned {
			aligned = len(closes[i])
		}
	}
	if aligned < 3 {
		return nil, trading.Errf(trading.KindInsufficientHistory,
			"need at least 3 aligned observations, got %d", aligned)
	}

	series := make([][]float64, len(tickers))
	for i := range closes {
		series[i] = market.Returns(closes[i][len(closes[i])-aligned:])
	}
	return series, nil
}
