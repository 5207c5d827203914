package backtest

import (
	"context"
	"math"
	"time"

	talib "github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"

	"github.com/montewalk/quant/exec"
	"github.com/montewalk/quant/market"
	"github.com/montewalk/quant/risk"
	"github.com/montewalk/quant/trading"
)

// Engine replays a moving-average crossover strategy over historical
// bars. The simulation is notional-only: it reuses the execution
// simulator's cost model but never touches the live ledger.
type Engine struct {
	prices         market.Provider
	costs          exec.CostModel
	periodsPerYear int
}

func NewEngine(prices market.Provider, costs exec.CostModel, periodsPerYear int) *Engine {
	if periodsPerYear <= 0 {
		periodsPerYear = 252
	}
	return &Engine{prices: prices, costs: costs, periodsPerYear: periodsPerYear}
}

// Result summarizes one crossover backtest.
type Result struct {
	Symbol string
	FastMA int
	SlowMA int

	Bars   int
	Trades int

	StrategyReturn float64
	BuyHoldReturn  float64
	Sharpe         float64
	MaxDrawdown    float64
}

// Run backtests the fast/slow SMA crossover on symbol over [start,
// end]. Signal: long when fast > slow, flat otherwise, applied with a
// one-bar lag; every flat→long or long→flat transition is charged the
// cost model's per-trade drag.
func (e *Engine) Run(ctx context.Context, symbol string, fastMA, slowMA int, start, end time.Time) (Result, error) {
	if fastMA <= 0 || slowMA <= 0 || fastMA >= slowMA {
		return Result{}, trading.Errf(trading.KindValidation,
			"moving averages must satisfy 0 < fast < slow, got %d/%d", fastMA, slowMA)
	}

	bars, err := e.prices.Bars(ctx, symbol, start, end)
	if err != nil {
		return Result{}, err
	}
	if len(bars) < slowMA {
		return Result{}, trading.Errf(trading.KindInsufficientHistory,
			"need at least %d bars for the %d-bar slow average, got %d", slowMA, slowMA, len(bars))
	}

	closes := market.Closes(bars)
	rets, trades := e.strategyReturns(closes, fastMA, slowMA, 1)

	sharpe := 0.0
	if len(rets) >= 2 {
		mean, sd := stat.MeanStdDev(rets, nil)
		if sd > 0 {
			sharpe = mean / sd * math.Sqrt(float64(e.periodsPerYear))
		}
	}

	return Result{
		Symbol:         symbol,
		FastMA:         fastMA,
		SlowMA:         slowMA,
		Bars:           len(bars),
		Trades:         trades,
		StrategyReturn: compound(rets),
		BuyHoldReturn:  closes[len(closes)-1]/closes[0] - 1,
		Sharpe:         sharpe,
		MaxDrawdown:    risk.MaxDrawdownOf(rets),
	}, nil
}

// strategyReturns computes per-bar strategy returns from evalStart on.
// The SMAs may use earlier closes as warmup; returns are only taken
// from bars at or after evalStart, so there is no look-ahead.
func (e *Engine) strategyReturns(closes []float64, fastMA, slowMA, evalStart int) ([]float64, int) {
	fast := talib.Sma(closes, fastMA)
	slow := talib.Sma(closes, slowMA)

	// signal[i]: 1 when long going into bar i+1, 0 when flat. Only
	// valid once the slow average is warmed up.
	signal := func(i int) int {
		if i < slowMA-1 {
			return 0
		}
		if fast[i] > slow[i] {
			return 1
		}
		return 0
	}

	cost := e.costs.TradeCostFraction()

	if evalStart < 1 {
		evalStart = 1
	}

	rets := make([]float64, 0, len(closes)-evalStart)
	trades := 0
	prev := 0
	if evalStart >= 2 {
		prev = signal(evalStart - 2)
	}

	for i := evalStart; i < len(closes); i++ {
		pos := signal(i - 1)
		r := (closes[i]/closes[i-1] - 1) * float64(pos)

		// Position changed at the prior close: one simulated trade,
		// charged slippage plus commission.
		if pos != prev {
			r -= cost
			trades++
		}
		prev = pos

		rets = append(rets, r)
	}
	return rets, trades
}

func compound(rets []float64) float64 {
	total := 1.0
	for _, r := range rets {
		total *= 1 + r
	}
	return total - 1
}
