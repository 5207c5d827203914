package backtest

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/montewalk/quant/exec"
	"github.com/montewalk/quant/market"
	"github.com/montewalk/quant/trading"
)

var (
	fixtureStart = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
)

// trendBars compounds a constant per-bar return from 100, one bar per
// day starting at fixtureStart.
func trendBars(n int, ret float64) []market.Bar {
	bars := make([]market.Bar, n)
	v := 100.0
	for i := range bars {
		bars[i] = market.Bar{
			Time:   fixtureStart.AddDate(0, 0, i),
			Open:   v,
			High:   v,
			Low:    v,
			Close:  v,
			Volume: 1000,
		}
		v *= 1 + ret
	}
	return bars
}

func newBacktestEngine(t *testing.T, bars []market.Bar) *Engine {
	t.Helper()

	prices := market.NewStaticProvider()
	prices.SetBars("test.us", bars)
	return NewEngine(prices, exec.NewCostModel(0, 0), 252)
}

func runWindow(n int) (time.Time, time.Time) {
	return fixtureStart, fixtureStart.AddDate(0, 0, n)
}

func TestRunValidatesParameters(t *testing.T) {
	t.Parallel()

	e := newBacktestEngine(t, trendBars(300, 0.005))
	start, end := runWindow(300)

	for _, tc := range []struct{ fast, slow int }{
		{0, 50}, {50, 50}, {60, 50}, {-1, 10},
	} {
		_, err := e.Run(context.Background(), "test.us", tc.fast, tc.slow, start, end)
		assert.Error(t, err)
		assert.True(t, trading.IsKind(err, trading.KindValidation),
			"fast=%d slow=%d: got %v", tc.fast, tc.slow, err)
	}
}

func TestRunInsufficientHistory(t *testing.T) {
	t.Parallel()

	e := newBacktestEngine(t, trendBars(40, 0.005))
	start, end := runWindow(40)

	_, err := e.Run(context.Background(), "test.us", 10, 50, start, end)
	assert.Error(t, err)
	assert.True(t, trading.IsKind(err, trading.KindInsufficientHistory), "got %v", err)
}

func TestRunRisingTrendGoesLongOnce(t *testing.T) {
	t.Parallel()

	e := newBacktestEngine(t, trendBars(300, 0.005))
	start, end := runWindow(300)

	res, err := e.Run(context.Background(), "test.us", 10, 50, start, end)
	assert.NoError(t, err)

	assert.Equal(t, "test.us", res.Symbol)
	assert.Equal(t, 300, res.Bars)
	assert.Equal(t, 1, res.Trades, "a monotone uptrend crosses exactly once")

	// Long from bar 50 on: 250 bars of +0.5% each.
	assert.InDelta(t, math.Pow(1.005, 250)-1, res.StrategyReturn, 1e-6)
	assert.InDelta(t, math.Pow(1.005, 299)-1, res.BuyHoldReturn, 1e-6)
	assert.Greater(t, res.BuyHoldReturn, res.StrategyReturn,
		"the strategy sits out the warmup gains")
	assert.Greater(t, res.Sharpe, 0.0)
	assert.Equal(t, 0.0, res.MaxDrawdown)
}

func TestRunFallingTrendStaysFlat(t *testing.T) {
	t.Parallel()

	e := newBacktestEngine(t, trendBars(300, -0.005))
	start, end := runWindow(300)

	res, err := e.Run(context.Background(), "test.us", 10, 50, start, end)
	assert.NoError(t, err)

	assert.Equal(t, 0, res.Trades)
	assert.Equal(t, 0.0, res.StrategyReturn)
	assert.Equal(t, 0.0, res.Sharpe)
	assert.Equal(t, 0.0, res.MaxDrawdown)
	assert.Less(t, res.BuyHoldReturn, 0.0)
}

func TestRunFlatSeriesNeverTrades(t *testing.T) {
	t.Parallel()

	e := newBacktestEngine(t, trendBars(300, 0))
	start, end := runWindow(300)

	res, err := e.Run(context.Background(), "test.us", 10, 50, start, end)
	assert.NoError(t, err)

	assert.Equal(t, 0, res.Trades, "equal averages never signal long")
	assert.Equal(t, 0.0, res.StrategyReturn)
}

func TestRunChargesTradeCosts(t *testing.T) {
	t.Parallel()

	prices := market.NewStaticProvider()
	prices.SetBars("test.us", trendBars(300, 0.005))

	free := NewEngine(prices, exec.NewCostModel(0, 0), 252)
	costly := NewEngine(prices, exec.NewCostModel(5, 0.001), 252)

	start, end := runWindow(300)

	a, err := free.Run(context.Background(), "test.us", 10, 50, start, end)
	assert.NoError(t, err)
	b, err := costly.Run(context.Background(), "test.us", 10, 50, start, end)
	assert.NoError(t, err)

	assert.Equal(t, a.Trades, b.Trades)
	assert.Less(t, b.StrategyReturn, a.StrategyReturn,
		"slippage and commission must drag the equity curve")
}
