package risk

import (
	"context"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/montewalk/quant/market"
	"github.com/montewalk/quant/portfolio"
	"github.com/montewalk/quant/trading"
)

// Engine computes portfolio risk statistics from the ledger's current
// state and the provider's historical series. It is strictly
// read-only: every computation works on one snapshot and one fetched
// history, never a splice of two.
type Engine struct {
	ledger *portfolio.Ledger
	prices market.Provider

	periodsPerYear int
	lookbackDays   int
}

func NewEngine(ledger *portfolio.Ledger, prices market.Provider, periodsPerYear, lookbackDays int) *Engine {
	if periodsPerYear <= 0 {
		periodsPerYear = 252
	}
	if lookbackDays < 2 {
		lookbackDays = 252
	}
	return &Engine{
		ledger:         ledger,
		prices:         prices,
		periodsPerYear: periodsPerYear,
		lookbackDays:   lookbackDays,
	}
}

// VolatilityResult is the annualized portfolio volatility.
type VolatilityResult struct {
	Annualized   float64
	Observations int
}

// PortfolioVolatility builds the position-weighted portfolio return
// series, takes the sample standard deviation and annualizes it by
// √(periods per year).
func (e *Engine) PortfolioVolatility(ctx context.Context) (VolatilityResult, error) {
	h, err := e.history(ctx)
	if err != nil {
		return VolatilityResult{}, err
	}

	sd := stat.StdDev(h.Returns, nil)
	return VolatilityResult{
		Annualized:   sd * math.Sqrt(float64(e.periodsPerYear)),
		Observations: len(h.Returns),
	}, nil
}

// VaRResult is a 1-day historical-simulation Value at Risk.
type VaRResult struct {
	Confidence float64
	// Return is the (1-confidence) empirical quantile of the daily
	// portfolio returns.
	Return float64
	// Loss is Return scaled by the current portfolio value: the
	// expected 1-day loss in currency, negative-signed.
	Loss float64
}

// ValueAtRisk estimates the loss not exceeded with the given
// confidence over one day, by historical simulation.
func (e *Engine) ValueAtRisk(ctx context.Context, confidence float64) (VaRResult, error) {
	if confidence <= 0 || confidence >= 1 {
		return VaRResult{}, trading.Errf(trading.KindValidation,
			"confidence must be in (0, 1), got %v", confidence)
	}

	h, err := e.history(ctx)
	if err != nil {
		return VaRResult{}, err
	}

	sorted := append([]float64(nil), h.Returns...)
	sort.Float64s(sorted)

	q := stat.Quantile(1-confidence, stat.Empirical, sorted, nil)
	return VaRResult{
		Confidence: confidence,
		Return:     q,
		Loss:       q * h.CurrentValue,
	}, nil
}

// DrawdownResult is the worst peak-to-trough decline of the
// cumulative portfolio curve. MaxDrawdown is negative-signed
// (-0.25 means a 25% decline).
type DrawdownResult struct {
	MaxDrawdown float64
}

// MaxDrawdown walks the cumulative equity curve tracking the running
// peak and reports the deepest decline from any peak.
func (e *Engine) MaxDrawdown(ctx context.Context) (DrawdownResult, error) {
	h, err := e.history(ctx)
	if err != nil {
		return DrawdownResult{}, err
	}

	return DrawdownResult{MaxDrawdown: MaxDrawdownOf(h.Returns)}, nil
}

// MaxDrawdownOf computes the max drawdown of a periodic return series.
func MaxDrawdownOf(returns []float64) float64 {
	cum := 1.0
	peak := 1.0
	worst := 0.0
	for _, r := range returns {
		cum *= 1 + r
		if cum > peak {
			peak = cum
		}
		if dd := cum/peak - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}

// history is one consistent view of the portfolio's past: the
// position-weighted daily return series plus the current value.
type history struct {
	Returns      []float64
	CurrentValue float64
}

func (e *Engine) history(ctx context.Context) (history, error) {
	snap := e.ledger.Snapshot()
	if len(snap.Positions) == 0 {
		return history{}, trading.Errf(trading.KindEmptyPortfolio,
			"portfolio has no positions to analyze")
	}

	symbols := make([]string, 0, len(snap.Positions))
	for sym := range snap.Positions {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -e.lookbackDays)

	closes := make(map[string][]float64, len(symbols))
	aligned := -1
	for _, sym := range symbols {
		bars, err := e.prices.Bars(ctx, sym, start, end)
		if err != nil {
			return history{}, err
		}
		closes[sym] = market.Closes(bars)
		if aligned == -1 || len(bars) < aligned {
			aligned = len(bars)
		}
	}

	// Align on the common trailing window so every series covers the
	// same dates.
	if aligned < 3 {
		return history{}, trading.Errf(trading.KindEmptyPortfolio,
			"need at least 3 aligned observations, got %d", aligned)
	}
	for sym, c := range closes {
		closes[sym] = c[len(c)-aligned:]
	}

	// Value weights from current holdings at the latest close.
	cash, _ := snap.Cash.Float64()
	values := make(map[string]float64, len(symbols))
	total := 0.0
	for _, sym := range symbols {
		qty, _ := snap.Positions[sym].Qty.Float64()
		last := closes[sym][aligned-1]
		v := qty * last
		values[sym] = v
		total += v
	}
	if total <= 0 {
		return history{}, trading.Errf(trading.KindEmptyPortfolio,
			"portfolio positions have no market value")
	}

	rets := make([]float64, aligned-1)
	for _, sym := range symbols {
		w := values[sym] / total
		for i, r := range market.Returns(closes[sym]) {
			rets[i] += w * r
		}
	}

	if len(rets) < 2 {
		return history{}, trading.Errf(trading.KindEmptyPortfolio,
			"need at least 2 return observations, got %d", len(rets))
	}

	return history{
		Returns:      rets,
		CurrentValue: cash + total,
	}, nil
}
