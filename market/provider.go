package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/montewalk/quant/trading"
)

// Quote is the latest known price for a symbol.
type Quote struct {
	Symbol string
	Price  decimal.Decimal
	Time   time.Time
}

// Provider supplies historical bars and live quotes. Implementations
// are expected to honor the context deadline on every call.
type Provider interface {
	// Bars returns the daily bars for symbol in [start, end], ascending.
	Bars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error)
	// LastPrice returns the most recent price for symbol.
	LastPrice(ctx context.Context, symbol string) (Quote, error)
}

// Chain tries each provider in order and returns the first success.
// All calls are bounded by the configured timeout. If every provider
// fails, the aggregate failure is reported: symbol-unavailable when no
// provider knows the symbol, external-provider otherwise.
type Chain struct {
	providers []Provider
	timeout   time.Duration
}

// NewChain builds a provider chain with a per-call timeout.
func NewChain(timeout time.Duration, providers ...Provider) *Chain {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Chain{providers: providers, timeout: timeout}
}

func (c *Chain) Bars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	var errs []error
	for _, p := range c.providers {
		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		bars, err := p.Bars(cctx, symbol, start, end)
		cancel()
		if err == nil {
			return bars, nil
		}
		errs = append(errs, err)
	}
	return nil, c.exhausted(symbol, errs)
}

func (c *Chain) LastPrice(ctx context.Context, symbol string) (Quote, error) {
	var errs []error
	for _, p := range c.providers {
		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		q, err := p.LastPrice(cctx, symbol)
		cancel()
		if err == nil {
			return q, nil
		}
		errs = append(errs, err)
	}
	return Quote{}, c.exhausted(symbol, errs)
}

func (c *Chain) exhausted(symbol string, errs []error) error {
	if len(errs) == 0 {
		return trading.Errf(trading.KindExternalProvider, "no market data providers configured")
	}

	unavailable := true
	for _, err := range errs {
		if !trading.IsKind(err, trading.KindSymbolUnavailable) {
			unavailable = false
			break
		}
	}

	joined := errors.Join(errs...)
	if unavailable {
		return trading.WrapErr(trading.KindSymbolUnavailable, joined,
			fmt.Sprintf("symbol %q not found by any provider", symbol))
	}
	return trading.WrapErr(trading.KindExternalProvider, joined,
		fmt.Sprintf("all providers failed for %q", symbol))
}
