package market

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/montewalk/quant/trading"
)

// StaticProvider serves bars and quotes from memory. It backs demos
// and tests and doubles as the price reference for offline runs.
type StaticProvider struct {
	mu     sync.RWMutex
	bars   map[string][]Bar
	quotes map[string]Quote
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		bars:   make(map[string][]Bar),
		quotes: make(map[string]Quote),
	}
}

// SetBars installs the bar history for a symbol and, when bars exist,
// derives the last quote from the final close.
func (s *StaticProvider) SetBars(symbol string, bars []Bar) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bars[symbol] = bars
	if len(bars) > 0 {
		last := bars[len(bars)-1]
		s.quotes[symbol] = Quote{
			Symbol: symbol,
			Price:  decimal.NewFromFloat(last.Close),
			Time:   last.Time,
		}
	}
}

// SetQuote overrides the live quote for a symbol.
func (s *StaticProvider) SetQuote(symbol string, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[symbol] = Quote{Symbol: symbol, Price: price, Time: time.Now().UTC()}
}

func (s *StaticProvider) Bars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, trading.WrapErr(trading.KindExternalProvider, err, "bars request canceled")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all, ok := s.bars[symbol]
	if !ok {
		return nil, trading.Errf(trading.KindSymbolUnavailable, "no bars for %q", symbol)
	}

	out := make([]Bar, 0, len(all))
	for _, b := range all {
		if b.Time.Before(start) || b.Time.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *StaticProvider) LastPrice(ctx context.Context, symbol string) (Quote, error) {
	if err := ctx.Err(); err != nil {
		return Quote{}, trading.WrapErr(trading.KindExternalProvider, err, "quote request canceled")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[symbol]
	if !ok {
		return Quote{}, trading.Errf(trading.KindSymbolUnavailable, "no quote for %q", symbol)
	}
	return q, nil
}
