package market

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/montewalk/quant/trading"
)

// failingProvider always fails with a fixed error kind.
type failingProvider struct {
	kind trading.Kind
}

func (p failingProvider) Bars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	return nil, trading.Errf(p.kind, "provider down")
}

func (p failingProvider) LastPrice(ctx context.Context, symbol string) (Quote, error) {
	return Quote{}, trading.Errf(p.kind, "provider down")
}

func dailyBars(n int, startClose, step float64) []Bar {
	bars := make([]Bar, n)
	day := time.Now().UTC().AddDate(0, 0, -n)
	for i := range bars {
		c := startClose + step*float64(i)
		bars[i] = Bar{
			Time:   day.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func TestChainFallsBackToNextProvider(t *testing.T) {
	t.Parallel()

	good := NewStaticProvider()
	good.SetBars("aapl.us", dailyBars(5, 100, 1))

	chain := NewChain(time.Second,
		failingProvider{kind: trading.KindSymbolUnavailable},
		good,
	)

	q, err := chain.LastPrice(context.Background(), "aapl.us")
	assert.NoError(t, err)
	assert.True(t, q.Price.Equal(decimal.NewFromFloat(104)), "got %s", q.Price)

	bars, err := chain.Bars(context.Background(), "aapl.us",
		time.Now().AddDate(0, 0, -10), time.Now())
	assert.NoError(t, err)
	assert.Len(t, bars, 5)
}

func TestChainAllUnavailable(t *testing.T) {
	t.Parallel()

	chain := NewChain(time.Second,
		failingProvider{kind: trading.KindSymbolUnavailable},
		failingProvider{kind: trading.KindSymbolUnavailable},
	)

	_, err := chain.LastPrice(context.Background(), "nope")
	assert.Error(t, err)
	assert.True(t, trading.IsKind(err, trading.KindSymbolUnavailable), "got %v", err)
}

func TestChainMixedFailuresAreExternal(t *testing.T) {
	t.Parallel()

	chain := NewChain(time.Second,
		failingProvider{kind: trading.KindSymbolUnavailable},
		failingProvider{kind: trading.KindExternalProvider},
	)

	_, err := chain.LastPrice(context.Background(), "aapl.us")
	assert.Error(t, err)
	assert.True(t, trading.IsKind(err, trading.KindExternalProvider), "got %v", err)
}

func TestChainNoProviders(t *testing.T) {
	t.Parallel()

	chain := NewChain(time.Second)

	_, err := chain.LastPrice(context.Background(), "aapl.us")
	assert.Error(t, err)
	assert.True(t, trading.IsKind(err, trading.KindExternalProvider), "got %v", err)
}

func TestStaticProviderBarsWindow(t *testing.T) {
	t.Parallel()

	p := NewStaticProvider()
	p.SetBars("aapl.us", dailyBars(10, 100, 1))

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -5)

	bars, err := p.Bars(context.Background(), "aapl.us", start, end)
	assert.NoError(t, err)
	assert.NotEmpty(t, bars)
	assert.Less(t, len(bars), 10)
	for _, b := range bars {
		assert.False(t, b.Time.Before(start))
		assert.False(t, b.Time.After(end))
	}
}

func TestStaticProviderUnknownSymbol(t *testing.T) {
	t.Parallel()

	p := NewStaticProvider()

	_, err := p.LastPrice(context.Background(), "ghost")
	assert.True(t, trading.IsKind(err, trading.KindSymbolUnavailable), "got %v", err)

	_, err = p.Bars(context.Background(), "ghost", time.Now().AddDate(0, 0, -1), time.Now())
	assert.True(t, trading.IsKind(err, trading.KindSymbolUnavailable), "got %v", err)
}

func TestStaticProviderSetQuoteOverrides(t *testing.T) {
	t.Parallel()

	p := NewStaticProvider()
	p.SetBars("aapl.us", dailyBars(3, 100, 1))
	p.SetQuote("aapl.us", decimal.NewFromFloat(250.25))

	q, err := p.LastPrice(context.Background(), "aapl.us")
	assert.NoError(t, err)
	assert.True(t, q.Price.Equal(decimal.NewFromFloat(250.25)))
}

func TestStaticProviderHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	p := NewStaticProvider()
	p.SetBars("aapl.us", dailyBars(3, 100, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.LastPrice(ctx, "aapl.us")
	assert.Error(t, err)
	assert.True(t, trading.IsKind(err, trading.KindExternalProvider), "got %v", err)
}
