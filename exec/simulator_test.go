package exec

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/montewalk/quant/journal"
	"github.com/montewalk/quant/market"
	"github.com/montewalk/quant/portfolio"
	"github.com/montewalk/quant/trading"
)

// memJournal captures audit records for assertions.
type memJournal struct {
	mu      sync.Mutex
	fills   []journal.FillRecord
	rejects []journal.RejectionRecord
}

func (j *memJournal) RecordFill(f journal.FillRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fills = append(j.fills, f)
	return nil
}

func (j *memJournal) RecordRejection(r journal.RejectionRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.rejects = append(j.rejects, r)
	return nil
}

func (j *memJournal) Close() error { return nil }

type simFixture struct {
	sim     *Simulator
	ledger  *portfolio.Ledger
	prices  *market.StaticProvider
	journal *memJournal
}

func newSimFixture(t *testing.T, cash float64) *simFixture {
	t.Helper()

	ledger, err := portfolio.Open(context.Background(),
		portfolio.NewMemStore(), decimal.NewFromFloat(cash))
	assert.NoError(t, err)

	prices := market.NewStaticProvider()
	jnl := &memJournal{}

	return &simFixture{
		sim:     NewSimulator(ledger, prices, NewCostModel(5, 0.001), 0.50, jnl, nil),
		ledger:  ledger,
		prices:  prices,
		journal: jnl,
	}
}

func marketOrder(symbol string, side trading.Side, qty float64) trading.Order {
	return trading.Order{
		Symbol: symbol,
		Side:   side,
		Qty:    decimal.NewFromFloat(qty),
		Type:   trading.OrderMarket,
	}
}

func TestPlaceOrderBuyFills(t *testing.T) {
	t.Parallel()

	fx := newSimFixture(t, 100_000)
	fx.prices.SetQuote("aapl.us", decimal.NewFromInt(100))

	fill, err := fx.sim.PlaceOrder(context.Background(), marketOrder("aapl.us", trading.SideBuy, 10))
	assert.NoError(t, err)

	// 5 bps slippage against the buyer.
	assert.True(t, fill.Price.Equal(decimal.NewFromFloat(100.05)), "got %s", fill.Price)
	// 0.1% of the executed notional 1000.5.
	assert.True(t, fill.Commission.Equal(decimal.NewFromFloat(1.0005)), "got %s", fill.Commission)
	assert.NotEmpty(t, fill.ID)
	assert.NotEmpty(t, fill.OrderID)

	pf := fx.sim.Positions()
	assert.True(t, pf.Positions["aapl.us"].Qty.Equal(decimal.NewFromInt(10)))
	// 100000 - 1000.5 - 1.0005
	assert.True(t, pf.Cash.Equal(decimal.NewFromFloat(98998.4995)), "got %s", pf.Cash)

	assert.Len(t, fx.journal.fills, 1)
	assert.Empty(t, fx.journal.rejects)
}

func TestPlaceOrderSellReceivesSlippedPrice(t *testing.T) {
	t.Parallel()

	fx := newSimFixture(t, 100_000)
	fx.prices.SetQuote("aapl.us", decimal.NewFromInt(100))

	_, err := fx.sim.PlaceOrder(context.Background(), marketOrder("aapl.us", trading.SideBuy, 10))
	assert.NoError(t, err)

	fill, err := fx.sim.PlaceOrder(context.Background(), marketOrder("aapl.us", trading.SideSell, 10))
	assert.NoError(t, err)
	assert.True(t, fill.Price.Equal(decimal.NewFromFloat(99.95)), "got %s", fill.Price)

	assert.Empty(t, fx.sim.Positions().Positions)
}

func TestPlaceOrderRejectsInvalidOrder(t *testing.T) {
	t.Parallel()

	fx := newSimFixture(t, 100_000)

	_, err := fx.sim.PlaceOrder(context.Background(), marketOrder("aapl.us", trading.SideBuy, 0))
	assert.Error(t, err)
	assert.True(t, trading.IsKind(err, trading.KindValidation), "got %v", err)

	assert.Len(t, fx.journal.rejects, 1)
	assert.Equal(t, trading.KindValidation, fx.journal.rejects[0].Kind)
}

func TestPlaceOrderUnknownSymbol(t *testing.T) {
	t.Parallel()

	fx := newSimFixture(t, 100_000)

	_, err := fx.sim.PlaceOrder(context.Background(), marketOrder("ghost", trading.SideBuy, 1))
	assert.Error(t, err)
	assert.True(t, trading.IsKind(err, trading.KindSymbolUnavailable), "got %v", err)
	assert.Len(t, fx.journal.rejects, 1)
}

func TestPlaceOrderBuyCapOnCashFraction(t *testing.T) {
	t.Parallel()

	fx := newSimFixture(t, 10_000)
	fx.prices.SetQuote("aapl.us", decimal.NewFromInt(100))

	// 60 * 100 = 6000 notional > 50% of 10000.
	_, err := fx.sim.PlaceOrder(context.Background(), marketOrder("aapl.us", trading.SideBuy, 60))
	assert.Error(t, err)
	assert.True(t, trading.IsKind(err, trading.KindInsufficientFunds), "got %v", err)

	// Untouched state after the rejection.
	pf := fx.sim.Positions()
	assert.True(t, pf.Cash.Equal(decimal.NewFromInt(10_000)))
	assert.Empty(t, pf.Positions)

	// Exactly at the cap is allowed.
	_, err = fx.sim.PlaceOrder(context.Background(), marketOrder("aapl.us", trading.SideBuy, 50))
	assert.NoError(t, err)
}

func TestPlaceOrderSellMoreThanHeld(t *testing.T) {
	t.Parallel()

	fx := newSimFixture(t, 100_000)
	fx.prices.SetQuote("aapl.us", decimal.NewFromInt(100))

	_, err := fx.sim.PlaceOrder(context.Background(), marketOrder("aapl.us", trading.SideBuy, 10))
	assert.NoError(t, err)

	_, err = fx.sim.PlaceOrder(context.Background(), marketOrder("aapl.us", trading.SideSell, 11))
	assert.Error(t, err)
	assert.True(t, trading.IsKind(err, trading.KindInsufficientFunds), "got %v", err)
}

func TestPlaceOrderBuyLimitBoundsFill(t *testing.T) {
	t.Parallel()

	fx := newSimFixture(t, 100_000)
	fx.prices.SetQuote("aapl.us", decimal.NewFromInt(100))

	limit := decimal.NewFromFloat(100.02)
	fill, err := fx.sim.PlaceOrder(context.Background(), trading.Order{
		Symbol:     "aapl.us",
		Side:       trading.SideBuy,
		Qty:        decimal.NewFromInt(10),
		Type:       trading.OrderLimit,
		LimitPrice: &limit,
	})
	assert.NoError(t, err)
	// Slipped price 100.05 is capped at the limit.
	assert.True(t, fill.Price.Equal(limit), "got %s", fill.Price)
}

func TestPlaceOrderSellLimitBoundsFill(t *testing.T) {
	t.Parallel()

	fx := newSimFixture(t, 100_000)
	fx.prices.SetQuote("aapl.us", decimal.NewFromInt(100))

	_, err := fx.sim.PlaceOrder(context.Background(), marketOrder("aapl.us", trading.SideBuy, 10))
	assert.NoError(t, err)

	limit := decimal.NewFromFloat(99.98)
	fill, err := fx.sim.PlaceOrder(context.Background(), trading.Order{
		Symbol:     "aapl.us",
		Side:       trading.SideSell,
		Qty:        decimal.NewFromInt(10),
		Type:       trading.OrderLimit,
		LimitPrice: &limit,
	})
	assert.NoError(t, err)
	// Slipped price 99.95 is lifted to the limit floor.
	assert.True(t, fill.Price.Equal(limit), "got %s", fill.Price)
}

func TestPlaceOrderNonMarketableLimitRejected(t *testing.T) {
	t.Parallel()

	fx := newSimFixture(t, 100_000)
	fx.prices.SetQuote("aapl.us", decimal.NewFromInt(100))

	buyLimit := decimal.NewFromInt(90)
	_, err := fx.sim.PlaceOrder(context.Background(), trading.Order{
		Symbol:     "aapl.us",
		Side:       trading.SideBuy,
		Qty:        decimal.NewFromInt(1),
		Type:       trading.OrderLimit,
		LimitPrice: &buyLimit,
	})
	assert.Error(t, err)
	assert.True(t, trading.IsKind(err, trading.KindValidation), "got %v", err)

	_, err = fx.sim.PlaceOrder(context.Background(), marketOrder("aapl.us", trading.SideBuy, 10))
	assert.NoError(t, err)

	sellLimit := decimal.NewFromInt(110)
	_, err = fx.sim.PlaceOrder(context.Background(), trading.Order{
		Symbol:     "aapl.us",
		Side:       trading.SideSell,
		Qty:        decimal.NewFromInt(1),
		Type:       trading.OrderLimit,
		LimitPrice: &sellLimit,
	})
	assert.Error(t, err)
	assert.True(t, trading.IsKind(err, trading.KindValidation), "got %v", err)
}

func TestFlattenClosesAllPositions(t *testing.T) {
	t.Parallel()

	fx := newSimFixture(t, 100_000)
	fx.prices.SetQuote("aapl.us", decimal.NewFromInt(100))
	fx.prices.SetQuote("msft.us", decimal.NewFromInt(200))

	_, err := fx.sim.PlaceOrder(context.Background(), marketOrder("msft.us", trading.SideBuy, 5))
	assert.NoError(t, err)
	_, err = fx.sim.PlaceOrder(context.Background(), marketOrder("aapl.us", trading.SideBuy, 10))
	assert.NoError(t, err)

	fills, err := fx.sim.Flatten(context.Background())
	assert.NoError(t, err)
	assert.Len(t, fills, 2)

	// Deterministic symbol order.
	assert.Equal(t, "aapl.us", fills[0].Symbol)
	assert.Equal(t, "msft.us", fills[1].Symbol)
	for _, f := range fills {
		assert.Equal(t, trading.SideSell, f.Side)
	}

	assert.Empty(t, fx.sim.Positions().Positions)
}

func TestFlattenEmptyPortfolio(t *testing.T) {
	t.Parallel()

	fx := newSimFixture(t, 100_000)

	fills, err := fx.sim.Flatten(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, fills)
}

func TestCancelOrderIsNoOp(t *testing.T) {
	t.Parallel()

	fx := newSimFixture(t, 100_000)
	assert.NoError(t, fx.sim.CancelOrder("any-id"))
}
