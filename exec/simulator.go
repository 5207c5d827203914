package exec

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/montewalk/quant/journal"
	"github.com/montewalk/quant/market"
	"github.com/montewalk/quant/pkg/id"
	"github.com/montewalk/quant/portfolio"
	"github.com/montewalk/quant/trading"
)

// Simulator validates and fills orders against the ledger. Orders fill
// immediately at the slipped reference price; there is no resting
// order book.
//
// The mutex serializes the risk-check → mutate → persist sequence so
// concurrent requests cannot interleave into negative cash or lost
// updates. Quotes are always fetched before entering the critical
// section; only the final funds/quantity check and the mutation run
// under the lock.
type Simulator struct {
	mu sync.Mutex

	ledger *portfolio.Ledger
	prices market.Provider
	costs  CostModel

	// maxOrderFraction caps a buy's notional at this fraction of
	// available cash. Deliberately cash-based, not equity-based.
	maxOrderFraction decimal.Decimal

	journal journal.Journal
	log     *zap.Logger
}

func NewSimulator(
	ledger *portfolio.Ledger,
	prices market.Provider,
	costs CostModel,
	maxOrderFraction float64,
	jnl journal.Journal,
	log *zap.Logger,
) *Simulator {
	if jnl == nil {
		jnl = journal.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Simulator{
		ledger:           ledger,
		prices:           prices,
		costs:            costs,
		maxOrderFraction: decimal.NewFromFloat(maxOrderFraction),
		journal:          jnl,
		log:              log,
	}
}

// PlaceOrder validates, risk-checks and fills a single order. On any
// failure the typed error is returned with zero mutation.
func (s *Simulator) PlaceOrder(ctx context.Context, o trading.Order) (trading.Fill, error) {
	if o.ID == "" {
		o.ID = id.New()
	}

	if err := o.Validate(); err != nil {
		s.auditRejection(o, err)
		return trading.Fill{}, err
	}

	// Blocking external call, deliberately outside the lock.
	quote, err := s.prices.LastPrice(ctx, o.Symbol)
	if err != nil {
		s.auditRejection(o, err)
		return trading.Fill{}, err
	}

	s.mu.Lock()
	fill, err := s.executeLocked(ctx, o, quote)
	s.mu.Unlock()

	if err != nil {
		s.auditRejection(o, err)
		return trading.Fill{}, err
	}

	s.auditFill(fill)
	s.log.Info("order filled",
		zap.String("fill_id", fill.ID),
		zap.String("symbol", fill.Symbol),
		zap.String("side", string(fill.Side)),
		zap.String("qty", fill.Qty.String()),
		zap.String("price", fill.Price.String()),
	)
	return fill, nil
}

// CancelOrder always reports a no-op success. Every accepted order
// fills synchronously, so there is never a resting order to cancel.
// This is the adopted execution model, not an omission.
func (s *Simulator) CancelOrder(orderID string) error {
	s.log.Debug("cancel is a no-op in the immediate-fill model",
		zap.String("order_id", orderID))
	return nil
}

// Positions returns the ledger snapshot verbatim.
func (s *Simulator) Positions() *trading.Portfolio {
	return s.ledger.Snapshot()
}

// Flatten closes every open position with one market sell each,
// executed under the same serialization discipline as individual
// orders. N open positions yield exactly N fills.
func (s *Simulator) Flatten(ctx context.Context) ([]trading.Fill, error) {
	// Quotes first, outside the lock, for the symbols we expect to
	// close. Sorted for a deterministic fill order.
	snap := s.ledger.Snapshot()
	symbols := make([]string, 0, len(snap.Positions))
	for sym := range snap.Positions {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	quotes := make(map[string]market.Quote, len(symbols))
	for _, sym := range symbols {
		q, err := s.prices.LastPrice(ctx, sym)
		if err != nil {
			return nil, err
		}
		quotes[sym] = q
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The locked snapshot is the authoritative one; nothing can
	// interleave from here on.
	current := s.ledger.Snapshot()

	fills := make([]trading.Fill, 0, len(current.Positions))
	for _, sym := range sortedSymbols(current) {
		pos := current.Positions[sym]

		q, ok := quotes[sym]
		if !ok {
			// Position appeared after the pre-lock snapshot; we have
			// no quote for it and will not do I/O under the lock.
			return fills, trading.Errf(trading.KindSymbolUnavailable,
				"no quote fetched for %q during flatten", sym)
		}

		order := trading.Order{
			ID:     id.New(),
			Symbol: sym,
			Side:   trading.SideSell,
			Qty:    pos.Qty,
			Type:   trading.OrderMarket,
		}

		fill, err := s.executeLocked(ctx, order, q)
		if err != nil {
			s.auditRejection(order, err)
			return fills, err
		}
		s.auditFill(fill)
		fills = append(fills, fill)
	}

	s.log.Info("flattened portfolio", zap.Int("fills", len(fills)))
	return fills, nil
}

// executeLocked runs the funds/quantity check, builds the fill and
// applies it to the ledger. Callers hold s.mu.
func (s *Simulator) executeLocked(ctx context.Context, o trading.Order, quote market.Quote) (trading.Fill, error) {
	pf := s.ledger.Snapshot()
	ref := quote.Price

	notional := o.Qty.Mul(ref)

	switch o.Side {
	case trading.SideBuy:
		maxNotional := pf.Cash.Mul(s.maxOrderFraction)
		if notional.GreaterThan(maxNotional) {
			return trading.Fill{}, trading.Errf(trading.KindInsufficientFunds,
				"order notional %s exceeds %s%% of available cash %s",
				notional.StringFixed(2),
				s.maxOrderFraction.Mul(decimal.NewFromInt(100)).StringFixed(0),
				pf.Cash.StringFixed(2))
		}
	case trading.SideSell:
		held := decimal.Zero
		if pos, ok := pf.Positions[o.Symbol]; ok {
			held = pos.Qty
		}
		if o.Qty.GreaterThan(held) {
			return trading.Fill{}, trading.Errf(trading.KindInsufficientFunds,
				"cannot sell %s %s, held %s", o.Qty, o.Symbol, held)
		}
	}

	price := s.costs.FillPrice(o.Side, ref)

	if o.Type == trading.OrderLimit {
		limit := *o.LimitPrice
		switch o.Side {
		case trading.SideBuy:
			if limit.LessThan(ref) {
				return trading.Fill{}, trading.Errf(trading.KindValidation,
					"buy limit %s below reference %s can never fill in the immediate-fill model", limit, ref)
			}
			if price.GreaterThan(limit) {
				price = limit
			}
		case trading.SideSell:
			if limit.GreaterThan(ref) {
				return trading.Fill{}, trading.Errf(trading.KindValidation,
					"sell limit %s above reference %s can never fill in the immediate-fill model", limit, ref)
			}
			if price.LessThan(limit) {
				price = limit
			}
		}
	}

	fill := trading.Fill{
		ID:         id.New(),
		OrderID:    o.ID,
		Symbol:     o.Symbol,
		Side:       o.Side,
		Qty:        o.Qty,
		Price:      price,
		Commission: s.costs.Commission(o.Qty.Mul(price)),
		Time:       time.Now().UTC(),
	}

	if err := s.ledger.ApplyFill(ctx, fill); err != nil {
		return trading.Fill{}, err
	}
	return fill, nil
}

// Audit writes are fire-and-forget: a journal failure is logged and
// never fails the trading operation.
func (s *Simulator) auditFill(f trading.Fill) {
	err := s.journal.RecordFill(journal.FillRecord{
		FillID:     f.ID,
		OrderID:    f.OrderID,
		Symbol:     f.Symbol,
		Side:       f.Side,
		Qty:        f.Qty,
		Price:      f.Price,
		Commission: f.Commission,
		Time:       f.Time,
	})
	if err != nil {
		s.log.Warn("audit journal fill write failed", zap.Error(err))
	}
}

func (s *Simulator) auditRejection(o trading.Order, cause error) {
	err := s.journal.RecordRejection(journal.RejectionRecord{
		OrderID: o.ID,
		Symbol:  o.Symbol,
		Side:    o.Side,
		Qty:     o.Qty,
		Kind:    trading.KindOf(cause),
		Reason:  cause.Error(),
		Time:    time.Now().UTC(),
	})
	if err != nil {
		s.log.Warn("audit journal rejection write failed", zap.Error(err))
	}
}

func sortedSymbols(pf *trading.Portfolio) []string {
	out := make([]string, 0, len(pf.Positions))
	for sym := range pf.Positions {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
