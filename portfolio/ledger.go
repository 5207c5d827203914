package portfolio

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/montewalk/quant/trading"
)

// Ledger owns the single live portfolio. Every mutation runs under the
// mutex as clone → mutate → persist → swap, so a failed persist leaves
// the in-memory state exactly as it was: the ledger never reports
// success without a durable commit.
type Ledger struct {
	mu    sync.Mutex
	store Store
	pf    *trading.Portfolio
}

// Open loads the portfolio from the store, seeding a fresh one with
// startingCash when no durable state exists yet.
func Open(ctx context.Context, store Store, startingCash decimal.Decimal) (*Ledger, error) {
	pf, ok, err := store.Load(ctx)
	if err != nil {
		return nil, trading.WrapErr(trading.KindExternalProvider, err, "load portfolio state")
	}
	if !ok {
		pf = trading.NewPortfolio(startingCash)
		if err := store.Save(ctx, pf); err != nil {
			return nil, trading.WrapErr(trading.KindExternalProvider, err, "seed portfolio state")
		}
	}
	return &Ledger{store: store, pf: pf}, nil
}

// Snapshot returns a consistent deep copy of the current state.
func (l *Ledger) Snapshot() *trading.Portfolio {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pf.Clone()
}

// ApplyFill atomically updates cash and the position for one fill and
// persists the new state before returning.
func (l *Ledger) ApplyFill(ctx context.Context, f trading.Fill) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.pf.Clone()
	if err := applyFill(next, f); err != nil {
		return err
	}

	if err := l.store.Save(ctx, next); err != nil {
		return trading.WrapErr(trading.KindExternalProvider, err, "persist portfolio state")
	}

	l.pf = next
	return nil
}

// Flush persists the current state; called once at shutdown.
func (l *Ledger) Flush(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Save(ctx, l.pf); err != nil {
		return trading.WrapErr(trading.KindExternalProvider, err, "flush portfolio state")
	}
	return nil
}

func applyFill(pf *trading.Portfolio, f trading.Fill) error {
	notional := f.Notional()

	switch f.Side {
	case trading.SideBuy:
		cost := notional.Add(f.Commission)
		if cost.GreaterThan(pf.Cash) {
			return trading.Errf(trading.KindInsufficientFunds,
				"fill cost %s exceeds cash %s", cost, pf.Cash)
		}
		pf.Cash = pf.Cash.Sub(cost)

		pos, ok := pf.Positions[f.Symbol]
		if !ok {
			pf.Positions[f.Symbol] = trading.Position{
				Symbol:   f.Symbol,
				Qty:      f.Qty,
				AvgPrice: f.Price,
			}
			return nil
		}

		newQty := pos.Qty.Add(f.Qty)
		// Weighted average cost basis over the combined quantity.
		newAvg := pos.Qty.Mul(pos.AvgPrice).Add(notional).Div(newQty)
		pf.Positions[f.Symbol] = trading.Position{
			Symbol:   f.Symbol,
			Qty:      newQty,
			AvgPrice: newAvg,
		}
		return nil

	case trading.SideSell:
		pos, ok := pf.Positions[f.Symbol]
		if !ok || pos.Qty.LessThan(f.Qty) {
			return trading.Errf(trading.KindInsufficientFunds,
				"cannot sell %s %s, held %s", f.Qty, f.Symbol, heldQty(pf, f.Symbol))
		}

		newCash := pf.Cash.Add(notional).Sub(f.Commission)
		if newCash.IsNegative() {
			return trading.Errf(trading.KindInsufficientFunds,
				"commission %s would drive cash negative", f.Commission)
		}
		pf.Cash = newCash

		newQty := pos.Qty.Sub(f.Qty)
		if newQty.IsZero() {
			delete(pf.Positions, f.Symbol)
			return nil
		}
		pf.Positions[f.Symbol] = trading.Position{
			Symbol:   f.Symbol,
			Qty:      newQty,
			AvgPrice: pos.AvgPrice,
		}
		return nil

	default:
		return trading.Errf(trading.KindValidation, "fill has unknown side %q", f.Side)
	}
}

func heldQty(pf *trading.Portfolio, symbol string) decimal.Decimal {
	if pos, ok := pf.Positions[symbol]; ok {
		return pos.Qty
	}
	return decimal.Zero
}
