package trading

import "github.com/shopspring/decimal"

// Position is a signed holding in a single symbol. A sell that fully
// closes a position removes it from the portfolio map entirely.
type Position struct {
	Symbol   string
	Qty      decimal.Decimal
	AvgPrice decimal.Decimal
}

// MarketValue marks the position against the given price.
func (p Position) MarketValue(price decimal.Decimal) decimal.Decimal {
	return p.Qty.Mul(price)
}

// Portfolio holds cash and the open positions keyed by symbol. The
// ledger owns the single live instance; everyone else sees copies.
type Portfolio struct {
	Cash      decimal.Decimal
	Positions map[string]Position
}

// NewPortfolio returns an empty portfolio with the given starting cash.
func NewPortfolio(cash decimal.Decimal) *Portfolio {
	return &Portfolio{
		Cash:      cash,
		Positions: make(map[string]Position),
	}
}

// Clone returns a deep copy safe to hand outside the ledger lock.
func (p *Portfolio) Clone() *Portfolio {
	cp := &Portfolio{
		Cash:      p.Cash,
		Positions: make(map[string]Position, len(p.Positions)),
	}
	for sym, pos := range p.Positions {
		cp.Positions[sym] = pos
	}
	return cp
}
