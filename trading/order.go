package trading

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderType selects the execution style. Market orders fill at the
// slipped reference price; limit orders additionally bound the fill.
type OrderType string

const (
	OrderMarket OrderType = "market"
	OrderLimit  OrderType = "limit"
)

// Order is a transient request to trade. It is not persisted beyond
// the audit journal.
type Order struct {
	ID     string
	Symbol string
	Side   Side
	Qty    decimal.Decimal
	Type   OrderType

	// LimitPrice is required iff Type == OrderLimit.
	LimitPrice *decimal.Decimal
}

// Validate checks the order shape before any I/O or mutation happens.
func (o Order) Validate() error {
	if o.Symbol == "" {
		return Errf(KindValidation, "order symbol is required")
	}
	if o.Side != SideBuy && o.Side != SideSell {
		return Errf(KindValidation, "unknown order side %q", o.Side)
	}
	if !o.Qty.IsPositive() {
		return Errf(KindValidation, "order quantity must be positive, got %s", o.Qty)
	}
	switch o.Type {
	case OrderMarket:
		if o.LimitPrice != nil {
			return Errf(KindValidation, "market order must not carry a limit price")
		}
	case OrderLimit:
		if o.LimitPrice == nil || !o.LimitPrice.IsPositive() {
			return Errf(KindValidation, "limit order requires a positive limit price")
		}
	default:
		return Errf(KindValidation, "unknown order type %q", o.Type)
	}
	return nil
}

// Fill records the execution of an accepted order. Exactly one Fill is
// produced per accepted order; it is immutable once created.
type Fill struct {
	ID         string
	OrderID    string
	Symbol     string
	Side       Side
	Qty        decimal.Decimal
	Price      decimal.Decimal
	Commission decimal.Decimal
	Time       time.Time
}

// Notional is the executed quantity times the executed price.
func (f Fill) Notional() decimal.Decimal {
	return f.Qty.Mul(f.Price)
}
