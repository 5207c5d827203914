package journal

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/montewalk/quant/trading"
)

// FillRecord is the audit row written for every executed order.
type FillRecord struct {
	FillID     string
	OrderID    string
	Symbol     string
	Side       trading.Side
	Qty        decimal.Decimal
	Price      decimal.Decimal
	Commission decimal.Decimal
	Time       time.Time
}

// RejectionRecord is the audit row written for every rejected order.
type RejectionRecord struct {
	OrderID string
	Symbol  string
	Side    trading.Side
	Qty     decimal.Decimal
	Kind    trading.Kind
	Reason  string
	Time    time.Time
}

// Journal is the audit sink. The execution simulator records every
// fill and rejection here fire-and-forget: a journal failure must
// never block or fail the trading operation itself.
type Journal interface {
	RecordFill(FillRecord) error
	RecordRejection(RejectionRecord) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordFill(FillRecord) error           { return nil }
func (Nop) RecordRejection(RejectionRecord) error { return nil }
func (Nop) Close() error                          { return nil }
