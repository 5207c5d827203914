package exec

import (
	"github.com/shopspring/decimal"

	"github.com/montewalk/quant/trading"
)

var bpsDivisor = decimal.NewFromInt(10_000)

// CostModel adjusts execution prices against the trader by a fixed
// basis-point slippage and charges a proportional commission on the
// executed notional. The backtest engine reuses the same model on its
// notional-only equity curve.
type CostModel struct {
	SlippageBps    decimal.Decimal
	CommissionRate decimal.Decimal
}

// NewCostModel builds a cost model from plain config floats.
func NewCostModel(slippageBps, commissionRate float64) CostModel {
	return CostModel{
		SlippageBps:    decimal.NewFromFloat(slippageBps),
		CommissionRate: decimal.NewFromFloat(commissionRate),
	}
}

// FillPrice slips the reference price against the trader: buys pay up,
// sells receive down.
func (m CostModel) FillPrice(side trading.Side, ref decimal.Decimal) decimal.Decimal {
	slip := ref.Mul(m.SlippageBps).Div(bpsDivisor)
	if side == trading.SideBuy {
		return ref.Add(slip)
	}
	return ref.Sub(slip)
}

// Commission is the proportional fee on the executed notional.
func (m CostModel) Commission(notional decimal.Decimal) decimal.Decimal {
	return notional.Mul(m.CommissionRate)
}

// TradeCostFraction is the per-trade drag as a plain fraction, used by
// the backtest engine where the simulation is notional-only.
func (m CostModel) TradeCostFraction() float64 {
	slip, _ := m.SlippageBps.Div(bpsDivisor).Float64()
	comm, _ := m.CommissionRate.Float64()
	return slip + comm
}
