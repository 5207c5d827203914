package trading

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func limitPrice(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func TestOrderValidate(t *testing.T) {
	t.Parallel()

	valid := Order{
		Symbol: "aapl.us",
		Side:   SideBuy,
		Qty:    decimal.NewFromInt(10),
		Type:   OrderMarket,
	}
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*Order)
	}{
		{"missing symbol", func(o *Order) { o.Symbol = "" }},
		{"unknown side", func(o *Order) { o.Side = "hold" }},
		{"zero qty", func(o *Order) { o.Qty = decimal.Zero }},
		{"negative qty", func(o *Order) { o.Qty = decimal.NewFromInt(-1) }},
		{"unknown type", func(o *Order) { o.Type = "stop" }},
		{"market with limit price", func(o *Order) { o.LimitPrice = limitPrice(100) }},
		{"limit without price", func(o *Order) { o.Type = OrderLimit }},
		{"limit with zero price", func(o *Order) {
			o.Type = OrderLimit
			o.LimitPrice = limitPrice(0)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := valid
			tc.mutate(&o)

			err := o.Validate()
			assert.Error(t, err)
			assert.True(t, IsKind(err, KindValidation), "want validation error, got %v", err)
		})
	}
}

func TestOrderValidateLimit(t *testing.T) {
	t.Parallel()

	o := Order{
		Symbol:     "aapl.us",
		Side:       SideSell,
		Qty:        decimal.NewFromInt(5),
		Type:       OrderLimit,
		LimitPrice: limitPrice(180.50),
	}
	assert.NoError(t, o.Validate())
}

func TestFillNotional(t *testing.T) {
	t.Parallel()

	f := Fill{
		Qty:   decimal.NewFromInt(10),
		Price: decimal.NewFromFloat(100.05),
	}
	assert.True(t, f.Notional().Equal(decimal.NewFromFloat(1000.5)),
		"got %s", f.Notional())
}
