package optimize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/montewalk/quant/trading"
)

func TestRiskParityInverseVolWeights(t *testing.T) {
	t.Parallel()

	// Volatility of B is exactly twice that of A, so A gets twice the
	// weight: 2/3 vs 1/3.
	a, b := orthogonalReturns(200, 0, 0.01, 0, 0.02)
	o := newOptimizer(t, map[string][]float64{
		"aapl.us": closesFromReturns(a),
		"msft.us": closesFromReturns(b),
	})

	alloc, err := o.RiskParity(context.Background(), []string{"aapl.us", "msft.us"}, 400)
	assert.NoError(t, err)

	assert.InDelta(t, 2.0/3.0, alloc.Weights["aapl.us"], 1e-6)
	assert.InDelta(t, 1.0/3.0, alloc.Weights["msft.us"], 1e-6)
}

func TestRiskParityWeightsSumToOne(t *testing.T) {
	t.Parallel()

	a, b := orthogonalReturns(200, 0.001, 0.01, 0.002, 0.015)
	o := newOptimizer(t, map[string][]float64{
		"aapl.us": closesFromReturns(a),
		"msft.us": closesFromReturns(b),
	})

	alloc, err := o.RiskParity(context.Background(), []string{"aapl.us", "msft.us"}, 400)
	assert.NoError(t, err)

	sum := 0.0
	for _, w := range alloc.Weights {
		assert.GreaterOrEqual(t, w, 0.0)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestRiskParityZeroVolatility(t *testing.T) {
	t.Parallel()

	o := newOptimizer(t, map[string][]float64{
		"aapl.us": {100, 101, 102, 103, 104},
		"flat.us": {50, 50, 50, 50, 50},
	})

	_, err := o.RiskParity(context.Background(), []string{"aapl.us", "flat.us"}, 400)
	assert.Error(t, err)
	assert.True(t, trading.IsKind(err, trading.KindNumerical), "got %v", err)
}
