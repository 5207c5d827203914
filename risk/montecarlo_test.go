package risk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/montewalk/quant/trading"
)

func TestMonteCarloReproducibleForSeed(t *testing.T) {
	t.Parallel()

	e := newRiskFixture(t, 10_000,
		map[string][]float64{"aapl.us": {100, 102, 101, 104, 103, 106, 105, 108}},
		map[string]float64{"aapl.us": 10})

	first, err := e.MonteCarlo(context.Background(), 500, 10, 42)
	assert.NoError(t, err)
	second, err := e.MonteCarlo(context.Background(), 500, 10, 42)
	assert.NoError(t, err)

	assert.Equal(t, first, second, "same seed and inputs must reproduce exactly")

	other, err := e.MonteCarlo(context.Background(), 500, 10, 43)
	assert.NoError(t, err)
	assert.NotEqual(t, first.P50, other.P50, "a different seed should move the percentiles")
}

func TestMonteCarloPercentilesOrdered(t *testing.T) {
	t.Parallel()

	e := newRiskFixture(t, 10_000,
		map[string][]float64{"aapl.us": {100, 102, 101, 104, 103, 106, 105, 108}},
		map[string]float64{"aapl.us": 10})

	res, err := e.MonteCarlo(context.Background(), 1000, 30, 7)
	assert.NoError(t, err)

	assert.Equal(t, 1000, res.Paths)
	assert.Equal(t, 30, res.HorizonDays)
	assert.Equal(t, int64(7), res.Seed)
	assert.Greater(t, res.StartValue, 0.0)
	assert.LessOrEqual(t, res.P5, res.P50)
	assert.LessOrEqual(t, res.P50, res.P95)
}

func TestMonteCarloValidation(t *testing.T) {
	t.Parallel()

	e := newRiskFixture(t, 10_000,
		map[string][]float64{"aapl.us": {100, 102, 101, 104}},
		map[string]float64{"aapl.us": 10})

	_, err := e.MonteCarlo(context.Background(), 0, 10, 1)
	assert.True(t, trading.IsKind(err, trading.KindValidation), "got %v", err)

	_, err = e.MonteCarlo(context.Background(), 100, 0, 1)
	assert.True(t, trading.IsKind(err, trading.KindValidation), "got %v", err)
}

func TestMonteCarloEmptyPortfolio(t *testing.T) {
	t.Parallel()

	e := newRiskFixture(t, 10_000, nil, nil)

	_, err := e.MonteCarlo(context.Background(), 100, 10, 1)
	assert.True(t, trading.IsKind(err, trading.KindEmptyPortfolio), "got %v", err)
}
