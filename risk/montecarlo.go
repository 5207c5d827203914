package risk

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/montewalk/quant/trading"
)

// MonteCarloResult forecasts the portfolio value distribution at the
// horizon. The percentile fields are currency deltas from the
// starting value.
type MonteCarloResult struct {
	Paths       int
	HorizonDays int
	Seed        int64

	StartValue float64
	P5         float64
	P50        float64
	P95        float64
}

// MonteCarlo simulates geometric Brownian motion paths of the
// portfolio value:
//
//	v_{t+1} = v_t * exp((mu - sigma^2/2)*dt + sigma*sqrt(dt)*Z), dt = 1
//
// with drift and volatility estimated from the historical portfolio
// return series. Results are exactly reproducible for a fixed seed
// and fixed inputs.
func (e *Engine) MonteCarlo(ctx context.Context, paths, horizonDays int, seed int64) (MonteCarloResult, error) {
	if paths <= 0 {
		return MonteCarloResult{}, trading.Errf(trading.KindValidation,
			"paths must be positive, got %d", paths)
	}
	if horizonDays <= 0 {
		return MonteCarloResult{}, trading.Errf(trading.KindValidation,
			"horizon must be positive, got %d", horizonDays)
	}

	h, err := e.history(ctx)
	if err != nil {
		return MonteCarloResult{}, err
	}

	mu, sigma := stat.MeanStdDev(h.Returns, nil)
	if math.IsNaN(sigma) {
		return MonteCarloResult{}, trading.Errf(trading.KindNumerical,
			"could not estimate volatility from %d returns", len(h.Returns))
	}

	drift := mu - 0.5*sigma*sigma

	// A private deterministic source; the global one would break
	// seed reproducibility.
	rng := rand.New(rand.NewSource(seed))

	terminal := make([]float64, paths)
	for p := 0; p < paths; p++ {
		v := h.CurrentValue
		for d := 0; d < horizonDays; d++ {
			v *= math.Exp(drift + sigma*rng.NormFloat64())
		}
		terminal[p] = v
	}
	sort.Float64s(terminal)

	return MonteCarloResult{
		Paths:       paths,
		HorizonDays: horizonDays,
		Seed:        seed,
		StartValue:  h.CurrentValue,
		P5:          stat.Quantile(0.05, stat.Empirical, terminal, nil) - h.CurrentValue,
		P50:         stat.Quantile(0.50, stat.Empirical, terminal, nil) - h.CurrentValue,
		P95:         stat.Quantile(0.95, stat.Empirical, terminal, nil) - h.CurrentValue,
	}, nil
}
