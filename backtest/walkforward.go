package backtest

import (
	"context"
	"time"

	"github.com/montewalk/quant/market"
	"github.com/montewalk/quant/trading"
)

// barsPerMonth approximates one calendar month of daily bars.
const barsPerMonth = 21

// Parameter grid searched on each training window.
var (
	fastGrid = []int{10, 20, 50}
	slowGrid = []int{50, 100, 200}
)

// Window is one train/test split and its out-of-sample outcome. The
// fast/slow parameters are fitted on the train slice only; the test
// slice is evaluated with those frozen parameters.
type Window struct {
	TrainStart time.Time
	TrainEnd   time.Time
	TestStart  time.Time
	TestEnd    time.Time

	FastMA int
	SlowMA int

	TrainReturn float64
	TestReturn  float64
}

// WalkForward partitions [start, end] into consecutive train/test
// windows of trainMonths/testMonths (21 daily bars per month). Test
// windows are contiguous and non-overlapping; the splitter advances
// by one test window per iteration, so each test slice is judged by
// parameters fitted on the bars immediately before it. A trailing
// window shorter than a full test period is dropped.
func (e *Engine) WalkForward(ctx context.Context, symbol string, start, end time.Time, trainMonths, testMonths int) ([]Window, error) {
	if trainMonths <= 0 || testMonths <= 0 {
		return nil, trading.Errf(trading.KindValidation,
			"train and test months must be positive, got %d/%d", trainMonths, testMonths)
	}

	bars, err := e.prices.Bars(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	trainLen := trainMonths * barsPerMonth
	testLen := testMonths * barsPerMonth
	if len(bars) < trainLen+testLen {
		return nil, trading.Errf(trading.KindInsufficientHistory,
			"need at least %d bars for one %d/%d month window, got %d",
			trainLen+testLen, trainMonths, testMonths, len(bars))
	}

	closes := market.Closes(bars)

	var out []Window
	for idx := 0; idx+trainLen+testLen <= len(bars); idx += testLen {
		train := closes[idx : idx+trainLen]

		fast, slow, trainRet := e.fitGrid(train)

		// Evaluate on the test slice only. The slice handed to the
		// evaluator includes the train bars purely as moving-average
		// warmup; every evaluated return lies inside the test window.
		window := closes[idx : idx+trainLen+testLen]
		testRets, _ := e.strategyReturns(window, fast, slow, trainLen)

		out = append(out, Window{
			TrainStart:  bars[idx].Time,
			TrainEnd:    bars[idx+trainLen-1].Time,
			TestStart:   bars[idx+trainLen].Time,
			TestEnd:     bars[idx+trainLen+testLen-1].Time,
			FastMA:      fast,
			SlowMA:      slow,
			TrainReturn: trainRet,
			TestReturn:  compound(testRets),
		})
	}
	return out, nil
}

// fitGrid picks the crossover parameters with the best compounded
// return on the training closes.
func (e *Engine) fitGrid(train []float64) (fast, slow int, best float64) {
	fast, slow = fastGrid[0], slowGrid[0]
	first := true

	for _, f := range fastGrid {
		for _, s := range slowGrid {
			if f >= s || s > len(train) {
				continue
			}
			rets, _ := e.strategyReturns(train, f, s, 1)
			perf := compound(rets)
			if first || perf > best {
				fast, slow, best = f, s, perf
				first = false
			}
		}
	}
	return fast, slow, best
}
