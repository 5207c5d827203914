package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/montewalk/quant/trading"
)

// CSVProvider serves daily bars from one CSV file per symbol, laid out
// as <dir>/<SYMBOL>.csv with rows of date,open,high,low,close,volume.
// Dates are YYYY-MM-DD. A header row is skipped if present.
type CSVProvider struct {
	dir string
}

func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

func (p *CSVProvider) Bars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	all, err := p.load(ctx, symbol)
	if err != nil {
		return nil, err
	}

	out := make([]Bar, 0, len(all))
	for _, b := range all {
		if b.Time.Before(start) || b.Time.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (p *CSVProvider) LastPrice(ctx context.Context, symbol string) (Quote, error) {
	all, err := p.load(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}
	if len(all) == 0 {
		return Quote{}, trading.Errf(trading.KindSymbolUnavailable, "no bars in file for %q", symbol)
	}

	last := all[len(all)-1]
	return Quote{
		Symbol: symbol,
		Price:  decimal.NewFromFloat(last.Close),
		Time:   last.Time,
	}, nil
}

func (p *CSVProvider) load(ctx context.Context, symbol string) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, trading.WrapErr(trading.KindExternalProvider, err, "csv load canceled")
	}

	path := filepath.Join(p.dir, strings.ToUpper(symbol)+".csv")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, trading.Errf(trading.KindSymbolUnavailable, "no data file for %q", symbol)
		}
		return nil, trading.WrapErr(trading.KindExternalProvider, err, "open data file")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 6

	var bars []Bar
	for line := 1; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, trading.WrapErr(trading.KindExternalProvider, err,
				fmt.Sprintf("parse %s line %d", path, line))
		}

		// Skip a header row.
		if line == 1 && strings.EqualFold(rec[0], "date") {
			continue
		}

		b, err := parseBarRecord(rec)
		if err != nil {
			return nil, trading.WrapErr(trading.KindExternalProvider, err,
				fmt.Sprintf("parse %s line %d", path, line))
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func parseBarRecord(rec []string) (Bar, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(rec[0]))
	if err != nil {
		return Bar{}, fmt.Errorf("bad date %q: %w", rec[0], err)
	}

	fields := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad field %q: %w", rec[i+1], err)
		}
		fields[i] = v
	}

	return Bar{
		Time:   t,
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
		Volume: fields[4],
	}, nil
}
