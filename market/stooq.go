package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/montewalk/quant/trading"
)

// BaseURL for the Stooq free end-of-day data service.
const stooqBaseURL = "https://stooq.com"

// StooqProvider fetches daily bars and delayed quotes from Stooq's
// public CSV endpoints. Symbols are passed through verbatim, so US
// equities need the ".us" suffix (e.g. "aapl.us").
type StooqProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewStooqProvider returns a provider with a bounded HTTP client.
func NewStooqProvider(timeout time.Duration) *StooqProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &StooqProvider{
		baseURL:    stooqBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *StooqProvider) Bars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	q := url.Values{}
	q.Set("s", strings.ToLower(symbol))
	q.Set("i", "d")
	q.Set("d1", start.Format("20060102"))
	q.Set("d2", end.Format("20060102"))

	body, err := p.get(ctx, "/q/d/l/", q)
	if err != nil {
		return nil, err
	}

	if len(body) == 0 || strings.HasPrefix(body[0][0], "No data") {
		return nil, trading.Errf(trading.KindSymbolUnavailable, "stooq has no data for %q", symbol)
	}

	var bars []Bar
	for i, rec := range body {
		if i == 0 && strings.EqualFold(rec[0], "date") {
			continue
		}
		if len(rec) < 6 {
			continue
		}
		b, err := parseBarRecord(rec[:6])
		if err != nil {
			return nil, trading.WrapErr(trading.KindExternalProvider, err,
				fmt.Sprintf("stooq bars for %q row %d", symbol, i))
		}
		bars = append(bars, b)
	}

	if len(bars) == 0 {
		return nil, trading.Errf(trading.KindSymbolUnavailable, "stooq returned no bars for %q", symbol)
	}
	return bars, nil
}

func (p *StooqProvider) LastPrice(ctx context.Context, symbol string) (Quote, error) {
	q := url.Values{}
	q.Set("s", strings.ToLower(symbol))
	q.Set("f", "sd2t2ohlcv")
	q.Set("h", "")
	q.Set("e", "csv")

	body, err := p.get(ctx, "/q/l/", q)
	if err != nil {
		return Quote{}, err
	}

	// Row 0 is the header, row 1 the quote:
	// Symbol,Date,Time,Open,High,Low,Close,Volume
	if len(body) < 2 || len(body[1]) < 7 {
		return Quote{}, trading.Errf(trading.KindExternalProvider, "stooq quote for %q: malformed response", symbol)
	}
	rec := body[1]
	if strings.EqualFold(rec[6], "N/D") {
		return Quote{}, trading.Errf(trading.KindSymbolUnavailable, "stooq has no quote for %q", symbol)
	}

	price, err := decimal.NewFromString(rec[6])
	if err != nil {
		return Quote{}, trading.WrapErr(trading.KindExternalProvider, err,
			fmt.Sprintf("stooq quote for %q", symbol))
	}

	t := time.Now().UTC()
	if ts, perr := time.Parse("2006-01-02 15:04:05", rec[1]+" "+rec[2]); perr == nil {
		t = ts
	}

	return Quote{Symbol: symbol, Price: price, Time: t}, nil
}

func (p *StooqProvider) get(ctx context.Context, path string, q url.Values) ([][]string, error) {
	u := p.baseURL + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, trading.WrapErr(trading.KindExternalProvider, err, "build stooq request")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, trading.WrapErr(trading.KindExternalProvider, err, "stooq request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, trading.Errf(trading.KindExternalProvider,
			"stooq returned status %d", resp.StatusCode)
	}

	r := csv.NewReader(resp.Body)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, trading.WrapErr(trading.KindExternalProvider, err, "decode stooq response")
	}
	return records, nil
}
