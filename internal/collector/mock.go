package collector

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"MarketDecline/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols without fixed bars get a deterministic random walk.
type MockFetcher struct {
	Price  float64
	Bars   map[string][]model.OHLCV
	Errors map[string]error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.Errors[symbol]; ok {
		return nil, err
	}
	if bars, ok := m.Bars[symbol]; ok {
		return bars, nil
	}
	price := m.Price
	if price == 0 {
		price = 10000
	}
	return generateMockBars(symbol, price, days), nil
}

func generateMockBars(symbol string, basePrice float64, count int) []model.OHLCV {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -count)
	bars := make([]model.OHLCV, count)
	p := basePrice
	for i := 0; i < count; i++ {
		p *= 1 + (rng.Float64()-0.5)*0.04
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   p * 0.999,
			High:   p * 1.01,
			Low:    p * 0.99,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// MockLister serves fixed listings, or Size generated instruments per
// market when none are set.
type MockLister struct {
	Listings map[model.Market][]model.Instrument
	Size     int
	Err      error
}

func (m *MockLister) Name() string { return "mock" }

func (m *MockLister) ListStocks(ctx context.Context, market model.Market) ([]model.Instrument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if l, ok := m.Listings[market]; ok {
		return l, nil
	}
	n := m.Size
	if n == 0 {
		n = 200
	}
	base := 0
	if market == model.MarketKOSDAQ {
		base = 100000
	}
	out := make([]model.Instrument, n)
	for i := range out {
		code := fmt.Sprintf("%06d", base+i*10)
		out[i] = model.Instrument{Code: code, Name: fmt.Sprintf("%s 모의종목 %d", market, i+1), Market: market}
	}
	return out, nil
}
