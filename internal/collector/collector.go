package collector

import (
	"context"
	"fmt"
	"time"

	"SwapSentinel/internal/model"
)

// MockSource returns controllable fixed data for development and testing.
type MockSource struct {
	Price    float64
	Snapshot *model.MarketSnapshot
	Err      error
	Calls    int
}

// Name identifies the mock in logs.
func (m *MockSource) Name() string { return "mock" }

// FetchAll returns Err if set, else Snapshot, else a generated snapshot at Price.
func (m *MockSource) FetchAll(_ context.Context, instID string) (*model.MarketSnapshot, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Snapshot != nil {
		return m.Snapshot, nil
	}
	return GenerateSnapshot(instID, m.Price, 100), nil
}

// GenerateSnapshot builds a plausible snapshot around basePrice.
func GenerateSnapshot(instID string, basePrice float64, candles int) *model.MarketSnapshot {
	now := time.Now()
	px := func(p float64) string { return fmt.Sprintf("%.2f", p) }

	snap := &model.MarketSnapshot{
		InstID: instID,
		Ticker: model.Ticker{
			InstID:    instID,
			Last:      px(basePrice),
			AskPx:     px(basePrice + 0.01),
			AskSz:     "12",
			BidPx:     px(basePrice - 0.01),
			BidSz:     "9",
			High24h:   px(basePrice * 1.03),
			Low24h:    px(basePrice * 0.97),
			VolCcy24h: "150000",
		},
		FetchedAt: now,
	}
	for i := 0; i < 20; i++ {
		step := float64(i+1) * 0.1
		snap.OrderBook.Bids = append(snap.OrderBook.Bids, model.BookLevel{Price: px(basePrice - step), Size: "5", Orders: "2"})
		snap.OrderBook.Asks = append(snap.OrderBook.Asks, model.BookLevel{Price: px(basePrice + step), Size: "5", Orders: "2"})
	}
	for i := 0; i < candles; i++ {
		p := basePrice * (1 + float64(i-candles/2)*0.001)
		snap.Candles = append(snap.Candles, model.Candle{
			Time:      now.Add(-time.Duration(candles-i) * 5 * time.Minute),
			Open:      px(p * 0.999),
			High:      px(p * 1.002),
			Low:       px(p * 0.998),
			Close:     px(p),
			Volume:    "1000",
			Confirmed: i < candles-1,
		})
	}
	for i := 0; i < 50; i++ {
		side := "buy"
		if i%3 == 0 {
			side = "sell"
		}
		snap.Trades = append(snap.Trades, model.Trade{
			ID:    fmt.Sprintf("t%d", i),
			Price: px(basePrice),
			Size:  "0.5",
			Side:  side,
			Time:  now.Add(-time.Duration(i) * time.Second),
		})
	}
	return snap
}
