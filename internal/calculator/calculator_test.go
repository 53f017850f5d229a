package calculator

import (
	"fmt"
	"math"
	"testing"
	"time"

	"SwapSentinel/internal/model"
)

func candlesFrom(closes ...float64) []model.Candle {
	out := make([]model.Candle, len(closes))
	base := time.Unix(1700000000, 0)
	for i, c := range closes {
		out[i] = model.Candle{
			Time:      base.Add(time.Duration(i) * 5 * time.Minute),
			Open:      fmt.Sprintf("%.2f", c),
			High:      fmt.Sprintf("%.2f", c+1),
			Low:       fmt.Sprintf("%.2f", c-1),
			Close:     fmt.Sprintf("%.2f", c),
			Volume:    "10",
			Confirmed: true,
		}
	}
	return out
}

func TestCalculateSMA(t *testing.T) {
	tests := []struct {
		prices  []float64
		period  int
		want    float64
		wantErr bool
	}{
		{[]float64{1, 2, 3, 4}, 2, 3.5, false},
		{[]float64{1, 2, 3, 4}, 4, 2.5, false},
		{[]float64{1, 2}, 3, 0, true},
		{[]float64{1, 2}, 0, 0, true},
	}
	for _, tt := range tests {
		got, err := CalculateSMA(tt.prices, tt.period)
		if (err != nil) != tt.wantErr {
			t.Errorf("SMA(%v, %d): err=%v, wantErr=%v", tt.prices, tt.period, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("SMA(%v, %d) = %v, want %v", tt.prices, tt.period, got, tt.want)
		}
	}
}

func TestCalculateRSI(t *testing.T) {
	rising := make([]float64, 16)
	for i := range rising {
		rising[i] = float64(100 + i)
	}
	if rsi, err := CalculateRSI(rising, 14); err != nil || rsi != 100 {
		t.Errorf("rising market: rsi=%v err=%v, want 100", rsi, err)
	}

	flat := make([]float64, 16)
	for i := range flat {
		flat[i] = 100
	}
	if rsi, _ := CalculateRSI(flat, 14); rsi != 50 {
		t.Errorf("flat market: rsi=%v, want 50", rsi)
	}

	// alternating +2 / -1 changes: 7 gains of 2, 7 losses of 1 over 14 changes
	alt := []float64{100}
	for i := 0; i < 14; i++ {
		if i%2 == 0 {
			alt = append(alt, alt[len(alt)-1]+2)
		} else {
			alt = append(alt, alt[len(alt)-1]-1)
		}
	}
	rsi, err := CalculateRSI(alt, 14)
	if err != nil {
		t.Fatal(err)
	}
	want := 100 - 100/(1+2.0)
	if math.Abs(rsi-want) > 1e-9 {
		t.Errorf("alternating: rsi=%v, want %v", rsi, want)
	}

	if _, err := CalculateRSI([]float64{1, 2, 3}, 14); err == nil {
		t.Error("expected error for short series")
	}
}

func TestCompute(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = float64(3000 + i)
	}
	ind, err := Compute(candlesFrom(closes...))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if ind.Close != 3029 || ind.PrevClose != 3028 {
		t.Errorf("close=%v prev=%v", ind.Close, ind.PrevClose)
	}
	if ind.SMA10 <= ind.SMA10Prev {
		t.Errorf("expected rising SMA10, got %v <= %v", ind.SMA10, ind.SMA10Prev)
	}
	if ind.RangeHigh != 3030 || ind.RangeLow != 2999 {
		t.Errorf("range = %v/%v", ind.RangeHigh, ind.RangeLow)
	}

	if _, err := Compute(candlesFrom(1, 2, 3)); err != ErrInsufficientData {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestCompute_MinimumHistory(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(3000 + i)
	}
	ind, err := Compute(candlesFrom(closes...))
	if err != nil {
		t.Fatalf("compute with 20 candles: %v", err)
	}
	if !math.IsNaN(ind.SMA20Prev) {
		t.Errorf("previous SMA20 should be undefined, got %v", ind.SMA20Prev)
	}
	if ind.SMA20 != 3009.5 {
		t.Errorf("sma20 = %v", ind.SMA20)
	}
	if ind.SMA10Prev == 0 || math.IsNaN(ind.SMA10Prev) {
		t.Errorf("previous SMA10 should be defined, got %v", ind.SMA10Prev)
	}

	if _, err := Compute(candlesFrom(closes[:19]...)); err != ErrInsufficientData {
		t.Errorf("expected ErrInsufficientData for 19 candles, got %v", err)
	}
}

func TestTradeFlow(t *testing.T) {
	trades := []model.Trade{
		{Side: "buy", Size: "1.5"},
		{Side: "sell", Size: "2"},
		{Side: "buy", Size: "bad"},
		{Side: "buy", Size: "3"},
	}
	buy, sell := TradeFlow(trades, 0)
	if buy != 4.5 || sell != 2 {
		t.Errorf("flow = %v/%v, want 4.5/2", buy, sell)
	}
	buy, sell = TradeFlow(trades, 2)
	if buy != 1.5 || sell != 2 {
		t.Errorf("limited flow = %v/%v, want 1.5/2", buy, sell)
	}
}
