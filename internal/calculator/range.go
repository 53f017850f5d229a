package calculator

import (
	"errors"
	"math"

	"SwapSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// CandleRange returns the highest high and lowest low across the candles.
func CandleRange(candles []model.Candle) (high, low float64, err error) {
	high = math.Inf(-1)
	low = math.Inf(1)
	seen := 0
	for _, c := range candles {
		h, errH := decimal.NewFromString(c.High)
		l, errL := decimal.NewFromString(c.Low)
		if errH != nil || errL != nil {
			continue
		}
		high = math.Max(high, h.InexactFloat64())
		low = math.Min(low, l.InexactFloat64())
		seen++
	}
	if seen == 0 {
		return 0, 0, errors.New("no usable candles")
	}
	return high, low, nil
}

// TradeFlow sums taker buy and sell size over at most `limit` trades.
func TradeFlow(trades []model.Trade, limit int) (buyVolume, sellVolume float64) {
	if limit > 0 && len(trades) > limit {
		trades = trades[:limit]
	}
	for _, t := range trades {
		sz, err := decimal.NewFromString(t.Size)
		if err != nil {
			continue
		}
		switch t.Side {
		case "buy":
			buyVolume += sz.InexactFloat64()
		case "sell":
			sellVolume += sz.InexactFloat64()
		}
	}
	return buyVolume, sellVolume
}
