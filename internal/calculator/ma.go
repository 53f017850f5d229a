package calculator

import (
	"errors"

	"SwapSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// CalculateSMA computes the simple moving average of the last `period` prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// Closes extracts close prices from candles, oldest first. Candles whose
// close does not parse are skipped.
func Closes(candles []model.Candle) []float64 {
	closes := make([]float64, 0, len(candles))
	for _, c := range candles {
		d, err := decimal.NewFromString(c.Close)
		if err != nil {
			continue
		}
		closes = append(closes, d.InexactFloat64())
	}
	return closes
}
