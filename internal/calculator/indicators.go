package calculator

import (
	"errors"
	"math"

	"SwapSentinel/internal/model"
)

// minCandles is the least history needed before indicators are reported.
const minCandles = 20

// Indicators summarises the technical picture handed to the model.
type Indicators struct {
	Close     float64
	PrevClose float64
	SMA10     float64
	SMA10Prev float64
	SMA20     float64
	SMA20Prev float64 // NaN with exactly minCandles closes
	RSI14     float64
	RangeHigh float64
	RangeLow  float64
}

// ErrInsufficientData is returned when there are too few candles.
var ErrInsufficientData = errors.New("not enough candles for indicators")

// Compute derives indicators from candles ordered oldest first.
func Compute(candles []model.Candle) (*Indicators, error) {
	closes := Closes(candles)
	if len(closes) < minCandles {
		return nil, ErrInsufficientData
	}
	prev := closes[:len(closes)-1]

	ind := &Indicators{
		Close:     closes[len(closes)-1],
		PrevClose: prev[len(prev)-1],
	}
	var err error
	if ind.SMA10, err = CalculateSMA(closes, 10); err != nil {
		return nil, err
	}
	if ind.SMA10Prev, err = CalculateSMA(prev, 10); err != nil {
		return nil, err
	}
	if ind.SMA20, err = CalculateSMA(closes, 20); err != nil {
		return nil, err
	}
	ind.SMA20Prev = math.NaN()
	if len(prev) >= 20 {
		if ind.SMA20Prev, err = CalculateSMA(prev, 20); err != nil {
			return nil, err
		}
	}
	if ind.RSI14, err = CalculateRSI(closes, 14); err != nil {
		return nil, err
	}
	if ind.RangeHigh, ind.RangeLow, err = CandleRange(candles); err != nil {
		return nil, err
	}
	return ind, nil
}
