package model

import "time"

// Ticker is the latest quote for an instrument. Numeric fields keep the
// exchange's decimal string form.
type Ticker struct {
	InstID    string `json:"instId"`
	Last      string `json:"last"`
	LastSz    string `json:"lastSz"`
	AskPx     string `json:"askPx"`
	AskSz     string `json:"askSz"`
	BidPx     string `json:"bidPx"`
	BidSz     string `json:"bidSz"`
	Open24h   string `json:"open24h"`
	High24h   string `json:"high24h"`
	Low24h    string `json:"low24h"`
	VolCcy24h string `json:"volCcy24h"`
	Vol24h    string `json:"vol24h"`
	Timestamp string `json:"ts"`
}

// BookLevel is one ranked price level of the order book.
type BookLevel struct {
	Price  string `json:"px"`
	Size   string `json:"sz"`
	Orders string `json:"orders"`
}

// OrderBook holds bids (best first) and asks (best first).
type OrderBook struct {
	Bids      []BookLevel `json:"bids"`
	Asks      []BookLevel `json:"asks"`
	Timestamp string      `json:"ts"`
}

// Candle represents a single candlestick bar.
type Candle struct {
	Time      time.Time `json:"ts"`
	Open      string    `json:"o"`
	High      string    `json:"h"`
	Low       string    `json:"l"`
	Close     string    `json:"c"`
	Volume    string    `json:"vol"`
	Confirmed bool      `json:"confirm"`
}

// Trade is a single public fill.
type Trade struct {
	ID    string    `json:"tradeId"`
	Price string    `json:"px"`
	Size  string    `json:"sz"`
	Side  string    `json:"side"` // "buy" or "sell"
	Time  time.Time `json:"ts"`
}

// MarketSnapshot is everything fetched for one cycle. It is built once by the
// collector and never mutated afterwards.
type MarketSnapshot struct {
	InstID    string    `json:"instId"`
	Ticker    Ticker    `json:"ticker"`
	OrderBook OrderBook `json:"orderbook"`
	Candles   []Candle  `json:"candles"` // oldest first
	Trades    []Trade   `json:"trades"`  // newest first
	FetchedAt time.Time `json:"fetchedAt"`
}
