package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"SwapSentinel/internal/model"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Options controls how much data each fetch requests.
type Options struct {
	CandleBar     string
	CandleLimit   int
	OrderBookSize int
	TradesLimit   int
}

// OKXSource implements Source using the OKX v5 public market REST API.
type OKXSource struct {
	client *resty.Client
	opts   Options
	log    *zap.Logger
}

// NewOKXSource creates a source with optional proxy support. When simulated
// is set, requests carry the demo-trading header.
func NewOKXSource(baseURL string, timeout time.Duration, proxyURL string, simulated bool, opts Options, log *zap.Logger) *OKXSource {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	if simulated {
		client.SetHeader("x-simulated-trading", "1")
	}
	return &OKXSource{client: client, opts: opts, log: log.Named("okx")}
}

// Name identifies the source in logs.
func (s *OKXSource) Name() string { return "okx" }

// envelope is the wrapper OKX puts around every response.
type envelope[T any] struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []T    `json:"data"`
}

type okxBook struct {
	Asks [][]string `json:"asks"`
	Bids [][]string `json:"bids"`
	Ts   string     `json:"ts"`
}

type okxTrade struct {
	InstID  string `json:"instId"`
	TradeID string `json:"tradeId"`
	Px      string `json:"px"`
	Sz      string `json:"sz"`
	Side    string `json:"side"`
	Ts      string `json:"ts"`
}

func get[T any](ctx context.Context, c *resty.Client, path string, params map[string]string) ([]T, error) {
	resp, err := c.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("request %s: status %d, body: %s", path, resp.StatusCode(), resp.String())
	}

	var env envelope[T]
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if env.Code != "0" {
		return nil, fmt.Errorf("okx api error on %s: code %s: %s", path, env.Code, env.Msg)
	}
	return env.Data, nil
}

// FetchAll fetches ticker, order book, candles and trades in that order.
func (s *OKXSource) FetchAll(ctx context.Context, instID string) (*model.MarketSnapshot, error) {
	s.log.Debug("fetching market data", zap.String("inst_id", instID))

	ticker, err := s.FetchTicker(ctx, instID)
	if err != nil {
		return nil, fmt.Errorf("fetch ticker: %w", err)
	}
	book, err := s.FetchOrderBook(ctx, instID)
	if err != nil {
		return nil, fmt.Errorf("fetch order book: %w", err)
	}
	candles, err := s.FetchCandles(ctx, instID)
	if err != nil {
		return nil, fmt.Errorf("fetch candles: %w", err)
	}
	trades, err := s.FetchTrades(ctx, instID)
	if err != nil {
		return nil, fmt.Errorf("fetch trades: %w", err)
	}

	return &model.MarketSnapshot{
		InstID:    instID,
		Ticker:    *ticker,
		OrderBook: *book,
		Candles:   candles,
		Trades:    trades,
		FetchedAt: time.Now(),
	}, nil
}

// FetchTicker returns the latest ticker for instID.
func (s *OKXSource) FetchTicker(ctx context.Context, instID string) (*model.Ticker, error) {
	data, err := get[model.Ticker](ctx, s.client, "/api/v5/market/ticker", map[string]string{"instId": instID})
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no ticker data for %s", instID)
	}
	return &data[0], nil
}

// FetchOrderBook returns ranked bid and ask levels, best first.
func (s *OKXSource) FetchOrderBook(ctx context.Context, instID string) (*model.OrderBook, error) {
	data, err := get[okxBook](ctx, s.client, "/api/v5/market/books", map[string]string{
		"instId": instID,
		"sz":     strconv.Itoa(s.opts.OrderBookSize),
	})
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no order book data for %s", instID)
	}
	return &model.OrderBook{
		Bids:      toLevels(data[0].Bids),
		Asks:      toLevels(data[0].Asks),
		Timestamp: data[0].Ts,
	}, nil
}

// FetchCandles returns candles oldest first; OKX sends them newest first.
func (s *OKXSource) FetchCandles(ctx context.Context, instID string) ([]model.Candle, error) {
	rows, err := get[[]string](ctx, s.client, "/api/v5/market/candles", map[string]string{
		"instId": instID,
		"bar":    s.opts.CandleBar,
		"limit":  strconv.Itoa(s.opts.CandleLimit),
	})
	if err != nil {
		return nil, err
	}
	candles := make([]model.Candle, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		// [ts, o, h, l, c, vol, volCcy, volCcyQuote, confirm]
		if len(row) < 6 {
			return nil, fmt.Errorf("malformed candle row %v", row)
		}
		c := model.Candle{
			Time:   parseMillis(row[0]),
			Open:   row[1],
			High:   row[2],
			Low:    row[3],
			Close:  row[4],
			Volume: row[5],
		}
		if len(row) >= 9 {
			c.Confirmed = row[8] == "1"
		}
		candles = append(candles, c)
	}
	return candles, nil
}

// FetchTrades returns recent public trades, newest first.
func (s *OKXSource) FetchTrades(ctx context.Context, instID string) ([]model.Trade, error) {
	data, err := get[okxTrade](ctx, s.client, "/api/v5/market/trades", map[string]string{
		"instId": instID,
		"limit":  strconv.Itoa(s.opts.TradesLimit),
	})
	if err != nil {
		return nil, err
	}
	trades := make([]model.Trade, len(data))
	for i, t := range data {
		trades[i] = model.Trade{
			ID:    t.TradeID,
			Price: t.Px,
			Size:  t.Sz,
			Side:  t.Side,
			Time:  parseMillis(t.Ts),
		}
	}
	return trades, nil
}

// toLevels converts ["px", "sz", "0", "orders"] rows.
func toLevels(rows [][]string) []model.BookLevel {
	levels := make([]model.BookLevel, 0, len(rows))
	for _, r := range rows {
		if len(r) < 2 {
			continue
		}
		l := model.BookLevel{Price: r[0], Size: r[1]}
		if len(r) >= 4 {
			l.Orders = r[3]
		}
		levels = append(levels, l)
	}
	return levels
}

func parseMillis(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
