package analyzer

import (
	"fmt"
	"strings"
	"time"

	"SwapSentinel/internal/calculator"
	"SwapSentinel/internal/model"
)

const (
	depthLevels = 10
	flowTrades  = 50
)

// BuildPrompt renders the user message for one snapshot.
func BuildPrompt(snap *model.MarketSnapshot, now time.Time) string {
	t := snap.Ticker
	var sb strings.Builder

	fmt.Fprintf(&sb, "Analyse the following market data for the %s perpetual swap and give a clear trading recommendation.\n\n", snap.InstID)
	fmt.Fprintf(&sb, "Current time: %s\n\n", now.Format("2006-01-02 15:04:05"))

	sb.WriteString("## Ticker\n")
	fmt.Fprintf(&sb, "- Last price: %s USDT\n", t.Last)
	fmt.Fprintf(&sb, "- 24h range: high %s / low %s\n", t.High24h, t.Low24h)
	fmt.Fprintf(&sb, "- Best bid: %s (size %s)\n", t.BidPx, t.BidSz)
	fmt.Fprintf(&sb, "- Best ask: %s (size %s)\n", t.AskPx, t.AskSz)
	fmt.Fprintf(&sb, "- 24h volume: %s USDT\n\n", t.VolCcy24h)

	fmt.Fprintf(&sb, "## Order book depth (top %d)\n", depthLevels)
	sb.WriteString("Bids:\n")
	writeLevels(&sb, snap.OrderBook.Bids)
	sb.WriteString("Asks:\n")
	writeLevels(&sb, snap.OrderBook.Asks)
	sb.WriteString("\n")

	sb.WriteString("## Technical indicators\n")
	sb.WriteString(indicatorSection(snap.Candles))
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "## Recent trades (last %d)\n", flowTrades)
	fmt.Fprintf(&sb, "- Trade count: %d\n", len(snap.Trades))
	if len(snap.Trades) == 0 {
		sb.WriteString("- Flow: no trade data\n\n")
	} else {
		buy, sell := calculator.TradeFlow(snap.Trades, flowTrades)
		fmt.Fprintf(&sb, "- Flow: buy volume %.2f | sell volume %.2f\n\n", buy, sell)
	}

	sb.WriteString(`Based on the data above, provide:
1. Market trend analysis
2. Support and resistance levels
3. Buyer versus seller strength
4. A clear recommendation: BUY, SELL or HOLD
5. Confidence level (0-100)
6. Detailed reasoning

Reply with a JSON object containing these fields:
- analysis: summary of the market analysis
- recommendation: BUY/SELL/HOLD
- confidence: number from 0 to 100
- support_levels: list of support prices
- resistance_levels: list of resistance prices
- reasoning: detailed reasoning
`)
	return sb.String()
}

func writeLevels(sb *strings.Builder, levels []model.BookLevel) {
	if len(levels) > depthLevels {
		levels = levels[:depthLevels]
	}
	for i, l := range levels {
		fmt.Fprintf(sb, "  level %d: price %s | size %s\n", i+1, l.Price, l.Size)
	}
}

func indicatorSection(candles []model.Candle) string {
	if len(candles) == 0 {
		return "- no candle data\n"
	}
	ind, err := calculator.Compute(candles)
	if err != nil {
		return fmt.Sprintf("- indicators unavailable: %v\n", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "- Close: %.2f\n", ind.Close)
	fmt.Fprintf(&sb, "- SMA(10): %.2f %s\n", ind.SMA10, arrow(ind.SMA10, ind.SMA10Prev))
	fmt.Fprintf(&sb, "- SMA(20): %.2f %s\n", ind.SMA20, arrow(ind.SMA20, ind.SMA20Prev))
	fmt.Fprintf(&sb, "- RSI(14): %.2f\n", ind.RSI14)
	fmt.Fprintf(&sb, "- Candle range: high %.2f / low %.2f\n", ind.RangeHigh, ind.RangeLow)
	trend := "down"
	if ind.Close > ind.PrevClose {
		trend = "up"
	}
	fmt.Fprintf(&sb, "- Price trend: %s\n", trend)
	return sb.String()
}

func arrow(cur, prev float64) string {
	if cur > prev {
		return "↑"
	}
	return "↓"
}
