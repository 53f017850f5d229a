package notifier

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strconv"
	"strings"
	"time"

	"SwapSentinel/internal/model"
	"SwapSentinel/internal/recorder"
)

const maxLevels = 5

func actionEmoji(a model.Action) string {
	switch a {
	case model.ActionBuy:
		return "🟢"
	case model.ActionSell:
		return "🔴"
	default:
		return "🟡"
	}
}

func actionHeadline(a model.Action) string {
	switch a {
	case model.ActionBuy:
		return "🟢 Recommendation: BUY"
	case model.ActionSell:
		return "🔴 Recommendation: SELL"
	default:
		return "🟡 Recommendation: HOLD"
	}
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatSubject builds the email subject line.
func FormatSubject(rec *model.AnalysisRecord) string {
	r := rec.Recommendation
	return fmt.Sprintf("%s %s trade alert: %s | confidence: %s%% | price: %s",
		actionEmoji(r.Action), rec.InstID, r.Action, num(r.Confidence), num(rec.CurrentPrice))
}

var bodyTmpl = template.Must(template.New("alert").Parse(`<html>
<head>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
.header { background-color: #f8f9fa; padding: 15px; border-radius: 5px; }
.recommendation { font-size: 24px; font-weight: bold; margin: 10px 0; }
.buy { color: #28a745; }
.sell { color: #dc3545; }
.hold { color: #ffc107; }
.info-box { background-color: #e9ecef; padding: 15px; border-radius: 5px; margin: 10px 0; }
.levels { display: flex; justify-content: space-between; }
.support, .resistance { width: 48%; padding: 10px; }
.support { background-color: #d4edda; }
.resistance { background-color: #f8d7da; }
</style>
</head>
<body>
<div class="header">
<h2>🚀 Crypto Trade Alert</h2>
<p>Generated at: {{.Generated}}</p>
</div>
<div class="recommendation {{.Class}}">{{.Headline}}</div>
<div class="info-box">
<h3>📊 Overview</h3>
<p><strong>Instrument:</strong> {{.InstID}}</p>
<p><strong>Current price:</strong> {{.Price}} USDT</p>
<p><strong>Confidence:</strong> {{.Confidence}}%</p>
</div>
<div class="info-box">
<h3>📈 Analysis</h3>
<p><strong>Summary:</strong> {{.Summary}}</p>
<p><strong>Reasoning:</strong> {{.Reasoning}}</p>
</div>
<div class="levels">
<div class="support">
<h4>💪 Support</h4>
<ul>{{range .Support}}<li>{{.}}</li>{{else}}<li>n/a</li>{{end}}</ul>
</div>
<div class="resistance">
<h4>🚧 Resistance</h4>
<ul>{{range .Resistance}}<li>{{.}}</li>{{else}}<li>n/a</li>{{end}}</ul>
</div>
</div>
<div style="margin-top: 20px; padding: 10px; background-color: #fff3cd; border-radius: 5px;">
<p><strong>⚠️ Risk warning:</strong> This analysis is machine-generated and is not investment advice. Crypto trading is highly risky.</p>
</div>
</body>
</html>
`))

type bodyData struct {
	Generated  string
	Class      string
	Headline   string
	InstID     string
	Price      string
	Confidence string
	Summary    string
	Reasoning  string
	Support    []string
	Resistance []string
}

// FormatBody renders the HTML email body.
func FormatBody(rec *model.AnalysisRecord, now time.Time) (string, error) {
	r := rec.Recommendation
	data := bodyData{
		Generated:  now.Format("2006-01-02 15:04:05"),
		Class:      strings.ToLower(string(r.Action)),
		Headline:   actionHeadline(r.Action),
		InstID:     rec.InstID,
		Price:      num(rec.CurrentPrice),
		Confidence: num(r.Confidence),
		Summary:    r.Summary,
		Reasoning:  r.Reasoning,
		Support:    levelStrings(r.SupportLevels),
		Resistance: levelStrings(r.ResistanceLevels),
	}
	var buf bytes.Buffer
	if err := bodyTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render alert body: %w", err)
	}
	return buf.String(), nil
}

func levelStrings(levels []float64) []string {
	if len(levels) > maxLevels {
		levels = levels[:maxLevels]
	}
	out := make([]string, len(levels))
	for i, l := range levels {
		out[i] = num(l)
	}
	return out
}

// FormatTelegram formats a short alert for a Telegram chat (HTML parse mode).
func FormatTelegram(rec *model.AnalysisRecord) string {
	r := rec.Recommendation
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s %s</b> | %s%%\n", actionEmoji(r.Action), html.EscapeString(rec.InstID), r.Action, num(r.Confidence)))
	b.WriteString(fmt.Sprintf("Price: %s USDT\n\n", num(rec.CurrentPrice)))
	b.WriteString(html.EscapeString(r.Summary))
	if len(r.SupportLevels) > 0 {
		b.WriteString(fmt.Sprintf("\n\nSupport: %s", strings.Join(levelStrings(r.SupportLevels), ", ")))
	}
	if len(r.ResistanceLevels) > 0 {
		b.WriteString(fmt.Sprintf("\nResistance: %s", strings.Join(levelStrings(r.ResistanceLevels), ", ")))
	}
	return b.String()
}

// FormatStats formats store totals for a status report.
func FormatStats(s *recorder.Stats, window time.Duration) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>Status</b> (last %s)\n\n", window))
	b.WriteString(fmt.Sprintf("Analyses: %d\n", s.Analyses))
	b.WriteString(fmt.Sprintf("  BUY %d | SELL %d | HOLD %d\n", s.Buy, s.Sell, s.Hold))
	b.WriteString(fmt.Sprintf("Alerts sent: %d\n", s.AlertsSent))
	b.WriteString(fmt.Sprintf("Alerts failed: %d\n", s.AlertsFailed))
	return b.String()
}
