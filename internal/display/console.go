package display

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"SwapSentinel/internal/cycle"
	"SwapSentinel/internal/model"
	"SwapSentinel/internal/policy"

	"github.com/charmbracelet/lipgloss"
)

const summaryLimit = 100

// Console renders user-facing output for the analysis loop.
type Console struct {
	out    io.Writer
	instID string
	th     policy.Thresholds
	now    func() time.Time

	box      lipgloss.Style
	title    lipgloss.Style
	buy      lipgloss.Style
	sell     lipgloss.Style
	hold     lipgloss.Style
	alert    lipgloss.Style
	errStyle lipgloss.Style
	muted    lipgloss.Style
}

// New creates a console writing to out. Colours are dropped when out is not a
// terminal.
func New(out io.Writer, instID string, th policy.Thresholds) *Console {
	r := lipgloss.NewRenderer(out)
	return &Console{
		out:    out,
		instID: instID,
		th:     th,
		now:    time.Now,
		box: r.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1).
			Width(72),
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		buy:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981")),
		sell:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444")),
		hold:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B")),
		alert:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#EF4444")).Padding(0, 1),
		errStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444")),
		muted:    r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
	}
}

func (c *Console) actionStyle(a model.Action) lipgloss.Style {
	switch a {
	case model.ActionBuy:
		return c.buy
	case model.ActionSell:
		return c.sell
	default:
		return c.hold
	}
}

// Banner prints the startup summary.
func (c *Console) Banner(interval time.Duration, channels []string) {
	alerts := "disabled"
	if len(channels) > 0 {
		alerts = strings.Join(channels, ", ")
	}
	lines := []string{
		c.title.Render(fmt.Sprintf("🚀 Monitoring %s", c.instID)),
		fmt.Sprintf("📊 Interval: %s", interval),
		fmt.Sprintf("🎯 Confidence threshold: %.0f%%", c.th.Confidence),
		fmt.Sprintf("📧 Alerts: %s", alerts),
	}
	fmt.Fprintln(c.out, c.box.Render(strings.Join(lines, "\n")))
}

// CycleCompleted prints the result box for one analysis.
func (c *Console) CycleCompleted(rec *model.AnalysisRecord) {
	r := rec.Recommendation
	lines := []string{
		c.title.Render(fmt.Sprintf("📊 %s analysis", rec.InstID)),
		fmt.Sprintf("⏰ Time: %s", c.now().Format("2006-01-02 15:04:05")),
		fmt.Sprintf("💰 Price: %.2f USDT", rec.CurrentPrice),
		c.actionStyle(r.Action).Render(fmt.Sprintf("🎯 Recommendation: %s (confidence: %.1f%%)", r.Action, r.Confidence)),
	}
	if policy.IsHighConfidence(r.Confidence, c.th) {
		lines = append(lines, c.alert.Render("🚨 High confidence, watch closely"))
	}
	lines = append(lines, fmt.Sprintf("📋 Summary: %s", Truncate(r.Summary, summaryLimit)))
	if rec.AlertSent {
		lines = append(lines, c.muted.Render("📧 alert sent"))
	}
	fmt.Fprintln(c.out, c.box.Render(strings.Join(lines, "\n")))
}

// CycleFailed prints a one-line failure summary.
func (c *Console) CycleFailed(err error) {
	var cerr *cycle.Error
	if errors.As(err, &cerr) {
		fmt.Fprintln(c.out, c.errStyle.Render(fmt.Sprintf("❌ Cycle failed at %s: %v", cerr.Stage, cerr.Err)))
		return
	}
	fmt.Fprintln(c.out, c.errStyle.Render(fmt.Sprintf("❌ Cycle failed: %v", err)))
}

// Progress prints the periodic statistics line.
func (c *Console) Progress(s model.Counters) {
	fmt.Fprintln(c.out, c.muted.Render(fmt.Sprintf("📈 Statistics (analyses: %d, failed: %d, alerts: %d)",
		s.TotalCycles, s.FailedCycles, s.AlertsSent)))
}

// Stopped prints the final statistics.
func (c *Console) Stopped(s model.Counters) {
	lines := []string{
		c.title.Render("🏁 Analysis finished"),
		fmt.Sprintf("📊 Total analyses: %d", s.TotalCycles),
		fmt.Sprintf("⚠️  Failed cycles: %d", s.FailedCycles),
		fmt.Sprintf("📧 Alerts sent: %d", s.AlertsSent),
	}
	if !s.LastCycleAt.IsZero() {
		lines = append(lines, fmt.Sprintf("⏰ Last analysis: %s", s.LastCycleAt.Format("2006-01-02 15:04:05")))
	}
	fmt.Fprintln(c.out, c.box.Render(strings.Join(lines, "\n")))
}

// DiagnosticFailed reports a failed startup cycle.
func (c *Console) DiagnosticFailed(err error) {
	fmt.Fprintln(c.out, c.errStyle.Render(fmt.Sprintf("❌ Diagnostic analysis failed, check configuration and network: %v", err)))
}

// Truncate shortens s to at most limit runes, appending "..." when cut.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
