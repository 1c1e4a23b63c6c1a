package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/internal/history"
	"github.com/wonny/deepfund/internal/workflow"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 2)

	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Width(14)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
)

func sentimentStyle(s string) lipgloss.Style {
	switch s {
	case history.SentimentBullish, history.SentimentStronglyBullish:
		return successStyle
	case history.SentimentBearish, history.SentimentStronglyBearish:
		return errorStyle
	default:
		return lipgloss.NewStyle()
	}
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

func printTitle(title string) {
	fmt.Println(titleStyle.Render(title))
}

func printSuccess(msg string) { fmt.Println(successStyle.Render("✔ " + msg)) }
func printWarning(msg string) { fmt.Println(warnStyle.Render("! " + msg)) }
func printError(msg string)   { fmt.Println(errorStyle.Render("✘ " + msg)) }

// renderDay prints one RunDay result
func renderDay(res workflow.DayResult) string {
	lines := []string{
		row("Experiment", res.ExpName),
		row("Trading date", res.TradingDate.Format(contracts.DateLayout)),
	}
	if res.Skipped {
		lines = append(lines,
			row("Status", warnStyle.Render("skipped")),
			row("Latest", res.LatestDate.Format(contracts.DateLayout)),
		)
		return boxStyle.Render(strings.Join(lines, "\n"))
	}

	p := res.Portfolio
	lines = append(lines,
		row("Status", successStyle.Render("completed")),
		row("Duration", res.Duration.Round(time.Millisecond).String()),
		row("Cash", p.Cashflow.StringFixed(2)),
		row("Total assets", p.TotalAssets.StringFixed(2)),
	)
	for _, ticker := range p.Tickers() {
		pos := p.Positions[ticker]
		lines = append(lines, row("  "+ticker, fmt.Sprintf("%d shares  %s", pos.Shares, pos.Value.StringFixed(2))))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// renderSummary prints a historical summary
func renderSummary(s *history.Summary) string {
	var b strings.Builder
	b.WriteString(s.Overview + "\n\n")
	for _, d := range s.Days {
		action := "-"
		if d.Decision != nil {
			action = fmt.Sprintf("%s %d @ %s", d.Decision.Action, d.Decision.Shares, d.Decision.Price)
		}
		fmt.Fprintf(&b, "%s  %-18s  %-20s  %d signals\n",
			d.Date, sentimentStyle(d.Sentiment).Render(d.Sentiment), action, len(d.Signals))
	}
	st := s.Statistics
	fmt.Fprintf(&b, "\n%d days: %d bullish, %d bearish, %d neutral, %d buys, %d sells",
		st.TotalDays, st.BullishDays, st.BearishDays, st.NeutralDays, st.BuyDecisions, st.SellDecisions)
	return boxStyle.Render(b.String())
}
