package analysts

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/deepfund/internal/contracts"
)

const signalReplyFormat = `Respond with a JSON object:
{"signal": "Bullish" | "Bearish" | "Neutral", "justification": "<one short paragraph>"}`

func header(role string, in Input) string {
	return fmt.Sprintf("You are a %s. Trading date: %s. Ticker: %s.\n",
		role, in.TradingDate.Format(contracts.DateLayout), in.Ticker)
}

func technicalPrompt(in Input, summary string) string {
	var b strings.Builder
	b.WriteString(header("technical analyst specialising in short to medium term price movements", in))
	b.WriteString("Weigh the indicator readings below into a single directional view.\n\n")
	b.WriteString(summary)
	b.WriteString("\n")
	b.WriteString(signalReplyFormat)
	return b.String()
}

func fundamentalPrompt(in Input, overview *contracts.CompanyOverview) string {
	var b strings.Builder
	b.WriteString(header("fundamental analyst assessing valuation, profitability, growth and financial health", in))
	fmt.Fprintf(&b, "Company: %s (%s), sector %s, industry %s.\n", overview.Name, overview.Symbol, overview.Sector, overview.Industry)
	fmt.Fprintf(&b, "Business: %s\n\nMetrics:\n", overview.Description)
	for _, k := range sortedKeys(overview.Metrics) {
		fmt.Fprintf(&b, "- %s: %s\n", k, overview.Metrics[k])
	}
	b.WriteString("\n")
	b.WriteString(signalReplyFormat)
	return b.String()
}

func insiderPrompt(in Input, txs []contracts.InsiderTransaction) string {
	var b strings.Builder
	b.WriteString(header("insider trading analyst reading executive buying and selling", in))
	b.WriteString("Recent insider transactions (A = acquisition, D = disposal):\n")
	for _, tx := range txs {
		fmt.Fprintf(&b, "- %s %s (%s) %s %.0f shares @ %.2f\n",
			tx.Date.Format(contracts.DateLayout), tx.Executive, tx.Title, tx.Type, tx.Shares, tx.Price)
	}
	b.WriteString("\n")
	b.WriteString(signalReplyFormat)
	return b.String()
}

func newsPrompt(role string, in Input, sections map[string][]contracts.NewsItem, order []string) string {
	var b strings.Builder
	b.WriteString(header(role, in))
	for _, name := range order {
		fmt.Fprintf(&b, "%s:\n", name)
		for _, item := range sections[name] {
			b.WriteString(newsLine(item))
		}
		b.WriteString("\n")
	}
	b.WriteString(signalReplyFormat)
	return b.String()
}

func newsLine(item contracts.NewsItem) string {
	raw, err := json.Marshal(struct {
		Title     string `json:"title"`
		Published string `json:"published"`
		Source    string `json:"source"`
		Summary   string `json:"summary"`
		Sentiment string `json:"sentiment,omitempty"`
	}{
		Title:     item.Title,
		Published: item.PublishedAt.Format(time.RFC3339),
		Source:    item.Source,
		Summary:   item.Summary,
		Sentiment: item.Sentiment,
	})
	if err != nil {
		return "- " + item.Title + "\n"
	}
	return "- " + string(raw) + "\n"
}

func macroPrompt(in Input, series map[contracts.Indicator][]contracts.IndicatorPoint) string {
	var b strings.Builder
	b.WriteString(header("macroeconomic analyst judging how the economic cycle affects this stock", in))
	for _, ind := range macroIndicators {
		points, ok := series[ind]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s (newest first):", ind)
		for _, p := range points {
			fmt.Fprintf(&b, " %s=%.2f", p.Date.Format(contracts.DateLayout), p.Value)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(signalReplyFormat)
	return b.String()
}

func plannerPrompt(ticker string, candidates []Key) string {
	names := make([]string, len(candidates))
	for i, k := range candidates {
		names[i] = fmt.Sprintf("%q", string(k))
	}
	return fmt.Sprintf(`You are the analyst planner of an investment team. Ticker: %s.
Choose the analysts whose expertise is most useful for this ticker today from: [%s].
Respond with a JSON object: {"analysts": ["<name>", ...]}`, ticker, strings.Join(names, ", "))
}
