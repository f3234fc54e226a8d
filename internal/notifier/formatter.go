package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"IVCrush/internal/model"
)

const dateFmt = "2006-01-02"

func money(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}

func signed(v float64, places int32) string {
	d := decimal.NewFromFloat(v).Round(places)
	if d.IsPositive() {
		return "+" + d.StringFixed(places)
	}
	return d.StringFixed(places)
}

func percent(fraction float64) string {
	return decimal.NewFromFloat(fraction*100).StringFixed(1) + "%"
}

func bold(s string, html bool) string {
	if html {
		return "<b>" + s + "</b>"
	}
	return s
}

func ivSourceLabel(src model.IVSource, index string) string {
	switch src {
	case model.IVSourceImplied:
		return "option implied volatility"
	case model.IVSourceIndex:
		return "estimated from " + index
	default:
		return "estimated from default index level"
	}
}

// FormatAnalysisReport renders an analysis result. asHTML selects Telegram HTML markup.
func FormatAnalysisReport(r *model.AnalysisResult, indexSymbol string, asHTML bool) string {
	var b strings.Builder

	symbol := r.Symbol
	if asHTML {
		symbol = html.EscapeString(symbol)
	}
	b.WriteString(fmt.Sprintf("📉 %s | %s earnings %s\n\n",
		bold("IV Crush Analysis", asHTML), symbol, r.EarningsDate.Format(dateFmt)))

	b.WriteString(fmt.Sprintf("Pre:  %s  spot %s\n", r.Pre.Date.Format(dateFmt), money(r.Pre.Spot)))
	b.WriteString(fmt.Sprintf("Post: %s  spot %s (%s%%)\n", r.Post.Date.Format(dateFmt), money(r.Post.Spot), signed(r.SpotMovePct(), 2)))
	b.WriteString(fmt.Sprintf("Strike: %s | %dd to expiry\n\n", money(r.Strike), r.DaysToExpiry))

	b.WriteString(bold("Implied volatility", asHTML) + " (" + ivSourceLabel(r.IVSource, indexSymbol) + ")\n")
	b.WriteString(fmt.Sprintf("  %s → %s | crush %s%%\n\n",
		percent(r.PreIV), percent(r.PostIV), signed(-r.IVCrushPct, 1)))

	b.WriteString(bold("Option prices", asHTML) + "\n")
	b.WriteString(fmt.Sprintf("  Call:     %s → %s (%s)\n", money(r.PreQuote.Call), money(r.PostQuote.Call), signed(r.CallChange(), 2)))
	b.WriteString(fmt.Sprintf("  Put:      %s → %s (%s)\n", money(r.PreQuote.Put), money(r.PostQuote.Put), signed(r.PutChange(), 2)))
	b.WriteString(fmt.Sprintf("  Straddle: %s → %s (%s)\n\n", money(r.PreQuote.Straddle), money(r.PostQuote.Straddle), signed(r.StraddleChange(), 2)))

	b.WriteString(bold("P&L per straddle", asHTML) + "\n")
	b.WriteString(fmt.Sprintf("  Long:  %s\n", signed(r.LongStraddlePnL(), 2)))
	b.WriteString(fmt.Sprintf("  Short: %s\n\n", signed(r.ShortStraddlePnL(), 2)))

	b.WriteString(bold("Greeks", asHTML) + "\n")
	b.WriteString(fmt.Sprintf("  Delta: %s → %s (%s)\n",
		decimal.NewFromFloat(r.PreQuote.Delta).StringFixed(3), decimal.NewFromFloat(r.PostQuote.Delta).StringFixed(3), signed(r.DeltaChange(), 3)))
	b.WriteString(fmt.Sprintf("  Vega:  %s → %s (%s)\n",
		decimal.NewFromFloat(r.PreQuote.Vega).StringFixed(2), decimal.NewFromFloat(r.PostQuote.Vega).StringFixed(2), signed(r.VegaChange(), 2)))

	return b.String()
}

// FormatPriceComparison renders the call/put/straddle comparison straight from the result values.
func FormatPriceComparison(r *model.AnalysisResult) string {
	rows := []struct {
		name      string
		pre, post float64
	}{
		{"Call", r.PreQuote.Call, r.PostQuote.Call},
		{"Put", r.PreQuote.Put, r.PostQuote.Put},
		{"Straddle", r.PreQuote.Straddle, r.PostQuote.Straddle},
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-9s %10s %10s %10s\n", "", "Pre", "Post", "Change"))
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("%-9s %10s %10s %10s\n", row.name, money(row.pre), money(row.post), signed(row.post-row.pre, 2)))
	}
	b.WriteString(fmt.Sprintf("Straddle loss: %s\n", signed(r.StraddleChange(), 2)))
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp(defaultDays int) string {
	return fmt.Sprintf("Available commands:\n"+
		"• /analyze SYMBOL YYYY-MM-DD [DAYS_TO_EXPIRY] (default %d)\n"+
		"• /events - configured earnings events\n"+
		"• /help", defaultDays)
}

// FormatEvents lists configured earnings events.
func FormatEvents(events []model.EarningsEvent) string {
	if len(events) == 0 {
		return "No earnings events configured."
	}
	var b strings.Builder
	b.WriteString("📅 Earnings events\n")
	for _, e := range events {
		b.WriteString(fmt.Sprintf("• %s %s (%dd)\n", e.Symbol, e.EarningsDate.Format(dateFmt), e.DaysToExpiry))
	}
	return b.String()
}
