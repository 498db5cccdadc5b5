package relay

import (
	"fmt"
	"strings"

	"telegram-message-service/internal/apperr"
	"telegram-message-service/internal/simulation"
)

var markdownEscaper = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
)

// escapeMarkdown makes s safe to embed in a legacy-Markdown message.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func processingText(frame int) string {
	dots := strings.Repeat(".", frame%3+1)
	return "🔄 *Simulating trade" + dots + "*\n\nFetching your account and contacting the simulator."
}

// renderOutcome builds the terminal message for a finished run.
func renderOutcome(resp *simulation.Response, err error) (string, State) {
	if err != nil {
		return "❌ *Trade Simulation Failed*\n\n⚠️ Error: " + escapeMarkdown(apperr.Summary(err)), StateFailed
	}

	switch out := resp.Outcome().(type) {
	case simulation.Success:
		return fmt.Sprintf("✅ *Trade Simulation Successful*\n\n"+
			"📊 Signal ID: %s\n"+
			"🌐 Network: %s\n"+
			"🏦 Safe Address: %s\n"+
			"🆔 Trade ID: %s\n"+
			"📈 Status: %s",
			escapeMarkdown(orDash(out.SignalID)),
			escapeMarkdown(orDash(out.TradingPair.NetworkKey)),
			escapeMarkdown(orDash(out.TradingPair.SafeAddress)),
			escapeMarkdown(orDash(out.TradingPair.TradeID)),
			escapeMarkdown(orDash(out.TradingPair.Status)),
		), StateSucceeded
	case simulation.Failure:
		var b strings.Builder
		b.WriteString("❌ *Trade Simulation Failed*\n\n")
		if out.SignalID != "" {
			fmt.Fprintf(&b, "📊 Signal ID: %s\n", escapeMarkdown(out.SignalID))
		}
		fmt.Fprintf(&b, "⚠️ Error: %s", escapeMarkdown(out.Error))
		return b.String(), StateFailed
	case simulation.Malformed:
		return "❌ *Trade Simulation Failed*\n\n⚠️ Unexpected response from the simulator: " + escapeMarkdown(out.Reason), StateFailed
	default:
		return "❌ *Trade Simulation Failed*", StateFailed
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
