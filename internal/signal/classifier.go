// Package signal understands the text of outbound trading signals: whether a
// message deserves a "Simulate Trade" button, what trade parameters it carries,
// and how the button's callback payload is built and read back.
package signal

import "strings"

// Markers that make a message actionable. Matching is case-sensitive.
const (
	BullishMarker = "Bullish Alert"
	BuyMarker     = "Signal: Buy"
)

// IsActionable reports whether text is a bullish signal that should carry an action button.
func IsActionable(text string) bool {
	return strings.Contains(text, BullishMarker) || strings.Contains(text, BuyMarker)
}
