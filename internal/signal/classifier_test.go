package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsActionable(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		expected bool
	}{
		{name: "Bullish alert", text: "🚀 **Bullish Alert** 🚀\nToken: ARB (arbitrum)", expected: true},
		{name: "Signal buy", text: "Signal: Buy\nToken: ETH (ethereum)", expected: true},
		{name: "Marker mid sentence", text: "today's Bullish Alert is out", expected: true},
		{name: "Plain update", text: "plain update, no signal", expected: false},
		{name: "Lowercase bullish", text: "bullish alert", expected: false},
		{name: "Lowercase buy", text: "signal: buy", expected: false},
		{name: "Sell signal", text: "Signal: Sell", expected: false},
		{name: "Empty", text: "", expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsActionable(tc.text))
		})
	}
}
