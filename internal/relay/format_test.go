package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `trade\_1 \*x\* \`+"`"+`y\`+"`"+` \[z]`, escapeMarkdown("trade_1 *x* `y` [z]"))
	assert.Equal(t, "plain", escapeMarkdown("plain"))
}

func TestRenderOutcome_EmptySuccessFields(t *testing.T) {
	resp := successResponse()
	resp.SignalID = ""
	resp.Result.TradingPair.TradeID = ""

	text, state := renderOutcome(resp, nil)

	assert.Equal(t, StateSucceeded, state)
	assert.Contains(t, text, "Signal ID: -")
	assert.Contains(t, text, "Trade ID: -")
}

func TestIsStart(t *testing.T) {
	assert.True(t, isStart("/start"))
	assert.True(t, isStart(" /start ref_123"))
	assert.True(t, isStart("/start@signal_bot"))
	assert.False(t, isStart("/stop"))
	assert.False(t, isStart("start"))
}
