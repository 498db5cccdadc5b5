package signal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CallbackPrefix starts every "Simulate Trade" callback payload.
const CallbackPrefix = "simulate_trade_"

// MaxCallbackDataLen is the Bot API limit for callback_data, in bytes.
const MaxCallbackDataLen = 64

var callbackPattern = regexp.MustCompile(`^` + CallbackPrefix + `(.+)$`)

// CallbackToken is the decoded form of a "Simulate Trade" callback payload.
type CallbackToken struct {
	Raw      string
	IssuedAt time.Time
	Username string
}

// NewCallbackToken builds the payload "simulate_trade_<unixMillis>_<username>".
func NewCallbackToken(now time.Time, username string) string {
	return fmt.Sprintf("%s%d_%s", CallbackPrefix, now.UnixMilli(), username)
}

// ParseCallbackToken reads a callback payload. ok is false when data is not a
// "Simulate Trade" payload at all. A payload that matches the prefix but lacks the
// timestamp/username shape is still accepted with zero IssuedAt and empty Username.
func ParseCallbackToken(data string) (CallbackToken, bool) {
	m := callbackPattern.FindStringSubmatch(data)
	if m == nil {
		return CallbackToken{}, false
	}

	token := CallbackToken{Raw: data}
	millis, username, found := strings.Cut(m[1], "_")
	if !found {
		return token, true
	}
	ts, err := strconv.ParseInt(millis, 10, 64)
	if err != nil {
		return token, true
	}
	token.IssuedAt = time.UnixMilli(ts)
	token.Username = username
	return token, true
}
