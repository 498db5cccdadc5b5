package signal

import (
	"regexp"
	"strconv"
	"strings"
)

// Labels the parser anchors on.
const (
	TokenLabel      = "Token"
	TP1Label        = "TP1"
	TP2Label        = "TP2"
	StopLossLabel   = "Stop Loss"
	EntryPriceLabel = "Entry Price"
)

// Parsed holds the trade parameters found in a signal message. Fields are nil when absent.
type Parsed struct {
	Token      *string  `json:"token"`
	TP1        *float64 `json:"tp1"`
	TP2        *float64 `json:"tp2"`
	StopLoss   *float64 `json:"sl"`
	EntryPrice *float64 `json:"entryPrice"`
}

// noise is the markup allowed between a label, its colon and the value: bold/italic markers and spaces.
const noise = `[\s*_]*`

var (
	tokenPattern      = regexp.MustCompile(TokenLabel + noise + `:` + noise + `([A-Z]+)\s*\(`)
	tp1Pattern        = pricePattern(TP1Label)
	tp2Pattern        = pricePattern(TP2Label)
	stopLossPattern   = pricePattern(StopLossLabel)
	entryPricePattern = pricePattern(EntryPriceLabel)
)

func pricePattern(label string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(label) + noise + `:` + noise + `\$?\s*(\d[\d,]*(?:\.\d+)?)`)
}

// Parse extracts the trade parameters from a free-text signal. It never fails;
// anything it cannot find is left nil.
func Parse(text string) Parsed {
	var p Parsed
	if m := tokenPattern.FindStringSubmatch(text); m != nil {
		token := m[1]
		p.Token = &token
	}
	p.TP1 = findPrice(tp1Pattern, text)
	p.TP2 = findPrice(tp2Pattern, text)
	p.StopLoss = findPrice(stopLossPattern, text)
	p.EntryPrice = findPrice(entryPricePattern, text)
	return p
}

func findPrice(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}

// CurrentPrice estimates the price at click time: the entry price when the signal has one,
// otherwise the midpoint of TP1 and the stop loss, otherwise nil.
func (p Parsed) CurrentPrice() *float64 {
	if p.EntryPrice != nil {
		v := *p.EntryPrice
		return &v
	}
	if p.TP1 != nil && p.StopLoss != nil {
		v := (*p.TP1 + *p.StopLoss) / 2
		return &v
	}
	return nil
}
