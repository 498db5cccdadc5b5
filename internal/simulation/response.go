package simulation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Remote statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Response is the decoded body of a simulation call. Raw keeps the body verbatim.
type Response struct {
	Status   string `json:"status"`
	SignalID string `json:"signalId"`
	Result   struct {
		TradingPair *TradingPair    `json:"tradingPair,omitempty"`
		Error       json.RawMessage `json:"error,omitempty"`
	} `json:"result"`

	Raw json.RawMessage `json:"-"`

	// shapeErr is set when Raw is JSON that does not fit the expected shape.
	shapeErr error
}

// UnmarshalJSON accepts signalId as a string or a number.
func (r *Response) UnmarshalJSON(b []byte) error {
	type plain Response
	aux := struct {
		*plain
		SignalID flexString `json:"signalId"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.SignalID = string(aux.SignalID)
	return nil
}

// TradingPair describes the simulated position opened by the remote API.
type TradingPair struct {
	NetworkKey  string `json:"networkKey"`
	SafeAddress string `json:"safeAddress"`
	TradeID     string `json:"tradeId"`
	Status      string `json:"status"`
}

// UnmarshalJSON accepts tradeId as a string or a number.
func (p *TradingPair) UnmarshalJSON(b []byte) error {
	type plain TradingPair
	aux := struct {
		*plain
		TradeID flexString `json:"tradeId"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	p.TradeID = string(aux.TradeID)
	return nil
}

// flexString is an identifier the API may send as a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("identifier must be a string or a number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

// Outcome is the closed set of shapes a Response can take:
// Success, Failure or Malformed.
type Outcome interface {
	outcome()
}

// Success carries the opened trading pair.
type Success struct {
	SignalID    string
	TradingPair TradingPair
}

// Failure carries the reason the remote API reported.
type Failure struct {
	SignalID string
	Error    string
}

// Malformed is a response that is neither a usable success nor a failure.
type Malformed struct {
	Reason string
	Raw    json.RawMessage
}

func (Success) outcome()   {}
func (Failure) outcome()   {}
func (Malformed) outcome() {}

// Outcome classifies the response.
func (r *Response) Outcome() Outcome {
	if r == nil {
		return Malformed{Reason: "empty response"}
	}
	if r.shapeErr != nil {
		return Malformed{Reason: "unreadable response: " + r.shapeErr.Error(), Raw: r.Raw}
	}
	switch r.Status {
	case StatusSuccess:
		if r.Result.TradingPair == nil {
			return Malformed{Reason: "success without trading pair", Raw: r.Raw}
		}
		return Success{SignalID: r.SignalID, TradingPair: *r.Result.TradingPair}
	case StatusFailed:
		return Failure{SignalID: r.SignalID, Error: r.errorText()}
	default:
		return Malformed{Reason: "unexpected status " + strconv.Quote(r.Status), Raw: r.Raw}
	}
}

// errorText renders result.error, which the API sends as a string or an object.
func (r *Response) errorText() string {
	raw := strings.TrimSpace(string(r.Result.Error))
	if raw == "" || raw == "null" {
		return "unknown error"
	}
	var s string
	if err := json.Unmarshal(r.Result.Error, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(r.Result.Error, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return raw
}
