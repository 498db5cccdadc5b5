package simulation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telegram-message-service/internal/apperr"
	"telegram-message-service/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Request is the body of a trade-simulation call. The key names are fixed by the remote API.
type Request struct {
	SignalMessage  string    `json:"Signal Message"`
	TokenMentioned *string   `json:"Token Mentioned"`
	TP1            *float64  `json:"TP1"`
	TP2            *float64  `json:"TP2"`
	SL             *float64  `json:"SL"`
	CurrentPrice   *float64  `json:"Current Price"`
	MaxExitTime    time.Time `json:"Max Exit Time"`
	Username       string    `json:"username"`
	SafeAddress    string    `json:"safeAddress"`
}

// Simulator runs a remote trade simulation.
type Simulator interface {
	Simulate(ctx context.Context, req Request) (*Response, error)
}

// RPCClient is a client for the trade-simulation API.
type RPCClient struct {
	client   *resty.Client
	endpoint string
	logger   *zap.Logger
}

// ensure RPCClient implements the interface
var _ Simulator = (*RPCClient)(nil)

// NewRPCClient creates a client for the configured simulation endpoint.
func NewRPCClient(cfg *config.Simulation, logger *zap.Logger) *RPCClient {
	client := resty.New().
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &RPCClient{
		client:   client,
		endpoint: cfg.Endpoint,
		logger:   logger.Named("simulation-rpc"),
	}
}

// Simulate posts req once. Network errors, timeouts and non-2xx answers are
// REMOTE_CALL_ERRORs. Raw always holds the JSON body verbatim; a body that is not
// JSON is stored as a JSON string. Either way a 2xx answer that cannot be read
// comes back with a Malformed Outcome so the attempt can still be recorded.
func (c *RPCClient) Simulate(ctx context.Context, req Request) (*Response, error) {
	c.logger.Debug("Executing request", zap.String("url", c.endpoint), zap.String("username", req.Username))

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post(c.endpoint)
	if err != nil {
		return nil, apperr.New(apperr.RemoteCall, "simulation request failed", err)
	}
	if resp.IsError() {
		return nil, apperr.New(apperr.RemoteCall,
			fmt.Sprintf("simulation API returned %s", resp.Status()),
			fmt.Errorf("%s", truncate(resp.String(), 512)))
	}

	body := resp.Body()
	if !json.Valid(body) {
		c.logger.Warn("Simulation API returned a non-JSON body", zap.String("body", truncate(resp.String(), 512)))
		return &Response{Raw: mustJSONString(resp.String())}, nil
	}

	out := &Response{}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Warn("Simulation API returned an unexpected response shape", zap.Error(err))
		out = &Response{shapeErr: err}
	}
	out.Raw = json.RawMessage(body)
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// mustJSONString wraps a non-JSON body so it can still be stored as JSON.
func mustJSONString(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}
