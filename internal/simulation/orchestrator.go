package simulation

import (
	"context"
	"time"

	"telegram-message-service/internal/apperr"
	"telegram-message-service/internal/directory"
	"telegram-message-service/internal/models"
	"telegram-message-service/internal/signal"

	"go.uber.org/zap"
)

// exitHorizon is how long the simulated position may stay open.
const exitHorizon = 24 * time.Hour

// IdentityResolver resolves a Telegram handle to a trading identity and custodial address.
type IdentityResolver interface {
	ResolveTradingIdentity(ctx context.Context, username string) (*directory.Identity, error)
}

// Orchestrator turns a button click into a remote simulation and a stored record.
type Orchestrator struct {
	identities IdentityResolver
	simulator  Simulator
	recorder   Recorder
	logger     *zap.Logger
	now        func() time.Time
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(identities IdentityResolver, simulator Simulator, recorder Recorder, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		identities: identities,
		simulator:  simulator,
		recorder:   recorder,
		logger:     logger.Named("orchestrator"),
		now:        time.Now,
	}
}

// Run simulates the trade described by the clicked message. The steps run strictly
// in order and any failure aborts the rest. The record is written after the remote
// call, so a persistence error can follow a simulation that did run remotely; the
// response is returned alongside that error.
//
// Run does not deduplicate: the same interaction twice means two remote calls and two records.
func (o *Orchestrator) Run(ctx context.Context, ev Interaction) (*Response, error) {
	l := o.logger.With(
		zap.String("username", ev.Username),
		zap.String("callback_id", ev.CallbackQueryID),
	)

	parsed := signal.Parse(ev.MessageText)

	identity, err := o.identities.ResolveTradingIdentity(ctx, ev.Username)
	if err != nil {
		l.Warn("Could not resolve trading identity", zap.Error(err))
		return nil, err
	}

	req := Request{
		SignalMessage:  "buy",
		TokenMentioned: parsed.Token,
		TP1:            parsed.TP1,
		TP2:            parsed.TP2,
		SL:             parsed.StopLoss,
		CurrentPrice:   parsed.CurrentPrice(),
		MaxExitTime:    o.now().Add(exitHorizon).UTC(),
		Username:       identity.TradingIdentity,
		SafeAddress:    identity.CustodialAddress,
	}

	l.Info("Requesting trade simulation",
		zap.String("trading_identity", identity.TradingIdentity),
		zap.Stringp("token", parsed.Token),
	)
	resp, err := o.simulator.Simulate(ctx, req)
	if err != nil {
		l.Error("Trade simulation call failed", zap.Error(err))
		return nil, err
	}

	rec := buildRecord(ev, parsed, identity, req, resp)
	if err := o.recorder.Insert(ctx, rec); err != nil {
		l.Error("Failed to save trade simulation record",
			zap.String("signal_id", resp.SignalID),
			zap.Error(err),
		)
		return resp, apperr.New(apperr.Persistence, "simulation ran but could not be recorded", err)
	}

	l.Info("Saved trade simulation record",
		zap.String("id", rec.ID),
		zap.String("status", rec.Status),
		zap.String("signal_id", rec.SignalID),
	)
	return resp, nil
}

func buildRecord(ev Interaction, parsed signal.Parsed, identity *directory.Identity, req Request, resp *Response) *models.TradeSimulation {
	rec := &models.TradeSimulation{
		TelegramUserID:  ev.TelegramUserID,
		Username:        ev.Username,
		FirstName:       ev.FirstName,
		ChatID:          ev.ChatID,
		ChatType:        ev.ChatType,
		MessageID:       ev.MessageID,
		MessageText:     ev.MessageText,
		MessageDate:     ev.MessageDate,
		CallbackQueryID: ev.CallbackQueryID,
		CallbackData:    ev.CallbackData,
		InteractedAt:    ev.InteractedAt,

		Status: models.SimulationFailed,

		Token:        parsed.Token,
		TP1:          parsed.TP1,
		TP2:          parsed.TP2,
		StopLoss:     parsed.StopLoss,
		EntryPrice:   parsed.EntryPrice,
		CurrentPrice: req.CurrentPrice,
		MaxExitTime:  req.MaxExitTime,

		TradingIdentity: identity.TradingIdentity,
		SafeAddress:     identity.CustodialAddress,
		Network:         identity.Network,

		SignalID:    resp.SignalID,
		RawResponse: resp.Raw,
	}

	switch out := resp.Outcome().(type) {
	case Success:
		rec.Status = models.SimulationSuccess
		rec.TradeID = out.TradingPair.TradeID
		if out.TradingPair.NetworkKey != "" {
			rec.Network = out.TradingPair.NetworkKey
		}
	case Failure:
		rec.Error = out.Error
	case Malformed:
		rec.Error = out.Reason
	}
	return rec
}
