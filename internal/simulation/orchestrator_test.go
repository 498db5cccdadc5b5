package simulation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"telegram-message-service/internal/apperr"
	"telegram-message-service/internal/directory"
	"telegram-message-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockResolver is a mock implementation of the IdentityResolver interface.
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) ResolveTradingIdentity(ctx context.Context, username string) (*directory.Identity, error) {
	args := m.Called(ctx, username)
	id, _ := args.Get(0).(*directory.Identity)
	return id, args.Error(1)
}

// MockSimulator is a mock implementation of the Simulator interface.
type MockSimulator struct {
	mock.Mock
}

func (m *MockSimulator) Simulate(ctx context.Context, req Request) (*Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*Response)
	return resp, args.Error(1)
}

// MockRecorder is a mock implementation of the Recorder interface.
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Insert(ctx context.Context, rec *models.TradeSimulation) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

const bullishText = "🚀 **Bullish Alert** 🚀\n🪙 **Token:** ARB (arbitrum)\n🎯 TP1: $11.37\n🛑 Stop Loss: $8.37\n💰 Entry Price: $9.37"

var aliceIdentity = &directory.Identity{TradingIdentity: "alice-trader", CustodialAddress: "0xA11CE", Network: "arbitrum"}

func interaction() Interaction {
	return Interaction{
		TelegramUserID:  42,
		Username:        "alice",
		FirstName:       "Alice",
		ChatID:          1001,
		ChatType:        "private",
		MessageID:       77,
		MessageText:     bullishText,
		MessageDate:     time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
		CallbackQueryID: "cb-1",
		CallbackData:    "simulate_trade_1760778000000_alice",
		InteractedAt:    time.Date(2026, 10, 18, 9, 1, 0, 0, time.UTC),
	}
}

func response(t *testing.T, body string) *Response {
	t.Helper()
	var r Response
	require.NoError(t, json.Unmarshal([]byte(body), &r))
	r.Raw = json.RawMessage(body)
	return &r
}

func fixedNow() time.Time { return time.Date(2026, 10, 18, 9, 1, 0, 0, time.UTC) }

func TestOrchestrator_Run_Success(t *testing.T) {
	// Arrange
	resolver, simulator := new(MockResolver), new(MockSimulator)
	store := NewStore(setupDB(t))
	o := NewOrchestrator(resolver, simulator, store, zap.NewNop())
	o.now = fixedNow

	resolver.On("ResolveTradingIdentity", mock.Anything, "alice").Return(aliceIdentity, nil)
	simulator.On("Simulate", mock.Anything, mock.MatchedBy(func(req Request) bool {
		return req.SignalMessage == "buy" &&
			*req.TokenMentioned == "ARB" &&
			*req.CurrentPrice == 9.37 &&
			req.TP2 == nil &&
			req.MaxExitTime.Equal(fixedNow().Add(24*time.Hour)) &&
			req.Username == "alice-trader" &&
			req.SafeAddress == "0xA11CE"
	})).Return(response(t, `{"status":"success","signalId":"sig_1","result":{"tradingPair":{"networkKey":"arbitrum","safeAddress":"0xA11CE","tradeId":"trade_9","status":"open"}}}`), nil)

	// Act
	resp, err := o.Run(context.Background(), interaction())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "sig_1", resp.SignalID)

	recs, err := store.List(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, models.SimulationSuccess, rec.Status)
	assert.Equal(t, "trade_9", rec.TradeID)
	assert.Equal(t, "sig_1", rec.SignalID)
	assert.Equal(t, 11.37, *rec.TP1)
	assert.Equal(t, 8.37, *rec.StopLoss)
	assert.Equal(t, 9.37, *rec.EntryPrice)
	assert.Equal(t, "ARB", *rec.Token)
	assert.Equal(t, "cb-1", rec.CallbackQueryID)
	assert.Equal(t, "private", rec.ChatType)
	assert.Equal(t, bullishText, rec.MessageText)
	assert.Equal(t, "alice-trader", rec.TradingIdentity)
	assert.Equal(t, "0xA11CE", rec.SafeAddress)
	assert.Contains(t, string(rec.RawResponse), "trade_9")
	resolver.AssertExpectations(t)
	simulator.AssertExpectations(t)
}

func TestOrchestrator_Run_RemoteFailureIsRecorded(t *testing.T) {
	resolver, simulator := new(MockResolver), new(MockSimulator)
	store := NewStore(setupDB(t))
	o := NewOrchestrator(resolver, simulator, store, zap.NewNop())

	resolver.On("ResolveTradingIdentity", mock.Anything, "alice").Return(aliceIdentity, nil)
	simulator.On("Simulate", mock.Anything, mock.Anything).
		Return(response(t, `{"status":"failed","signalId":"sig_2","result":{"error":"slippage_exceeded"}}`), nil)

	resp, err := o.Run(context.Background(), interaction())

	require.NoError(t, err)
	assert.IsType(t, Failure{}, resp.Outcome())

	recs, err := store.List(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, models.SimulationFailed, recs[0].Status)
	assert.Equal(t, "slippage_exceeded", recs[0].Error)
	assert.Contains(t, string(recs[0].RawResponse), "slippage_exceeded")
}

func TestOrchestrator_Run_IsNotIdempotent(t *testing.T) {
	resolver, simulator := new(MockResolver), new(MockSimulator)
	store := NewStore(setupDB(t))
	o := NewOrchestrator(resolver, simulator, store, zap.NewNop())

	resolver.On("ResolveTradingIdentity", mock.Anything, "alice").Return(aliceIdentity, nil)
	simulator.On("Simulate", mock.Anything, mock.Anything).
		Return(response(t, `{"status":"success","signalId":"sig_1","result":{"tradingPair":{"tradeId":"t"}}}`), nil)

	ev := interaction()
	_, err := o.Run(context.Background(), ev)
	require.NoError(t, err)
	_, err = o.Run(context.Background(), ev)
	require.NoError(t, err)

	recs, err := store.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.NotEqual(t, recs[0].ID, recs[1].ID)
	simulator.AssertNumberOfCalls(t, "Simulate", 2)
}

func TestOrchestrator_Run_IdentityNotFound(t *testing.T) {
	resolver, simulator, recorder := new(MockResolver), new(MockSimulator), new(MockRecorder)
	o := NewOrchestrator(resolver, simulator, recorder, zap.NewNop())

	resolver.On("ResolveTradingIdentity", mock.Anything, "alice").
		Return(nil, apperr.Newf(apperr.NotFound, "trading identity lookup: no trading identity linked to alice"))

	resp, err := o.Run(context.Background(), interaction())

	assert.Nil(t, resp)
	assert.True(t, apperr.IsCode(err, apperr.NotFound))
	simulator.AssertNotCalled(t, "Simulate", mock.Anything, mock.Anything)
	recorder.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestOrchestrator_Run_RemoteCallError(t *testing.T) {
	resolver, simulator, recorder := new(MockResolver), new(MockSimulator), new(MockRecorder)
	o := NewOrchestrator(resolver, simulator, recorder, zap.NewNop())

	resolver.On("ResolveTradingIdentity", mock.Anything, "alice").Return(aliceIdentity, nil)
	simulator.On("Simulate", mock.Anything, mock.Anything).
		Return(nil, apperr.New(apperr.RemoteCall, "simulation request failed", errors.New("timeout")))

	_, err := o.Run(context.Background(), interaction())

	assert.True(t, apperr.IsCode(err, apperr.RemoteCall))
	recorder.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestOrchestrator_Run_PersistenceError(t *testing.T) {
	resolver, simulator, recorder := new(MockResolver), new(MockSimulator), new(MockRecorder)
	o := NewOrchestrator(resolver, simulator, recorder, zap.NewNop())

	resolver.On("ResolveTradingIdentity", mock.Anything, "alice").Return(aliceIdentity, nil)
	simulator.On("Simulate", mock.Anything, mock.Anything).
		Return(response(t, `{"status":"success","signalId":"sig_1","result":{"tradingPair":{"tradeId":"t"}}}`), nil)
	recorder.On("Insert", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	resp, err := o.Run(context.Background(), interaction())

	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.Persistence))
	assert.Contains(t, err.Error(), "disk full")
	require.NotNil(t, resp)
	assert.Equal(t, "sig_1", resp.SignalID)
}

func TestOrchestrator_Run_CurrentPriceFallback(t *testing.T) {
	resolver, simulator, recorder := new(MockResolver), new(MockSimulator), new(MockRecorder)
	o := NewOrchestrator(resolver, simulator, recorder, zap.NewNop())

	ev := interaction()
	ev.MessageText = "Signal: Buy\nTP1: $12\nStop Loss: $8"

	resolver.On("ResolveTradingIdentity", mock.Anything, "alice").Return(aliceIdentity, nil)
	simulator.On("Simulate", mock.Anything, mock.MatchedBy(func(req Request) bool {
		return req.CurrentPrice != nil && *req.CurrentPrice == 10.0 && req.TokenMentioned == nil
	})).Return(response(t, `{"status":"failed","result":{"error":"no token"}}`), nil)
	recorder.On("Insert", mock.Anything, mock.MatchedBy(func(rec *models.TradeSimulation) bool {
		return *rec.CurrentPrice == 10.0 && rec.EntryPrice == nil && rec.Error == "no token"
	})).Return(nil)

	_, err := o.Run(context.Background(), ev)

	require.NoError(t, err)
	simulator.AssertExpectations(t)
	recorder.AssertExpectations(t)
}
