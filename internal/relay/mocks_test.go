package relay

import (
	"context"
	"sync"

	"telegram-message-service/internal/simulation"
	"telegram-message-service/internal/telegram"

	"github.com/stretchr/testify/mock"
)

// MockMessenger is a mock implementation of the Messenger interface.
type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) SendMessage(ctx context.Context, chatID int64, text string, opts telegram.SendOptions) (*telegram.Message, error) {
	args := m.Called(ctx, chatID, text, opts)
	msg, _ := args.Get(0).(*telegram.Message)
	return msg, args.Error(1)
}

func (m *MockMessenger) EditMessageText(ctx context.Context, chatID, messageID int64, text string, opts telegram.SendOptions) error {
	args := m.Called(ctx, chatID, messageID, text, opts)
	return args.Error(0)
}

func (m *MockMessenger) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error {
	args := m.Called(ctx, callbackQueryID, text)
	return args.Error(0)
}

// MockChats is a mock implementation of ChatResolver and ChatLinker.
type MockChats struct {
	mock.Mock
}

func (m *MockChats) ResolveChatID(ctx context.Context, username string) (int64, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChats) LinkChat(ctx context.Context, username string, chatID int64, firstName string) error {
	args := m.Called(ctx, username, chatID, firstName)
	return args.Error(0)
}

type runnerFunc func(ctx context.Context, ev simulation.Interaction) (*simulation.Response, error)

func (f runnerFunc) Run(ctx context.Context, ev simulation.Interaction) (*simulation.Response, error) {
	return f(ctx, ev)
}

// call is one request seen by recordingMessenger.
type call struct {
	Method    string
	ChatID    int64
	MessageID int64
	Text      string
}

// recordingMessenger keeps the order of every transport call. The error hooks
// let a test fail individual calls.
type recordingMessenger struct {
	mu     sync.Mutex
	calls  []call
	nextID int64

	answerErr error
	editErr   func(text string) error
	sendErr   func(n int) error
}

func (r *recordingMessenger) SendMessage(_ context.Context, chatID int64, text string, _ telegram.SendOptions) (*telegram.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{Method: "sendMessage", ChatID: chatID, Text: text})
	if r.sendErr != nil {
		if err := r.sendErr(r.count("sendMessage")); err != nil {
			return nil, err
		}
	}
	r.nextID++
	return &telegram.Message{MessageID: 100 + r.nextID, Chat: telegram.Chat{ID: chatID}, Text: text}, nil
}

func (r *recordingMessenger) EditMessageText(_ context.Context, chatID, messageID int64, text string, _ telegram.SendOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{Method: "editMessageText", ChatID: chatID, MessageID: messageID, Text: text})
	if r.editErr != nil {
		return r.editErr(text)
	}
	return nil
}

func (r *recordingMessenger) AnswerCallbackQuery(_ context.Context, callbackQueryID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{Method: "answerCallbackQuery", Text: text})
	return r.answerErr
}

// count must be called with mu held.
func (r *recordingMessenger) count(method string) int {
	n := 0
	for _, c := range r.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (r *recordingMessenger) snapshot() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

func (r *recordingMessenger) methods() []string {
	calls := r.snapshot()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Method
	}
	return out
}
