// Package api exposes the relay over HTTP: outbound sends, the simulation history
// and the Telegram webhook.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"telegram-message-service/internal/models"
	"telegram-message-service/internal/relay"
	"telegram-message-service/internal/simulation"
	"telegram-message-service/internal/telegram"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Sender delivers messages to linked users.
type Sender interface {
	Send(ctx context.Context, username, text string) (*relay.DeliveryResult, error)
	SendTestSignal(ctx context.Context, username string) (*relay.DeliveryResult, error)
}

// SimulationReader reads stored simulation records.
type SimulationReader interface {
	List(ctx context.Context, f simulation.Filter) ([]models.TradeSimulation, error)
	Get(ctx context.Context, id string) (*models.TradeSimulation, error)
}

// Options configures a Server.
type Options struct {
	Port int
	// WebhookPath is where Telegram posts updates. Empty disables the webhook route.
	WebhookPath string
}

// Server wires HTTP endpoints around the relay components.
type Server struct {
	Router      *gin.Engine
	Sender      Sender
	Simulations SimulationReader
	Updates     telegram.UpdateHandler

	logger *zap.Logger
	opts   Options
	srv    *http.Server
}

// NewServer creates a Server. updates may be nil when the webhook is not used.
func NewServer(sender Sender, simulations SimulationReader, updates telegram.UpdateHandler, opts Options, logger *zap.Logger) *Server {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger(logger.Named("http")))

	s := &Server{
		Router:      r,
		Sender:      sender,
		Simulations: simulations,
		Updates:     updates,
		logger:      logger.Named("api"),
		opts:        opts,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)

	tg := s.Router.Group("/telegram")
	{
		tg.POST("/send", s.sendMessage)
		tg.POST("/send-test-signal", s.sendTestSignal)
	}

	sims := s.Router.Group("/simulations")
	{
		sims.GET("", s.listSimulations)
		sims.GET("/:id", s.getSimulation)
	}

	if s.Updates != nil && s.opts.WebhookPath != "" {
		s.Router.POST(s.opts.WebhookPath, s.webhook)
	}
}

// Start serves HTTP until Shutdown is called. It returns nil on a clean shutdown.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.opts.Port),
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting web server", zap.String("address", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for active ones to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
