package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"telegram-message-service/internal/api"
	"telegram-message-service/internal/config"
	"telegram-message-service/internal/database"
	"telegram-message-service/internal/directory"
	"telegram-message-service/internal/logger"
	"telegram-message-service/internal/relay"
	"telegram-message-service/internal/simulation"
	"telegram-message-service/internal/telegram"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	if cfg.Telegram.BotToken == "" {
		log.Fatal("telegram.bot_token is required")
	}
	if cfg.Simulation.Endpoint == "" {
		log.Fatal("simulation.endpoint is required")
	}

	db, err := database.NewDatabase(&cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tg := telegram.NewClient(&cfg.Telegram, log)
	me, err := tg.GetMe(ctx)
	if err != nil {
		log.Fatal("Failed to connect to Telegram Bot API", zap.Error(err))
	}
	log.Info("Successfully connected to Telegram Bot API.", zap.String("bot", me.Username))

	guard, closeGuard := newGuard(ctx, &cfg, log)
	defer closeGuard()

	lookup := directory.NewLookup(db, cfg.Simulation.Network, log)
	store := simulation.NewStore(db)
	orchestrator := simulation.NewOrchestrator(lookup, simulation.NewRPCClient(&cfg.Simulation, log), store, log)

	dispatcher := relay.NewDispatcher(lookup, tg, log)
	correlator := relay.NewCorrelator(tg, orchestrator, guard, time.Duration(cfg.Telegram.ProgressInterval)*time.Second, log)
	router := relay.NewUpdateRouter(correlator, lookup, tg, log)

	opts := api.Options{Port: cfg.Server.Port}
	if cfg.Telegram.Mode == "webhook" {
		opts.WebhookPath = cfg.Telegram.WebhookPath
	}
	server := api.NewServer(dispatcher, store, router, opts, log)

	var wg sync.WaitGroup
	if cfg.Telegram.Mode != "webhook" {
		poller := telegram.NewPoller(tg, router, cfg.Telegram.PollTimeout, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(ctx)
		}()
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Error("Web server stopped", zap.Error(err))
			cancel()
		}
	}()

	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigchan:
			log.Info("Shutdown signal received, gracefully shutting down...")
		case <-ctx.Done():
		}
		cancel()
	}()

	<-ctx.Done()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Web server shutdown incomplete", zap.Error(err))
	}
	wg.Wait()

	log.Info("Waiting for in-flight simulations...")
	correlator.Wait()

	log.Info("Relay has been shut down.")
}

// newGuard builds the consumed-token guard selected by callbacks.store, or nil when
// deduplication is off.
func newGuard(ctx context.Context, cfg *config.Config, log *zap.Logger) (relay.TokenGuard, func()) {
	if !cfg.Callbacks.Dedupe {
		return nil, func() {}
	}

	ttl := time.Duration(cfg.Callbacks.TTL) * time.Second
	if cfg.Callbacks.Store != "redis" {
		log.Info("Callback deduplication enabled", zap.String("store", "memory"))
		return relay.NewMemoryGuard(ttl), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	log.Info("Callback deduplication enabled", zap.String("store", "redis"), zap.String("addr", cfg.Redis.Addr))
	return relay.NewRedisGuard(client, ttl), func() { _ = client.Close() }
}
