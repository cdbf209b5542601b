package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/whwh2000/translator-robot/internal/api"
	"github.com/whwh2000/translator-robot/internal/api/handlers"
	"github.com/whwh2000/translator-robot/internal/cache"
	"github.com/whwh2000/translator-robot/internal/config"
	"github.com/whwh2000/translator-robot/internal/database"
	"github.com/whwh2000/translator-robot/internal/history"
	"github.com/whwh2000/translator-robot/internal/llm"
	"github.com/whwh2000/translator-robot/internal/multimodal/stt"
	"github.com/whwh2000/translator-robot/internal/multimodal/tts"
	"github.com/whwh2000/translator-robot/internal/queue"
	"github.com/whwh2000/translator-robot/internal/session"
	"github.com/whwh2000/translator-robot/internal/tutor"
)

func main() {
	configFile := flag.String("config", "", "path to a tutor.yaml config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	config.SetupLogging(cfg.Logging)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	var checks []handlers.Check

	// History database is optional; without DATABASE_URL exchanges are not kept.
	var recorder history.Recorder = history.Nop{}
	db, err := database.NewPool(ctx, cfg.Database)
	switch {
	case errors.Is(err, database.ErrNotConfigured):
		slog.Info("no database configured, history disabled")
	case err != nil:
		slog.Warn("database unavailable, history disabled", "error", err)
	default:
		defer db.Close()
		if err := database.RunMigrations(ctx, db, database.Migrations(cfg.Database.MigrationsPath)); err != nil {
			slog.Warn("migrations failed", "error", err)
		}
		recorder = history.NewService(db)
		checks = append(checks, handlers.PostgresCheck(db))
	}

	// Redis holds sessions and synthesized audio; fall back to process memory.
	rdb := cache.NewClient(cfg.Redis)
	defer rdb.Close()

	var sessions session.Store
	synth, err := tts.NewFromConfig(cfg.TTS)
	if err != nil {
		slog.Error("failed to set up speech synthesis", "error", err)
		os.Exit(1)
	}
	redisUp := rdb.Ping(ctx).Err() == nil
	if redisUp {
		sessions = session.NewRedisStore(cache.NewCache(rdb, cache.SessionPrefix), cfg.Session.TTL)
		synth = tts.NewCached(synth, cache.NewCache(rdb, cache.AudioPrefix), cfg.TTS.CacheTTL)
		checks = append(checks, handlers.RedisCheck(rdb))
	} else {
		slog.Warn("redis unavailable, sessions kept in memory and audio not cached", "addr", cfg.Redis.Addr)
		sessions = session.NewMemoryStore(cfg.Session.TTL)
	}

	recognizer, err := stt.NewFromConfig(cfg.STT)
	if err != nil {
		slog.Error("failed to set up speech recognition", "error", err)
		os.Exit(1)
	}

	deps := tutor.Deps{
		Sessions: sessions,
		LLM:      llm.NewGateway(cfg.LLM),
		STT:      recognizer,
		TTS:      synth,
		History:  recorder,
	}
	if cfg.Queue.Prerender && redisUp {
		qc := queue.NewClient(cfg.Redis)
		defer qc.Close()
		deps.Prerender = qc
	}
	svc := tutor.NewService(deps)

	// Setup router
	router := api.NewRouter(cfg, svc, checks...)
	defer router.Close()
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * cfg.LLM.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server",
			"addr", cfg.Addr(),
			"llm_provider", cfg.LLM.DefaultProvider,
			"stt", recognizer.Name(),
			"tts", synth.Name(),
			"auth", cfg.Auth.JWTSecret != "",
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
