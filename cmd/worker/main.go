package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/whwh2000/translator-robot/internal/cache"
	"github.com/whwh2000/translator-robot/internal/config"
	"github.com/whwh2000/translator-robot/internal/multimodal/tts"
	"github.com/whwh2000/translator-robot/internal/queue"
	"github.com/whwh2000/translator-robot/internal/queue/workers"
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

	// Pre-rendered clips land in the same cache the API reads from.
	rdb := cache.NewClient(cfg.Redis)
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		slog.Error("redis unavailable", "addr", cfg.Redis.Addr, "error", err)
		os.Exit(1)
	}

	synth, err := tts.NewFromConfig(cfg.TTS)
	if err != nil {
		slog.Error("failed to set up speech synthesis", "error", err)
		os.Exit(1)
	}
	audio := tts.NewCached(synth, cache.NewCache(rdb, cache.AudioPrefix), cfg.TTS.CacheTTL)

	srv := asynq.NewServer(
		queue.RedisOpt(cfg.Redis),
		asynq.Config{
			Concurrency: cfg.Queue.Concurrency,
			Queues: map[string]int{
				queue.QueueDefault: 3,
				queue.QueueLow:     1,
			},
		},
	)

	registry := queue.NewHandlersRegistry()

	// Register workers
	speechWorker := workers.NewSpeechWorker(audio)

	registry.Register(queue.TypeSpeechPrerender, asynq.HandlerFunc(speechWorker.ProcessTask))

	slog.Info("starting worker", "concurrency", cfg.Queue.Concurrency, "tts", audio.Name())
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
