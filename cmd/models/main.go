package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/whwh2000/translator-robot/internal/config"
	"github.com/whwh2000/translator-robot/internal/llm"
)

func main() {
	configFile := flag.String("config", "", "path to a tutor.yaml config file")
	provider := flag.String("provider", "", "only list models of this provider")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	gw := llm.NewGateway(cfg.LLM)
	var models []llm.ModelInfo
	if *provider != "" {
		p, perr := gw.Provider(*provider)
		if perr != nil {
			fmt.Printf("Error checking models: %v\n", perr)
			os.Exit(1)
		}
		models, err = p.ListModels(ctx)
	} else {
		models, err = gw.ListModels(ctx)
	}

	fmt.Println("--- Available Models ---")
	for _, m := range models {
		fmt.Printf("Name: %s | Display: %s\n", m.Name, m.DisplayName)
	}
	if err != nil {
		fmt.Printf("Error checking models: %v\n", err)
		os.Exit(1)
	}
}
