package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/whwh2000/translator-robot/internal/config"
	"github.com/whwh2000/translator-robot/pkg/tokenizer"
)

var ErrEmptyResponse = errors.New("empty response from model")

type gateway struct {
	providers        map[string]Provider
	defaultProvider  string
	defaultModel     string
	fallbackProvider string
	fallbackModel    string
	maxRetries       int
	backoff          time.Duration
}

func NewGateway(cfg config.LLMConfig) Gateway {
	var providers []Provider
	if cfg.OpenAIKey != "" {
		providers = append(providers, NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIBaseURL))
	}
	if cfg.AnthropicKey != "" {
		providers = append(providers, NewAnthropicProvider(cfg.AnthropicKey))
	}
	if cfg.OllamaURL != "" {
		providers = append(providers, NewOllamaProvider(cfg.OllamaURL, cfg.Timeout))
	}
	return newGateway(cfg, providers...)
}

func newGateway(cfg config.LLMConfig, providers ...Provider) *gateway {
	g := &gateway{
		providers:        make(map[string]Provider, len(providers)),
		defaultProvider:  cfg.DefaultProvider,
		defaultModel:     cfg.DefaultModel,
		fallbackProvider: cfg.FallbackProvider,
		fallbackModel:    cfg.FallbackModel,
		maxRetries:       cfg.MaxRetries,
		backoff:          500 * time.Millisecond,
	}
	for _, p := range providers {
		g.providers[p.Name()] = p
	}
	return g
}

func (g *gateway) Provider(name string) (Provider, error) {
	p, ok := g.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not configured", name)
	}
	return p, nil
}

func (g *gateway) Generate(ctx context.Context, prompt string) (*ChatResponse, error) {
	return g.Chat(ctx, ChatRequest{Messages: UserMessage(prompt)})
}

func (g *gateway) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	providerName := req.Provider
	if providerName == "" {
		providerName = g.defaultProvider
	}
	primary := req
	if primary.Model == "" && providerName == g.defaultProvider {
		primary.Model = g.defaultModel
	}

	resp, err := g.chatWithRetry(ctx, providerName, primary)
	if err != nil && ctx.Err() == nil && g.fallbackProvider != "" && g.fallbackProvider != providerName {
		slog.Warn("primary provider failed, trying fallback",
			"primary", providerName,
			"fallback", g.fallbackProvider,
			"error", err,
		)
		fallback := req
		fallback.Model = g.fallbackModel
		return g.chatWithRetry(ctx, g.fallbackProvider, fallback)
	}
	return resp, err
}

func (g *gateway) chatWithRetry(ctx context.Context, providerName string, req ChatRequest) (*ChatResponse, error) {
	p, err := g.Provider(providerName)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * g.backoff
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			slog.Debug("retrying LLM call", "provider", providerName, "attempt", attempt)
		}

		resp, err := p.ChatCompletion(ctx, req)
		if err == nil && resp.Content == "" {
			err = ErrEmptyResponse
		}
		if err == nil {
			estimateUsage(req, resp)
			return resp, nil
		}
		lastErr = err
	}
	if g.maxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("all retries exhausted for %s: %w", providerName, lastErr)
}

// estimateUsage fills in token counts and cost when the provider reported
// none, so history still records what a call roughly consumed.
func estimateUsage(req ChatRequest, resp *ChatResponse) {
	if resp.TotalTokens > 0 {
		return
	}
	contents := make([]string, len(req.Messages))
	for i, m := range req.Messages {
		contents[i] = m.Content
	}
	resp.InputTokens = tokenizer.CountMessages(contents...)
	resp.OutputTokens = tokenizer.CountTokens(resp.Content)
	resp.TotalTokens = resp.InputTokens + resp.OutputTokens
	if resp.CostUSD == 0 {
		resp.CostUSD = CalculateCost(resp.Model, resp.InputTokens, resp.OutputTokens)
	}
}

// ListModels queries every configured provider. A failing provider is logged
// and skipped unless all of them fail.
func (g *gateway) ListModels(ctx context.Context) ([]ModelInfo, error) {
	names := make([]string, 0, len(g.providers))
	for name := range g.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		models []ModelInfo
		errs   []error
	)
	for _, name := range names {
		list, err := g.providers[name].ListModels(ctx)
		if err != nil {
			slog.Warn("list models failed", "provider", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		models = append(models, list...)
	}
	if len(errs) > 0 && len(errs) == len(names) {
		return nil, errors.Join(errs...)
	}
	return models, nil
}
