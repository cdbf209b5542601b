package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whwh2000/translator-robot/internal/config"
)

type fakeProvider struct {
	name string

	mu      sync.Mutex
	calls   []ChatRequest
	replies []fakeReply
	models  []ModelInfo
	listErr error
}

type fakeReply struct {
	content string
	err     error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) ChatCompletion(_ context.Context, req ChatRequest) (*ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	r := fakeReply{content: "ok"}
	if len(f.replies) > 0 {
		r = f.replies[0]
		f.replies = f.replies[1:]
	}
	if r.err != nil {
		return nil, r.err
	}
	return &ChatResponse{Provider: f.name, Model: req.Model, Content: r.content}, nil
}

func (f *fakeProvider) ListModels(context.Context) ([]ModelInfo, error) {
	return f.models, f.listErr
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestGatewayUsesDefaultModel(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{name: "openai"}
	g := newGateway(config.LLMConfig{DefaultProvider: "openai", DefaultModel: "gpt-4o-mini"}, p)

	resp, err := g.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	require.Len(t, p.calls, 1)
	assert.Equal(t, "gpt-4o-mini", p.calls[0].Model)
	assert.Equal(t, []Message{{Role: "user", Content: "hello"}}, p.calls[0].Messages)
}

func TestGatewayLeavesModelToNonDefaultProviders(t *testing.T) {
	for _, name := range []string{"LLM_DEFAULT_MODEL", "TUTOR_LLM_DEFAULT_MODEL", "TUTOR_LLM_DEFAULT_PROVIDER"} {
		t.Setenv(name, "")
	}
	t.Setenv("LLM_DEFAULT_PROVIDER", "anthropic")
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	p := &fakeProvider{name: "anthropic"}
	g := newGateway(cfg.LLM, p)

	_, err = g.Generate(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, p.calls, 1)
	assert.Empty(t, p.calls[0].Model, "anthropic applies its own default model")
}

func TestGatewayNoRetryByDefault(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	p := &fakeProvider{name: "openai", replies: []fakeReply{{err: boom}, {content: "late"}}}
	g := newGateway(config.LLMConfig{DefaultProvider: "openai"}, p)

	_, err := g.Generate(context.Background(), "hi")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, p.callCount())
}

func TestGatewayRetries(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{name: "openai", replies: []fakeReply{{err: errors.New("flaky")}, {content: "second"}}}
	g := newGateway(config.LLMConfig{DefaultProvider: "openai", MaxRetries: 2}, p)
	g.backoff = time.Millisecond

	resp, err := g.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Content)
	assert.Equal(t, 2, p.callCount())
}

func TestGatewayEmptyContentIsError(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{name: "openai", replies: []fakeReply{{content: ""}}}
	g := newGateway(config.LLMConfig{DefaultProvider: "openai"}, p)

	_, err := g.Generate(context.Background(), "hi")
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGatewayFallback(t *testing.T) {
	t.Parallel()

	primary := &fakeProvider{name: "openai", replies: []fakeReply{{err: errors.New("down")}}}
	fallback := &fakeProvider{name: "ollama", replies: []fakeReply{{content: "from fallback"}}}
	g := newGateway(config.LLMConfig{
		DefaultProvider:  "openai",
		DefaultModel:     "gpt-4o-mini",
		FallbackProvider: "ollama",
		FallbackModel:    "llama3",
	}, primary, fallback)

	resp, err := g.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "from fallback", resp.Content)
	require.Len(t, fallback.calls, 1)
	assert.Equal(t, "llama3", fallback.calls[0].Model)
}

func TestGatewayUnknownProvider(t *testing.T) {
	t.Parallel()

	g := newGateway(config.LLMConfig{DefaultProvider: "anthropic"})
	_, err := g.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `provider "anthropic" not configured`)
}

func TestGatewayListModels(t *testing.T) {
	t.Parallel()

	a := &fakeProvider{name: "anthropic", models: []ModelInfo{{Provider: "anthropic", Name: "claude", DisplayName: "Claude"}}}
	o := &fakeProvider{name: "openai", listErr: errors.New("401")}
	g := newGateway(config.LLMConfig{DefaultProvider: "openai"}, a, o)

	models, err := g.ListModels(context.Background())
	require.NoError(t, err, "one provider failing is tolerated")
	assert.Equal(t, a.models, models)

	only := newGateway(config.LLMConfig{DefaultProvider: "openai"}, o)
	_, err = only.ListModels(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai: 401")
}

func TestCalculateCost(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.00015+0.0006, CalculateCost("gpt-4o-mini", 1000, 1000), 1e-12)
	assert.InDelta(t, 0.00015, CalculateCost("gpt-4o-mini-2024-07-18", 1000, 0), 1e-12)
	assert.Zero(t, CalculateCost("llama3", 1000, 1000))
}

func TestGatewayEstimatesMissingUsage(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{name: "openai", replies: []fakeReply{{content: "안녕하세요"}}}
	g := newGateway(config.LLMConfig{DefaultProvider: "openai", DefaultModel: "gpt-4o-mini"}, p)

	resp, err := g.Generate(context.Background(), "how are you today")
	require.NoError(t, err)
	assert.Equal(t, 9, resp.InputTokens)
	assert.Equal(t, 5, resp.OutputTokens)
	assert.Equal(t, 14, resp.TotalTokens)
	assert.Greater(t, resp.CostUSD, 0.0)
}
