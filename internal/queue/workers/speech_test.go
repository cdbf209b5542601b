package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whwh2000/translator-robot/internal/multimodal/tts"
	"github.com/whwh2000/translator-robot/internal/queue"
	"github.com/whwh2000/translator-robot/internal/queue/workers"
)

type fakeCache struct {
	mu     sync.Mutex
	stored map[string]bool
	fail   map[string]bool
	calls  []tts.SynthesisRequest
}

func newFakeCache() *fakeCache {
	return &fakeCache{stored: map[string]bool{}, fail: map[string]bool{}}
}

func (f *fakeCache) Name() string { return "fake" }

func (f *fakeCache) Synthesize(_ context.Context, req tts.SynthesisRequest) (*tts.SynthesisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.fail[req.Input] {
		return nil, errors.New("tts down")
	}
	f.stored[req.Language+"|"+req.Input] = true
	return &tts.SynthesisResult{Audio: []byte(req.Input), ContentType: "audio/mpeg"}, nil
}

func (f *fakeCache) Has(_ context.Context, req tts.SynthesisRequest) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored[req.Language+"|"+req.Input]
}

func task(t *testing.T, p queue.SpeechPrerenderPayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return asynq.NewTask(queue.TypeSpeechPrerender, data)
}

func TestSpeechWorkerRendersCleanLines(t *testing.T) {
	t.Parallel()

	c := newFakeCache()
	c.stored["ko|감사합니다"] = true
	w := workers.NewSpeechWorker(c)

	err := w.ProcessTask(context.Background(), task(t, queue.SpeechPrerenderPayload{
		SessionID: "s",
		Language:  "ko",
		Lines: []string{
			"Formal: 안녕하세요 (annyeonghaseyo)",
			"Reply 1: (nothing speakable)",
			"Reply 2: 감사합니다",
		},
	}))
	require.NoError(t, err)
	require.Len(t, c.calls, 1, "empty and cached lines are skipped")
	assert.Equal(t, tts.SynthesisRequest{Input: "안녕하세요", Language: "ko"}, c.calls[0])
}

func TestSpeechWorkerReportsFailures(t *testing.T) {
	t.Parallel()

	c := newFakeCache()
	c.fail["Hej"] = true
	w := workers.NewSpeechWorker(c)

	err := w.ProcessTask(context.Background(), task(t, queue.SpeechPrerenderPayload{
		Language: "da",
		Lines:    []string{"Formal: Hej", "Informal: Hej hej"},
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `line "Hej"`)
	assert.True(t, c.Has(context.Background(), tts.SynthesisRequest{Input: "Hej hej", Language: "da"}),
		"other lines are still rendered")
}

func TestSpeechWorkerBadPayloadSkipsRetry(t *testing.T) {
	t.Parallel()

	w := workers.NewSpeechWorker(newFakeCache())

	err := w.ProcessTask(context.Background(), asynq.NewTask(queue.TypeSpeechPrerender, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	err = w.ProcessTask(context.Background(), task(t, queue.SpeechPrerenderPayload{Language: "fr"}))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
