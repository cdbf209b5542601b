package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/whwh2000/translator-robot/internal/language"
	"github.com/whwh2000/translator-robot/internal/multimodal/tts"
	"github.com/whwh2000/translator-robot/internal/queue"
	"github.com/whwh2000/translator-robot/internal/speechtext"
)

// AudioCache is a synthesizer that can tell whether audio is already stored.
type AudioCache interface {
	tts.TTSProvider
	Has(ctx context.Context, req tts.SynthesisRequest) bool
}

type SpeechWorker struct {
	synth AudioCache
}

func NewSpeechWorker(synth AudioCache) *SpeechWorker {
	return &SpeechWorker{synth: synth}
}

// ProcessTask renders each speakable line. Lines already cached are skipped,
// so a retried task only redoes the lines that failed.
func (w *SpeechWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.SpeechPrerenderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	lang, ok := language.Lookup(payload.Language)
	if !ok {
		return fmt.Errorf("unknown language %q: %w", payload.Language, asynq.SkipRetry)
	}

	var (
		rendered int
		errs     []error
	)
	for _, line := range payload.Lines {
		text, ok := speechtext.Clean(line, lang)
		if !ok {
			continue
		}
		req := tts.SynthesisRequest{Input: text, Language: lang.Code}
		if w.synth.Has(ctx, req) {
			continue
		}
		if _, err := w.synth.Synthesize(ctx, req); err != nil {
			errs = append(errs, fmt.Errorf("line %q: %w", text, err))
			continue
		}
		rendered++
	}

	slog.Info("speech prerendered",
		"session_id", payload.SessionID,
		"language", lang.Code,
		"rendered", rendered,
		"failed", len(errs),
	)
	return errors.Join(errs...)
}
