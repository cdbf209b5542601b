// Package tutor runs one user action end to end: transcription, the
// translation and reply calls, and speech for the results.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/whwh2000/translator-robot/internal/auth"
	"github.com/whwh2000/translator-robot/internal/history"
	"github.com/whwh2000/translator-robot/internal/language"
	"github.com/whwh2000/translator-robot/internal/llm"
	"github.com/whwh2000/translator-robot/internal/models"
	"github.com/whwh2000/translator-robot/internal/multimodal/stt"
	"github.com/whwh2000/translator-robot/internal/multimodal/tts"
	"github.com/whwh2000/translator-robot/internal/prompt"
	"github.com/whwh2000/translator-robot/internal/queue"
	"github.com/whwh2000/translator-robot/internal/session"
)

var (
	ErrNoInput = errors.New("no input to translate")
	// ErrAI wraps any failure of the translation or reply call.
	ErrAI = errors.New("AI Error")
)

// Input is one submission. Audio wins over Text when it transcribes.
type Input struct {
	Text        string
	Audio       []byte
	ContentType string
}

// Result is what the user sees after a submission.
type Result struct {
	Session     *session.Session `json:"session"`
	Input       string           `json:"input"`
	Translation string           `json:"translation"`
	Reply       string           `json:"reply"`
	Lines       []string         `json:"lines"`
	Cached      bool             `json:"cached"`
	Transcribed bool             `json:"transcribed"`
	// Warning carries a transcription failure that was recovered from by
	// using the typed text.
	Warning string `json:"warning,omitempty"`
}

// Prerenderer queues speech for reply lines ahead of playback.
type Prerenderer interface {
	EnqueueSpeechPrerender(ctx context.Context, payload queue.SpeechPrerenderPayload) error
}

// Deps are the collaborators of a Service. STT and Prerender may be nil.
type Deps struct {
	Sessions  session.Store
	LLM       llm.Gateway
	STT       stt.STTProvider
	TTS       tts.TTSProvider
	History   history.Recorder
	Prerender Prerenderer
}

type Service struct {
	sessions  session.Store
	llm       llm.Gateway
	stt       stt.STTProvider
	tts       tts.TTSProvider
	history   history.Recorder
	prerender Prerenderer
	locks     *keyedMutex
}

func NewService(d Deps) *Service {
	if d.History == nil {
		d.History = history.Nop{}
	}
	return &Service{
		sessions:  d.Sessions,
		llm:       d.LLM,
		stt:       d.STT,
		tts:       d.TTS,
		history:   d.History,
		prerender: d.Prerender,
		locks:     newKeyedMutex(),
	}
}

// Create starts a session owned by the caller's token subject.
func (s *Service) Create(ctx context.Context, lang language.Language, mode language.Mode) (*session.Session, error) {
	sess := session.New(auth.SubjectFromContext(ctx), lang, mode)
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	slog.Info("session created", "session_id", sess.ID, "language", sess.Language.Code, "mode", sess.Mode)
	return sess, nil
}

// Get loads a session. Sessions owned by another subject are reported as
// not found.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if owner := auth.SubjectFromContext(ctx); owner != "" && sess.Owner != owner {
		return nil, session.ErrNotFound
	}
	return sess, nil
}

// Submit translates the input and generates replies for it. Nothing is
// stored unless both model calls succeed.
func (s *Service) Submit(ctx context.Context, id uuid.UUID, in Input) (*Result, error) {
	defer s.locks.Lock(id)()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	final := ""
	if len(in.Audio) > 0 {
		hash := session.HashAudio(in.Audio)
		if hash != sess.LastAudioHash {
			text, err := s.transcribe(ctx, in)
			if err != nil {
				slog.Warn("transcription failed, using typed text", "session_id", id, "error", err)
				res.Warning = "Voice Error: " + err.Error()
			} else {
				sess.LastAudioHash = hash
				final = text
				res.Transcribed = final != ""
			}
		} else if strings.TrimSpace(in.Text) == "" && sess.HasResult() {
			// Same recording again with nothing typed: show what it produced.
			final = sess.LastInput
		}
	}
	if final == "" {
		final = strings.TrimSpace(in.Text)
	}
	if final == "" {
		return nil, ErrNoInput
	}

	if final == sess.LastInput && sess.HasResult() {
		if res.Transcribed {
			if err := s.save(ctx, sess); err != nil {
				return nil, err
			}
		}
		res.Cached = true
		return s.fill(res, sess), nil
	}

	start := time.Now()
	translation, reply, usage, err := s.generate(ctx, sess, final)
	if err != nil {
		slog.Error("generation failed", "session_id", id, "error", err)
		return nil, err
	}

	sess.LastInput = final
	sess.UserTranslation = translation
	sess.Reply = reply
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}

	ex := &models.Exchange{
		SessionID:    sess.ID,
		Owner:        sess.Owner,
		Language:     sess.Language.Code,
		Mode:         string(sess.Mode),
		Input:        final,
		Transcribed:  res.Transcribed,
		Translation:  translation,
		Reply:        reply,
		Provider:     usage.Provider,
		Model:        usage.Model,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		CostUSD:      usage.CostUSD,
		LatencyMs:    time.Since(start).Milliseconds(),
	}
	if err := s.history.Record(ctx, ex); err != nil {
		slog.Warn("failed to record exchange", "session_id", id, "error", err)
	}
	s.enqueuePrerender(ctx, sess)

	slog.Info("input processed",
		"session_id", id,
		"language", sess.Language.Code,
		"mode", sess.Mode,
		"transcribed", res.Transcribed,
		"latency_ms", ex.LatencyMs,
	)
	return s.fill(res, sess), nil
}

func (s *Service) transcribe(ctx context.Context, in Input) (string, error) {
	if s.stt == nil {
		return "", errors.New("speech recognition is not configured")
	}
	resp, err := s.stt.Transcribe(ctx, stt.TranscriptionRequest{
		Audio:       in.Audio,
		ContentType: in.ContentType,
		Language:    "en",
		Prompt:      prompt.Transcribe,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

// generate makes the translation call, then the reply call. The usage
// returned sums both.
func (s *Service) generate(ctx context.Context, sess *session.Session, input string) (string, string, *llm.ChatResponse, error) {
	tp, err := prompt.TranslatePrompt(sess.Language, input)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %v", ErrAI, err)
	}
	tr, err := s.llm.Generate(ctx, tp)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: translate: %w", ErrAI, err)
	}

	rp, err := prompt.ReplyPrompt(sess.Mode, sess.Language, input)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %v", ErrAI, err)
	}
	rr, err := s.llm.Generate(ctx, rp)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: reply: %w", ErrAI, err)
	}

	usage := &llm.ChatResponse{
		Provider:     rr.Provider,
		Model:        rr.Model,
		InputTokens:  tr.InputTokens + rr.InputTokens,
		OutputTokens: tr.OutputTokens + rr.OutputTokens,
		CostUSD:      tr.CostUSD + rr.CostUSD,
	}
	return strings.TrimSpace(tr.Content), strings.TrimSpace(rr.Content), usage, nil
}

func (s *Service) enqueuePrerender(ctx context.Context, sess *session.Session) {
	if s.prerender == nil {
		return
	}
	lines := sess.Lines()
	if sess.UserTranslation != "" {
		lines = append([]string{sess.UserTranslation}, lines...)
	}
	err := s.prerender.EnqueueSpeechPrerender(ctx, queue.SpeechPrerenderPayload{
		SessionID: sess.ID.String(),
		Language:  sess.Language.Code,
		Lines:     lines,
	})
	if err != nil {
		slog.Warn("failed to enqueue speech prerender", "session_id", sess.ID, "error", err)
	}
}

func (s *Service) fill(res *Result, sess *session.Session) *Result {
	res.Session = sess
	res.Input = sess.LastInput
	res.Translation = sess.UserTranslation
	res.Reply = sess.Reply
	res.Lines = sess.Lines()
	return res
}

func (s *Service) save(ctx context.Context, sess *session.Session) error {
	sess.UpdatedAt = time.Now().UTC()
	if err := s.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Settings changes the session's language and mode. Zero fields are left
// unchanged.
type Settings struct {
	Language language.Language
	Mode     language.Mode
}

// UpdateSettings applies settings. Switching language clears the cached
// results.
func (s *Service) UpdateSettings(ctx context.Context, id uuid.UUID, st Settings) (*session.Session, error) {
	defer s.locks.Lock(id)()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !st.Language.IsZero() && sess.SetLanguage(st.Language) {
		slog.Info("language changed, session cleared", "session_id", id, "language", st.Language.Code)
	}
	if st.Mode != "" {
		sess.Mode = st.Mode
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Clear drops the cached results and keeps the settings.
func (s *Service) Clear(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	defer s.locks.Lock(id)()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.Reset()
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// DeepClear deletes the session entirely.
func (s *Service) DeepClear(ctx context.Context, id uuid.UUID) error {
	defer s.locks.Lock(id)()

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	slog.Info("session deleted", "session_id", id)
	return nil
}

// History lists the session's past exchanges, newest first.
func (s *Service) History(ctx context.Context, id uuid.UUID, limit int) ([]models.Exchange, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.history.ListBySession(ctx, id, limit)
}

// Models lists what the configured provider keys can use.
func (s *Service) Models(ctx context.Context) ([]llm.ModelInfo, error) {
	return s.llm.ListModels(ctx)
}
