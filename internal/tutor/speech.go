package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/whwh2000/translator-robot/internal/language"
	"github.com/whwh2000/translator-robot/internal/multimodal/tts"
	"github.com/whwh2000/translator-robot/internal/speechtext"
)

var (
	// ErrNothingToSay means cleaning left no speakable text.
	ErrNothingToSay = errors.New("nothing to say")
	ErrNoSuchLine   = errors.New("no such reply line")
	ErrVoice        = errors.New("Voice Error")
)

// Target picks what to speak: the user's own translation, or a reply line
// by its index in Result.Lines.
type Target struct {
	Translation bool
	Line        int
}

// Speak synthesizes the selected text in the session's language.
func (s *Service) Speak(ctx context.Context, id uuid.UUID, t Target) (*tts.SynthesisResult, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var text string
	if t.Translation {
		text = sess.UserTranslation
	} else {
		lines := sess.Lines()
		if t.Line < 0 || t.Line >= len(lines) {
			return nil, fmt.Errorf("%w: %d of %d", ErrNoSuchLine, t.Line, len(lines))
		}
		text = lines[t.Line]
	}
	return s.SpeakText(ctx, text, sess.Language)
}

// SpeakText cleans text for lang and synthesizes it. It needs no session.
func (s *Service) SpeakText(ctx context.Context, text string, lang language.Language) (*tts.SynthesisResult, error) {
	clean, ok := speechtext.Clean(text, lang)
	if !ok {
		return nil, ErrNothingToSay
	}
	res, err := s.tts.Synthesize(ctx, tts.SynthesisRequest{Input: clean, Language: lang.Code})
	if err != nil {
		slog.Warn("speech synthesis failed", "language", lang.Code, "backend", s.tts.Name(), "error", err)
		return nil, fmt.Errorf("%w: %w", ErrVoice, err)
	}
	return res, nil
}
