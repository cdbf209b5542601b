// Package session holds the per-user tutor state between requests.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/whwh2000/translator-robot/internal/language"
	"github.com/whwh2000/translator-robot/internal/speechtext"
)

var ErrNotFound = errors.New("session not found")

// Session is the state the tutor keeps for one user.
type Session struct {
	ID    uuid.UUID `json:"id"`
	Owner string    `json:"owner,omitempty"`

	Language     language.Language `json:"language"`
	PrevLanguage language.Language `json:"prev_language"`
	Mode         language.Mode     `json:"mode"`

	LastInput       string `json:"last_input"`
	UserTranslation string `json:"user_translation"`
	Reply           string `json:"reply"`
	// LastAudioHash is the SHA-256 of the last audio clip transcribed, so a
	// resubmitted recording is not transcribed again.
	LastAudioHash string `json:"last_audio_hash,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a session with defaults for any zero language or mode.
func New(owner string, lang language.Language, mode language.Mode) *Session {
	if lang.IsZero() {
		lang = language.Default()
	}
	if mode == "" {
		mode = language.LiveTranslation
	}
	now := time.Now().UTC()
	return &Session{
		ID:           uuid.New(),
		Owner:        owner,
		Language:     lang,
		PrevLanguage: lang,
		Mode:         mode,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Reset clears the cached results and the audio token. Settings are kept.
func (s *Session) Reset() {
	s.LastInput = ""
	s.UserTranslation = ""
	s.Reply = ""
	s.LastAudioHash = ""
}

// SetLanguage switches the target language and reports whether it changed.
// A change resets the session, since cached results belong to the old language.
func (s *Session) SetLanguage(l language.Language) bool {
	s.Language = l
	if l == s.PrevLanguage {
		return false
	}
	s.PrevLanguage = l
	s.Reset()
	return true
}

// Lines returns the reply lines the user can play back.
func (s *Session) Lines() []string {
	return speechtext.Lines(s.Reply)
}

// HasResult reports whether a previous submission's output is cached.
func (s *Session) HasResult() bool {
	return s.Reply != "" || s.UserTranslation != ""
}

// Store persists sessions.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// HashAudio returns the de-duplication token for an audio clip.
func HashAudio(audio []byte) string {
	sum := sha256.Sum256(audio)
	return hex.EncodeToString(sum[:])
}
