package language

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects how replies are generated.
type Mode string

const (
	LiveTranslation Mode = "live_translation"
	PracticeChat    Mode = "practice_chat"
)

var ErrUnknownMode = errors.New("unknown mode")

// Modes returns both modes, default first.
func Modes() []Mode { return []Mode{LiveTranslation, PracticeChat} }

func (m Mode) DisplayName() string {
	switch m {
	case LiveTranslation:
		return "Live Translation"
	case PracticeChat:
		return "Practice Chat"
	}
	return string(m)
}

func (m Mode) Valid() bool {
	return m == LiveTranslation || m == PracticeChat
}

// ParseMode accepts the identifier or the display name, ignoring case.
// An empty string selects LiveTranslation.
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return LiveTranslation, nil
	}
	for _, m := range Modes() {
		if strings.EqualFold(s, string(m)) || strings.EqualFold(s, m.DisplayName()) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}
