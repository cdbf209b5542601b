// Package language defines the closed set of target languages the tutor
// supports and the two conversation modes.
package language

import (
	"errors"
	"fmt"
	"strings"
)

// Language is a target language the user practices.
type Language struct {
	Name string `json:"name"`
	Code string `json:"code"` // ISO-639-1, passed to the speech service
	// ScriptFilter is set for languages whose non-native characters are
	// dropped before synthesis.
	ScriptFilter bool `json:"script_filter"`
}

// FallbackCode is used for a language name the tutor does not know.
const FallbackCode = "en"

var (
	Korean    = Language{Name: "Korean", Code: "ko", ScriptFilter: true}
	Japanese  = Language{Name: "Japanese", Code: "ja", ScriptFilter: true}
	Danish    = Language{Name: "Danish", Code: "da"}
	Swedish   = Language{Name: "Swedish", Code: "sv"}
	Russian   = Language{Name: "Russian", Code: "ru", ScriptFilter: true}
	Ukrainian = Language{Name: "Ukrainian", Code: "uk", ScriptFilter: true}
)

// all is ordered as presented to users.
var all = []Language{Korean, Japanese, Danish, Swedish, Russian, Ukrainian}

var ErrUnknownLanguage = errors.New("unknown language")

// All returns the supported languages in presentation order.
func All() []Language {
	out := make([]Language, len(all))
	copy(out, all)
	return out
}

func Default() Language { return Korean }

// Lookup finds a language by display name or code, ignoring case.
func Lookup(s string) (Language, bool) {
	s = strings.TrimSpace(s)
	for _, l := range all {
		if strings.EqualFold(l.Name, s) || strings.EqualFold(l.Code, s) {
			return l, true
		}
	}
	return Language{}, false
}

// Parse is Lookup with an error; an empty string selects the default.
func Parse(s string) (Language, error) {
	if strings.TrimSpace(s) == "" {
		return Default(), nil
	}
	l, ok := Lookup(s)
	if !ok {
		return Language{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
	}
	return l, nil
}

// CodeFor maps a display name to its speech code, or FallbackCode.
func CodeFor(name string) string {
	if l, ok := Lookup(name); ok {
		return l.Code
	}
	return FallbackCode
}

func (l Language) String() string { return l.Name }

func (l Language) IsZero() bool { return l.Code == "" }
