package prompt

import (
	"fmt"

	"github.com/whwh2000/translator-robot/internal/language"
)

// Tutor prompt templates. Output formats are line oriented so each line can
// be spoken on its own.
const (
	Transcribe = "Transcribe this audio into English text. Only return the text."

	Translate = "Translate into natural {{language}}: '{{input}}'. Only return the translation."

	LiveTranslation = "Translate '{{input}}' into {{language}}. " +
		"Provide: 1 Formal version, 1 Informal version, and 3 short replies. " +
		"Format: 'Formal: [text]', 'Informal: [text]', 'Reply 1: [text]', 'Reply 2: [text]', 'Reply 3: [text]'. " +
		"Each on a NEW line."

	PracticeChat = "You are a friendly conversation partner in {{language}}. User said: '{{input}}'. " +
		"Provide: 1. A direct reply in {{language}} (with English meaning in brackets). " +
		"2. Three follow-up options for the user to say back to you in {{language}} (with English meanings). " +
		"Format: 'Robot: [text]', 'Option 1: [text]', 'Option 2: [text]', 'Option 3: [text]'. " +
		"Each on a NEW line."
)

// TranslatePrompt asks for a plain translation of input.
func TranslatePrompt(lang language.Language, input string) (string, error) {
	return Render(Translate, map[string]string{"language": lang.Name, "input": input})
}

// ReplyPrompt picks the reply template for mode.
func ReplyPrompt(mode language.Mode, lang language.Language, input string) (string, error) {
	var tmpl string
	switch mode {
	case language.LiveTranslation:
		tmpl = LiveTranslation
	case language.PracticeChat:
		tmpl = PracticeChat
	default:
		return "", fmt.Errorf("no reply template for mode %q", mode)
	}
	return Render(tmpl, map[string]string{"language": lang.Name, "input": input})
}
