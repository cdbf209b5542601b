// Package speechtext prepares model output for speech synthesis.
//
// Replies arrive as labelled lines ("Formal: ...", "Reply 2: ...") carrying
// romanizations and English glosses in parentheses. Clean strips all of that
// so only the sentence in the target language is spoken.
package speechtext

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/whwh2000/translator-robot/internal/language"
)

// Regex patterns for cleaning.
const (
	parentheticalPattern = `\(.*?\)`
	// Runs of Kana, CJK ideographs, Hangul syllables and Cyrillic, plus
	// digits, basic sentence punctuation and space.
	nativeScriptPattern = `[\x{3040}-\x{30FF}\x{4E00}-\x{9FAF}\x{AC00}-\x{D7AF}\x{0400}-\x{04FF}0-9?.!, ]+`
)

var (
	parentheticalRe = regexp.MustCompile(parentheticalPattern)
	nativeScriptRe  = regexp.MustCompile(nativeScriptPattern)

	// labelRes are applied in order, each anchored at the start of the text.
	labelRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^Formal\s*:\s*`),
		regexp.MustCompile(`(?i)^Informal\s*:\s*`),
		// The parenthetical is usually gone by now, leaving "You:".
		regexp.MustCompile(`(?i)^You\s*(?:\(.*?\))?\s*:\s*`),
		regexp.MustCompile(`(?i)^Reply\s*\d+\s*:\s*`),
		regexp.MustCompile(`(?i)^Option\s*\d+\s*:\s*`),
		regexp.MustCompile(`(?i)^Robot\s*:\s*`),
		regexp.MustCompile(`(?i)^Translation\s*:\s*`),
		regexp.MustCompile(`^\d+\.\s*`),
	}
)

// Clean returns the text to hand to the synthesizer for lang, and false when
// nothing speakable remains.
//
// A single pass can expose a new label (stacked labels, or a label behind
// leading whitespace), so passes repeat until the text stops changing. Every
// pass only removes characters, so the loop terminates.
func Clean(text string, lang language.Language) (string, bool) {
	cur := text
	for {
		next := cleanPass(cur, lang)
		if next == cur {
			break
		}
		cur = next
	}
	if cur == "" {
		return "", false
	}
	return cur, true
}

func cleanPass(text string, lang language.Language) string {
	// Composed form, so decomposed Hangul or Kana survives the script filter.
	s := norm.NFC.String(text)
	s = parentheticalRe.ReplaceAllString(s, "")
	for _, re := range labelRes {
		s = re.ReplaceAllString(s, "")
	}
	if lang.ScriptFilter {
		s = strings.Join(nativeScriptRe.FindAllString(s, -1), "")
	}
	return strings.TrimSpace(s)
}

// Lines splits a model reply into the lines shown to the user: split on
// newlines, trimmed, with empty lines dropped.
func Lines(reply string) []string {
	var out []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
