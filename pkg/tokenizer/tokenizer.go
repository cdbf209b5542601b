// Package tokenizer estimates token counts for providers that do not
// report usage.
package tokenizer

import (
	"strings"
	"unicode"
)

// CountTokens gives a rough estimate. Latin and Cyrillic words average about
// 4/3 tokens; Han, Kana and Hangul run close to one token per character.
func CountTokens(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	words, cjk := 0, 0
	inWord := false
	for _, r := range text {
		switch {
		case unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul):
			cjk++
			inWord = false
		case unicode.IsSpace(r):
			inWord = false
		default:
			if !inWord {
				words++
				inWord = true
			}
		}
	}
	return max(words*4/3+cjk, 1)
}

// CountMessages estimates the prompt size of a conversation, adding the
// few tokens of per-message framing chat APIs charge.
func CountMessages(contents ...string) int {
	n := 0
	for _, c := range contents {
		n += CountTokens(c) + 4
	}
	return n
}
