package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountTokens(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "   ", 0},
		{"single word", "hello", 1},
		{"english", "how are you today", 5},
		{"hangul", "안녕하세요", 5},
		{"mixed", "Formal: 안녕", 3},
		{"cyrillic", "добрый день", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CountTokens(tt.in))
		})
	}
}

func TestCountMessages(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, CountMessages())
	assert.Equal(t, 5+9, CountMessages("hello", "how are you today"))
}
