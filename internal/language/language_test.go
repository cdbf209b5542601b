package language_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whwh2000/translator-robot/internal/language"
)

func TestAllOrderAndCodes(t *testing.T) {
	t.Parallel()

	got := language.All()
	require.Len(t, got, 6)

	var names, codes []string
	for _, l := range got {
		names = append(names, l.Name)
		codes = append(codes, l.Code)
	}
	assert.Equal(t, []string{"Korean", "Japanese", "Danish", "Swedish", "Russian", "Ukrainian"}, names)
	assert.Equal(t, []string{"ko", "ja", "da", "sv", "ru", "uk"}, codes)

	got[0].Name = "mutated"
	assert.Equal(t, "Korean", language.All()[0].Name, "All returns a copy")
}

func TestScriptFilterSet(t *testing.T) {
	t.Parallel()

	for _, l := range language.All() {
		want := l.Code == "ko" || l.Code == "ja" || l.Code == "ru" || l.Code == "uk"
		assert.Equal(t, want, l.ScriptFilter, l.Name)
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Korean", "ko", true},
		{"korean", "ko", true},
		{"JA", "ja", true},
		{" Swedish ", "sv", true},
		{"uk", "uk", true},
		{"French", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		l, ok := language.Lookup(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, l.Code, tt.in)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	l, err := language.Parse("")
	require.NoError(t, err)
	assert.Equal(t, language.Korean, l)

	_, err = language.Parse("Klingon")
	require.ErrorIs(t, err, language.ErrUnknownLanguage)
}

func TestCodeForFallback(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "da", language.CodeFor("Danish"))
	assert.Equal(t, language.FallbackCode, language.CodeFor("Esperanto"))
	assert.Equal(t, "en", language.CodeFor(""))
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    language.Mode
		wantErr bool
	}{
		{"", language.LiveTranslation, false},
		{"Live Translation", language.LiveTranslation, false},
		{"practice chat", language.PracticeChat, false},
		{"practice_chat", language.PracticeChat, false},
		{"quiz", "", true},
	}
	for _, tt := range tests {
		got, err := language.ParseMode(tt.in)
		if tt.wantErr {
			require.ErrorIs(t, err, language.ErrUnknownMode, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.True(t, got.Valid())
	}
	assert.Equal(t, "Practice Chat", language.PracticeChat.DisplayName())
}
