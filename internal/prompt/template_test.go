package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whwh2000/translator-robot/internal/language"
)

func TestRender(t *testing.T) {
	t.Parallel()

	out, err := Render("Hi {{name}}, {{name}} again", map[string]string{"name": "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Ana, Ana again", out)

	out, err = Render("{{ name }}!", map[string]string{"name": "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "Ana!", out)

	_, err = Render("{{a}} {{b}} {{b}}", map[string]string{"a": "x"})
	require.ErrorIs(t, err, ErrMissingVariable)
	assert.Equal(t, "missing template variables: b", err.Error())
}

func TestRenderDoesNotExpandValues(t *testing.T) {
	t.Parallel()

	out, err := Render("say '{{input}}'", map[string]string{"input": "{{language}}"})
	require.NoError(t, err)
	assert.Equal(t, "say '{{language}}'", out)
}

func TestExtractVariables(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"input", "language"}, ExtractVariables(LiveTranslation))
	assert.Equal(t, []string{"language", "input"}, ExtractVariables(PracticeChat))
	assert.Empty(t, ExtractVariables(Transcribe))
}

func TestTranslatePrompt(t *testing.T) {
	t.Parallel()

	p, err := TranslatePrompt(language.Swedish, "good morning")
	require.NoError(t, err)
	assert.Equal(t, "Translate into natural Swedish: 'good morning'. Only return the translation.", p)
}

func TestReplyPrompt(t *testing.T) {
	t.Parallel()

	live, err := ReplyPrompt(language.LiveTranslation, language.Korean, "thank you")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(live, "Translate 'thank you' into Korean."))
	assert.Contains(t, live, "'Reply 3: [text]'")

	chat, err := ReplyPrompt(language.PracticeChat, language.Ukrainian, "how are you?")
	require.NoError(t, err)
	assert.Contains(t, chat, "conversation partner in Ukrainian")
	assert.Contains(t, chat, "'Robot: [text]'")
	assert.NotContains(t, chat, "{{")

	_, err = ReplyPrompt(language.Mode("quiz"), language.Korean, "x")
	require.Error(t, err)
}
