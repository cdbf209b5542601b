package stt_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whwh2000/translator-robot/internal/multimodal/stt"
)

type capturedUpload struct {
	fields   map[string]string
	filename string
	audio    []byte
	auth     string
}

func whisperServer(t *testing.T) (*httptest.Server, <-chan capturedUpload) {
	t.Helper()

	uploads := make(chan capturedUpload, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/audio/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		up := capturedUpload{fields: map[string]string{}, auth: r.Header.Get("Authorization")}
		for k, v := range r.MultipartForm.Value {
			up.fields[k] = v[0]
		}
		f, hdr, err := r.FormFile("file")
		if assert.NoError(t, err) {
			up.filename = hdr.Filename
			up.audio, _ = io.ReadAll(f)
			f.Close()
		}
		uploads <- up

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"task": "transcribe", "language": "english", "duration": 1.5, "text": "  Where is the station?  "}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, uploads
}

func TestOpenAISTTTranscribe(t *testing.T) {
	t.Parallel()

	srv, uploads := whisperServer(t)
	p := stt.NewOpenAISTT(stt.OpenAISTTConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})

	resp, err := p.Transcribe(context.Background(), stt.TranscriptionRequest{
		Audio:       []byte("RIFF....WAVE"),
		ContentType: "audio/webm;codecs=opus",
		Language:    "en",
		Prompt:      "Transcribe this audio into English text.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Where is the station?", resp.Text)
	assert.InDelta(t, 1.5, resp.Duration, 1e-9)

	up := <-uploads
	assert.Equal(t, "Bearer sk-test", up.auth)
	assert.Equal(t, "whisper-1", up.fields["model"])
	assert.Equal(t, "en", up.fields["language"])
	assert.Equal(t, "Transcribe this audio into English text.", up.fields["prompt"])
	assert.Equal(t, "verbose_json", up.fields["response_format"])
	assert.Equal(t, "audio.webm", up.filename)
	assert.Equal(t, []byte("RIFF....WAVE"), up.audio)
}

func TestLocalSTTUsesLocalServer(t *testing.T) {
	t.Parallel()

	srv, uploads := whisperServer(t)
	p := stt.NewLocalSTT(stt.LocalSTTConfig{BaseURL: srv.URL + "/v1"})
	assert.Equal(t, "local-whisper", p.Name())

	resp, err := p.Transcribe(context.Background(), stt.TranscriptionRequest{
		Audio:       []byte{1, 2, 3},
		ContentType: "audio/wav",
		Language:    "en",
		Prompt:      "Transcribe this audio into English text.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Where is the station?", resp.Text)

	up := <-uploads
	assert.Equal(t, "audio.wav", up.filename)
	assert.Equal(t, "en", up.fields["language"])
	assert.NotContains(t, up.fields, "prompt", "local servers get no instruction prompt")
}

func TestTranscribeEmptyAudio(t *testing.T) {
	t.Parallel()

	p := stt.NewOpenAISTT(stt.OpenAISTTConfig{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	_, err := p.Transcribe(context.Background(), stt.TranscriptionRequest{})
	require.ErrorIs(t, err, stt.ErrEmptyAudio)
}

func TestFilename(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"audio/mpeg":               "audio.mp3",
		"audio/webm;codecs=opus":   "audio.webm",
		"AUDIO/OGG":                "audio.ogg",
		"":                         "audio.wav",
		"application/octet-stream": "audio.wav",
	}
	for in, want := range tests {
		assert.Equal(t, want, stt.Filename(in), in)
	}
}
