package tts_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whwh2000/translator-robot/internal/cache"
	"github.com/whwh2000/translator-robot/internal/multimodal/tts"
)

func TestOpenAITTSSynthesize(t *testing.T) {
	t.Parallel()

	bodies := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/speech", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies <- body
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3fake-mp3"))
	}))
	t.Cleanup(srv.Close)

	p := tts.NewOpenAITTS(tts.OpenAITTSConfig{APIKey: "sk", BaseURL: srv.URL + "/v1", Voice: "nova"})
	res, err := p.Synthesize(context.Background(), tts.SynthesisRequest{Input: "안녕하세요", Language: "ko"})
	require.NoError(t, err)
	assert.Equal(t, "audio/mpeg", res.ContentType)
	assert.Equal(t, []byte("ID3fake-mp3"), res.Audio)

	body := <-bodies
	assert.Equal(t, "tts-1", body["model"])
	assert.Equal(t, "nova", body["voice"])
	assert.Equal(t, "안녕하세요", body["input"])
	assert.Equal(t, "mp3", body["response_format"])
}

func TestOpenAITTSEmptyInput(t *testing.T) {
	t.Parallel()

	p := tts.NewOpenAITTS(tts.OpenAITTSConfig{APIKey: "sk", BaseURL: "http://127.0.0.1:1"})
	_, err := p.Synthesize(context.Background(), tts.SynthesisRequest{})
	require.ErrorIs(t, err, tts.ErrEmptyInput)
}

const fakePiper = `#!/bin/sh
model=""
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    --model) model="$2"; shift 2 ;;
    --output_file) out="$2"; shift 2 ;;
    *) shift ;;
  esac
done
if [ "$model" = "/m/broken.onnx" ]; then
  echo "cannot load voice" >&2
  exit 1
fi
printf 'RIFF:%s:' "$model" > "$out"
cat >> "$out"
`

func writeFakePiper(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "piper")
	require.NoError(t, os.WriteFile(path, []byte(fakePiper), 0o755))
	return path
}

func TestLocalTTSPicksModelPerLanguage(t *testing.T) {
	t.Parallel()

	bin := writeFakePiper(t)
	p := tts.NewLocalTTS(tts.LocalTTSConfig{
		PiperBinPath: bin,
		ModelPath:    "/m/default.onnx",
		Models:       map[string]string{"ko": "/m/ko.onnx", "sv": "/m/broken.onnx"},
	})

	res, err := p.Synthesize(context.Background(), tts.SynthesisRequest{Input: "안녕", Language: "KO"})
	require.NoError(t, err)
	assert.Equal(t, "audio/wav", res.ContentType)
	assert.Equal(t, "RIFF:/m/ko.onnx:안녕", string(res.Audio))

	res, err = p.Synthesize(context.Background(), tts.SynthesisRequest{Input: "Hej", Language: "da"})
	require.NoError(t, err)
	assert.Equal(t, "RIFF:/m/default.onnx:Hej", string(res.Audio))

	_, err = p.Synthesize(context.Background(), tts.SynthesisRequest{Input: "Hej", Language: "sv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot load voice")
}

func TestLocalTTSNoModel(t *testing.T) {
	t.Parallel()

	p := tts.NewLocalTTS(tts.LocalTTSConfig{Models: map[string]string{"ko": "/m/ko.onnx"}})
	_, err := p.Synthesize(context.Background(), tts.SynthesisRequest{Input: "Hej", Language: "da"})
	require.ErrorIs(t, err, tts.ErrNoVoiceModel)
}

type countingTTS struct {
	calls atomic.Int32
	err   error
}

func (c *countingTTS) Name() string { return "counting" }

func (c *countingTTS) Synthesize(_ context.Context, req tts.SynthesisRequest) (*tts.SynthesisResult, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &tts.SynthesisResult{Audio: []byte("audio:" + req.Language + ":" + req.Input), ContentType: "audio/mpeg"}, nil
}

func TestCachedSynthesizer(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	inner := &countingTTS{}
	c := tts.NewCached(inner, cache.NewCache(rdb, "tts:"), time.Hour)
	ctx := context.Background()
	req := tts.SynthesisRequest{Input: "안녕", Language: "ko"}

	assert.False(t, c.Has(ctx, req))

	first, err := c.Synthesize(ctx, req)
	require.NoError(t, err)
	second, err := c.Synthesize(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), inner.calls.Load())
	assert.True(t, c.Has(ctx, req))

	_, err = c.Synthesize(ctx, tts.SynthesisRequest{Input: "안녕", Language: "ja"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), inner.calls.Load(), "language is part of the key")
}

func TestCachedSynthesizerStoreDown(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	mr.Close()

	inner := &countingTTS{}
	c := tts.NewCached(inner, cache.NewCache(rdb, "tts:"), time.Hour)

	res, err := c.Synthesize(context.Background(), tts.SynthesisRequest{Input: "Hej", Language: "da"})
	require.NoError(t, err, "a broken cache degrades to a direct call")
	assert.Equal(t, "audio:da:Hej", string(res.Audio))
}

func TestCachedSynthesizerDoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	boom := errors.New("quota")
	inner := &countingTTS{err: boom}
	c := tts.NewCached(inner, cache.NewCache(rdb, "tts:"), time.Hour)
	req := tts.SynthesisRequest{Input: "Hej", Language: "da"}

	_, err := c.Synthesize(context.Background(), req)
	require.ErrorIs(t, err, boom)
	assert.False(t, c.Has(context.Background(), req))
	assert.Empty(t, mr.Keys())
}
