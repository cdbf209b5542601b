package tts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/whwh2000/translator-robot/internal/cache"
)

// Store is the subset of cache.Cache the synthesizer needs.
type Store interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Cached memoizes another provider's audio. Store failures fall through to
// the wrapped provider.
type Cached struct {
	next  TTSProvider
	store Store
	ttl   time.Duration
}

func NewCached(next TTSProvider, store Store, ttl time.Duration) *Cached {
	return &Cached{next: next, store: store, ttl: ttl}
}

func (c *Cached) Name() string { return c.next.Name() }

// Key identifies the audio for a request on the wrapped backend.
func (c *Cached) Key(req SynthesisRequest) string {
	h := sha256.New()
	for _, part := range []string{c.next.Name(), req.Language, req.Voice, strconv.FormatFloat(req.Speed, 'f', 2, 64), req.Input} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cached) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	key := c.Key(req)

	var hit SynthesisResult
	err := c.store.Get(ctx, key, &hit)
	if err == nil && len(hit.Audio) > 0 {
		return &hit, nil
	}
	if err != nil && !errors.Is(err, cache.ErrMiss) {
		slog.Warn("audio cache read failed", "error", err)
	}

	res, err := c.next.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, key, res, c.ttl); err != nil {
		slog.Warn("audio cache write failed", "error", err)
	}
	return res, nil
}

// Has reports whether audio for req is already stored.
func (c *Cached) Has(ctx context.Context, req SynthesisRequest) bool {
	var hit SynthesisResult
	return c.store.Get(ctx, c.Key(req), &hit) == nil && len(hit.Audio) > 0
}
