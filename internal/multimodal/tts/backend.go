package tts

import (
	"fmt"

	"github.com/whwh2000/translator-robot/internal/config"
)

// NewFromConfig builds the configured synthesis backend.
func NewFromConfig(cfg config.TTSConfig) (TTSProvider, error) {
	switch cfg.Backend {
	case "", "openai":
		return NewOpenAITTS(OpenAITTSConfig{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Voice:   cfg.Voice,
		}), nil
	case "local":
		return NewLocalTTS(LocalTTSConfig{
			PiperBinPath: cfg.LocalBinPath,
			ModelPath:    cfg.LocalModel,
			Models:       cfg.LocalModels,
		}), nil
	default:
		return nil, fmt.Errorf("unknown tts backend %q", cfg.Backend)
	}
}
