package stt

import "context"

const defaultLocalBaseURL = "http://localhost:8178/v1"

// LocalSTTConfig points at a self-hosted Whisper server that speaks the
// OpenAI transcription API (whisper.cpp server, faster-whisper-server).
type LocalSTTConfig struct {
	BaseURL string
	Model   string
}

type LocalSTT struct {
	remote *OpenAISTT
}

func NewLocalSTT(cfg LocalSTTConfig) *LocalSTT {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultLocalBaseURL
	}
	return &LocalSTT{remote: NewOpenAISTT(OpenAISTTConfig{BaseURL: cfg.BaseURL, Model: cfg.Model})}
}

func (l *LocalSTT) Name() string { return "local-whisper" }

// Transcribe sends only the language hint. Local servers feed the prompt to
// the decoder as prior text, and an instruction sentence there tends to show
// up in transcripts of short clips.
func (l *LocalSTT) Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error) {
	req.Prompt = ""
	return l.remote.Transcribe(ctx, req)
}
