package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

var ErrNoVoiceModel = errors.New("no piper voice model for language")

// LocalTTSConfig holds configuration for the local Piper TTS backend.
type LocalTTSConfig struct {
	PiperBinPath string            // default: "piper"
	ModelPath    string            // used when Models has no entry for the language
	Models       map[string]string // ISO-639-1 code -> .onnx voice model
}

// LocalTTS synthesizes speech using the Piper binary via subprocess.
// Piper voices are single-language, so the model is chosen per request.
type LocalTTS struct {
	cfg LocalTTSConfig
}

// NewLocalTTS creates a LocalTTS backed by a local Piper binary.
func NewLocalTTS(cfg LocalTTSConfig) *LocalTTS {
	if cfg.PiperBinPath == "" {
		cfg.PiperBinPath = "piper"
	}
	return &LocalTTS{cfg: cfg}
}

func (l *LocalTTS) Name() string { return "local-piper" }

func (l *LocalTTS) modelFor(code string) (string, error) {
	if m, ok := l.cfg.Models[strings.ToLower(code)]; ok && m != "" {
		return m, nil
	}
	if l.cfg.ModelPath != "" {
		return l.cfg.ModelPath, nil
	}
	return "", fmt.Errorf("%w %q (set TTS_LOCAL_PIPER_MODELS)", ErrNoVoiceModel, code)
}

// Synthesize pipes text into Piper via stdin and returns the WAV it writes.
func (l *LocalTTS) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	if req.Input == "" {
		return nil, ErrEmptyInput
	}
	model, err := l.modelFor(req.Language)
	if err != nil {
		return nil, err
	}

	out, err := os.CreateTemp("", "piper-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	args := []string{"--model", model, "--output_file", outPath}
	if req.Speed > 0 {
		// Piper's length scale is the inverse of speed.
		args = append(args, "--length_scale", fmt.Sprintf("%.2f", 1/req.Speed))
	}
	cmd := exec.CommandContext(ctx, l.cfg.PiperBinPath, args...)
	cmd.Stdin = strings.NewReader(req.Input)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("piper failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	audio, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read piper output: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("piper produced no audio (stderr: %s)", strings.TrimSpace(stderr.String()))
	}

	return &SynthesisResult{
		Audio:       audio,
		ContentType: "audio/wav",
	}, nil
}
