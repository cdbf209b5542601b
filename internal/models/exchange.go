package models

import (
	"time"

	"github.com/google/uuid"
)

// Exchange is one completed submission: the input, its translation, the
// generated reply, and what the two model calls cost.
type Exchange struct {
	ID           uuid.UUID `json:"id" db:"id"`
	SessionID    uuid.UUID `json:"session_id" db:"session_id"`
	Owner        string    `json:"owner,omitempty" db:"owner"`
	Language     string    `json:"language" db:"language"` // ISO-639-1 code
	Mode         string    `json:"mode" db:"mode"`
	Input        string    `json:"input" db:"input"`
	Transcribed  bool      `json:"transcribed" db:"transcribed"`
	Translation  string    `json:"translation" db:"translation"`
	Reply        string    `json:"reply" db:"reply"`
	Provider     string    `json:"provider" db:"provider"`
	Model        string    `json:"model" db:"model"`
	InputTokens  int       `json:"input_tokens" db:"input_tokens"`
	OutputTokens int       `json:"output_tokens" db:"output_tokens"`
	CostUSD      float64   `json:"cost_usd" db:"cost_usd"`
	LatencyMs    int64     `json:"latency_ms" db:"latency_ms"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
