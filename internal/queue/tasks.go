package queue

const (
	TypeSpeechPrerender = "speech:prerender"
)

// Queue names, matching the weights the worker is started with.
const (
	QueueDefault = "default"
	QueueLow     = "low"
)

// SpeechPrerenderPayload asks the worker to synthesize reply lines into the
// shared audio cache before the user plays them.
type SpeechPrerenderPayload struct {
	SessionID string   `json:"session_id"`
	Language  string   `json:"language"` // ISO-639-1 code
	Lines     []string `json:"lines"`
}
