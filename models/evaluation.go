package models

// Pronunciation verdict statuses.
const (
	PronunciationCorrect       = "correct"
	PronunciationMispronounced = "mispronounced"
	PronunciationMissing       = "missing"
)

// EvaluationRequest carries one spoken answer through the critique pipeline.
type EvaluationRequest struct {
	Audio       []byte
	Question    string
	TargetLevel string
	Part        string // P1, P2 or P3
	AnchorWords []string
}

// PronunciationVerdict is the per-anchor-word feedback produced by the
// pronunciation stage.
type PronunciationVerdict struct {
	Word         string `json:"word"`
	Status       string `json:"status"`
	RecognizedAs string `json:"recognized_as,omitempty"`
	IPA          string `json:"ipa"`
	Hint         string `json:"hint"`
}

// DetectedError is one correction entry surfaced by the consolidation stage.
type DetectedError struct {
	Type        string `json:"type"` // grammar, lexical, pronunciation or fluency
	Original    string `json:"original"`
	Correction  string `json:"correction"`
	Explanation string `json:"explanation"`
}

// EvaluationResult is the aggregate report returned to the caller. It is
// assembled once per request and never mutated after return.
type EvaluationResult struct {
	Transcription         string                 `json:"transcription"`
	Scores                map[string]float64     `json:"scores"`
	Feedback              string                 `json:"feedback"`
	XPReward              int                    `json:"xpReward"`
	PronunciationFeedback []PronunciationVerdict `json:"pronunciation_feedback"`
	DetectedErrors        []DetectedError        `json:"detected_errors"`
	AgentThoughts         []string               `json:"agent_thoughts"`
}
