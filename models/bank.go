package models

// QARecord is one entry of the speaking question bank. Records are immutable
// once loaded; the full set is cached for the process lifetime.
type QARecord struct {
	ID            string   `json:"id"`
	Topic         string   `json:"topic"`
	Question      string   `json:"question"`
	SampleAnswers []string `json:"sample_answers"`
	Keywords      []string `json:"keywords,omitempty"`
}
