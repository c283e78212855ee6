package models

// ChatMessage is a single turn sent to a generation backend.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
