package models

// LearnerProfile holds the optional personal fields used to personalize
// reference answers. Every field may be empty.
type LearnerProfile struct {
	Identity     string   `json:"identity,omitempty"`
	AgeGroup     string   `json:"ageGroup,omitempty"`
	City         string   `json:"city,omitempty"`
	CurrentLevel string   `json:"currentLevel,omitempty"`
	TargetScore  string   `json:"targetScore,omitempty"`
	Partner      string   `json:"partner,omitempty"`
	Topic        string   `json:"topic,omitempty"`
	Hobbies      []string `json:"hobbies,omitempty"`
}
