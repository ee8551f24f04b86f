package models

// Evaluation is the structured reading of an answer evaluation. Text is always
// the full completion shown to the user; Score is only meaningful when Scored.
type Evaluation struct {
	Text     string `json:"text"`
	Score    int    `json:"score,omitempty"`
	Scored   bool   `json:"scored"`
	Feedback string `json:"feedback,omitempty"`
}
