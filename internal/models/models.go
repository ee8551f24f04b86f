// Package models defines data structures used throughout the quiz application.
package models

import "strings"

// Session keys under which QuizState fields are stored
const (
	KeySelectedCategory = "selected_category"
	KeySelectedSubject  = "selected_subject"
	KeyDifficulty       = "difficulty"
	KeyKeyword          = "keyword"
	KeyQuestion         = "question"
	KeyAnswer           = "answer"
	KeyFeedback         = "feedback"
	KeyQuestionID       = "question_id"
)

// SessionKeys lists every key a QuizState owns
var SessionKeys = []string{
	KeySelectedCategory,
	KeySelectedSubject,
	KeyDifficulty,
	KeyKeyword,
	KeyQuestion,
	KeyAnswer,
	KeyFeedback,
	KeyQuestionID,
}

// QuizState is the per-browser quiz progress. The zero value is an empty session.
// Empty strings mean "unset".
type QuizState struct {
	Category   string `json:"selected_category,omitempty"`
	Subject    string `json:"selected_subject,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Keyword    string `json:"keyword,omitempty"`
	Question   string `json:"question,omitempty"`
	Answer     string `json:"answer,omitempty"`
	Feedback   string `json:"feedback,omitempty"`
	QuestionID string `json:"question_id,omitempty"`
}

// SelectCategory sets the category; switching to a different category clears the subject
func (s *QuizState) SelectCategory(category string) {
	category = strings.TrimSpace(category)
	if category != s.Category {
		s.Subject = ""
	}
	s.Category = category
}

// SelectSubject sets or clears the subject
func (s *QuizState) SelectSubject(subject string) {
	s.Subject = strings.TrimSpace(subject)
}

// SelectDifficulty sets or clears the difficulty
func (s *QuizState) SelectDifficulty(difficulty string) {
	s.Difficulty = strings.TrimSpace(difficulty)
}

// ResetAll clears every field
func (s *QuizState) ResetAll() {
	*s = QuizState{}
}

// ResetQuestion drops the active question and everything derived from it,
// keeping the selection
func (s *QuizState) ResetQuestion() {
	s.Keyword = ""
	s.Question = ""
	s.Answer = ""
	s.Feedback = ""
	s.QuestionID = ""
}

// SetQuestion makes question the active one, replacing any previous question
func (s *QuizState) SetQuestion(id, keyword, question string) {
	s.ResetQuestion()
	s.QuestionID = id
	s.Keyword = keyword
	s.Question = question
}

// RecordEvaluation stores the submitted answer and the feedback it received
func (s *QuizState) RecordEvaluation(answer, feedback string) {
	s.Answer = answer
	s.Feedback = feedback
}

// HasQuestion reports whether a question is active
func (s *QuizState) HasQuestion() bool {
	return s.Question != ""
}

// ReadyToGenerate reports whether category, subject and difficulty are all chosen
func (s *QuizState) ReadyToGenerate() bool {
	return s.Category != "" && s.Subject != "" && s.Difficulty != ""
}

// TakeFeedback returns the feedback and clears it
func (s *QuizState) TakeFeedback() string {
	f := s.Feedback
	s.Feedback = ""
	return f
}

// Difficulty levels
const (
	DifficultyBasic        = "1"
	DifficultyIntermediate = "2"
	DifficultyAdvanced     = "3"
)

var difficultyLabels = map[string]string{
	DifficultyBasic:        "basic level",
	DifficultyIntermediate: "intermediate level",
	DifficultyAdvanced:     "advanced level",
}

// DifficultyLabel returns the human label used in evaluation prompts
func DifficultyLabel(difficulty string) (string, bool) {
	label, ok := difficultyLabels[difficulty]
	return label, ok
}

// DifficultyOption is one entry of the difficulty selector
type DifficultyOption struct {
	Value string
	Label string
}

// DifficultyOptions lists the selectable difficulties in order
func DifficultyOptions() []DifficultyOption {
	return []DifficultyOption{
		{Value: DifficultyBasic, Label: "Basic"},
		{Value: DifficultyIntermediate, Label: "Intermediate"},
		{Value: DifficultyAdvanced, Label: "Advanced"},
	}
}
