// Package services provides embedded templates for AI service prompts
package services

import (
	"embed"
	"strings"
	"text/template"

	"devopsquiz/internal/models"
	contextutils "devopsquiz/internal/utils"
)

//go:embed templates/*.tmpl
var aiTemplatesFS embed.FS

// Template names as constants
const (
	QuestionBasicTemplate        = "question_basic.tmpl"
	QuestionIntermediateTemplate = "question_intermediate.tmpl"
	QuestionAdvancedTemplate     = "question_advanced.tmpl"
	EvaluationTemplate           = "evaluation.tmpl"
)

var questionTemplates = map[string]string{
	models.DifficultyBasic:        QuestionBasicTemplate,
	models.DifficultyIntermediate: QuestionIntermediateTemplate,
	models.DifficultyAdvanced:     QuestionAdvancedTemplate,
}

// AITemplateData holds data for rendering AI prompt templates
type AITemplateData struct {
	// Question generation
	Category string
	Keyword  string

	// Answer evaluation
	Question        string
	Answer          string
	DifficultyLabel string
}

// AITemplateManager manages AI prompt templates
type AITemplateManager struct {
	templates *template.Template
}

// NewAITemplateManager creates a new template manager
func NewAITemplateManager() (result0 *AITemplateManager, err error) {
	templates, err := template.New("").Option("missingkey=error").ParseFS(aiTemplatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}

	return &AITemplateManager{
		templates: templates,
	}, nil
}

// RenderTemplate renders a template with the given data
func (tm *AITemplateManager) RenderTemplate(templateName string, data AITemplateData) (result0 string, err error) {
	var buf strings.Builder
	err = tm.templates.ExecuteTemplate(&buf, templateName, data)
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to render %s: %w", templateName, err)
	}
	return buf.String(), nil
}

// QuestionPrompt renders the question prompt for a difficulty
func (tm *AITemplateManager) QuestionPrompt(category, keyword, difficulty string) (string, error) {
	name, ok := questionTemplates[difficulty]
	if !ok {
		return "", contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown difficulty %q", difficulty)
	}
	return tm.RenderTemplate(name, AITemplateData{Category: category, Keyword: keyword})
}

// EvaluationPrompt renders the evaluation prompt for a difficulty
func (tm *AITemplateManager) EvaluationPrompt(question, answer, difficulty string) (string, error) {
	label, ok := models.DifficultyLabel(difficulty)
	if !ok {
		return "", contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown difficulty %q", difficulty)
	}
	return tm.RenderTemplate(EvaluationTemplate, AITemplateData{
		Question:        question,
		Answer:          answer,
		DifficultyLabel: label,
	})
}
