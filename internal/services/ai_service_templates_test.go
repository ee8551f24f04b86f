package services

import (
	"testing"

	"devopsquiz/internal/models"
	contextutils "devopsquiz/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionPrompt_Verbatim(t *testing.T) {
	tm, err := NewAITemplateManager()
	require.NoError(t, err)

	tests := []struct {
		difficulty string
		expected   string
	}{
		{
			difficulty: models.DifficultyBasic,
			expected: "You are a DevOps interviewer. Create a short basic question on \"Containers\" in relation to \"cgroups\".\n" +
				"- 1 sentence (≤25 words), answer ≤3 sentences.\n" +
				"- Ask only 1 question. No answer.",
		},
		{
			difficulty: models.DifficultyIntermediate,
			expected: "You are a DevOps interviewer. Create a short intermediate question on \"Containers\" in relation to \"cgroups\"\n" +
				"- 1 sentence (≤25 words), answer ≤3 sentences.\n" +
				"- Ask only 1 question. No answer.",
		},
		{
			difficulty: models.DifficultyAdvanced,
			expected: "You are a DevOps interviewer. Create a short advanced and creative question on \"Containers\" in relation to \"cgroups\"\n" +
				"- 1 sentence (≤25 words), answer ≤3 sentences.\n" +
				"- Ask only 1 question. No answer.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.difficulty, func(t *testing.T) {
			prompt, err := tm.QuestionPrompt("Containers", "cgroups", tt.difficulty)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, prompt)
		})
	}
}

func TestQuestionPrompt_InvalidDifficulty(t *testing.T) {
	tm, err := NewAITemplateManager()
	require.NoError(t, err)

	for _, d := range []string{"", "0", "4", "basic"} {
		_, err := tm.QuestionPrompt("Containers", "cgroups", d)
		require.Error(t, err, d)
		assert.Equal(t, contextutils.ErrorCodeInvalidInput, contextutils.GetErrorCode(err))
	}
}

func TestEvaluationPrompt_Verbatim(t *testing.T) {
	tm, err := NewAITemplateManager()
	require.NoError(t, err)

	prompt, err := tm.EvaluationPrompt("What is a pod?", "A group of containers", models.DifficultyIntermediate)
	require.NoError(t, err)

	expected := "\nYou are a DevOps teacher.\n" +
		"I will give you an interview question and the user's answer.\n" +
		"The candidate's answer should be breif, ≤3 sentences.\n" +
		"\n" +
		"The question difficulty: intermediate level\n" +
		"Q: \"What is a pod?\"\n" +
		"A: \"A group of containers\"\n" +
		"\n" +
		"Tasks:\n" +
		"1. Score 1-10 (10 = excellent).\n" +
		"2. Feedback:\n" +
		"   - 9-10: brief praise.\n" +
		"   - 6-8: what is missing,\n" +
		"   - ≤5: main gap + what to study.\n" +
		"3. ignore grammer - focus on the core purpose of the answer.\n" +
		"4. review based on the question difficulty.\n" +
		"\n" +
		"Format:\n" +
		"Your score: <number>/10\n" +
		"feedback: <text>\n"
	assert.Equal(t, expected, prompt)
}

func TestEvaluationPrompt_DoesNotEscape(t *testing.T) {
	tm, err := NewAITemplateManager()
	require.NoError(t, err)

	prompt, err := tm.EvaluationPrompt(`Why "<pipe>" & 'quotes'?`, `a < b && c > d`, models.DifficultyBasic)
	require.NoError(t, err)
	assert.Contains(t, prompt, `Q: "Why "<pipe>" & 'quotes'?"`)
	assert.Contains(t, prompt, `A: "a < b && c > d"`)
	assert.Contains(t, prompt, "The question difficulty: basic level")
}
