package commands

import (
	"fmt"

	"devopsquiz/internal/services"

	"github.com/spf13/cobra"
)

// PromptCommands renders the prompts sent to the completion API without calling it
func PromptCommands() *cobra.Command {
	promptCmd := &cobra.Command{
		Use:   "prompt",
		Short: "Render a prompt without calling the API",
		Long: `Render a prompt without calling the API.

Available commands:
  question  - Render the question generation prompt
  evaluate  - Render the answer evaluation prompt`,
	}

	promptCmd.AddCommand(promptQuestionCmd())
	promptCmd.AddCommand(promptEvaluateCmd())
	return promptCmd
}

func promptQuestionCmd() *cobra.Command {
	var category, keyword string
	var difficulty int

	cmd := &cobra.Command{
		Use:   "question",
		Short: "Render the question generation prompt",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tm, err := services.NewAITemplateManager()
			if err != nil {
				return err
			}
			prompt, err := tm.QuestionPrompt(category, keyword, difficultyArg(difficulty))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), prompt)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Topic category")
	cmd.Flags().StringVar(&keyword, "keyword", "", "Keyword the question is about")
	cmd.Flags().IntVar(&difficulty, "difficulty", 1, "Difficulty 1 (basic) to 3 (advanced)")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("keyword")
	return cmd
}

func promptEvaluateCmd() *cobra.Command {
	var question, answer string
	var difficulty int

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Render the answer evaluation prompt",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tm, err := services.NewAITemplateManager()
			if err != nil {
				return err
			}
			prompt, err := tm.EvaluationPrompt(question, answer, difficultyArg(difficulty))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), prompt)
			return nil
		},
	}
	cmd.Flags().StringVar(&question, "question", "", "Question text")
	cmd.Flags().StringVar(&answer, "answer", "", "Candidate answer")
	cmd.Flags().IntVar(&difficulty, "difficulty", 1, "Difficulty 1 (basic) to 3 (advanced)")
	_ = cmd.MarkFlagRequired("question")
	_ = cmd.MarkFlagRequired("answer")
	return cmd
}
