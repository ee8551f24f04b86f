package commands

import (
	"context"
	"fmt"

	"devopsquiz/internal/di"
	"devopsquiz/internal/models"
	"devopsquiz/internal/services"
	contextutils "devopsquiz/internal/utils"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// AskCommand generates one question from the terminal and optionally
// evaluates an answer to it
func AskCommand(env *Env) *cobra.Command {
	var category, subject, answer string
	var difficulty int

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Generate an interview question",
		Long: `Generate an interview question for a category and subject using the
configured completion API. With --answer the answer is evaluated as well.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := contextutils.WithSessionHash(cmd.Context(), contextutils.HashIdentifier("adm-"+uuid.NewString()))

			container := di.NewServiceContainer(env.Config, env.Logger, env.containerOptions()...)
			if err := container.Initialize(ctx); err != nil {
				return err
			}
			defer func() {
				if err := container.Shutdown(context.WithoutCancel(ctx)); err != nil {
					env.Logger.Warn(ctx, "Failed to shut down services", map[string]interface{}{"error": err.Error()})
				}
			}()

			quizService, err := container.GetQuizService()
			if err != nil {
				return err
			}

			state := &models.QuizState{}
			quizService.ApplySelection(state, services.Selection{
				Category:   &category,
				Subject:    &subject,
				Difficulty: ptr(difficultyArg(difficulty)),
			})
			if !state.ReadyToGenerate() {
				return contextutils.WrapErrorf(contextutils.ErrInvalidInput,
					"unknown category %q, subject %q or difficulty %d", category, subject, difficulty)
			}

			if err := quizService.GenerateQuestion(ctx, state); err != nil {
				return err
			}
			label, _ := models.DifficultyLabel(state.Difficulty)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Keyword: %s (%s)\n\n%s\n", state.Keyword, label, state.Question)

			if answer == "" {
				return nil
			}
			evaluation, err := quizService.SubmitAnswer(ctx, state, answer)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%s\n", evaluation.Text)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Topic category")
	cmd.Flags().StringVar(&subject, "subject", "", "Subject within the category")
	cmd.Flags().IntVar(&difficulty, "difficulty", 1, "Difficulty 1 (basic) to 3 (advanced)")
	cmd.Flags().StringVar(&answer, "answer", "", "Optional answer to evaluate")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func (e *Env) containerOptions() []di.Option {
	return append([]di.Option{di.WithResolver(e.Resolver)}, e.ContainerOptions...)
}

func ptr(s string) *string { return &s }
