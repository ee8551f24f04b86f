package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// TopicsCommand lists categories, the subjects of a category or the keywords
// of a subject
func TopicsCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "topics [category [subject]]",
		Short: "List the topic catalog",
		Long: `List the topic catalog.

Without arguments the categories are listed, with a category its subjects and
with a category and a subject the keywords questions are drawn from.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := env.loadCatalog()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			switch len(args) {
			case 0:
				for _, name := range cat.Categories() {
					subjects, _ := cat.Subjects(name)
					fmt.Fprintf(out, "%-28s %d subjects\n", name, len(subjects))
				}
			case 1:
				subjects, err := cat.Subjects(args[0])
				if err != nil {
					return err
				}
				for _, name := range subjects {
					fmt.Fprintln(out, name)
				}
			default:
				keywords, err := cat.Keywords(args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, strings.Join(keywords, "\n"))
			}
			return nil
		},
	}
}
