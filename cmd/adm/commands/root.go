package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the adm command tree
func NewRootCommand(env *Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "adm",
		Short: "DevOps quiz administration tool",
		Long: `DevOps quiz administration tool

Inspect the topic catalog, render and try prompts, manage the completion API
key and look after the optional usage database.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(TopicsCommand(env))
	rootCmd.AddCommand(PromptCommands())
	rootCmd.AddCommand(AskCommand(env))
	rootCmd.AddCommand(SecretCommands(env))
	rootCmd.AddCommand(DatabaseCommands(env))
	rootCmd.AddCommand(VersionCommand())
	return rootCmd
}
