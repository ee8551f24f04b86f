package commands

import (
	"fmt"

	"devopsquiz/internal/secrets"
	contextutils "devopsquiz/internal/utils"

	"github.com/spf13/cobra"
)

// SecretCommands manages the completion API key kept in the parameter store
func SecretCommands(env *Env) *cobra.Command {
	secretCmd := &cobra.Command{
		Use:   "secret",
		Short: "Completion API key commands",
		Long: `Completion API key commands.

Available commands:
  check  - Show where the API key is resolved from
  put    - Store the API key in the parameter store`,
	}

	secretCmd.AddCommand(secretCheckCmd(env))
	secretCmd.AddCommand(secretPutCmd(env))
	return secretCmd
}

func secretCheckCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Show where the API key is resolved from",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolution, err := env.Resolver.ResolveAPIKey(cmd.Context(), env.Config.AI)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Provider: %s\n", env.Config.AI.Provider)
			fmt.Fprintf(out, "Source:   %s\n", resolution.Source)
			if resolution.Source == secrets.SourceParameterStore {
				fmt.Fprintf(out, "Name:     %s\n", resolution.Parameter)
			}
			fmt.Fprintf(out, "Key:      %s\n", resolution.Masked())
			return nil
		},
	}
}

func secretPutCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "put",
		Short: "Store the API key in the parameter store",
		Long: `Store the API key in the parameter store under ai.api_key_parameter.
The key is read from the terminal without echo.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if env.Config.AI.APIKeyParameter == "" {
				return contextutils.WrapError(contextutils.ErrMissingRequired, "ai.api_key_parameter is not configured")
			}

			value, err := env.ReadSecret(fmt.Sprintf("API key for %s: ", env.Config.AI.Provider))
			if err != nil {
				return err
			}
			if err := env.Resolver.PutAPIKey(ctx, env.Config.AI, value); err != nil {
				return err
			}

			env.Logger.Info(ctx, "Stored API key", map[string]interface{}{
				"parameter": env.Config.AI.APIKeyParameter,
				"key":       contextutils.MaskAPIKey(value),
			})
			fmt.Fprintf(cmd.OutOrStdout(), "Stored API key in %s\n", env.Config.AI.APIKeyParameter)
			return nil
		},
	}
}
