package commands

import (
	"fmt"

	"devopsquiz/internal/version"

	"github.com/spf13/cobra"
)

// VersionCommand prints build information
func VersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
