package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/recruit-search/internal/shell"
)

func newShellCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive search session",
		Long:  "Start an interactive session. Searches, filters, unlocked contacts and credits carry across commands; type help for the command list.",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withRuntime(root, func(cmd *cobra.Command, args []string, rt *runtime) error {
		sh := shell.New(rt.newStore(), cmd.OutOrStdout(), rt.printer, rt.logger)
		return sh.Run(cmd.Context(), cmd.InOrStdin())
	})
	return cmd
}
