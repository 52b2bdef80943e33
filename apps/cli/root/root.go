package root

import (
	"context"

	"github.com/spf13/cobra"
)

// rootCmd is the base command for the gym admin CLI. Subcommands are attached in wire.go.
var rootCmd = &cobra.Command{
	Use:           "gymctl",
	Short:         "Gym platform admin CLI",
	Long:          "Administrative utilities for the gym platform: schema bootstrap, tenant and branch setup, totals reconciliation and dev tokens.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI; ctx is cancelled on SIGINT/SIGTERM and reaches every
// subcommand through cmd.Context().
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
