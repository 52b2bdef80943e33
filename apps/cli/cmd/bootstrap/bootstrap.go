package bootstrap

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-gym/apps/cli/cmd/clienv"
	"github.com/zenGate-Global/palmyra-gym/platform/go/persistence"
)

// Command applies the embedded DDL. Safe to rerun.
func Command() *cobra.Command {
	var db clienv.DB

	c := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the application schema, tables and triggers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := clienv.SystemContext(cmd.Context())

			conn, err := db.Open(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := persistence.Bootstrap(ctx, conn.Pool, db.Schema); err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			conn.Logger.Info("schema bootstrapped", zap.String("schema", db.Schema))

			fmt.Fprintf(cmd.OutOrStdout(), "Schema %q is up to date.\n", db.Schema)
			return nil
		},
	}

	db.Bind(c)
	return c
}
