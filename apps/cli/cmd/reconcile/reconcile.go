package reconcile

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-gym/apps/cli/cmd/clienv"
	"github.com/zenGate-Global/palmyra-gym/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-gym/platform/go/tenant"
)

// Command recomputes stored line totals and document aggregates.
func Command() *cobra.Command {
	var (
		db       clienv.DB
		tenantID string
	)

	c := &cobra.Command{
		Use:   "reconcile-totals",
		Short: "Recompute invoice and POS sale totals from their line items",
		Long:  "Rewrites every line total that differs from qty * unit price and every header aggregate that differs from its items. Without --tenant-id all tenants are processed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := filterFor(tenantID)
			if err != nil {
				return err
			}

			ctx := clienv.SystemContext(cmd.Context())
			conn, err := db.Open(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			report, err := persistence.NewReconciler(conn.TenantDB).Run(ctx, filter)
			if err != nil {
				return fmt.Errorf("reconcile: %w", err)
			}
			conn.Logger.Info("totals reconciled",
				zap.Int64("items", report.ItemsFixed),
				zap.Int64("invoices", report.InvoicesFixed),
				zap.Int64("sales", report.SalesFixed),
			)

			fmt.Fprintf(cmd.OutOrStdout(), "Fixed %d line items, %d invoices, %d sales.\n",
				report.ItemsFixed, report.InvoicesFixed, report.SalesFixed)
			return nil
		},
	}

	db.Bind(c)
	c.Flags().StringVar(&tenantID, "tenant-id", "", "restrict to one tenant")
	return c
}

func filterFor(raw string) (persistence.Filter, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return persistence.Scoped(tenant.Scope{}), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return persistence.Filter{}, fmt.Errorf("invalid --tenant-id: %w", err)
	}
	return persistence.ForTenant(id), nil
}
