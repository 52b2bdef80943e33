package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/zenGate-Global/palmyra-gym/platform/go/tenant"
)

// ReconcileReport counts the rows a reconciliation pass rewrote.
type ReconcileReport struct {
	ItemsFixed    int64
	InvoicesFixed int64
	SalesFixed    int64
}

// Reconciler recomputes stored line totals and document aggregates.
type Reconciler struct {
	db *TenantDB
}

func NewReconciler(db *TenantDB) *Reconciler {
	return &Reconciler{db: db}
}

// Run brings every line total and header aggregate visible through filter back
// in line with qty * unit price, in one transaction. Only rows that drifted are
// written, so a second run reports zero.
func (r *Reconciler) Run(ctx context.Context, filter Filter) (ReconcileReport, error) {
	scope := tenant.Scope{}
	if id, ok := filter.Tenant(); ok {
		scope = tenant.ForTenant(id)
	}

	var report ReconcileReport
	err := r.db.WithScope(ctx, scope, func(tx pgx.Tx) error {
		for _, doc := range []documentTable{invoiceDocument, saleDocument} {
			items, err := reconcileItems(ctx, tx, doc, filter)
			if err != nil {
				return err
			}
			report.ItemsFixed += items

			headers, err := reconcileHeaders(ctx, tx, doc, filter)
			if err != nil {
				return err
			}
			if doc.kind == invoiceDocument.kind {
				report.InvoicesFixed = headers
			} else {
				report.SalesFixed = headers
			}
		}
		return nil
	})
	if err != nil {
		return ReconcileReport{}, mapError("reconcile totals", "", err)
	}
	return report, nil
}

func reconcileItems(ctx context.Context, tx pgx.Tx, doc documentTable, filter Filter) (int64, error) {
	var args Args
	where := filter.Clause(doc.kind, "d", &args)
	query := fmt.Sprintf(`
        UPDATE %[1]s i
        SET line_total_cents = i.qty * i.unit_price_cents
        FROM %[2]s d
        WHERE d.tenant_id = i.tenant_id AND d.id = i.%[3]s
          AND %[4]s
          AND i.line_total_cents <> i.qty * i.unit_price_cents
    `, doc.itemTable, doc.kind.Table, doc.itemFK, where)

	tag, err := tx.Exec(ctx, query, args.Values()...)
	if err != nil {
		return 0, fmt.Errorf("reconcile %s: %w", doc.itemTable, err)
	}
	return tag.RowsAffected(), nil
}

func reconcileHeaders(ctx context.Context, tx pgx.Tx, doc documentTable, filter Filter) (int64, error) {
	var args Args
	where := filter.Clause(doc.kind, "d", &args)
	query := fmt.Sprintf(`
        UPDATE %[1]s d
        SET subtotal_cents = x.subtotal,
            total_cents = x.subtotal - d.discount_cents + d.tax_cents
        FROM (
            SELECT h.tenant_id, h.id, COALESCE(SUM(i.line_total_cents), 0)::BIGINT AS subtotal
            FROM %[1]s h
            LEFT JOIN %[2]s i ON i.tenant_id = h.tenant_id AND i.%[3]s = h.id
            GROUP BY h.tenant_id, h.id
        ) x
        WHERE x.tenant_id = d.tenant_id AND x.id = d.id
          AND %[4]s
          AND (d.subtotal_cents <> x.subtotal OR d.total_cents <> x.subtotal - d.discount_cents + d.tax_cents)
    `, doc.kind.Table, doc.itemTable, doc.itemFK, where)

	tag, err := tx.Exec(ctx, query, args.Values()...)
	if err != nil {
		return 0, fmt.Errorf("reconcile %s: %w", doc.kind.Table, err)
	}
	return tag.RowsAffected(), nil
}
