package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	"github.com/zenGate-Global/palmyra-gym/platform/go/entity"
	"github.com/zenGate-Global/palmyra-gym/platform/go/money"
)

// documentTable describes a header table with line items: invoices and POS sales.
type documentTable struct {
	kind       entity.Kind
	itemKind   entity.Kind
	itemTable  string
	itemFK     string
	timeColumn string
	statusExpr string
	prefix     string
}

var (
	invoiceDocument = documentTable{
		kind:       entity.Invoice,
		itemKind:   entity.InvoiceItem,
		itemTable:  "invoice_items",
		itemFK:     "invoice_id",
		timeColumn: "issued_at",
		statusExpr: "status",
		prefix:     "INV",
	}
	saleDocument = documentTable{
		kind:       entity.PosSale,
		itemKind:   entity.PosSaleItem,
		itemTable:  "pos_sale_items",
		itemFK:     "sale_id",
		timeColumn: "sold_at",
		statusExpr: "''",
		prefix:     "POS",
	}
)

// Document is the part shared by invoices and POS sales.
type Document struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	BranchID *uuid.UUID
	MemberID *uuid.UUID
	Number   string
	Currency string
	entity.Totals
	Items []Item
}

// Item is a stored line item.
type Item struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	DocumentID uuid.UUID
	entity.LineItem
	CreatedAt time.Time
}

// CreateDocumentParams is the input for a new invoice or sale.
type CreateDocumentParams struct {
	BranchID      *uuid.UUID
	MemberID      *uuid.UUID
	Number        string
	Currency      string
	DiscountCents int64
	TaxCents      int64
	Items         []entity.LineItem
}

func (d documentTable) columns() string {
	return fmt.Sprintf("id, tenant_id, branch_id, member_id, number, currency, subtotal_cents, discount_cents, tax_cents, total_cents, %s, %s",
		d.statusExpr, d.timeColumn)
}

func documentNumber(prefix string, id uuid.UUID, now time.Time) string {
	hex := strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
	return prefix + "-" + now.Format("20060102") + "-" + hex[24:]
}

func validateDocument(params CreateDocumentParams) (string, error) {
	fields := apperr.FieldErrors{}
	currency, err := money.NormalizeCurrency(params.Currency)
	if err != nil {
		fields.Add("currency", "currency must be a 3-letter ISO code")
	}
	if params.DiscountCents < 0 {
		fields.Add("discount_cents", "must not be negative")
	}
	if params.TaxCents < 0 {
		fields.Add("tax_cents", "must not be negative")
	}
	for i, item := range params.Items {
		if err := entity.ValidateLineItem(item); err != nil {
			fields.Add(fmt.Sprintf("items[%d]", i), err.Error())
		}
	}
	if len(fields) > 0 {
		return "", apperr.Invalid("invalid document", fields)
	}
	return currency, nil
}

// createDocument inserts a header, its items and the derived totals.
func createDocument(ctx context.Context, db *TenantDB, doc documentTable, params CreateDocumentParams) (Document, string, time.Time, error) {
	scope, tenantID, err := requireTenant(ctx)
	if err != nil {
		return Document{}, "", time.Time{}, err
	}
	currency, err := validateDocument(params)
	if err != nil {
		return Document{}, "", time.Time{}, err
	}

	base := entity.Base{BranchID: params.BranchID}
	if err := entity.AssignIdentity(ctx, doc.kind, &base); err != nil {
		return Document{}, "", time.Time{}, err
	}

	now := db.Now()
	number := strings.TrimSpace(params.Number)
	if number == "" {
		number = documentNumber(doc.prefix, base.ID, now)
	}

	var (
		out    Document
		status string
		at     time.Time
	)
	err = db.WithScope(ctx, scope, func(tx pgx.Tx) error {
		if base.BranchID != nil {
			if err := requireBranch(ctx, tx, tenantID, *base.BranchID); err != nil {
				return err
			}
		}

		_, err := tx.Exec(ctx, fmt.Sprintf(`
            INSERT INTO %s (id, tenant_id, branch_id, member_id, number, currency, discount_cents, tax_cents, %s)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        `, doc.kind.Table, doc.timeColumn),
			base.ID, base.TenantID, base.BranchID, params.MemberID, number, currency,
			params.DiscountCents, params.TaxCents, now,
		)
		if err != nil {
			return err
		}

		for _, item := range params.Items {
			if _, err := insertItem(ctx, tx, doc, tenantID, base.ID, item, now); err != nil {
				return err
			}
		}
		if err := refreshTotals(ctx, tx, doc, tenantID, base.ID); err != nil {
			return err
		}

		out, status, at, err = loadDocument(ctx, tx, doc, ForTenant(tenantID), base.ID)
		return err
	})
	return out, status, at, mapError("create "+strings.ToLower(doc.kind.Name), doc.kind.Name, err)
}

// addDocumentItem appends an item to a document and refreshes its totals.
func addDocumentItem(ctx context.Context, db *TenantDB, doc documentTable, documentID uuid.UUID, item entity.LineItem) (Item, error) {
	scope, tenantID, err := requireTenant(ctx)
	if err != nil {
		return Item{}, err
	}
	if err := entity.ValidateLineItem(item); err != nil {
		return Item{}, err
	}

	var out Item
	err = db.WithScope(ctx, scope, func(tx pgx.Tx) error {
		if err := lockDocument(ctx, tx, doc, tenantID, documentID); err != nil {
			return err
		}
		var err error
		out, err = insertItem(ctx, tx, doc, tenantID, documentID, item, db.Now())
		if err != nil {
			return err
		}
		return refreshTotals(ctx, tx, doc, tenantID, documentID)
	})
	return out, mapError("add item", doc.itemKind.Name, err)
}

// updateDocumentItem rewrites an item's quantity, price and description.
func updateDocumentItem(ctx context.Context, db *TenantDB, doc documentTable, documentID, itemID uuid.UUID, item entity.LineItem) (Item, error) {
	scope, tenantID, err := requireTenant(ctx)
	if err != nil {
		return Item{}, err
	}
	if err := entity.ValidateLineItem(item); err != nil {
		return Item{}, err
	}
	item = entity.SyncLineTotal(item)

	var out Item
	err = db.WithScope(ctx, scope, func(tx pgx.Tx) error {
		if err := lockDocument(ctx, tx, doc, tenantID, documentID); err != nil {
			return err
		}

		row := tx.QueryRow(ctx, fmt.Sprintf(`
            UPDATE %s SET description = $1, qty = $2, unit_price_cents = $3, line_total_cents = $4
            WHERE tenant_id = $5 AND %s = $6 AND id = $7
            RETURNING id, tenant_id, %s, description, qty, unit_price_cents, line_total_cents, created_at
        `, doc.itemTable, doc.itemFK, doc.itemFK),
			item.Description, item.Qty, item.UnitPriceCents, item.LineTotalCents, tenantID, documentID, itemID,
		)
		var err error
		out, err = scanItem(row)
		if err != nil {
			return mapError("update item", doc.itemKind.Name, err)
		}
		return refreshTotals(ctx, tx, doc, tenantID, documentID)
	})
	return out, mapError("update item", doc.itemKind.Name, err)
}

func getDocument(ctx context.Context, db *TenantDB, doc documentTable, filter Filter, id uuid.UUID) (Document, string, time.Time, error) {
	var (
		out    Document
		status string
		at     time.Time
	)
	err := db.withContextScope(ctx, func(tx pgx.Tx) error {
		var err error
		out, status, at, err = loadDocument(ctx, tx, doc, filter, id)
		return err
	})
	return out, status, at, mapError("get "+strings.ToLower(doc.kind.Name), doc.kind.Name, err)
}

func lockDocument(ctx context.Context, tx pgx.Tx, doc documentTable, tenantID, id uuid.UUID) error {
	var got uuid.UUID
	err := tx.QueryRow(ctx, fmt.Sprintf(`SELECT id FROM %s WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, doc.kind.Table),
		tenantID, id).Scan(&got)
	if err != nil {
		return mapError("lock "+strings.ToLower(doc.kind.Name), doc.kind.Name, err)
	}
	return nil
}

func insertItem(ctx context.Context, tx pgx.Tx, doc documentTable, tenantID, documentID uuid.UUID, item entity.LineItem, now time.Time) (Item, error) {
	if err := entity.ValidateLineItem(item); err != nil {
		return Item{}, err
	}
	item = entity.SyncLineTotal(item)

	row := tx.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (id, tenant_id, %s, description, qty, unit_price_cents, line_total_cents, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, tenant_id, %s, description, qty, unit_price_cents, line_total_cents, created_at
    `, doc.itemTable, doc.itemFK, doc.itemFK),
		entity.NewID(), tenantID, documentID, strings.TrimSpace(item.Description),
		item.Qty, item.UnitPriceCents, item.LineTotalCents, now,
	)
	return scanItem(row)
}

// refreshTotals recomputes subtotal and total of one document from its stored
// items. A discount larger than subtotal plus tax is refused and the caller's
// transaction rolls back.
func refreshTotals(ctx context.Context, tx pgx.Tx, doc documentTable, tenantID, documentID uuid.UUID) error {
	var total int64
	err := tx.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %[1]s d
        SET subtotal_cents = x.subtotal,
            total_cents = x.subtotal - d.discount_cents + d.tax_cents
        FROM (
            SELECT COALESCE(SUM(line_total_cents), 0)::BIGINT AS subtotal
            FROM %[2]s
            WHERE tenant_id = $1 AND %[3]s = $2
        ) x
        WHERE d.tenant_id = $1 AND d.id = $2
        RETURNING d.total_cents
    `, doc.kind.Table, doc.itemTable, doc.itemFK), tenantID, documentID).Scan(&total)
	if err != nil {
		return fmt.Errorf("refresh %s totals: %w", doc.kind.Table, err)
	}
	if total < 0 {
		return apperr.InvalidField("discount_cents", "must not exceed subtotal plus tax")
	}
	return nil
}

func loadDocument(ctx context.Context, tx pgx.Tx, doc documentTable, filter Filter, id uuid.UUID) (Document, string, time.Time, error) {
	var args Args
	where := filter.Clause(doc.kind, "", &args)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s AND id = %s`, doc.columns(), doc.kind.Table, where, args.Add(id))

	var (
		d      Document
		status string
		at     time.Time
	)
	err := tx.QueryRow(ctx, query, args.Values()...).Scan(
		&d.ID, &d.TenantID, &d.BranchID, &d.MemberID, &d.Number, &d.Currency,
		&d.SubtotalCents, &d.DiscountCents, &d.TaxCents, &d.TotalCents, &status, &at,
	)
	if err != nil {
		return Document{}, "", time.Time{}, mapError("load "+strings.ToLower(doc.kind.Name), doc.kind.Name, err)
	}

	items, err := listItems(ctx, tx, doc, d.TenantID, d.ID)
	if err != nil {
		return Document{}, "", time.Time{}, err
	}
	d.Items = items
	return d, status, at, nil
}

func listItems(ctx context.Context, tx pgx.Tx, doc documentTable, tenantID, documentID uuid.UUID) ([]Item, error) {
	rows, err := tx.Query(ctx, fmt.Sprintf(`
        SELECT id, tenant_id, %[2]s, description, qty, unit_price_cents, line_total_cents, created_at
        FROM %[1]s
        WHERE tenant_id = $1 AND %[2]s = $2
        ORDER BY created_at, id
    `, doc.itemTable, doc.itemFK), tenantID, documentID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", doc.itemTable, err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", doc.itemTable, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.TenantID, &it.DocumentID, &it.Description, &it.Qty, &it.UnitPriceCents, &it.LineTotalCents, &it.CreatedAt)
	return it, err
}
