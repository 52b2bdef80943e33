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

const (
	paymentColumns = "id, tenant_id, invoice_id, amount_cents, currency, method, paid_at"
	refundColumns  = "id, tenant_id, payment_id, amount_cents, currency, reason, refunded_at"
)

type Invoice struct {
	Document
	Status   entity.InvoiceStatus
	IssuedAt time.Time
}

type Payment struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	InvoiceID uuid.UUID
	Amount    money.Money
	Method    string
	PaidAt    time.Time
}

type Refund struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	PaymentID  uuid.UUID
	Amount     money.Money
	Reason     string
	RefundedAt time.Time
}

// InvoiceStore persists invoices, their items, payments and refunds.
// Nothing here deletes a financial row.
type InvoiceStore struct {
	db *TenantDB
}

func NewInvoiceStore(db *TenantDB) *InvoiceStore {
	return &InvoiceStore{db: db}
}

func (s *InvoiceStore) Create(ctx context.Context, params CreateDocumentParams) (Invoice, error) {
	doc, status, at, err := createDocument(ctx, s.db, invoiceDocument, params)
	if err != nil {
		return Invoice{}, err
	}
	return Invoice{Document: doc, Status: entity.InvoiceStatus(status), IssuedAt: at}, nil
}

func (s *InvoiceStore) AddItem(ctx context.Context, invoiceID uuid.UUID, item entity.LineItem) (Item, error) {
	return addDocumentItem(ctx, s.db, invoiceDocument, invoiceID, item)
}

func (s *InvoiceStore) UpdateItem(ctx context.Context, invoiceID, itemID uuid.UUID, item entity.LineItem) (Item, error) {
	return updateDocumentItem(ctx, s.db, invoiceDocument, invoiceID, itemID, item)
}

func (s *InvoiceStore) Get(ctx context.Context, filter Filter, id uuid.UUID) (Invoice, error) {
	doc, status, at, err := getDocument(ctx, s.db, invoiceDocument, filter, id)
	if err != nil {
		return Invoice{}, err
	}
	return Invoice{Document: doc, Status: entity.InvoiceStatus(status), IssuedAt: at}, nil
}

// RecordPayment books amount against an invoice. The invoice row is locked,
// so the balance check sees every payment and refund committed before it.
// An invoice whose net paid amount reaches its total becomes paid.
func (s *InvoiceStore) RecordPayment(ctx context.Context, invoiceID uuid.UUID, amount money.Money, method string) (Payment, error) {
	scope, tenantID, err := requireTenant(ctx)
	if err != nil {
		return Payment{}, err
	}
	if amount.IsZero() {
		return Payment{}, apperr.InvalidField("amount", "must be greater than zero")
	}
	method = strings.TrimSpace(method)
	if method == "" {
		return Payment{}, apperr.InvalidField("method", "is required")
	}

	base := entity.Base{TenantID: tenantID}
	if err := entity.AssignIdentity(ctx, entity.Payment, &base); err != nil {
		return Payment{}, err
	}

	var out Payment
	err = s.db.WithScope(ctx, scope, func(tx pgx.Tx) error {
		inv, err := lockInvoice(ctx, tx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		if inv.currency != amount.Currency() {
			return apperr.InvalidField("currency", "payment currency must match invoice currency "+inv.currency)
		}

		paid, err := netPaid(ctx, tx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		if paid+amount.Amount() > inv.total {
			return apperr.Conflict(entity.Payment.Name, "payment exceeds outstanding balance")
		}

		out, err = scanPayment(tx.QueryRow(ctx, fmt.Sprintf(`
            INSERT INTO payments (id, tenant_id, invoice_id, amount_cents, currency, method, paid_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            RETURNING %s
        `, paymentColumns), base.ID, tenantID, invoiceID, amount.Amount(), amount.Currency(), method, s.db.Now()))
		if err != nil {
			return err
		}
		return setInvoiceStatus(ctx, tx, tenantID, invoiceID, paid+amount.Amount(), inv.total)
	})
	return out, mapError("record payment", entity.Payment.Name, err)
}

// RecordRefund returns part or all of a payment. Refunds of one payment never
// exceed its amount; the invoice goes back to issued once it is no longer fully paid.
func (s *InvoiceStore) RecordRefund(ctx context.Context, paymentID uuid.UUID, amount money.Money, reason string) (Refund, error) {
	scope, tenantID, err := requireTenant(ctx)
	if err != nil {
		return Refund{}, err
	}
	if amount.IsZero() {
		return Refund{}, apperr.InvalidField("amount", "must be greater than zero")
	}

	base := entity.Base{TenantID: tenantID}
	if err := entity.AssignIdentity(ctx, entity.Refund, &base); err != nil {
		return Refund{}, err
	}

	var out Refund
	err = s.db.WithScope(ctx, scope, func(tx pgx.Tx) error {
		payment, err := scanPayment(tx.QueryRow(ctx,
			fmt.Sprintf(`SELECT %s FROM payments WHERE tenant_id = $1 AND id = $2`, paymentColumns), tenantID, paymentID))
		if err != nil {
			return mapError("load payment", entity.Payment.Name, err)
		}

		inv, err := lockInvoice(ctx, tx, tenantID, payment.InvoiceID)
		if err != nil {
			return err
		}
		if payment.Amount.Currency() != amount.Currency() {
			return apperr.InvalidField("currency", "refund currency must match payment currency "+payment.Amount.Currency())
		}

		var refunded int64
		err = tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount_cents), 0)::BIGINT FROM refunds WHERE tenant_id = $1 AND payment_id = $2`,
			tenantID, paymentID).Scan(&refunded)
		if err != nil {
			return fmt.Errorf("sum refunds: %w", err)
		}
		if refunded+amount.Amount() > payment.Amount.Amount() {
			return apperr.Conflict(entity.Refund.Name, "refund exceeds payment")
		}

		out, err = scanRefund(tx.QueryRow(ctx, fmt.Sprintf(`
            INSERT INTO refunds (id, tenant_id, payment_id, amount_cents, currency, reason, refunded_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            RETURNING %s
        `, refundColumns), base.ID, tenantID, paymentID, amount.Amount(), amount.Currency(), strings.TrimSpace(reason), s.db.Now()))
		if err != nil {
			return err
		}

		paid, err := netPaid(ctx, tx, tenantID, payment.InvoiceID)
		if err != nil {
			return err
		}
		return setInvoiceStatus(ctx, tx, tenantID, payment.InvoiceID, paid, inv.total)
	})
	return out, mapError("record refund", entity.Refund.Name, err)
}

// ListPayments returns an invoice's payments in the order they were made.
func (s *InvoiceStore) ListPayments(ctx context.Context, filter Filter, invoiceID uuid.UUID) ([]Payment, error) {
	out := []Payment{}
	err := s.db.withContextScope(ctx, func(tx pgx.Tx) error {
		var args Args
		where := filter.Clause(entity.Payment, "", &args)
		rows, err := tx.Query(ctx, fmt.Sprintf(`SELECT %s FROM payments WHERE %s AND invoice_id = %s ORDER BY paid_at, id`,
			paymentColumns, where, args.Add(invoiceID)), args.Values()...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanPayment(rows)
			if err != nil {
				return fmt.Errorf("scan payment: %w", err)
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	return out, mapError("list payments", entity.Payment.Name, err)
}

type lockedInvoice struct {
	currency string
	total    int64
}

func lockInvoice(ctx context.Context, tx pgx.Tx, tenantID, id uuid.UUID) (lockedInvoice, error) {
	var inv lockedInvoice
	err := tx.QueryRow(ctx, `SELECT currency, total_cents FROM invoices WHERE tenant_id = $1 AND id = $2 FOR UPDATE`,
		tenantID, id).Scan(&inv.currency, &inv.total)
	if err != nil {
		return lockedInvoice{}, mapError("lock invoice", entity.Invoice.Name, err)
	}
	return inv, nil
}

// netPaid is the sum of an invoice's payments minus their refunds.
func netPaid(ctx context.Context, tx pgx.Tx, tenantID, invoiceID uuid.UUID) (int64, error) {
	var paid int64
	err := tx.QueryRow(ctx, `
        SELECT COALESCE(SUM(p.amount_cents), 0)::BIGINT
             - COALESCE((SELECT SUM(r.amount_cents)
                         FROM refunds r
                         JOIN payments rp ON rp.tenant_id = r.tenant_id AND rp.id = r.payment_id
                         WHERE r.tenant_id = $1 AND rp.invoice_id = $2), 0)::BIGINT
        FROM payments p
        WHERE p.tenant_id = $1 AND p.invoice_id = $2
    `, tenantID, invoiceID).Scan(&paid)
	if err != nil {
		return 0, fmt.Errorf("net paid: %w", err)
	}
	return paid, nil
}

func setInvoiceStatus(ctx context.Context, tx pgx.Tx, tenantID, invoiceID uuid.UUID, paid, total int64) error {
	status := entity.InvoiceIssued
	if total > 0 && paid >= total {
		status = entity.InvoicePaid
	}
	_, err := tx.Exec(ctx, `UPDATE invoices SET status = $1 WHERE tenant_id = $2 AND id = $3 AND status <> $1`,
		string(status), tenantID, invoiceID)
	if err != nil {
		return fmt.Errorf("set invoice status: %w", err)
	}
	return nil
}

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	var amount int64
	var currency string
	if err := row.Scan(&p.ID, &p.TenantID, &p.InvoiceID, &amount, &currency, &p.Method, &p.PaidAt); err != nil {
		return Payment{}, err
	}
	m, err := money.New(amount, currency)
	if err != nil {
		return Payment{}, fmt.Errorf("payment %s amount: %w", p.ID, err)
	}
	p.Amount = m
	return p, nil
}

func scanRefund(row pgx.Row) (Refund, error) {
	var r Refund
	var amount int64
	var currency string
	if err := row.Scan(&r.ID, &r.TenantID, &r.PaymentID, &amount, &currency, &r.Reason, &r.RefundedAt); err != nil {
		return Refund{}, err
	}
	m, err := money.New(amount, currency)
	if err != nil {
		return Refund{}, fmt.Errorf("refund %s amount: %w", r.ID, err)
	}
	r.Amount = m
	return r, nil
}
