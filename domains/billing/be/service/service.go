package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-gym/domains/billing/be/repo"
	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	"github.com/zenGate-Global/palmyra-gym/platform/go/entity"
	"github.com/zenGate-Global/palmyra-gym/platform/go/metrics"
	"github.com/zenGate-Global/palmyra-gym/platform/go/money"
	"github.com/zenGate-Global/palmyra-gym/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-gym/platform/go/validation"
)

// Document is the shared view of invoices and point-of-sale sales.
type Document struct {
	ID       uuid.UUID
	BranchID *uuid.UUID
	MemberID *uuid.UUID
	Number   string
	Currency string
	entity.Totals
	Items []Item
}

type Item struct {
	ID uuid.UUID
	entity.LineItem
}

type Invoice struct {
	Document
	Status   entity.InvoiceStatus
	IssuedAt time.Time
}

type Sale struct {
	Document
	SoldAt time.Time
}

type Payment struct {
	ID        uuid.UUID
	InvoiceID uuid.UUID
	Amount    money.Money
	Method    string
	PaidAt    time.Time
}

type Refund struct {
	ID         uuid.UUID
	PaymentID  uuid.UUID
	Amount     money.Money
	Reason     string
	RefundedAt time.Time
}

type LineItemInput struct {
	Description    string `json:"description" validate:"required,max=200"`
	Qty            int64  `json:"qty" validate:"gte=1,lte=1000000"`
	UnitPriceCents int64  `json:"unit_price_cents" validate:"gte=0,lte=4611686018427387903"`
}

// DocumentInput creates an invoice or a sale. Number is generated when empty;
// BranchID falls back to the active branch.
type DocumentInput struct {
	BranchID      *uuid.UUID      `json:"branch_id"`
	MemberID      *uuid.UUID      `json:"member_id"`
	Number        string          `json:"number" validate:"max=64"`
	Currency      string          `json:"currency" validate:"required,len=3"`
	DiscountCents int64           `json:"discount_cents" validate:"gte=0"`
	TaxCents      int64           `json:"tax_cents" validate:"gte=0"`
	Items         []LineItemInput `json:"items" validate:"dive"`
}

// PaymentInput carries a major-unit decimal amount, e.g. "25.00".
type PaymentInput struct {
	Amount   string `json:"amount" validate:"required"`
	Currency string `json:"currency" validate:"required,len=3"`
	Method   string `json:"method" validate:"required,oneof=cash card transfer other"`
}

type RefundInput struct {
	Amount   string `json:"amount" validate:"required"`
	Currency string `json:"currency" validate:"required,len=3"`
	Reason   string `json:"reason" validate:"max=500"`
}

// Service defines the invoicing and point-of-sale operations.
type Service interface {
	CreateInvoice(ctx context.Context, input DocumentInput) (Invoice, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (Invoice, error)
	AddInvoiceItem(ctx context.Context, invoiceID uuid.UUID, input LineItemInput) (Item, error)
	UpdateInvoiceItem(ctx context.Context, invoiceID, itemID uuid.UUID, input LineItemInput) (Item, error)
	RecordPayment(ctx context.Context, invoiceID uuid.UUID, input PaymentInput) (Payment, error)
	RecordRefund(ctx context.Context, paymentID uuid.UUID, input RefundInput) (Refund, error)
	ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error)

	CreateSale(ctx context.Context, input DocumentInput) (Sale, error)
	GetSale(ctx context.Context, id uuid.UUID) (Sale, error)
	AddSaleItem(ctx context.Context, saleID uuid.UUID, input LineItemInput) (Item, error)
	UpdateSaleItem(ctx context.Context, saleID, itemID uuid.UUID, input LineItemInput) (Item, error)

	// Delete and Restore always fail for financial kinds.
	Delete(ctx context.Context, kind entity.Kind, id uuid.UUID) error
	Restore(ctx context.Context, kind entity.Kind, id uuid.UUID) error
}

type service struct {
	repo    repo.Repository
	metrics *metrics.Recorder
}

// New constructs a billing Service. rec may be nil.
func New(r repo.Repository, rec *metrics.Recorder) Service {
	if r == nil {
		panic("billing repository is required")
	}
	return &service{repo: r, metrics: rec}
}

func (s *service) CreateInvoice(ctx context.Context, input DocumentInput) (invoice Invoice, err error) {
	defer func() { s.metrics.Operation("invoice_create", err) }()

	params, err := documentParams(input)
	if err != nil {
		return Invoice{}, err
	}
	record, err := s.repo.CreateInvoice(ctx, params)
	if err != nil {
		return Invoice{}, err
	}
	return mapInvoice(record), nil
}

func (s *service) GetInvoice(ctx context.Context, id uuid.UUID) (Invoice, error) {
	record, err := s.repo.GetInvoice(ctx, persistence.ScopedFromContext(ctx), id)
	if err != nil {
		return Invoice{}, err
	}
	return mapInvoice(record), nil
}

func (s *service) AddInvoiceItem(ctx context.Context, invoiceID uuid.UUID, input LineItemInput) (item Item, err error) {
	defer func() { s.metrics.Operation("invoice_item_add", err) }()

	line, err := lineItem(input)
	if err != nil {
		return Item{}, err
	}
	record, err := s.repo.AddInvoiceItem(ctx, invoiceID, line)
	if err != nil {
		return Item{}, err
	}
	return mapItem(record), nil
}

func (s *service) UpdateInvoiceItem(ctx context.Context, invoiceID, itemID uuid.UUID, input LineItemInput) (item Item, err error) {
	defer func() { s.metrics.Operation("invoice_item_update", err) }()

	line, err := lineItem(input)
	if err != nil {
		return Item{}, err
	}
	record, err := s.repo.UpdateInvoiceItem(ctx, invoiceID, itemID, line)
	if err != nil {
		return Item{}, err
	}
	return mapItem(record), nil
}

func (s *service) RecordPayment(ctx context.Context, invoiceID uuid.UUID, input PaymentInput) (payment Payment, err error) {
	defer func() { s.metrics.Operation("payment_record", err) }()

	if err := validation.Struct(input); err != nil {
		return Payment{}, err
	}
	amount, err := money.Parse(input.Amount, input.Currency)
	if err != nil {
		return Payment{}, err
	}

	record, err := s.repo.RecordPayment(ctx, invoiceID, amount, input.Method)
	if err != nil {
		return Payment{}, err
	}
	return mapPayment(record), nil
}

func (s *service) RecordRefund(ctx context.Context, paymentID uuid.UUID, input RefundInput) (refund Refund, err error) {
	defer func() { s.metrics.Operation("refund_record", err) }()

	input.Reason = strings.TrimSpace(input.Reason)
	if err := validation.Struct(input); err != nil {
		return Refund{}, err
	}
	amount, err := money.Parse(input.Amount, input.Currency)
	if err != nil {
		return Refund{}, err
	}

	record, err := s.repo.RecordRefund(ctx, paymentID, amount, input.Reason)
	if err != nil {
		return Refund{}, err
	}
	return Refund{
		ID:         record.ID,
		PaymentID:  record.PaymentID,
		Amount:     record.Amount,
		Reason:     record.Reason,
		RefundedAt: record.RefundedAt,
	}, nil
}

func (s *service) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error) {
	records, err := s.repo.ListPayments(ctx, persistence.ScopedFromContext(ctx), invoiceID)
	if err != nil {
		return nil, err
	}
	payments := make([]Payment, 0, len(records))
	for _, record := range records {
		payments = append(payments, mapPayment(record))
	}
	return payments, nil
}

func (s *service) CreateSale(ctx context.Context, input DocumentInput) (sale Sale, err error) {
	defer func() { s.metrics.Operation("sale_create", err) }()

	params, err := documentParams(input)
	if err != nil {
		return Sale{}, err
	}
	record, err := s.repo.CreateSale(ctx, params)
	if err != nil {
		return Sale{}, err
	}
	return mapSale(record), nil
}

func (s *service) GetSale(ctx context.Context, id uuid.UUID) (Sale, error) {
	record, err := s.repo.GetSale(ctx, persistence.ScopedFromContext(ctx), id)
	if err != nil {
		return Sale{}, err
	}
	return mapSale(record), nil
}

func (s *service) AddSaleItem(ctx context.Context, saleID uuid.UUID, input LineItemInput) (item Item, err error) {
	defer func() { s.metrics.Operation("sale_item_add", err) }()

	line, err := lineItem(input)
	if err != nil {
		return Item{}, err
	}
	record, err := s.repo.AddSaleItem(ctx, saleID, line)
	if err != nil {
		return Item{}, err
	}
	return mapItem(record), nil
}

func (s *service) UpdateSaleItem(ctx context.Context, saleID, itemID uuid.UUID, input LineItemInput) (item Item, err error) {
	defer func() { s.metrics.Operation("sale_item_update", err) }()

	line, err := lineItem(input)
	if err != nil {
		return Item{}, err
	}
	record, err := s.repo.UpdateSaleItem(ctx, saleID, itemID, line)
	if err != nil {
		return Item{}, err
	}
	return mapItem(record), nil
}

func (s *service) Delete(ctx context.Context, kind entity.Kind, id uuid.UUID) (err error) {
	defer func() { s.metrics.Operation(strings.ToLower(kind.Name)+"_delete", err) }()
	return s.repo.SoftDelete(ctx, kind, id)
}

func (s *service) Restore(ctx context.Context, kind entity.Kind, id uuid.UUID) (err error) {
	defer func() { s.metrics.Operation(strings.ToLower(kind.Name)+"_restore", err) }()
	return s.repo.Restore(ctx, kind, id)
}

func documentParams(input DocumentInput) (persistence.CreateDocumentParams, error) {
	if err := validation.Struct(input); err != nil {
		return persistence.CreateDocumentParams{}, err
	}

	items := make([]entity.LineItem, 0, len(input.Items))
	fields := apperr.FieldErrors{}
	for i, item := range input.Items {
		line, err := toLineItem(item)
		if err != nil {
			var appErr *apperr.Error
			if !errors.As(err, &appErr) {
				return persistence.CreateDocumentParams{}, err
			}
			for field, msgs := range appErr.Fields {
				for _, msg := range msgs {
					fields.Add(fmt.Sprintf("items[%d].%s", i, field), msg)
				}
			}
			continue
		}
		items = append(items, line)
	}
	if len(fields) > 0 {
		return persistence.CreateDocumentParams{}, apperr.Invalid("one or more fields are invalid", fields)
	}
	return persistence.CreateDocumentParams{
		BranchID:      input.BranchID,
		MemberID:      input.MemberID,
		Number:        strings.TrimSpace(input.Number),
		Currency:      input.Currency,
		DiscountCents: input.DiscountCents,
		TaxCents:      input.TaxCents,
		Items:         items,
	}, nil
}

func lineItem(input LineItemInput) (entity.LineItem, error) {
	if err := validation.Struct(input); err != nil {
		return entity.LineItem{}, err
	}
	return toLineItem(input)
}

// toLineItem bounds qty * unit price before computing the line total.
func toLineItem(input LineItemInput) (entity.LineItem, error) {
	line := entity.LineItem{
		Description:    strings.TrimSpace(input.Description),
		Qty:            input.Qty,
		UnitPriceCents: input.UnitPriceCents,
	}
	if err := entity.ValidateLineItem(line); err != nil {
		return entity.LineItem{}, err
	}
	return entity.SyncLineTotal(line), nil
}

func mapDocument(record persistence.Document) Document {
	items := make([]Item, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, mapItem(item))
	}
	return Document{
		ID:       record.ID,
		BranchID: record.BranchID,
		MemberID: record.MemberID,
		Number:   record.Number,
		Currency: record.Currency,
		Totals:   record.Totals,
		Items:    items,
	}
}

func mapInvoice(record persistence.Invoice) Invoice {
	return Invoice{Document: mapDocument(record.Document), Status: record.Status, IssuedAt: record.IssuedAt}
}

func mapSale(record persistence.PosSale) Sale {
	return Sale{Document: mapDocument(record.Document), SoldAt: record.SoldAt}
}

func mapItem(record persistence.Item) Item {
	return Item{ID: record.ID, LineItem: record.LineItem}
}

func mapPayment(record persistence.Payment) Payment {
	return Payment{
		ID:        record.ID,
		InvoiceID: record.InvoiceID,
		Amount:    record.Amount,
		Method:    record.Method,
		PaidAt:    record.PaidAt,
	}
}
