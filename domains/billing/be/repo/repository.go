package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-gym/platform/go/entity"
	"github.com/zenGate-Global/palmyra-gym/platform/go/money"
	"github.com/zenGate-Global/palmyra-gym/platform/go/persistence"
)

// Repository defines the persistence operations required by the billing service.
type Repository interface {
	CreateInvoice(ctx context.Context, params persistence.CreateDocumentParams) (persistence.Invoice, error)
	AddInvoiceItem(ctx context.Context, invoiceID uuid.UUID, item entity.LineItem) (persistence.Item, error)
	UpdateInvoiceItem(ctx context.Context, invoiceID, itemID uuid.UUID, item entity.LineItem) (persistence.Item, error)
	GetInvoice(ctx context.Context, filter persistence.Filter, id uuid.UUID) (persistence.Invoice, error)
	RecordPayment(ctx context.Context, invoiceID uuid.UUID, amount money.Money, method string) (persistence.Payment, error)
	RecordRefund(ctx context.Context, paymentID uuid.UUID, amount money.Money, reason string) (persistence.Refund, error)
	ListPayments(ctx context.Context, filter persistence.Filter, invoiceID uuid.UUID) ([]persistence.Payment, error)

	CreateSale(ctx context.Context, params persistence.CreateDocumentParams) (persistence.PosSale, error)
	AddSaleItem(ctx context.Context, saleID uuid.UUID, item entity.LineItem) (persistence.Item, error)
	UpdateSaleItem(ctx context.Context, saleID, itemID uuid.UUID, item entity.LineItem) (persistence.Item, error)
	GetSale(ctx context.Context, filter persistence.Filter, id uuid.UUID) (persistence.PosSale, error)

	SoftDelete(ctx context.Context, kind entity.Kind, id uuid.UUID) error
	Restore(ctx context.Context, kind entity.Kind, id uuid.UUID) error
}

type postgresRepository struct {
	invoices *persistence.InvoiceStore
	sales    *persistence.PosStore
	entities *persistence.EntityStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(invoices *persistence.InvoiceStore, sales *persistence.PosStore, entities *persistence.EntityStore) Repository {
	if invoices == nil || sales == nil || entities == nil {
		panic("invoice, pos and entity stores are required")
	}
	return &postgresRepository{invoices: invoices, sales: sales, entities: entities}
}

func (r *postgresRepository) CreateInvoice(ctx context.Context, params persistence.CreateDocumentParams) (persistence.Invoice, error) {
	return r.invoices.Create(ctx, params)
}

func (r *postgresRepository) AddInvoiceItem(ctx context.Context, invoiceID uuid.UUID, item entity.LineItem) (persistence.Item, error) {
	return r.invoices.AddItem(ctx, invoiceID, item)
}

func (r *postgresRepository) UpdateInvoiceItem(ctx context.Context, invoiceID, itemID uuid.UUID, item entity.LineItem) (persistence.Item, error) {
	return r.invoices.UpdateItem(ctx, invoiceID, itemID, item)
}

func (r *postgresRepository) GetInvoice(ctx context.Context, filter persistence.Filter, id uuid.UUID) (persistence.Invoice, error) {
	return r.invoices.Get(ctx, filter, id)
}

func (r *postgresRepository) RecordPayment(ctx context.Context, invoiceID uuid.UUID, amount money.Money, method string) (persistence.Payment, error) {
	return r.invoices.RecordPayment(ctx, invoiceID, amount, method)
}

func (r *postgresRepository) RecordRefund(ctx context.Context, paymentID uuid.UUID, amount money.Money, reason string) (persistence.Refund, error) {
	return r.invoices.RecordRefund(ctx, paymentID, amount, reason)
}

func (r *postgresRepository) ListPayments(ctx context.Context, filter persistence.Filter, invoiceID uuid.UUID) ([]persistence.Payment, error) {
	return r.invoices.ListPayments(ctx, filter, invoiceID)
}

func (r *postgresRepository) CreateSale(ctx context.Context, params persistence.CreateDocumentParams) (persistence.PosSale, error) {
	return r.sales.CreateSale(ctx, params)
}

func (r *postgresRepository) AddSaleItem(ctx context.Context, saleID uuid.UUID, item entity.LineItem) (persistence.Item, error) {
	return r.sales.AddItem(ctx, saleID, item)
}

func (r *postgresRepository) UpdateSaleItem(ctx context.Context, saleID, itemID uuid.UUID, item entity.LineItem) (persistence.Item, error) {
	return r.sales.UpdateItem(ctx, saleID, itemID, item)
}

func (r *postgresRepository) GetSale(ctx context.Context, filter persistence.Filter, id uuid.UUID) (persistence.PosSale, error) {
	return r.sales.GetSale(ctx, filter, id)
}

func (r *postgresRepository) SoftDelete(ctx context.Context, kind entity.Kind, id uuid.UUID) error {
	return r.entities.SoftDelete(ctx, kind, id)
}

func (r *postgresRepository) Restore(ctx context.Context, kind entity.Kind, id uuid.UUID) error {
	return r.entities.Restore(ctx, kind, id)
}
