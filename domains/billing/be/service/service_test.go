package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	"github.com/zenGate-Global/palmyra-gym/platform/go/entity"
	"github.com/zenGate-Global/palmyra-gym/platform/go/metrics"
	"github.com/zenGate-Global/palmyra-gym/platform/go/money"
	"github.com/zenGate-Global/palmyra-gym/platform/go/persistence"
)

type mockRepository struct {
	createInvoiceFn     func(ctx context.Context, params persistence.CreateDocumentParams) (persistence.Invoice, error)
	addInvoiceItemFn    func(ctx context.Context, invoiceID uuid.UUID, item entity.LineItem) (persistence.Item, error)
	updateInvoiceItemFn func(ctx context.Context, invoiceID, itemID uuid.UUID, item entity.LineItem) (persistence.Item, error)
	getInvoiceFn        func(ctx context.Context, filter persistence.Filter, id uuid.UUID) (persistence.Invoice, error)
	recordPaymentFn     func(ctx context.Context, invoiceID uuid.UUID, amount money.Money, method string) (persistence.Payment, error)
	recordRefundFn      func(ctx context.Context, paymentID uuid.UUID, amount money.Money, reason string) (persistence.Refund, error)
	listPaymentsFn      func(ctx context.Context, filter persistence.Filter, invoiceID uuid.UUID) ([]persistence.Payment, error)
	createSaleFn        func(ctx context.Context, params persistence.CreateDocumentParams) (persistence.PosSale, error)
	addSaleItemFn       func(ctx context.Context, saleID uuid.UUID, item entity.LineItem) (persistence.Item, error)
	updateSaleItemFn    func(ctx context.Context, saleID, itemID uuid.UUID, item entity.LineItem) (persistence.Item, error)
	getSaleFn           func(ctx context.Context, filter persistence.Filter, id uuid.UUID) (persistence.PosSale, error)
	softDeleteFn        func(ctx context.Context, kind entity.Kind, id uuid.UUID) error
	restoreFn           func(ctx context.Context, kind entity.Kind, id uuid.UUID) error
}

func (m *mockRepository) CreateInvoice(ctx context.Context, params persistence.CreateDocumentParams) (persistence.Invoice, error) {
	if m.createInvoiceFn == nil {
		panic("createInvoiceFn not configured")
	}
	return m.createInvoiceFn(ctx, params)
}

func (m *mockRepository) AddInvoiceItem(ctx context.Context, invoiceID uuid.UUID, item entity.LineItem) (persistence.Item, error) {
	if m.addInvoiceItemFn == nil {
		panic("addInvoiceItemFn not configured")
	}
	return m.addInvoiceItemFn(ctx, invoiceID, item)
}

func (m *mockRepository) UpdateInvoiceItem(ctx context.Context, invoiceID, itemID uuid.UUID, item entity.LineItem) (persistence.Item, error) {
	if m.updateInvoiceItemFn == nil {
		panic("updateInvoiceItemFn not configured")
	}
	return m.updateInvoiceItemFn(ctx, invoiceID, itemID, item)
}

func (m *mockRepository) GetInvoice(ctx context.Context, filter persistence.Filter, id uuid.UUID) (persistence.Invoice, error) {
	if m.getInvoiceFn == nil {
		panic("getInvoiceFn not configured")
	}
	return m.getInvoiceFn(ctx, filter, id)
}

func (m *mockRepository) RecordPayment(ctx context.Context, invoiceID uuid.UUID, amount money.Money, method string) (persistence.Payment, error) {
	if m.recordPaymentFn == nil {
		panic("recordPaymentFn not configured")
	}
	return m.recordPaymentFn(ctx, invoiceID, amount, method)
}

func (m *mockRepository) RecordRefund(ctx context.Context, paymentID uuid.UUID, amount money.Money, reason string) (persistence.Refund, error) {
	if m.recordRefundFn == nil {
		panic("recordRefundFn not configured")
	}
	return m.recordRefundFn(ctx, paymentID, amount, reason)
}

func (m *mockRepository) ListPayments(ctx context.Context, filter persistence.Filter, invoiceID uuid.UUID) ([]persistence.Payment, error) {
	if m.listPaymentsFn == nil {
		panic("listPaymentsFn not configured")
	}
	return m.listPaymentsFn(ctx, filter, invoiceID)
}

func (m *mockRepository) CreateSale(ctx context.Context, params persistence.CreateDocumentParams) (persistence.PosSale, error) {
	if m.createSaleFn == nil {
		panic("createSaleFn not configured")
	}
	return m.createSaleFn(ctx, params)
}

func (m *mockRepository) AddSaleItem(ctx context.Context, saleID uuid.UUID, item entity.LineItem) (persistence.Item, error) {
	if m.addSaleItemFn == nil {
		panic("addSaleItemFn not configured")
	}
	return m.addSaleItemFn(ctx, saleID, item)
}

func (m *mockRepository) UpdateSaleItem(ctx context.Context, saleID, itemID uuid.UUID, item entity.LineItem) (persistence.Item, error) {
	if m.updateSaleItemFn == nil {
		panic("updateSaleItemFn not configured")
	}
	return m.updateSaleItemFn(ctx, saleID, itemID, item)
}

func (m *mockRepository) GetSale(ctx context.Context, filter persistence.Filter, id uuid.UUID) (persistence.PosSale, error) {
	if m.getSaleFn == nil {
		panic("getSaleFn not configured")
	}
	return m.getSaleFn(ctx, filter, id)
}

func (m *mockRepository) SoftDelete(ctx context.Context, kind entity.Kind, id uuid.UUID) error {
	if m.softDeleteFn == nil {
		panic("softDeleteFn not configured")
	}
	return m.softDeleteFn(ctx, kind, id)
}

func (m *mockRepository) Restore(ctx context.Context, kind entity.Kind, id uuid.UUID) error {
	if m.restoreFn == nil {
		panic("restoreFn not configured")
	}
	return m.restoreFn(ctx, kind, id)
}

func TestCreateInvoiceSyncsLineTotals(t *testing.T) {
	t.Parallel()

	repository := &mockRepository{
		createInvoiceFn: func(ctx context.Context, params persistence.CreateDocumentParams) (persistence.Invoice, error) {
			require.Len(t, params.Items, 2)
			require.Equal(t, int64(5000), params.Items[0].LineTotalCents)
			require.Equal(t, int64(750), params.Items[1].LineTotalCents)

			items := make([]persistence.Item, 0, len(params.Items))
			for _, item := range params.Items {
				items = append(items, persistence.Item{ID: uuid.New(), LineItem: item})
			}
			return persistence.Invoice{
				Document: persistence.Document{
					ID:       uuid.New(),
					Number:   "INV-1",
					Currency: "USD",
					Totals:   entity.ComputeTotals(params.Items, params.DiscountCents, params.TaxCents),
					Items:    items,
				},
				Status: entity.InvoiceIssued,
			}, nil
		},
	}

	invoice, err := New(repository, nil).CreateInvoice(context.Background(), DocumentInput{
		Currency:      "USD",
		DiscountCents: 500,
		TaxCents:      100,
		Items: []LineItemInput{
			{Description: "Membership", Qty: 1, UnitPriceCents: 5000},
			{Description: "Towel", Qty: 3, UnitPriceCents: 250},
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(5750), invoice.SubtotalCents)
	require.Equal(t, int64(5350), invoice.TotalCents)
	require.Len(t, invoice.Items, 2)
}

func TestCreateInvoiceReportsItemFieldPaths(t *testing.T) {
	t.Parallel()

	_, err := New(&mockRepository{}, nil).CreateInvoice(context.Background(), DocumentInput{
		Currency: "USD",
		Items: []LineItemInput{
			{Description: "ok", Qty: 1, UnitPriceCents: 100},
			{Description: "bad", Qty: 0, UnitPriceCents: -1},
		},
	})

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Contains(t, appErr.Fields, "items[1].qty")
	require.Contains(t, appErr.Fields, "items[1].unit_price_cents")
}

func TestLineItemsAboveMaximumAmountNeverReachTheStore(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{}, nil)

	_, err := svc.CreateInvoice(context.Background(), DocumentInput{
		Currency: "USD",
		Items: []LineItemInput{
			{Description: "ok", Qty: 1, UnitPriceCents: 100},
			{Description: "wraps", Qty: 1 << 19, UnitPriceCents: 1 << 52},
		},
	})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Contains(t, appErr.Fields, "items[1].qty")

	_, err = svc.AddSaleItem(context.Background(), uuid.New(), LineItemInput{Description: "bulk", Qty: 1_000_001, UnitPriceCents: 1})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.AddInvoiceItem(context.Background(), uuid.New(), LineItemInput{Description: "wraps", Qty: 1_000_000, UnitPriceCents: money.MaxAmount})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestRecordPaymentParsesAmount(t *testing.T) {
	t.Parallel()

	invoiceID := uuid.New()
	repository := &mockRepository{
		recordPaymentFn: func(ctx context.Context, id uuid.UUID, amount money.Money, method string) (persistence.Payment, error) {
			require.Equal(t, invoiceID, id)
			require.Equal(t, int64(2500), amount.Amount())
			require.Equal(t, "card", method)
			return persistence.Payment{ID: uuid.New(), InvoiceID: id, Amount: amount, Method: method}, nil
		},
	}

	payment, err := New(repository, nil).RecordPayment(context.Background(), invoiceID, PaymentInput{Amount: "25", Currency: "usd", Method: "card"})
	require.NoError(t, err)
	require.Equal(t, "25.00 USD", payment.Amount.String())
}

func TestRecordPaymentRejectsUnknownMethod(t *testing.T) {
	t.Parallel()

	_, err := New(&mockRepository{}, nil).RecordPayment(context.Background(), uuid.New(), PaymentInput{Amount: "1", Currency: "USD", Method: "barter"})
	require.True(t, apperr.Is(err, apperr.KindInvalidInput))
}

func TestRecordRefundOverpayIsCounted(t *testing.T) {
	t.Parallel()

	rec := metrics.New("test")
	repository := &mockRepository{
		recordRefundFn: func(ctx context.Context, paymentID uuid.UUID, amount money.Money, reason string) (persistence.Refund, error) {
			require.Equal(t, "duplicate", reason)
			return persistence.Refund{}, apperr.Conflict("Refund", "refund exceeds payment")
		},
	}

	_, err := New(repository, rec).RecordRefund(context.Background(), uuid.New(), RefundInput{Amount: "99.99", Currency: "USD", Reason: " duplicate "})
	require.True(t, apperr.Is(err, apperr.KindDomainConflict))
	require.Equal(t, 1.0, rec.OperationCount("refund_record", string(apperr.KindDomainConflict)))
}

func TestDeleteInvoiceSurfacesGuard(t *testing.T) {
	t.Parallel()

	rec := metrics.New("test")
	repository := &mockRepository{
		softDeleteFn: func(ctx context.Context, kind entity.Kind, id uuid.UUID) error {
			return entity.GuardDelete(kind)
		},
	}

	err := New(repository, rec).Delete(context.Background(), entity.Invoice, uuid.New())
	require.True(t, apperr.Is(err, apperr.KindInvariantViolation))
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "Invoice deletion is not allowed", appErr.Message)
	require.Equal(t, 1.0, rec.OperationCount("invoice_delete", string(apperr.KindInvariantViolation)))
}

func TestAddSaleItem(t *testing.T) {
	t.Parallel()

	saleID := uuid.New()
	repository := &mockRepository{
		addSaleItemFn: func(ctx context.Context, id uuid.UUID, item entity.LineItem) (persistence.Item, error) {
			require.Equal(t, saleID, id)
			require.Equal(t, "Protein bar", item.Description)
			return persistence.Item{ID: uuid.New(), DocumentID: id, LineItem: item}, nil
		},
	}

	item, err := New(repository, nil).AddSaleItem(context.Background(), saleID, LineItemInput{Description: " Protein bar ", Qty: 2, UnitPriceCents: 300})
	require.NoError(t, err)
	require.Equal(t, int64(600), item.LineTotalCents)
}
