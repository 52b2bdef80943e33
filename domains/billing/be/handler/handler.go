package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-gym/domains/billing/be/service"
	"github.com/zenGate-Global/palmyra-gym/platform/go/api"
	"github.com/zenGate-Global/palmyra-gym/platform/go/entity"
)

const (
	createInvoiceOperation     = "invoicesCreate"
	getInvoiceOperation        = "invoicesGet"
	addInvoiceItemOperation    = "invoiceItemsCreate"
	updateInvoiceItemOperation = "invoiceItemsUpdate"
	recordPaymentOperation     = "paymentsCreate"
	listPaymentsOperation      = "paymentsList"
	recordRefundOperation      = "refundsCreate"
	createSaleOperation        = "posSalesCreate"
	getSaleOperation           = "posSalesGet"
	addSaleItemOperation       = "posSaleItemsCreate"
	updateSaleItemOperation    = "posSaleItemsUpdate"
	deleteOperation            = "financialDelete"
	restoreOperation           = "financialRestore"
)

// Handler exposes invoices, payments, refunds and POS sales over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("billing service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the billing endpoints on r. DELETE and restore routes exist
// so that clients get an explicit invariant violation instead of a 405.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/invoices", h.CreateInvoice)
	r.Get("/invoices/{invoiceId}", h.GetInvoice)
	r.Delete("/invoices/{invoiceId}", h.delete(entity.Invoice, "invoiceId"))
	r.Post("/invoices/{invoiceId}/restore", h.restore(entity.Invoice, "invoiceId"))
	r.Post("/invoices/{invoiceId}/items", h.AddInvoiceItem)
	r.Put("/invoices/{invoiceId}/items/{itemId}", h.UpdateInvoiceItem)
	r.Post("/invoices/{invoiceId}/payments", h.RecordPayment)
	r.Get("/invoices/{invoiceId}/payments", h.ListPayments)

	r.Delete("/payments/{paymentId}", h.delete(entity.Payment, "paymentId"))
	r.Post("/payments/{paymentId}/refunds", h.RecordRefund)

	r.Post("/pos/sales", h.CreateSale)
	r.Get("/pos/sales/{saleId}", h.GetSale)
	r.Delete("/pos/sales/{saleId}", h.delete(entity.PosSale, "saleId"))
	r.Post("/pos/sales/{saleId}/restore", h.restore(entity.PosSale, "saleId"))
	r.Post("/pos/sales/{saleId}/items", h.AddSaleItem)
	r.Put("/pos/sales/{saleId}/items/{itemId}", h.UpdateSaleItem)
}

type itemResponse struct {
	ID             uuid.UUID `json:"id"`
	Description    string    `json:"description"`
	Qty            int64     `json:"qty"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	LineTotalCents int64     `json:"line_total_cents"`
}

type documentResponse struct {
	ID            uuid.UUID      `json:"id"`
	BranchID      *uuid.UUID     `json:"branch_id,omitempty"`
	MemberID      *uuid.UUID     `json:"member_id,omitempty"`
	Number        string         `json:"number"`
	Currency      string         `json:"currency"`
	SubtotalCents int64          `json:"subtotal_cents"`
	DiscountCents int64          `json:"discount_cents"`
	TaxCents      int64          `json:"tax_cents"`
	TotalCents    int64          `json:"total_cents"`
	Items         []itemResponse `json:"items"`
}

type invoiceResponse struct {
	documentResponse
	Status   string    `json:"status"`
	IssuedAt time.Time `json:"issued_at"`
}

type saleResponse struct {
	documentResponse
	SoldAt time.Time `json:"sold_at"`
}

type paymentResponse struct {
	ID          uuid.UUID `json:"id"`
	InvoiceID   uuid.UUID `json:"invoice_id"`
	Amount      string    `json:"amount"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Method      string    `json:"method"`
	PaidAt      time.Time `json:"paid_at"`
}

type refundResponse struct {
	ID          uuid.UUID `json:"id"`
	PaymentID   uuid.UUID `json:"payment_id"`
	Amount      string    `json:"amount"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Reason      string    `json:"reason,omitempty"`
	RefundedAt  time.Time `json:"refunded_at"`
}

func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var input service.DocumentInput
	if err := api.Decode(r, &input); err != nil {
		api.Fail(w, r, h.logger, createInvoiceOperation, err)
		return
	}

	invoice, err := h.svc.CreateInvoice(r.Context(), input)
	if err != nil {
		api.Fail(w, r, h.logger, createInvoiceOperation, err)
		return
	}

	w.Header().Set("Location", "/api/v1/invoices/"+invoice.ID.String())
	api.WriteJSON(w, http.StatusCreated, toInvoiceResponse(invoice))
}

func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathUUID(r, "invoiceId")
	if err != nil {
		api.Fail(w, r, h.logger, getInvoiceOperation, err)
		return
	}

	invoice, err := h.svc.GetInvoice(r.Context(), id)
	if err != nil {
		api.Fail(w, r, h.logger, getInvoiceOperation, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toInvoiceResponse(invoice))
}

func (h *Handler) AddInvoiceItem(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathUUID(r, "invoiceId")
	if err != nil {
		api.Fail(w, r, h.logger, addInvoiceItemOperation, err)
		return
	}

	var input service.LineItemInput
	if err := api.Decode(r, &input); err != nil {
		api.Fail(w, r, h.logger, addInvoiceItemOperation, err)
		return
	}

	item, err := h.svc.AddInvoiceItem(r.Context(), id, input)
	if err != nil {
		api.Fail(w, r, h.logger, addInvoiceItemOperation, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, toItemResponse(item))
}

func (h *Handler) UpdateInvoiceItem(w http.ResponseWriter, r *http.Request) {
	h.updateItem(w, r, "invoiceId", updateInvoiceItemOperation, h.svc.UpdateInvoiceItem)
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathUUID(r, "invoiceId")
	if err != nil {
		api.Fail(w, r, h.logger, recordPaymentOperation, err)
		return
	}

	var input service.PaymentInput
	if err := api.Decode(r, &input); err != nil {
		api.Fail(w, r, h.logger, recordPaymentOperation, err)
		return
	}

	payment, err := h.svc.RecordPayment(r.Context(), id, input)
	if err != nil {
		api.Fail(w, r, h.logger, recordPaymentOperation, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, toPaymentResponse(payment))
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathUUID(r, "invoiceId")
	if err != nil {
		api.Fail(w, r, h.logger, listPaymentsOperation, err)
		return
	}

	payments, err := h.svc.ListPayments(r.Context(), id)
	if err != nil {
		api.Fail(w, r, h.logger, listPaymentsOperation, err)
		return
	}

	items := make([]paymentResponse, 0, len(payments))
	for _, payment := range payments {
		items = append(items, toPaymentResponse(payment))
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) RecordRefund(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathUUID(r, "paymentId")
	if err != nil {
		api.Fail(w, r, h.logger, recordRefundOperation, err)
		return
	}

	var input service.RefundInput
	if err := api.Decode(r, &input); err != nil {
		api.Fail(w, r, h.logger, recordRefundOperation, err)
		return
	}

	refund, err := h.svc.RecordRefund(r.Context(), id, input)
	if err != nil {
		api.Fail(w, r, h.logger, recordRefundOperation, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, refundResponse{
		ID:          refund.ID,
		PaymentID:   refund.PaymentID,
		Amount:      refund.Amount.Major(),
		AmountCents: refund.Amount.Amount(),
		Currency:    refund.Amount.Currency(),
		Reason:      refund.Reason,
		RefundedAt:  refund.RefundedAt,
	})
}

func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var input service.DocumentInput
	if err := api.Decode(r, &input); err != nil {
		api.Fail(w, r, h.logger, createSaleOperation, err)
		return
	}

	sale, err := h.svc.CreateSale(r.Context(), input)
	if err != nil {
		api.Fail(w, r, h.logger, createSaleOperation, err)
		return
	}

	w.Header().Set("Location", "/api/v1/pos/sales/"+sale.ID.String())
	api.WriteJSON(w, http.StatusCreated, toSaleResponse(sale))
}

func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathUUID(r, "saleId")
	if err != nil {
		api.Fail(w, r, h.logger, getSaleOperation, err)
		return
	}

	sale, err := h.svc.GetSale(r.Context(), id)
	if err != nil {
		api.Fail(w, r, h.logger, getSaleOperation, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toSaleResponse(sale))
}

func (h *Handler) AddSaleItem(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathUUID(r, "saleId")
	if err != nil {
		api.Fail(w, r, h.logger, addSaleItemOperation, err)
		return
	}

	var input service.LineItemInput
	if err := api.Decode(r, &input); err != nil {
		api.Fail(w, r, h.logger, addSaleItemOperation, err)
		return
	}

	item, err := h.svc.AddSaleItem(r.Context(), id, input)
	if err != nil {
		api.Fail(w, r, h.logger, addSaleItemOperation, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, toItemResponse(item))
}

func (h *Handler) UpdateSaleItem(w http.ResponseWriter, r *http.Request) {
	h.updateItem(w, r, "saleId", updateSaleItemOperation, h.svc.UpdateSaleItem)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request, param, op string,
	update func(ctx context.Context, documentID, itemID uuid.UUID, input service.LineItemInput) (service.Item, error),
) {
	documentID, err := api.PathUUID(r, param)
	if err != nil {
		api.Fail(w, r, h.logger, op, err)
		return
	}
	itemID, err := api.PathUUID(r, "itemId")
	if err != nil {
		api.Fail(w, r, h.logger, op, err)
		return
	}

	var input service.LineItemInput
	if err := api.Decode(r, &input); err != nil {
		api.Fail(w, r, h.logger, op, err)
		return
	}

	item, err := update(r.Context(), documentID, itemID, input)
	if err != nil {
		api.Fail(w, r, h.logger, op, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toItemResponse(item))
}

func (h *Handler) delete(kind entity.Kind, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := api.PathUUID(r, param)
		if err != nil {
			api.Fail(w, r, h.logger, deleteOperation, err)
			return
		}
		if err := h.svc.Delete(r.Context(), kind, id); err != nil {
			api.Fail(w, r, h.logger, deleteOperation, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) restore(kind entity.Kind, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := api.PathUUID(r, param)
		if err != nil {
			api.Fail(w, r, h.logger, restoreOperation, err)
			return
		}
		if err := h.svc.Restore(r.Context(), kind, id); err != nil {
			api.Fail(w, r, h.logger, restoreOperation, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toDocumentResponse(doc service.Document) documentResponse {
	items := make([]itemResponse, 0, len(doc.Items))
	for _, item := range doc.Items {
		items = append(items, toItemResponse(item))
	}
	return documentResponse{
		ID:            doc.ID,
		BranchID:      doc.BranchID,
		MemberID:      doc.MemberID,
		Number:        doc.Number,
		Currency:      doc.Currency,
		SubtotalCents: doc.SubtotalCents,
		DiscountCents: doc.DiscountCents,
		TaxCents:      doc.TaxCents,
		TotalCents:    doc.TotalCents,
		Items:         items,
	}
}

func toInvoiceResponse(invoice service.Invoice) invoiceResponse {
	return invoiceResponse{
		documentResponse: toDocumentResponse(invoice.Document),
		Status:           string(invoice.Status),
		IssuedAt:         invoice.IssuedAt,
	}
}

func toSaleResponse(sale service.Sale) saleResponse {
	return saleResponse{documentResponse: toDocumentResponse(sale.Document), SoldAt: sale.SoldAt}
}

func toItemResponse(item service.Item) itemResponse {
	return itemResponse{
		ID:             item.ID,
		Description:    item.Description,
		Qty:            item.Qty,
		UnitPriceCents: item.UnitPriceCents,
		LineTotalCents: item.LineTotalCents,
	}
}

func toPaymentResponse(payment service.Payment) paymentResponse {
	return paymentResponse{
		ID:          payment.ID,
		InvoiceID:   payment.InvoiceID,
		Amount:      payment.Amount.Major(),
		AmountCents: payment.Amount.Amount(),
		Currency:    payment.Amount.Currency(),
		Method:      payment.Method,
		PaidAt:      payment.PaidAt,
	}
}
