package handler

import (
	appledger "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/erp/ledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// PaymentHandler handles payment and receipt HTTP requests
type PaymentHandler struct {
	BaseHandler
	payments *appledger.PaymentAllocationService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments *appledger.PaymentAllocationService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Routes returns the payment route group
func (h *PaymentHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("payments", "/payments").
		POST("", h.Create).
		POST("/vouchers/:id/post", h.PostVoucher)
}

// Create godoc
// @ID           createPayment
// @Summary      Create a payment or receipt
// @Description  Creates a draft PAYMENT or RECEIPT voucher with bank and party legs, and
// @Description  the payment allocating it to invoices. Unallocated remainder is an advance.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        X-User-ID header string true "Actor ID" format(uuid)
// @Param        request body appledger.CreatePaymentRequest true "Payment"
// @Success      201 {object} APIResponse[appledger.PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}

	var req appledger.CreatePaymentRequest
	if !h.bind(c, &req, false) {
		return
	}
	req.CreatedBy = &actorID

	payment, err := h.payments.CreatePayment(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, payment)
}

// PostVoucher godoc
// @ID           postPaymentVoucher
// @Summary      Post a payment voucher
// @Description  Posts the voucher of a payment and applies its allocations to invoices in
// @Description  the same transaction. Allocations exceeding an invoice outstanding fail.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        X-User-ID header string true "Actor ID" format(uuid)
// @Param        Idempotency-Key header string false "Client idempotency key"
// @Param        id path string true "Voucher ID" format(uuid)
// @Param        request body appledger.PostPaymentRequest false "Posting options"
// @Success      200 {object} APIResponse[appledger.PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      423 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /payments/vouchers/{id}/post [post]
func (h *PaymentHandler) PostVoucher(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	voucherID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req appledger.PostPaymentRequest
	if !h.bind(c, &req, true) {
		return
	}
	req.VoucherID = voucherID
	req.ActorID = actorID
	req.IdempotencyKey = middleware.GetIdempotencyKey(c)

	payment, err := h.payments.PostPaymentVoucher(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payment)
}
