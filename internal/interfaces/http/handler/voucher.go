package handler

import (
	appledger "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/erp/ledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// VoucherHandler handles voucher lifecycle HTTP requests
type VoucherHandler struct {
	BaseHandler
	vouchers  *appledger.VoucherService
	posting   *appledger.PostingService
	reversals *appledger.ReversalService
}

// NewVoucherHandler creates a new VoucherHandler
func NewVoucherHandler(
	vouchers *appledger.VoucherService,
	posting *appledger.PostingService,
	reversals *appledger.ReversalService,
) *VoucherHandler {
	return &VoucherHandler{
		vouchers:  vouchers,
		posting:   posting,
		reversals: reversals,
	}
}

// Routes returns the voucher route group
func (h *VoucherHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("vouchers", "/vouchers").
		POST("", h.Create).
		GET("/:id", h.Get).
		POST("/:id/post", h.Post).
		POST("/:id/reverse", h.Reverse).
		POST("/:id/cancel", h.Cancel)
}

// Create godoc
// @ID           createVoucher
// @Summary      Create a draft voucher
// @Description  Creates a numbered DRAFT voucher. Lines need not balance until posting.
// @Tags         vouchers
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        X-User-ID header string true "Actor ID" format(uuid)
// @Param        request body appledger.CreateVoucherRequest true "Voucher draft"
// @Success      201 {object} APIResponse[appledger.VoucherResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /vouchers [post]
func (h *VoucherHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}

	var req appledger.CreateVoucherRequest
	if !h.bind(c, &req, false) {
		return
	}
	req.CreatedBy = &actorID

	voucher, err := h.vouchers.CreateDraft(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, voucher)
}

// Get godoc
// @ID           getVoucher
// @Summary      Get a voucher by ID
// @Tags         vouchers
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Voucher ID" format(uuid)
// @Success      200 {object} APIResponse[appledger.VoucherResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /vouchers/{id} [get]
func (h *VoucherHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	voucherID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	voucher, err := h.vouchers.Get(c.Request.Context(), tenantID, voucherID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, voucher)
}

// Post godoc
// @ID           postVoucher
// @Summary      Post a draft voucher
// @Description  Validates double-entry, period and ledger state, writes GL entries and
// @Description  updates balances atomically. Resending with the same Idempotency-Key
// @Description  returns the original result with replayed=true.
// @Tags         vouchers
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        X-User-ID header string true "Actor ID" format(uuid)
// @Param        Idempotency-Key header string false "Client idempotency key"
// @Param        id path string true "Voucher ID" format(uuid)
// @Param        request body appledger.PostVoucherRequest false "Posting options"
// @Success      200 {object} APIResponse[appledger.VoucherResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      423 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /vouchers/{id}/post [post]
func (h *VoucherHandler) Post(c *gin.Context) {
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

	var req appledger.PostVoucherRequest
	if !h.bind(c, &req, true) {
		return
	}
	req.VoucherID = voucherID
	req.ActorID = actorID
	req.IdempotencyKey = middleware.GetIdempotencyKey(c)

	voucher, err := h.posting.Post(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, voucher)
}

// Reverse godoc
// @ID           reverseVoucher
// @Summary      Reverse a posted voucher
// @Description  Creates and posts a mirror voucher with swapped entry kinds and marks the
// @Description  original REVERSED. Settlements of a payment voucher are undone.
// @Tags         vouchers
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        X-User-ID header string true "Actor ID" format(uuid)
// @Param        Idempotency-Key header string false "Client idempotency key"
// @Param        id path string true "Voucher ID" format(uuid)
// @Param        request body appledger.ReverseVoucherRequest true "Reversal reason"
// @Success      200 {object} APIResponse[appledger.VoucherResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      423 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /vouchers/{id}/reverse [post]
func (h *VoucherHandler) Reverse(c *gin.Context) {
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

	var req appledger.ReverseVoucherRequest
	if !h.bind(c, &req, false) {
		return
	}
	req.VoucherID = voucherID
	req.ActorID = actorID
	req.IdempotencyKey = middleware.GetIdempotencyKey(c)

	mirror, err := h.reversals.Reverse(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, mirror)
}

// Cancel godoc
// @ID           cancelVoucher
// @Summary      Cancel a draft voucher
// @Description  Abandons a DRAFT voucher. Its number stays consumed.
// @Tags         vouchers
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        X-User-ID header string true "Actor ID" format(uuid)
// @Param        id path string true "Voucher ID" format(uuid)
// @Success      200 {object} APIResponse[appledger.VoucherResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /vouchers/{id}/cancel [post]
func (h *VoucherHandler) Cancel(c *gin.Context) {
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

	voucher, err := h.vouchers.Cancel(c.Request.Context(), tenantID, appledger.CancelVoucherRequest{
		VoucherID: voucherID,
		ActorID:   actorID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, voucher)
}
