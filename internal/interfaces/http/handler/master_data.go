package handler

import (
	appledger "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// MasterDataHandler manages ledgers, periods and invoice registration
type MasterDataHandler struct {
	BaseHandler
	masterData *appledger.MasterDataService
}

// NewMasterDataHandler creates a new MasterDataHandler
func NewMasterDataHandler(masterData *appledger.MasterDataService) *MasterDataHandler {
	return &MasterDataHandler{masterData: masterData}
}

// LedgerRoutes returns the ledger route group
func (h *MasterDataHandler) LedgerRoutes() *router.DomainGroup {
	return router.NewDomainGroup("ledgers", "/ledgers").
		POST("", h.CreateLedger).
		POST("/:id/activate", h.ActivateLedger).
		POST("/:id/deactivate", h.DeactivateLedger)
}

// PeriodRoutes returns the accounting period route group
func (h *MasterDataHandler) PeriodRoutes() *router.DomainGroup {
	return router.NewDomainGroup("periods", "/periods").
		POST("", h.CreatePeriod).
		POST("/:id/close", h.ClosePeriod).
		POST("/:id/reopen", h.ReopenPeriod)
}

// InvoiceRoutes returns the invoice route group
func (h *MasterDataHandler) InvoiceRoutes() *router.DomainGroup {
	return router.NewDomainGroup("invoices", "/invoices").
		POST("", h.RegisterInvoice).
		GET("/:id", h.GetInvoice)
}

// CreateLedger godoc
// @ID           createLedger
// @Summary      Create a ledger account
// @Tags         ledgers
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        X-User-ID header string true "Actor ID" format(uuid)
// @Param        request body appledger.CreateLedgerRequest true "Ledger"
// @Success      201 {object} APIResponse[appledger.LedgerResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /ledgers [post]
func (h *MasterDataHandler) CreateLedger(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	if _, ok := h.actorID(c); !ok {
		return
	}

	var req appledger.CreateLedgerRequest
	if !h.bind(c, &req, false) {
		return
	}

	account, err := h.masterData.CreateLedger(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, account)
}

// ActivateLedger godoc
// @ID           activateLedger
// @Summary      Activate a ledger account
// @Tags         ledgers
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        X-User-ID header string true "Actor ID" format(uuid)
// @Param        id path string true "Ledger ID" format(uuid)
// @Success      200 {object} APIResponse[appledger.LedgerResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /ledgers/{id}/activate [post]
func (h *MasterDataHandler) ActivateLedger(c *gin.Context) {
	h.setLedgerActive(c, true)
}

// DeactivateLedger godoc
// @ID           deactivateLedger
// @Summary      Deactivate a ledger account
// @Description  Inactive ledgers reject new postings. Existing entries are unaffected.
// @Tags         ledgers
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        X-User-ID header string true "Actor ID" format(uuid)
// @Param        id path string true "Ledger ID" format(uuid)
// @Success      200 {object} APIResponse[appledger.LedgerResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /ledgers/{id}/deactivate [post]
func (h *MasterDataHandler) DeactivateLedger(c *gin.Context) {
	h.setLedgerActive(c, false)
}

func (h *MasterDataHandler) setLedgerActive(c *gin.Context, active bool) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	if _, ok := h.actorID(c); !ok {
		return
	}
	ledgerID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	account, err := h.masterData.SetLedgerActive(c.Request.Context(), tenantID, ledgerID, active)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, account)
}

// CreatePeriod godoc
// @ID           createPeriod
// @Summary      Open an accounting period
// @Tags         periods
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        X-User-ID header string true "Actor ID" format(uuid)
// @Param        request body appledger.CreatePeriodRequest true "Period"
// @Success      201 {object} APIResponse[appledger.PeriodResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /periods [post]
func (h *MasterDataHandler) CreatePeriod(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	if _, ok := h.actorID(c); !ok {
		return
	}

	var req appledger.CreatePeriodRequest
	if !h.bind(c, &req, false) {
		return
	}

	period, err := h.masterData.CreatePeriod(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, period)
}

// ClosePeriod godoc
// @ID           closePeriod
// @Summary      Close an accounting period
// @Description  Postings into a closed period fail with PERIOD_CLOSED unless an
// @Description  authorized actor requests an override.
// @Tags         periods
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        X-User-ID header string true "Actor ID" format(uuid)
// @Param        id path string true "Period ID" format(uuid)
// @Success      200 {object} APIResponse[appledger.PeriodResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /periods/{id}/close [post]
func (h *MasterDataHandler) ClosePeriod(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	periodID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	period, err := h.masterData.ClosePeriod(c.Request.Context(), tenantID, periodID, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, period)
}

// ReopenPeriod godoc
// @ID           reopenPeriod
// @Summary      Reopen a closed accounting period
// @Tags         periods
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        X-User-ID header string true "Actor ID" format(uuid)
// @Param        id path string true "Period ID" format(uuid)
// @Success      200 {object} APIResponse[appledger.PeriodResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /periods/{id}/reopen [post]
func (h *MasterDataHandler) ReopenPeriod(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	if _, ok := h.actorID(c); !ok {
		return
	}
	periodID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	period, err := h.masterData.ReopenPeriod(c.Request.Context(), tenantID, periodID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, period)
}

// RegisterInvoice godoc
// @ID           registerInvoice
// @Summary      Register a posted invoice
// @Description  Records an invoice issued by the invoicing workflow so payments can be
// @Description  allocated against its outstanding amount.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        X-User-ID header string true "Actor ID" format(uuid)
// @Param        request body appledger.RegisterInvoiceRequest true "Invoice"
// @Success      201 {object} APIResponse[appledger.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /invoices [post]
func (h *MasterDataHandler) RegisterInvoice(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	if _, ok := h.actorID(c); !ok {
		return
	}

	var req appledger.RegisterInvoiceRequest
	if !h.bind(c, &req, false) {
		return
	}

	invoice, err := h.masterData.RegisterInvoice(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, invoice)
}

// GetInvoice godoc
// @ID           getInvoice
// @Summary      Get an invoice with its outstanding amount
// @Tags         invoices
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[appledger.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /invoices/{id} [get]
func (h *MasterDataHandler) GetInvoice(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.masterData.GetInvoice(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}
