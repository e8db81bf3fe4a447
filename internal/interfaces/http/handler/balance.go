package handler

import (
	appledger "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BalanceHandler serves balance and exposure reads
type BalanceHandler struct {
	BaseHandler
	balances *appledger.BalanceService
}

// NewBalanceHandler creates a new BalanceHandler
func NewBalanceHandler(balances *appledger.BalanceService) *BalanceHandler {
	return &BalanceHandler{balances: balances}
}

// LedgerRoutes adds the balance read to the ledger group
func (h *BalanceHandler) LedgerRoutes(g *router.DomainGroup) *router.DomainGroup {
	return g.GET("/:id/balance", h.GetBalance)
}

// Routes returns the counterparty route group
func (h *BalanceHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("parties", "/parties").
		GET("/:id/credit-exposure", h.GetCreditExposure)
}

// GetBalance godoc
// @ID           getLedgerBalance
// @Summary      Read a ledger balance
// @Description  Returns cached debit and credit totals for a period, or all time when
// @Description  period_id is omitted. Ledgers nothing was posted to read as zero.
// @Tags         ledgers
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Ledger ID" format(uuid)
// @Param        period_id query string false "Period ID" format(uuid)
// @Success      200 {object} APIResponse[appledger.BalanceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /ledgers/{id}/balance [get]
func (h *BalanceHandler) GetBalance(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	ledgerID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var periodID *uuid.UUID
	if raw := c.Query("period_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid period_id")
			return
		}
		periodID = &id
	}

	balance, err := h.balances.ReadBalance(c.Request.Context(), tenantID, ledgerID, periodID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, balance)
}

// GetCreditExposure godoc
// @ID           getPartyCreditExposure
// @Summary      Read counterparty credit exposure
// @Description  Sums the outstanding amount of the party's open invoices
// @Tags         parties
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Party ledger ID" format(uuid)
// @Success      200 {object} APIResponse[appledger.CreditExposureResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /parties/{id}/credit-exposure [get]
func (h *BalanceHandler) GetCreditExposure(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	partyID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	exposure, err := h.balances.CreditExposure(c.Request.Context(), tenantID, partyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, exposure)
}
