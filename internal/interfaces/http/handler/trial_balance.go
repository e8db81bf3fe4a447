package handler

import (
	appledger "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TrialBalanceHandler serves trial balances and period archives
type TrialBalanceHandler struct {
	BaseHandler
	trialBalances *appledger.TrialBalanceService
}

// NewTrialBalanceHandler creates a new TrialBalanceHandler
func NewTrialBalanceHandler(trialBalances *appledger.TrialBalanceService) *TrialBalanceHandler {
	return &TrialBalanceHandler{trialBalances: trialBalances}
}

// Routes returns the trial balance route group
func (h *TrialBalanceHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("trial-balance", "/trial-balance").
		GET("", h.GetTrialBalance)
}

// PeriodRoutes adds the archive action to the period group when a store is configured
func (h *TrialBalanceHandler) PeriodRoutes(g *router.DomainGroup) *router.DomainGroup {
	if !h.trialBalances.ArchiveEnabled() {
		return g
	}
	return g.POST("/:id/archive", h.ArchivePeriod)
}

// GetTrialBalance godoc
// @ID           getTrialBalance
// @Summary      Read a trial balance
// @Description  Lists the cached totals of every ledger posted to in a period, or
// @Description  over all time when period_id is omitted.
// @Tags         reports
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        period_id query string false "Period ID" format(uuid)
// @Success      200 {object} APIResponse[appledger.TrialBalanceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /trial-balance [get]
func (h *TrialBalanceHandler) GetTrialBalance(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
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

	tb, err := h.trialBalances.TrialBalance(c.Request.Context(), tenantID, periodID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tb)
}

// ArchivePeriod godoc
// @ID           archivePeriod
// @Summary      Archive the trial balance of a closed period
// @Description  Writes the period and its trial balance as JSON to archive storage.
// @Description  Archiving again overwrites the document.
// @Tags         periods
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        X-User-ID header string true "Actor ID" format(uuid)
// @Param        id path string true "Period ID" format(uuid)
// @Success      201 {object} APIResponse[appledger.PeriodArchiveResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /periods/{id}/archive [post]
func (h *TrialBalanceHandler) ArchivePeriod(c *gin.Context) {
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

	archive, err := h.trialBalances.ArchivePeriod(c.Request.Context(), tenantID, periodID, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, archive)
}
