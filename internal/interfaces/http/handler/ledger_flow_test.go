package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	appledger "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/erp/ledger/internal/interfaces/http/router"
	"github.com/erp/ledger/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envelope is dto.Response with a typed payload
type envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
}

type ledgerAPI struct {
	t      *testing.T
	engine *gin.Engine
	stack  *testutil.LedgerStack
	tenant uuid.UUID
	actor  uuid.UUID
}

func newLedgerAPI(t *testing.T, opts ...testutil.StackOption) *ledgerAPI {
	t.Helper()
	middleware.SetupValidator()

	stack := testutil.NewLedgerStack(t, opts...)
	vouchers := NewVoucherHandler(stack.Vouchers, stack.Posting, stack.Reversals)
	payments := NewPaymentHandler(stack.Payments)
	balances := NewBalanceHandler(stack.Balances)
	masterData := NewMasterDataHandler(stack.MasterData)
	trialBalances := NewTrialBalanceHandler(stack.TrialBalances)
	system := NewSystemHandler("erp-ledger", "test", nil)

	ledgerContext := middleware.LedgerContext()
	engine := gin.New()
	router.NewRouter(engine, router.WithAPIMiddleware(middleware.RequestID())).
		Register(
			vouchers.Routes().Use(ledgerContext),
			payments.Routes().Use(ledgerContext),
			balances.Routes().Use(ledgerContext),
			balances.LedgerRoutes(masterData.LedgerRoutes()).Use(ledgerContext),
			trialBalances.PeriodRoutes(masterData.PeriodRoutes()).Use(ledgerContext),
			trialBalances.Routes().Use(ledgerContext),
			masterData.InvoiceRoutes().Use(ledgerContext),
			system.Routes(NewOutboxHandler(stack.OutboxSvc)),
		).
		Setup()

	return &ledgerAPI{
		t:      t,
		engine: engine,
		stack:  stack,
		tenant: uuid.New(),
		actor:  testutil.TestUserID(),
	}
}

// do sends a request as the API's tenant and actor. headers are key/value pairs.
func (a *ledgerAPI) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderTenantID, a.tenant.String())
	req.Header.Set(middleware.HeaderActorID, a.actor.String())
	for i := 0; i+1 < len(headers); i += 2 {
		if headers[i+1] == "" {
			req.Header.Del(headers[i])
			continue
		}
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decodeAs[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var resp envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func (a *ledgerAPI) createLedger(code, nature string) uuid.UUID {
	a.t.Helper()
	w := a.do(http.MethodPost, "/ledgers", gin.H{"code": code, "name": "Ledger " + code, "nature": nature})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decodeAs[appledger.LedgerResponse](a.t, w).Data.ID
}

func (a *ledgerAPI) createJournal(debit, credit uuid.UUID, amount string) appledger.VoucherResponse {
	a.t.Helper()
	w := a.do(http.MethodPost, "/vouchers", testutil.JournalRequest(debit, credit, amount, testutil.Date("2026-03-15")))
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decodeAs[appledger.VoucherResponse](a.t, w).Data
}

func TestLedgerAPI_VoucherLifecycle(t *testing.T) {
	api := newLedgerAPI(t)
	cash := api.createLedger("1000", "ASSET")
	sales := api.createLedger("4000", "INCOME")

	draft := api.createJournal(cash, sales, "250.00")
	assert.Equal(t, "DRAFT", draft.Status)
	assert.Equal(t, "JV-000001", draft.Number)

	w := api.do(http.MethodPost, fmt.Sprintf("/vouchers/%s/post", draft.ID), nil, middleware.HeaderIdempotencyKey, "post-abc")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	posted := decodeAs[appledger.VoucherResponse](t, w).Data
	assert.Equal(t, "POSTED", posted.Status)
	assert.False(t, posted.Replayed)

	t.Run("replay with the same key", func(t *testing.T) {
		w := api.do(http.MethodPost, fmt.Sprintf("/vouchers/%s/post", draft.ID), nil, middleware.HeaderIdempotencyKey, "post-abc")
		require.Equal(t, http.StatusOK, w.Code)
		replay := decodeAs[appledger.VoucherResponse](t, w).Data
		assert.True(t, replay.Replayed)
		assert.Equal(t, posted.Number, replay.Number)
	})

	t.Run("repeat without a key conflicts", func(t *testing.T) {
		w := api.do(http.MethodPost, fmt.Sprintf("/vouchers/%s/post", draft.ID), nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeAlreadyPosted, decodeAs[any](t, w).Error.Code)
	})

	t.Run("balance reflects the posting", func(t *testing.T) {
		w := api.do(http.MethodGet, fmt.Sprintf("/ledgers/%s/balance", cash), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		b := decodeAs[appledger.BalanceResponse](t, w).Data
		assert.True(t, decimal.RequireFromString("250").Equal(b.Net))
	})

	t.Run("reverse", func(t *testing.T) {
		w := api.do(http.MethodPost, fmt.Sprintf("/vouchers/%s/reverse", draft.ID), gin.H{"reason": "duplicate"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		mirror := decodeAs[appledger.VoucherResponse](t, w).Data
		require.NotNil(t, mirror.ReversalOfID)
		assert.Equal(t, draft.ID, *mirror.ReversalOfID)

		w = api.do(http.MethodGet, fmt.Sprintf("/vouchers/%s", draft.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "REVERSED", decodeAs[appledger.VoucherResponse](t, w).Data.Status)

		w = api.do(http.MethodGet, fmt.Sprintf("/ledgers/%s/balance", cash), nil)
		assert.True(t, decimal.Zero.Equal(decodeAs[appledger.BalanceResponse](t, w).Data.Net))
	})

	t.Run("reverse requires a reason", func(t *testing.T) {
		w := api.do(http.MethodPost, fmt.Sprintf("/vouchers/%s/reverse", draft.ID), gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLedgerAPI_RequestScoping(t *testing.T) {
	api := newLedgerAPI(t)
	cash := api.createLedger("1000", "ASSET")
	sales := api.createLedger("4000", "INCOME")
	draft := api.createJournal(cash, sales, "10")

	t.Run("missing actor", func(t *testing.T) {
		w := api.do(http.MethodPost, fmt.Sprintf("/vouchers/%s/post", draft.ID), nil, middleware.HeaderActorID, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, decodeAs[any](t, w).Error.Code)
	})

	t.Run("missing tenant", func(t *testing.T) {
		w := api.do(http.MethodGet, fmt.Sprintf("/vouchers/%s", draft.ID), nil, middleware.HeaderTenantID, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeTenantRequired, decodeAs[any](t, w).Error.Code)
	})

	t.Run("another tenant cannot see the voucher", func(t *testing.T) {
		w := api.do(http.MethodGet, fmt.Sprintf("/vouchers/%s", draft.ID), nil, middleware.HeaderTenantID, uuid.NewString())
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unbalanced draft is rejected at post", func(t *testing.T) {
		req := testutil.JournalRequest(cash, sales, "10", testutil.Date("2026-03-15"))
		req.Lines[1].Amount = decimal.RequireFromString("9")
		w := api.do(http.MethodPost, "/vouchers", req)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		id := decodeAs[appledger.VoucherResponse](t, w).Data.ID

		w = api.do(http.MethodPost, fmt.Sprintf("/vouchers/%s/post", id), nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeUnbalancedEntry, decodeAs[any](t, w).Error.Code)
	})
}

func TestLedgerAPI_ClosedPeriodIsLocked(t *testing.T) {
	api := newLedgerAPI(t)
	cash := api.createLedger("1000", "ASSET")
	sales := api.createLedger("4000", "INCOME")

	w := api.do(http.MethodPost, "/periods", gin.H{
		"name":       "2026-03",
		"start_date": testutil.Date("2026-03-01"),
		"end_date":   testutil.Date("2026-03-31"),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	period := decodeAs[appledger.PeriodResponse](t, w).Data

	draft := api.createJournal(cash, sales, "10")
	w = api.do(http.MethodPost, fmt.Sprintf("/periods/%s/close", period.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "CLOSED", decodeAs[appledger.PeriodResponse](t, w).Data.Status)

	w = api.do(http.MethodPost, fmt.Sprintf("/vouchers/%s/post", draft.ID), nil)
	assert.Equal(t, http.StatusLocked, w.Code)
	assert.Equal(t, dto.ErrCodePeriodClosed, decodeAs[any](t, w).Error.Code)

	w = api.do(http.MethodPost, fmt.Sprintf("/vouchers/%s/post", draft.ID), gin.H{"override_period": true})
	assert.Equal(t, http.StatusLocked, w.Code, "the actor is not allowed to override")
}

func TestLedgerAPI_TrialBalanceAndArchive(t *testing.T) {
	api := newLedgerAPI(t)
	cash := api.createLedger("1000", "ASSET")
	sales := api.createLedger("4000", "INCOME")

	w := api.do(http.MethodPost, "/periods", gin.H{
		"name":       "2026-03",
		"start_date": testutil.Date("2026-03-01"),
		"end_date":   testutil.Date("2026-03-31"),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	period := decodeAs[appledger.PeriodResponse](t, w).Data

	draft := api.createJournal(cash, sales, "64")
	w = api.do(http.MethodPost, fmt.Sprintf("/vouchers/%s/post", draft.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/trial-balance?period_id="+period.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tb := decodeAs[appledger.TrialBalanceResponse](t, w).Data
	require.Len(t, tb.Lines, 2)
	assert.True(t, tb.Balanced)
	assert.True(t, decimal.RequireFromString("64").Equal(tb.TotalDebit))

	w = api.do(http.MethodGet, "/trial-balance?period_id=march", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	archivePath := fmt.Sprintf("/periods/%s/archive", period.ID)
	w = api.do(http.MethodPost, archivePath, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodePeriodOpen, decodeAs[any](t, w).Error.Code)

	w = api.do(http.MethodPost, fmt.Sprintf("/periods/%s/close", period.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodPost, archivePath, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	archive := decodeAs[appledger.PeriodArchiveResponse](t, w).Data
	assert.Equal(t, appledger.PeriodArchiveKey(api.tenant, period.ID), archive.Key)

	stored, err := api.stack.Archive.Exists(context.Background(), archive.Key)
	require.NoError(t, err)
	assert.True(t, stored)
}

func TestLedgerAPI_PaymentFlow(t *testing.T) {
	api := newLedgerAPI(t)
	bank := api.createLedger("1100", "ASSET")
	customer := api.createLedger("1200", "ASSET")

	w := api.do(http.MethodPost, "/invoices", gin.H{
		"number":          "INV-1",
		"party_ledger_id": customer,
		"grand_total":     "300",
		"invoice_date":    testutil.Date("2026-03-01"),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	invoice := decodeAs[appledger.InvoiceResponse](t, w).Data

	w = api.do(http.MethodPost, "/payments", gin.H{
		"direction":       "RECEIPT",
		"party_ledger_id": customer,
		"bank_ledger_id":  bank,
		"amount":          "120",
		"payment_date":    testutil.Date("2026-03-15"),
		"lines":           []gin.H{{"invoice_id": invoice.ID, "amount": "120"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	payment := decodeAs[appledger.PaymentResponse](t, w).Data

	w = api.do(http.MethodPost, fmt.Sprintf("/payments/vouchers/%s/post", payment.VoucherID), nil, middleware.HeaderIdempotencyKey, "pay-1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "POSTED", decodeAs[appledger.PaymentResponse](t, w).Data.Status)

	w = api.do(http.MethodGet, fmt.Sprintf("/invoices/%s", invoice.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decimal.RequireFromString("180").Equal(decodeAs[appledger.InvoiceResponse](t, w).Data.Outstanding))

	w = api.do(http.MethodGet, fmt.Sprintf("/parties/%s/credit-exposure", customer), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	exposure := decodeAs[appledger.CreditExposureResponse](t, w).Data
	assert.True(t, decimal.RequireFromString("180").Equal(exposure.Exposure))
	assert.Equal(t, 1, exposure.OpenInvoices)

	t.Run("overpayment", func(t *testing.T) {
		w := api.do(http.MethodPost, "/payments", gin.H{
			"direction":       "RECEIPT",
			"party_ledger_id": customer,
			"bank_ledger_id":  bank,
			"amount":          "500",
			"payment_date":    testutil.Date("2026-03-16"),
			"lines":           []gin.H{{"invoice_id": invoice.ID, "amount": "500"}},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		id := decodeAs[appledger.PaymentResponse](t, w).Data.VoucherID

		w = api.do(http.MethodPost, fmt.Sprintf("/payments/vouchers/%s/post", id), nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeOverpayment, decodeAs[any](t, w).Error.Code)
	})
}

func TestLedgerAPI_OutboxAdmin(t *testing.T) {
	api := newLedgerAPI(t)
	cash := api.createLedger("1000", "ASSET")
	sales := api.createLedger("4000", "INCOME")
	draft := api.createJournal(cash, sales, "10")
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, fmt.Sprintf("/vouchers/%s/post", draft.ID), nil).Code)

	// system routes are not tenant scoped
	w := api.do(http.MethodGet, "/system/outbox/stats", nil, middleware.HeaderTenantID, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stats := decodeAs[OutboxStatsResponse](t, w).Data
	assert.Equal(t, int64(1), stats.Pending)
	assert.Equal(t, int64(1), stats.Total)

	w = api.do(http.MethodGet, "/system/outbox/dead", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, decodeAs[OutboxListResponse](t, w).Data.Entries)

	w = api.do(http.MethodGet, "/system/outbox/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
