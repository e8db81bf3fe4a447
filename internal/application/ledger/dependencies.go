package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dependencies collects the collaborators shared by the ledger services.
// Only Scope is required; everything else has a working default.
type Dependencies struct {
	Scope           TransactionScope
	Guard           *IdempotencyGuard
	Authorizer      OverrideAuthorizer
	Currencies      valueobject.CurrencyPolicy
	// DefaultCurrency applies to requests that name no currency
	DefaultCurrency valueobject.Currency
	Numbering       Numbering
	Metrics         *telemetry.LedgerMetrics
	Logger          *zap.Logger
	Clock           func() time.Time
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Guard == nil {
		d.Guard = NewIdempotencyGuard(nil, shared.IdempotencyConfig{}, d.Logger)
	}
	if d.Authorizer == nil {
		d.Authorizer = DenyOverrides{}
	}
	if d.Currencies == nil {
		d.Currencies = valueobject.NewISOCurrencyPolicy(nil)
	}
	if d.DefaultCurrency == "" {
		d.DefaultCurrency = valueobject.DefaultCurrency
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return d
}

// Numbering decides which sequence numbers each voucher type
type Numbering struct {
	ResetPolicy accounting.ResetPolicy
}

// Definition returns the sequence for a voucher type
func (n Numbering) Definition(t accounting.VoucherType) accounting.SequenceDefinition {
	return accounting.VoucherSequence(t, n.ResetPolicy)
}

// Operation names used for metrics, spans and idempotency records
const (
	OperationPost        = "post"
	OperationPostPayment = "post_payment"
	OperationReverse     = "reverse"
)

// errorCode returns the domain error code, or INFRASTRUCTURE for anything else
func errorCode(err error) string {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return "INFRASTRUCTURE"
}

// currency parses a requested currency code, falling back to the default
func (d Dependencies) currency(code string) (valueobject.Currency, error) {
	if code == "" {
		return d.DefaultCurrency, nil
	}
	c, err := valueobject.ParseCurrency(code)
	if err != nil {
		return "", shared.ErrInvalidInput.WithMessage(err.Error())
	}
	return c, nil
}

// resolvePeriod returns the period a document dated date belongs to. An explicit
// period must exist and contain the date; otherwise the period is looked up by
// date and may be absent.
func resolvePeriod(ctx context.Context, periods accounting.AccountingPeriodRepository,
	tenantID uuid.UUID, periodID *uuid.UUID, date time.Time) (*uuid.UUID, error) {
	if periodID != nil {
		period, err := periods.FindByID(ctx, tenantID, *periodID)
		if err != nil {
			return nil, fmt.Errorf("failed to load accounting period: %w", err)
		}
		if period == nil {
			return nil, shared.ErrNotFound.WithMessage(fmt.Sprintf("Accounting period %s not found", *periodID))
		}
		if !period.Contains(date) {
			return nil, shared.ErrInvalidInput.WithMessage(fmt.Sprintf(
				"Date %s is outside accounting period %s", date.Format("2006-01-02"), period.Name))
		}
		id := period.ID
		return &id, nil
	}
	period, err := periods.FindByDate(ctx, tenantID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to look up accounting period: %w", err)
	}
	if period == nil {
		return nil, nil
	}
	id := period.ID
	return &id, nil
}
