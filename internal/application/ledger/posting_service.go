package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// PostingService turns draft vouchers into final double-entry postings
type PostingService struct {
	deps Dependencies
}

// NewPostingService creates a new PostingService
func NewPostingService(deps Dependencies) *PostingService {
	return &PostingService{deps: deps.withDefaults()}
}

// Post validates and posts a draft voucher as one atomic unit.
// A known idempotency key returns the voucher it produced before, unchanged.
func (s *PostingService) Post(ctx context.Context, tenantID uuid.UUID, req PostVoucherRequest) (*VoucherResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "voucher", OperationPost)
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrVoucherID, req.VoucherID.String(),
	)
	started := time.Now()

	key, err := accounting.NormalizeIdempotencyKey(req.IdempotencyKey)
	if err != nil {
		return nil, s.fail(ctx, span, OperationPost, err)
	}

	var (
		result   *accounting.Voucher
		replayed bool
	)
	err = s.deps.Scope.Execute(ctx, func(repos TransactionalRepositories) error {
		prior, err := s.deps.Guard.Lookup(ctx, repos, tenantID, key)
		if err != nil {
			return err
		}
		if prior != nil {
			result, replayed = prior, true
			return nil
		}

		v, err := repos.VoucherRepo().FindByIDForUpdate(ctx, tenantID, req.VoucherID)
		if err != nil {
			return fmt.Errorf("failed to lock voucher: %w", err)
		}
		if v == nil {
			return shared.ErrNotFound.WithMessage(fmt.Sprintf("Voucher %s not found", req.VoucherID))
		}

		// a concurrent request with the same key may have won the voucher lock
		if v.Status != accounting.VoucherStatusDraft && key != "" {
			prior, err := s.deps.Guard.Lookup(ctx, repos, tenantID, key)
			if err != nil {
				return err
			}
			if prior != nil {
				result, replayed = prior, true
				return nil
			}
		}

		if err := s.postLocked(ctx, repos, v, postOptions{
			actor:          req.ActorID,
			overridePeriod: req.OverridePeriod,
			idempotencyKey: key,
			operation:      OperationPost,
		}); err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, OperationPost, err)
	}

	s.succeed(ctx, span, OperationPost, result, key, replayed, started)
	resp := ToVoucherResponse(result)
	resp.Replayed = replayed
	return &resp, nil
}

// postOptions controls one run of the posting pipeline
type postOptions struct {
	actor            uuid.UUID
	overridePeriod   bool
	// periodChecked skips the period guard when the caller already ran it;
	// periodOverridden then carries its outcome for the audit trail
	periodChecked    bool
	periodOverridden bool
	idempotencyKey   string
	operation        string
	auditDetails     map[string]any
}

// postLocked is the posting pipeline. The caller holds the voucher row lock
// (or owns a new voucher) inside the current transaction. Steps, in order:
// state guard, period guard, resource guards, double-entry validation,
// balance cache, numbering, status transition, persistence, audit, outbox, key.
func (s *PostingService) postLocked(ctx context.Context, repos TransactionalRepositories, v *accounting.Voucher, opts postOptions) error {
	if err := accounting.GuardDraft(v); err != nil {
		return err
	}

	overridden := opts.periodOverridden
	if !opts.periodChecked {
		var err error
		_, overridden, err = s.checkPeriod(ctx, repos, v, opts.actor, opts.overridePeriod)
		if err != nil {
			return err
		}
	}

	if err := s.checkLedgers(ctx, repos, v); err != nil {
		return err
	}

	v.Renumber()
	tolerance := valueobject.MinorUnit(s.deps.Currencies.MinorUnits(v.Currency))
	totals, err := accounting.ValidateDoubleEntry(v.Lines, tolerance)
	if err != nil {
		return err
	}

	for _, app := range accounting.BalanceApplications(v) {
		if _, err := repos.BalanceRepo().ApplyLine(ctx, v.TenantID, app.Key.LedgerID, app.Key.PeriodID,
			app.Kind, app.Amount, v.ID); err != nil {
			return fmt.Errorf("failed to apply line %d to balance cache: %w", app.LineNo, err)
		}
	}

	if v.Number == "" {
		number, err := repos.SequenceRepo().Next(ctx, v.TenantID, s.deps.Numbering.Definition(v.VoucherType), v.VoucherDate)
		if err != nil {
			return fmt.Errorf("failed to mint voucher number: %w", err)
		}
		if err := v.AssignNumber(number); err != nil {
			return err
		}
	}

	if err := v.Post(opts.actor, s.deps.Clock()); err != nil {
		return err
	}
	if err := repos.VoucherRepo().Save(ctx, v); err != nil {
		return fmt.Errorf("failed to save voucher: %w", err)
	}
	if err := repos.VoucherRepo().SaveLines(ctx, v); err != nil {
		return fmt.Errorf("failed to save voucher lines: %w", err)
	}

	details := map[string]any{
		"operation":    opts.operation,
		"total_debit":  totals.Debit.String(),
		"total_credit": totals.Credit.String(),
		"lines":        len(v.Lines),
	}
	for k, val := range opts.auditDetails {
		details[k] = val
	}
	entries := []*accounting.AuditEntry{accounting.NewVoucherAudit(v, opts.actor, accounting.AuditVoucherPosted, details)}
	if overridden {
		entries = append(entries, accounting.NewVoucherAudit(v, opts.actor, accounting.AuditPeriodOverride,
			map[string]any{"period_id": v.PeriodID.String(), "operation": opts.operation}))
	}
	if err := repos.AuditRepo().Append(ctx, entries...); err != nil {
		return fmt.Errorf("failed to append audit log: %w", err)
	}
	if err := repos.Events().Publish(ctx, v.PullDomainEvents()...); err != nil {
		return fmt.Errorf("failed to enqueue voucher events: %w", err)
	}
	return s.deps.Guard.Record(ctx, repos, v.TenantID, opts.idempotencyKey, v.ID, opts.operation)
}

// checkPeriod runs the period guard. The override is only honored for actors the
// authorizer accepts; a used override is logged and reported so it can be audited.
func (s *PostingService) checkPeriod(ctx context.Context, repos TransactionalRepositories, v *accounting.Voucher,
	actor uuid.UUID, override bool) (*accounting.AccountingPeriod, bool, error) {
	if v.PeriodID == nil {
		return nil, false, nil
	}
	period, err := repos.PeriodRepo().FindByID(ctx, v.TenantID, *v.PeriodID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load accounting period: %w", err)
	}
	if period == nil {
		return nil, false, shared.ErrNotFound.WithMessage(fmt.Sprintf("Accounting period %s not found", *v.PeriodID))
	}
	if period.IsOpen() {
		return period, false, nil
	}

	allowed := override && s.deps.Authorizer.CanOverridePeriod(ctx, v.TenantID, actor)
	if err := accounting.GuardPeriodOpen(v, period, allowed); err != nil {
		if override {
			return nil, false, accounting.ErrPeriodClosed.WithMessage(fmt.Sprintf(
				"Accounting period %s is closed and actor %s may not override it", period.Name, actor))
		}
		return nil, false, err
	}

	s.deps.Logger.Warn("Posting into closed accounting period under override",
		zap.String("tenant_id", v.TenantID.String()),
		zap.String("voucher_id", v.ID.String()),
		zap.String("period", period.Name),
		zap.String("actor_id", actor.String()))
	return period, true, nil
}

// checkLedgers requires every referenced ledger to exist and be active
func (s *PostingService) checkLedgers(ctx context.Context, repos TransactionalRepositories, v *accounting.Voucher) error {
	ids := accounting.LedgerIDs(v.Lines)
	accounting.SortUUIDs(ids)
	accounts, err := repos.LedgerRepo().FindByIDs(ctx, v.TenantID, ids)
	if err != nil {
		return fmt.Errorf("failed to load ledgers: %w", err)
	}
	byID := make(map[uuid.UUID]*accounting.LedgerAccount, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	for _, id := range ids {
		account, ok := byID[id]
		if !ok {
			return shared.ErrNotFound.WithMessage(fmt.Sprintf("Ledger %s not found", id))
		}
		if err := accounting.GuardResourceActive(account); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostingService) succeed(ctx context.Context, span trace.Span, operation string, v *accounting.Voucher,
	key string, replayed bool, started time.Time) {
	s.deps.Metrics.RecordDuration(ctx, operation, time.Since(started))
	telemetry.SetAttributes(span,
		telemetry.SpanAttrVoucherNumber, v.Number,
		telemetry.SpanAttrReplayed, replayed,
	)
	if replayed {
		s.deps.Metrics.RecordIdempotentReplay(ctx, operation)
		s.deps.Logger.Info("Idempotent replay",
			zap.String("operation", operation),
			zap.String("tenant_id", v.TenantID.String()),
			zap.String("voucher_id", v.ID.String()))
		return
	}

	s.deps.Guard.Remember(ctx, v.TenantID, key, v.ID)
	if operation == OperationReverse {
		s.deps.Metrics.RecordReversed(ctx, v.VoucherType.String())
	} else {
		s.deps.Metrics.RecordPosted(ctx, v.VoucherType.String())
	}
	s.deps.Logger.Info("Voucher posted",
		zap.String("operation", operation),
		zap.String("tenant_id", v.TenantID.String()),
		zap.String("voucher_id", v.ID.String()),
		zap.String("number", v.Number),
		zap.String("voucher_type", v.VoucherType.String()))
}

func (s *PostingService) fail(ctx context.Context, span trace.Span, operation string, err error) error {
	telemetry.RecordError(span, err)
	code := errorCode(err)
	s.deps.Metrics.RecordFailure(ctx, operation, code)
	if shared.IsRetryable(err) {
		s.deps.Logger.Error("Ledger operation failed", zap.String("operation", operation), zap.Error(err))
	} else {
		s.deps.Logger.Info("Ledger operation rejected",
			zap.String("operation", operation),
			zap.String("code", code),
			zap.String("reason", err.Error()))
	}
	return err
}
