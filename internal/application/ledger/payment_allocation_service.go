package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/settlement"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentAllocationService records payments and posts them against open invoices
type PaymentAllocationService struct {
	deps    Dependencies
	posting *PostingService
}

// NewPaymentAllocationService creates a new PaymentAllocationService
func NewPaymentAllocationService(deps Dependencies) *PaymentAllocationService {
	deps = deps.withDefaults()
	return &PaymentAllocationService{deps: deps, posting: NewPostingService(deps)}
}

// CreatePayment creates a PAYMENT or RECEIPT voucher draft together with its
// payment and allocation lines. The voucher lines are derived when posting.
func (s *PaymentAllocationService) CreatePayment(ctx context.Context, tenantID uuid.UUID, req CreatePaymentRequest) (*PaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	currency, err := s.deps.currency(req.Currency)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		v *accounting.Voucher
		p *settlement.Payment
	)
	err = s.deps.Scope.Execute(ctx, func(repos TransactionalRepositories) error {
		direction := settlement.Direction(req.Direction)
		p, err = settlement.NewPayment(tenantID, uuid.Nil, direction, req.PartyLedgerID, req.BankLedgerID,
			settlement.PaymentMode(req.Mode), currency, req.Amount, req.PaymentDate)
		if err != nil {
			return err
		}
		p.SetReference(req.Reference)
		for _, l := range req.Lines {
			if err := p.AddLine(l.InvoiceID, l.Amount); err != nil {
				return err
			}
		}

		periodID, err := resolvePeriod(ctx, repos.PeriodRepo(), tenantID, req.PeriodID, req.PaymentDate)
		if err != nil {
			return err
		}
		v, err = accounting.NewVoucher(tenantID, direction.VoucherType(), periodID, req.PaymentDate, currency, req.Narration)
		if err != nil {
			return err
		}
		if req.CreatedBy != nil {
			v.SetCreatedBy(*req.CreatedBy)
			p.SetCreatedBy(*req.CreatedBy)
		}
		number, err := repos.SequenceRepo().Next(ctx, tenantID, s.deps.Numbering.Definition(v.VoucherType), v.VoucherDate)
		if err != nil {
			return fmt.Errorf("failed to mint voucher number: %w", err)
		}
		if err := v.AssignNumber(number); err != nil {
			return err
		}
		p.VoucherID = v.ID

		if err := repos.VoucherRepo().Save(ctx, v); err != nil {
			return fmt.Errorf("failed to save voucher: %w", err)
		}
		if err := repos.PaymentRepo().Save(ctx, p); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}
		return repos.AuditRepo().Append(ctx, accounting.NewVoucherAudit(v, actorOf(req.CreatedBy),
			accounting.AuditVoucherCreated, map[string]any{
				"payment_id": p.ID.String(),
				"direction":  string(p.Direction),
				"amount":     p.Amount.String(),
			}))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.deps.Logger.Info("Payment draft created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("payment_id", p.ID.String()),
		zap.String("voucher_number", v.Number))
	resp := ToPaymentResponse(p, v)
	return &resp, nil
}

// PostPaymentVoucher posts the voucher of a draft payment. Under one transaction it
// checks every allocation against the locked invoice's outstanding amount, posts
// the bank and counterparty lines, and raises each invoice's received amount.
func (s *PaymentAllocationService) PostPaymentVoucher(ctx context.Context, tenantID uuid.UUID, req PostPaymentRequest) (*PaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", OperationPostPayment)
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrVoucherID, req.VoucherID.String(),
	)
	started := time.Now()

	key, err := accounting.NormalizeIdempotencyKey(req.IdempotencyKey)
	if err != nil {
		return nil, s.posting.fail(ctx, span, OperationPostPayment, err)
	}

	var (
		v        *accounting.Voucher
		p        *settlement.Payment
		replayed bool
	)
	err = s.deps.Scope.Execute(ctx, func(repos TransactionalRepositories) error {
		replay := func(prior *accounting.Voucher) error {
			payment, err := repos.PaymentRepo().FindByVoucherIDForUpdate(ctx, tenantID, prior.ID)
			if err != nil {
				return fmt.Errorf("failed to load payment: %w", err)
			}
			if payment == nil {
				return shared.ErrNotFound.WithMessage(fmt.Sprintf("No payment recorded for voucher %s", prior.Number))
			}
			v, p, replayed = prior, payment, true
			return nil
		}

		prior, err := s.deps.Guard.Lookup(ctx, repos, tenantID, key)
		if err != nil {
			return err
		}
		if prior != nil {
			return replay(prior)
		}

		v, err = repos.VoucherRepo().FindByIDForUpdate(ctx, tenantID, req.VoucherID)
		if err != nil {
			return fmt.Errorf("failed to lock voucher: %w", err)
		}
		if v == nil {
			return shared.ErrNotFound.WithMessage(fmt.Sprintf("Voucher %s not found", req.VoucherID))
		}
		if v.Status != accounting.VoucherStatusDraft && key != "" {
			prior, err := s.deps.Guard.Lookup(ctx, repos, tenantID, key)
			if err != nil {
				return err
			}
			if prior != nil {
				return replay(prior)
			}
		}
		if err := accounting.GuardDraft(v); err != nil {
			return err
		}

		p, err = repos.PaymentRepo().FindByVoucherIDForUpdate(ctx, tenantID, v.ID)
		if err != nil {
			return fmt.Errorf("failed to lock payment: %w", err)
		}
		if p == nil {
			return shared.ErrNotFound.WithMessage(fmt.Sprintf("No payment recorded for voucher %s", v.Number))
		}
		if p.Status != settlement.PaymentStatusDraft {
			return accounting.ErrAlreadyPosted.WithMessage(fmt.Sprintf("Payment for voucher %s is already %s", v.Number, p.Status))
		}

		_, overridden, err := s.posting.checkPeriod(ctx, repos, v, req.ActorID, req.OverridePeriod)
		if err != nil {
			return err
		}

		ids := p.InvoiceIDs()
		accounting.SortUUIDs(ids)
		locked, err := repos.InvoiceRepo().FindByIDsForUpdate(ctx, tenantID, ids)
		if err != nil {
			return fmt.Errorf("failed to lock invoices: %w", err)
		}
		invoices := make(map[uuid.UUID]*settlement.Invoice, len(locked))
		for _, inv := range locked {
			invoices[inv.ID] = inv
		}

		plan, err := settlement.PlanAllocations(p, invoices, s.deps.Currencies.MinorUnits(p.Currency))
		if err != nil {
			return err
		}
		if err := v.SetLines(plan.LedgerLines()); err != nil {
			return err
		}

		if err := s.posting.postLocked(ctx, repos, v, postOptions{
			actor:            req.ActorID,
			overridePeriod:   req.OverridePeriod,
			periodChecked:    true,
			periodOverridden: overridden,
			idempotencyKey:   key,
			operation:        OperationPostPayment,
			auditDetails: map[string]any{
				"payment_id":  p.ID.String(),
				"allocations": len(plan.Allocations),
				"advance":     plan.Advance.String(),
			},
		}); err != nil {
			return err
		}

		if err := plan.Apply(); err != nil {
			return err
		}
		for _, inv := range locked {
			if err := repos.InvoiceRepo().Save(ctx, inv); err != nil {
				return fmt.Errorf("failed to save invoice %s: %w", inv.Number, err)
			}
		}
		if err := p.MarkPosted(s.deps.Clock()); err != nil {
			return err
		}
		if err := repos.PaymentRepo().Save(ctx, p); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.posting.fail(ctx, span, OperationPostPayment, err)
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrPaymentID, p.ID.String())
	s.posting.succeed(ctx, span, OperationPostPayment, v, key, replayed, started)
	resp := ToPaymentResponse(p, v)
	resp.Voucher.Replayed = replayed
	return &resp, nil
}
