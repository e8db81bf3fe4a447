package ledger

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VoucherService manages draft vouchers before they reach the posting engine
type VoucherService struct {
	deps Dependencies
}

// NewVoucherService creates a new VoucherService
func NewVoucherService(deps Dependencies) *VoucherService {
	return &VoucherService{deps: deps.withDefaults()}
}

// CreateDraft creates a numbered draft voucher. Drafts may be unbalanced;
// double-entry is only enforced when posting.
func (s *VoucherService) CreateDraft(ctx context.Context, tenantID uuid.UUID, req CreateVoucherRequest) (*VoucherResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "voucher", "create_draft")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrVoucherType, req.VoucherType,
	)

	currency, err := s.deps.currency(req.Currency)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var v *accounting.Voucher
	err = s.deps.Scope.Execute(ctx, func(repos TransactionalRepositories) error {
		periodID, err := resolvePeriod(ctx, repos.PeriodRepo(), tenantID, req.PeriodID, req.VoucherDate)
		if err != nil {
			return err
		}

		v, err = accounting.NewVoucher(tenantID, accounting.VoucherType(req.VoucherType), periodID,
			req.VoucherDate, currency, req.Narration)
		if err != nil {
			return err
		}
		for _, l := range req.Lines {
			line := accounting.NewVoucherLine(l.LedgerID, accounting.EntryKind(l.EntryKind), l.Amount)
			line.CostCenterID = l.CostCenterID
			line.AgainstVoucherID = l.AgainstVoucherID
			line.Narration = l.Narration
			if err := v.AddLine(line); err != nil {
				return err
			}
		}
		if req.CreatedBy != nil {
			v.SetCreatedBy(*req.CreatedBy)
		}

		number, err := repos.SequenceRepo().Next(ctx, tenantID, s.deps.Numbering.Definition(v.VoucherType), v.VoucherDate)
		if err != nil {
			return fmt.Errorf("failed to mint voucher number: %w", err)
		}
		if err := v.AssignNumber(number); err != nil {
			return err
		}

		if err := repos.VoucherRepo().Save(ctx, v); err != nil {
			return fmt.Errorf("failed to save voucher: %w", err)
		}
		if err := repos.VoucherRepo().SaveLines(ctx, v); err != nil {
			return fmt.Errorf("failed to save voucher lines: %w", err)
		}
		return repos.AuditRepo().Append(ctx, accounting.NewVoucherAudit(v, actorOf(req.CreatedBy),
			accounting.AuditVoucherCreated, map[string]any{"lines": len(v.Lines)}))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.deps.Logger.Info("Voucher draft created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("voucher_id", v.ID.String()),
		zap.String("number", v.Number))
	resp := ToVoucherResponse(v)
	return &resp, nil
}

// Cancel abandons a draft voucher. Its number stays consumed.
func (s *VoucherService) Cancel(ctx context.Context, tenantID uuid.UUID, req CancelVoucherRequest) (*VoucherResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "voucher", "cancel")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrVoucherID, req.VoucherID.String(),
	)

	var v *accounting.Voucher
	err := s.deps.Scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		v, err = repos.VoucherRepo().FindByIDForUpdate(ctx, tenantID, req.VoucherID)
		if err != nil {
			return fmt.Errorf("failed to lock voucher: %w", err)
		}
		if v == nil {
			return shared.ErrNotFound.WithMessage(fmt.Sprintf("Voucher %s not found", req.VoucherID))
		}
		if err := v.Cancel(req.ActorID, s.deps.Clock()); err != nil {
			return err
		}
		if err := repos.VoucherRepo().Save(ctx, v); err != nil {
			return fmt.Errorf("failed to save voucher: %w", err)
		}
		if err := repos.AuditRepo().Append(ctx, accounting.NewVoucherAudit(v, req.ActorID,
			accounting.AuditVoucherCancelled, nil)); err != nil {
			return fmt.Errorf("failed to append audit log: %w", err)
		}
		return repos.Events().Publish(ctx, v.PullDomainEvents()...)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := ToVoucherResponse(v)
	return &resp, nil
}

// Get returns a voucher with its lines
func (s *VoucherService) Get(ctx context.Context, tenantID, voucherID uuid.UUID) (*VoucherResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "voucher", "get")
	defer span.End()

	var v *accounting.Voucher
	err := s.deps.Scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		v, err = repos.VoucherRepo().FindByID(ctx, tenantID, voucherID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if v == nil {
		return nil, shared.ErrNotFound.WithMessage(fmt.Sprintf("Voucher %s not found", voucherID))
	}
	resp := ToVoucherResponse(v)
	return &resp, nil
}

func actorOf(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
