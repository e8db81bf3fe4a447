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

// ReversalService negates posted vouchers with a mirror voucher
type ReversalService struct {
	deps    Dependencies
	posting *PostingService
}

// NewReversalService creates a new ReversalService
func NewReversalService(deps Dependencies) *ReversalService {
	deps = deps.withDefaults()
	return &ReversalService{deps: deps, posting: NewPostingService(deps)}
}

// Reverse posts a mirror of the original voucher, marks the original REVERSED and
// recomputes the received amount of every invoice its payment settled.
// The returned voucher is the mirror.
func (s *ReversalService) Reverse(ctx context.Context, tenantID uuid.UUID, req ReverseVoucherRequest) (*VoucherResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "voucher", OperationReverse)
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrVoucherID, req.VoucherID.String(),
	)
	started := time.Now()

	key, err := accounting.NormalizeIdempotencyKey(req.IdempotencyKey)
	if err != nil {
		return nil, s.posting.fail(ctx, span, OperationReverse, err)
	}

	var (
		mirror   *accounting.Voucher
		replayed bool
	)
	err = s.deps.Scope.Execute(ctx, func(repos TransactionalRepositories) error {
		prior, err := s.deps.Guard.Lookup(ctx, repos, tenantID, key)
		if err != nil {
			return err
		}
		if prior != nil {
			mirror, replayed = prior, true
			return nil
		}

		original, err := repos.VoucherRepo().FindByIDForUpdate(ctx, tenantID, req.VoucherID)
		if err != nil {
			return fmt.Errorf("failed to lock voucher: %w", err)
		}
		if original == nil {
			return shared.ErrNotFound.WithMessage(fmt.Sprintf("Voucher %s not found", req.VoucherID))
		}

		if err := accounting.GuardNotReversed(original); err != nil {
			if key != "" {
				prior, lookupErr := s.deps.Guard.Lookup(ctx, repos, tenantID, key)
				if lookupErr != nil {
					return lookupErr
				}
				if prior != nil {
					mirror, replayed = prior, true
					return nil
				}
			}
			return err
		}
		if err := accounting.GuardPostedOnly(original); err != nil {
			return err
		}

		payment, invoices, err := s.lockSettlement(ctx, repos, original)
		if err != nil {
			return err
		}

		period, overridden, err := s.posting.checkPeriod(ctx, repos, original, req.ActorID, req.OverridePeriod)
		if err != nil {
			return err
		}

		now := s.deps.Clock()
		mirrorDate := original.VoucherDate
		if period == nil || period.Contains(now) {
			mirrorDate = now
		}
		mirror, err = original.NewMirror(mirrorDate, req.Reason)
		if err != nil {
			return err
		}
		mirror.SetCreatedBy(req.ActorID)

		if err := s.posting.postLocked(ctx, repos, mirror, postOptions{
			actor:            req.ActorID,
			overridePeriod:   req.OverridePeriod,
			periodChecked:    true,
			periodOverridden: overridden,
			idempotencyKey:   key,
			operation:        OperationReverse,
			auditDetails: map[string]any{
				"reversal_of": original.ID.String(),
				"reason":      req.Reason,
			},
		}); err != nil {
			return err
		}

		if err := original.MarkReversed(mirror.ID, req.ActorID, req.Reason, now); err != nil {
			return err
		}
		if err := repos.VoucherRepo().Save(ctx, original); err != nil {
			return fmt.Errorf("failed to save reversed voucher: %w", err)
		}

		if payment != nil {
			if err := payment.MarkReversed(); err != nil {
				return err
			}
			if err := repos.PaymentRepo().Save(ctx, payment); err != nil {
				return fmt.Errorf("failed to save payment: %w", err)
			}
		}
		if err := s.recomputeInvoices(ctx, repos, tenantID, invoices); err != nil {
			return err
		}

		if err := repos.AuditRepo().Append(ctx, accounting.NewVoucherAudit(original, req.ActorID,
			accounting.AuditVoucherReversed, map[string]any{
				"reversed_by": mirror.ID.String(),
				"reason":      req.Reason,
				"invoices":    len(invoices),
			})); err != nil {
			return fmt.Errorf("failed to append audit log: %w", err)
		}
		return repos.Events().Publish(ctx, original.PullDomainEvents()...)
	})
	if err != nil {
		return nil, s.posting.fail(ctx, span, OperationReverse, err)
	}

	if !replayed {
		s.deps.Logger.Info("Voucher reversed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("original_id", req.VoucherID.String()),
			zap.String("reversal_number", mirror.Number))
	}
	s.posting.succeed(ctx, span, OperationReverse, mirror, key, replayed, started)
	resp := ToVoucherResponse(mirror)
	resp.Replayed = replayed
	return &resp, nil
}

// lockSettlement locks the payment recorded by the voucher, if any, and the
// invoices its lines settled, in ascending id order
func (s *ReversalService) lockSettlement(ctx context.Context, repos TransactionalRepositories,
	original *accounting.Voucher) (*settlement.Payment, []*settlement.Invoice, error) {
	payment, err := repos.PaymentRepo().FindByVoucherIDForUpdate(ctx, original.TenantID, original.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock payment: %w", err)
	}
	if payment == nil {
		return nil, nil, nil
	}
	ids := payment.InvoiceIDs()
	if len(ids) == 0 {
		return payment, nil, nil
	}
	accounting.SortUUIDs(ids)
	invoices, err := repos.InvoiceRepo().FindByIDsForUpdate(ctx, original.TenantID, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock invoices: %w", err)
	}
	return payment, invoices, nil
}

// recomputeInvoices rebuilds amount received from the payment lines that are
// still posted instead of subtracting the reversed amount
func (s *ReversalService) recomputeInvoices(ctx context.Context, repos TransactionalRepositories,
	tenantID uuid.UUID, invoices []*settlement.Invoice) error {
	for _, inv := range invoices {
		lines, err := repos.PaymentRepo().FindPostedLinesByInvoice(ctx, tenantID, inv.ID)
		if err != nil {
			return fmt.Errorf("failed to load payment lines for invoice %s: %w", inv.Number, err)
		}
		inv.RecomputeReceived(settlement.ReceivedFromLines(lines, s.deps.Currencies.MinorUnits(inv.Currency)))
		if err := repos.InvoiceRepo().Save(ctx, inv); err != nil {
			return fmt.Errorf("failed to save invoice %s: %w", inv.Number, err)
		}
	}
	return nil
}
