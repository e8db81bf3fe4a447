package accounting

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction names what happened to a voucher
type AuditAction string

const (
	AuditVoucherCreated   AuditAction = "VOUCHER_CREATED"
	AuditVoucherPosted    AuditAction = "VOUCHER_POSTED"
	AuditVoucherReversed  AuditAction = "VOUCHER_REVERSED"
	AuditVoucherCancelled AuditAction = "VOUCHER_CANCELLED"
	AuditPeriodOverride   AuditAction = "PERIOD_OVERRIDE"
)

// AuditEntry is an append-only record of a ledger mutation
type AuditEntry struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	ActorID    uuid.UUID
	Action     AuditAction
	EntityType string
	EntityID   uuid.UUID
	Details    map[string]any
	CreatedAt  time.Time
}

// NewVoucherAudit creates an audit entry about a voucher
func NewVoucherAudit(v *Voucher, actor uuid.UUID, action AuditAction, details map[string]any) *AuditEntry {
	if details == nil {
		details = make(map[string]any)
	}
	details["number"] = v.Number
	details["status"] = string(v.Status)
	return &AuditEntry{
		ID:         uuid.New(),
		TenantID:   v.TenantID,
		ActorID:    actor,
		Action:     action,
		EntityType: "voucher",
		EntityID:   v.ID,
		Details:    details,
		CreatedAt:  time.Now(),
	}
}
