package accounting

import (
	"fmt"

	"github.com/google/uuid"
)

// Resource is anything a voucher line references that can be switched off
type Resource interface {
	ResourceType() string
	GetID() uuid.UUID
	IsActive() bool
}

// GuardDraft fails with ErrAlreadyPosted unless the voucher is still a draft
func GuardDraft(v *Voucher) error {
	if v.Status != VoucherStatusDraft {
		return ErrAlreadyPosted.WithMessage(
			fmt.Sprintf("Voucher %s is %s, expected DRAFT", v.label(), v.Status))
	}
	return nil
}

// GuardPeriodOpen fails with ErrPeriodClosed unless the voucher's period is open
// or the caller holds an override. A voucher without a period is not period-locked.
func GuardPeriodOpen(v *Voucher, period *AccountingPeriod, allowOverride bool) error {
	if v.PeriodID == nil || period == nil {
		return nil
	}
	if period.IsOpen() || allowOverride {
		return nil
	}
	return ErrPeriodClosed.WithMessage(
		fmt.Sprintf("Accounting period %s is closed for voucher %s", period.Name, v.label()))
}

// GuardNotReversed fails with ErrAlreadyReversed if the voucher was already negated
func GuardNotReversed(v *Voucher) error {
	if v.Status == VoucherStatusReversed || v.ReversedByID != nil {
		return ErrAlreadyReversed.WithMessage(fmt.Sprintf("Voucher %s is already reversed", v.label()))
	}
	return nil
}

// GuardPostedOnly fails with ErrNotPosted unless the voucher is POSTED
func GuardPostedOnly(v *Voucher) error {
	if v.Status != VoucherStatusPosted {
		return ErrNotPosted.WithMessage(fmt.Sprintf("Voucher %s is %s, expected POSTED", v.label(), v.Status))
	}
	return nil
}

// GuardResourceActive fails with ErrInactiveResource if the resource is switched off
func GuardResourceActive(r Resource) error {
	if !r.IsActive() {
		return ErrInactiveResource.WithMessage(
			fmt.Sprintf("%s %s is inactive", r.ResourceType(), r.GetID()))
	}
	return nil
}

func (v *Voucher) label() string {
	if v.Number != "" {
		return v.Number
	}
	return v.ID.String()
}
