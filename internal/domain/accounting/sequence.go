package accounting

import (
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
)

// ResetPolicy declares when a sequence counter starts again from 1
type ResetPolicy string

const (
	ResetNever   ResetPolicy = "NEVER"
	ResetYearly  ResetPolicy = "YEARLY"
	ResetMonthly ResetPolicy = "MONTHLY"
	ResetDaily   ResetPolicy = "DAILY"
)

// IsValid checks if the reset policy is known
func (p ResetPolicy) IsValid() bool {
	switch p {
	case ResetNever, ResetYearly, ResetMonthly, ResetDaily:
		return true
	}
	return false
}

// PeriodKey returns the counter bucket for a document date.
// Each bucket is its own counter row, so crossing a boundary starts at 1.
func (p ResetPolicy) PeriodKey(date time.Time) string {
	switch p {
	case ResetYearly:
		return date.Format("2006")
	case ResetMonthly:
		return date.Format("2006-01")
	case ResetDaily:
		return date.Format("2006-01-02")
	default:
		return ""
	}
}

// SequenceWidth is the zero-padded width of the numeric part
const SequenceWidth = 6

// SequenceDefinition describes one numbered document series
type SequenceDefinition struct {
	Key         string
	Prefix      string
	ResetPolicy ResetPolicy
}

// Validate checks the definition
func (d SequenceDefinition) Validate() error {
	if d.Key == "" {
		return shared.NewDomainError("INVALID_SEQUENCE", "Sequence key cannot be empty")
	}
	if len(d.Prefix) > 20 {
		return shared.NewDomainError("INVALID_SEQUENCE", "Sequence prefix cannot exceed 20 characters")
	}
	if !d.ResetPolicy.IsValid() {
		return shared.NewDomainError("INVALID_SEQUENCE", fmt.Sprintf("Unknown reset policy %q", d.ResetPolicy))
	}
	return nil
}

// Format renders the number for a counter value
func (d SequenceDefinition) Format(value int64) string {
	return fmt.Sprintf("%s%0*d", d.Prefix, SequenceWidth, value)
}

// Number renders the number issued for a document date. Buckets other than
// the never-reset one are embedded so numbers stay unique across resets.
func (d SequenceDefinition) Number(date time.Time, value int64) string {
	bucket := d.ResetPolicy.PeriodKey(date)
	if bucket == "" {
		return d.Format(value)
	}
	return fmt.Sprintf("%s%s-%0*d", d.Prefix, bucket, SequenceWidth, value)
}

var voucherPrefixes = map[VoucherType]string{
	VoucherTypeJournal:    "JV-",
	VoucherTypePayment:    "PV-",
	VoucherTypeReceipt:    "RV-",
	VoucherTypeContra:     "CV-",
	VoucherTypeSales:      "SV-",
	VoucherTypePurchase:   "PU-",
	VoucherTypeDebitNote:  "DN-",
	VoucherTypeCreditNote: "CN-",
}

// VoucherSequence returns the default series for a voucher type
func VoucherSequence(t VoucherType, policy ResetPolicy) SequenceDefinition {
	if policy == "" {
		policy = ResetNever
	}
	return SequenceDefinition{
		Key:         "voucher." + string(t),
		Prefix:      voucherPrefixes[t],
		ResetPolicy: policy,
	}
}
