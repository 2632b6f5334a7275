package payment

import (
	"errors"
	"time"
)

// Type is the inbound funding channel.
type Type string

const (
	TypeCard         Type = "CARD"
	TypeBankTransfer Type = "BANK_TRANSFER"
	TypeOthers       Type = "OTHERS"
)

// Status is the payment lifecycle state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Minimums in minor currency units.
const (
	MinAmount = 1000 // 10 currency units
	MinFee    = 1    // 0.01 currency units
)

var (
	// ErrNotFound indicates an unknown payment identifier.
	ErrNotFound = errors.New("payment not found")
	// ErrIllegalTransition rejects complete/fail on a terminal payment.
	ErrIllegalTransition = errors.New("illegal state transition")
	// ErrDetailRequired rejects a payment without instrument metadata.
	ErrDetailRequired = errors.New("payment detail is required")
	// ErrAmountBelowMinimum rejects amounts under the payment floor.
	ErrAmountBelowMinimum = errors.New("amount below payment minimum")
	// ErrDeclined indicates the acquirer refused the authorization.
	ErrDeclined = errors.New("payment declined by acquirer")
)

// Detail carries the bank, holder and instrument metadata a payment must
// record.
type Detail struct {
	BankName   string
	HolderName string
	Instrument string
	Reference  string
}

// Empty reports whether no metadata was supplied at all.
func (d Detail) Empty() bool {
	return d == Detail{}
}

// Payment models one inbound funding attempt. ActionTime and ActionReason
// are written exactly once, on the terminal transition.
type Payment struct {
	ID           string
	UserID       string
	Type         Type
	Amount       int64
	Fee          int64
	Detail       Detail
	Status       Status
	ActionTime   *time.Time
	ActionReason string
	CreatedAt    time.Time
}

// MarkCompleted returns a copy of p settled at the given instant, or
// ErrIllegalTransition if p already reached a terminal state.
func MarkCompleted(p Payment, at time.Time) (Payment, error) {
	if p.Status != StatusPending {
		return Payment{}, ErrIllegalTransition
	}
	p.Status = StatusCompleted
	p.ActionTime = &at
	return p, nil
}

// MarkFailed returns a copy of p failed with the given reason. The original
// reason of an already-terminal payment is never overwritten.
func MarkFailed(p Payment, reason string, at time.Time) (Payment, error) {
	if p.Status != StatusPending {
		return Payment{}, ErrIllegalTransition
	}
	p.Status = StatusFailed
	p.ActionTime = &at
	p.ActionReason = reason
	return p, nil
}

// ValidType reports whether t names a known funding channel.
func ValidType(t Type) bool {
	switch t {
	case TypeCard, TypeBankTransfer, TypeOthers:
		return true
	default:
		return false
	}
}

// Summary aggregates a user's payments per status.
type Summary struct {
	UserID         string
	PendingCount   int64
	PendingAmount  int64
	CompletedCount int64
	CompletedTotal int64
	FailedCount    int64
}
