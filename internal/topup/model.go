package topup

import (
	"errors"
	"time"

	"github.com/paisaone/paisa_core/internal/wallet"
)

// Method is the off-platform deposit channel the user claims to have used.
type Method string

const (
	MethodUPI           Method = "UPI"
	MethodCashDeposit   Method = "CASH_DEPOSIT"
	MethodNEFT          Method = "NEFT"
	MethodRTGS          Method = "RTGS"
	MethodIMPS          Method = "IMPS"
	MethodOfficeDeposit Method = "OFFICE_DEPOSIT"
)

// Status is the request lifecycle state.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusSuccess  Status = "SUCCESS"
	StatusRejected Status = "REJECTED"
)

// MinAmount is the top-up floor in minor currency units (1 currency unit).
const MinAmount = 100

var (
	// ErrNotFound indicates an unknown request identifier.
	ErrNotFound = errors.New("top-up request not found")
	// ErrIllegalTransition rejects approve/reject on a terminal request.
	// It is the primary defense against double-crediting from a retried
	// administrative action.
	ErrIllegalTransition = errors.New("illegal state transition")
	// ErrAmountBelowMinimum rejects amounts under the top-up floor.
	ErrAmountBelowMinimum = errors.New("amount below top-up minimum")
)

// Bank carries the evidence details of the claimed deposit.
type Bank struct {
	Name      string
	Account   string
	Reference string
}

// Request models a manually-evidenced deposit awaiting human approval.
// Exactly one of ApprovalTime or RejectionTime (with RejectionReason) is set
// on the terminal transition.
type Request struct {
	ID              string
	UserID          string
	Amount          int64
	Method          Method
	Bank            Bank
	Sub             wallet.Sub
	Status          Status
	ApprovalTime    *time.Time
	RejectionTime   *time.Time
	RejectionReason string
	CreatedAt       time.Time
}

// MarkApproved returns a copy of r approved at the given instant.
func MarkApproved(r Request, at time.Time) (Request, error) {
	if r.Status != StatusPending {
		return Request{}, ErrIllegalTransition
	}
	r.Status = StatusSuccess
	r.ApprovalTime = &at
	return r, nil
}

// MarkRejected returns a copy of r rejected with the given reason.
func MarkRejected(r Request, reason string, at time.Time) (Request, error) {
	if r.Status != StatusPending {
		return Request{}, ErrIllegalTransition
	}
	r.Status = StatusRejected
	r.RejectionTime = &at
	r.RejectionReason = reason
	return r, nil
}

// ValidMethod reports whether m names a known deposit channel.
func ValidMethod(m Method) bool {
	switch m {
	case MethodUPI, MethodCashDeposit, MethodNEFT, MethodRTGS, MethodIMPS, MethodOfficeDeposit:
		return true
	default:
		return false
	}
}

// Summary aggregates a user's requests per status.
type Summary struct {
	UserID        string
	PendingCount  int64
	PendingAmount int64
	SuccessCount  int64
	SuccessTotal  int64
	RejectedCount int64
}
