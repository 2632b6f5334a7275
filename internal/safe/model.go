package safe

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates an unknown safe deposit identifier.
	ErrNotFound = errors.New("safe deposit not found")
	// ErrIllegalTransition rejects withdrawing an already-withdrawn deposit.
	ErrIllegalTransition = errors.New("illegal state transition")
	// ErrInvalidAmount rejects non-positive deposit amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidTerm rejects non-positive lock terms.
	ErrInvalidTerm = errors.New("term must be positive")
)

// Deposit is a fixed-term locked allocation of a wallet's safe balance.
// Interest is written by an external accrual process; the deposit itself is
// never deleted.
type Deposit struct {
	ID              string
	UserID          string
	WalletID        string
	Amount          int64
	StartDate       time.Time
	EndDate         time.Time
	WithdrawDate    *time.Time
	Interest        int64
	InterestUpdated bool
	Withdrawn       bool
	CreatedAt       time.Time
}

// Matured reports whether the locked term has elapsed.
func (d Deposit) Matured(now time.Time) bool {
	return !now.Before(d.EndDate)
}

// MarkWithdrawn returns a copy of d withdrawn at the given instant, or
// ErrIllegalTransition if it was already withdrawn.
func MarkWithdrawn(d Deposit, at time.Time) (Deposit, error) {
	if d.Withdrawn {
		return Deposit{}, ErrIllegalTransition
	}
	d.Withdrawn = true
	d.WithdrawDate = &at
	return d, nil
}

// MarkInterest returns a copy of d with the accrued interest recorded.
// Withdrawn deposits no longer accrue.
func MarkInterest(d Deposit, interest int64) (Deposit, error) {
	if d.Withdrawn {
		return Deposit{}, ErrIllegalTransition
	}
	if interest < 0 {
		return Deposit{}, ErrInvalidAmount
	}
	d.Interest = interest
	d.InterestUpdated = true
	return d, nil
}
