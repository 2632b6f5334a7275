package wallet

import (
	"errors"
	"fmt"
	"time"
)

// Sub names one of the two sub-balances a wallet holds.
type Sub string

const (
	// SubPrimary is the freely spendable balance.
	SubPrimary Sub = "PRIMARY"
	// SubSafe is the locked balance backing safe deposits.
	SubSafe Sub = "SAFE"
)

// Status is the administrative wallet state.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusBlocked Status = "BLOCKED"
	StatusFrozen  Status = "FROZEN"
)

var (
	// ErrInvalidAmount rejects non-positive credit or debit amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInsufficientFunds occurs when a debit exceeds the targeted sub-balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrNotFound indicates an unknown wallet or user identifier.
	ErrNotFound = errors.New("wallet not found")
	// ErrWalletExists indicates the user already owns a wallet.
	ErrWalletExists = errors.New("wallet already exists for user")
)

// Wallet holds a user's primary and safe sub-balances in minor currency
// units. One wallet per user; never deleted. PinHash stays internal and is
// never serialized on reads.
type Wallet struct {
	ID             string
	UserID         string
	PrimaryBalance int64
	SafeBalance    int64
	Status         Status
	PinHash        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Total returns the sum of both sub-balances.
func (w Wallet) Total() int64 {
	return w.PrimaryBalance + w.SafeBalance
}

// ValidSub reports whether s names a known sub-balance.
func ValidSub(s Sub) bool {
	return s == SubPrimary || s == SubSafe
}

// ValidStatus reports whether s is a known administrative status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusBlocked, StatusFrozen:
		return true
	default:
		return false
	}
}

// ApplyCredit returns a copy of w with the named sub-balance increased.
// All balance mutation funnels through ApplyCredit and ApplyDebit so the
// non-negativity invariant has a single enforcement point.
func ApplyCredit(w Wallet, sub Sub, amount int64) (Wallet, error) {
	if amount <= 0 {
		return Wallet{}, ErrInvalidAmount
	}
	switch sub {
	case SubPrimary:
		w.PrimaryBalance += amount
	case SubSafe:
		w.SafeBalance += amount
	default:
		return Wallet{}, fmt.Errorf("unknown sub-balance %q", sub)
	}
	return w, nil
}

// ApplyDebit returns a copy of w with the named sub-balance decreased, or
// ErrInsufficientFunds leaving the input untouched.
func ApplyDebit(w Wallet, sub Sub, amount int64) (Wallet, error) {
	if amount <= 0 {
		return Wallet{}, ErrInvalidAmount
	}
	switch sub {
	case SubPrimary:
		if w.PrimaryBalance < amount {
			return Wallet{}, ErrInsufficientFunds
		}
		w.PrimaryBalance -= amount
	case SubSafe:
		if w.SafeBalance < amount {
			return Wallet{}, ErrInsufficientFunds
		}
		w.SafeBalance -= amount
	default:
		return Wallet{}, fmt.Errorf("unknown sub-balance %q", sub)
	}
	return w, nil
}
