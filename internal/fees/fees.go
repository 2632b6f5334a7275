package fees

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// FeeType selects between a flat amount and a percentage of the payment.
type FeeType string

const (
	TypeFlat       FeeType = "FLAT"
	TypePercentage FeeType = "PERCENTAGE"
)

// ErrNotFound indicates no schedule is configured for the payment type.
var ErrNotFound = errors.New("fee schedule not found")

// Schedule configures the fee for one payment type. Amount bounds are minor
// currency units; Fee is a flat minor-unit amount or a percentage depending
// on FeeType. Read-only from the ledger core's perspective.
type Schedule struct {
	ID            string
	PaymentType   string
	FeeType       FeeType
	Fee           decimal.Decimal
	MinAmount     int64
	MaxAmount     int64
	AnyUpperLimit bool
}

// Resolve computes the fee owed on a payment of the given minor-unit amount.
// FLAT returns the configured amount as-is. PERCENTAGE computes
// amount * fee / 100, rounds to a whole minor unit, then clamps to
// [MinAmount, MaxAmount]. The ceiling only applies when a positive MaxAmount
// is configured and AnyUpperLimit is false.
func (s Schedule) Resolve(amount int64) int64 {
	if s.FeeType == TypeFlat {
		return s.Fee.IntPart()
	}

	fee := decimal.NewFromInt(amount).Mul(s.Fee).Div(decimal.NewFromInt(100)).Round(0).IntPart()
	if fee < s.MinAmount {
		fee = s.MinAmount
	}
	if !s.AnyUpperLimit && s.MaxAmount > 0 && fee > s.MaxAmount {
		fee = s.MaxAmount
	}
	return fee
}

// Repository reads fee schedules.
type Repository interface {
	GetByPaymentType(ctx context.Context, paymentType string) (Schedule, error)
}

// Service resolves fees against the configured schedules.
type Service struct {
	repo Repository
}

// NewService builds a fee lookup service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve looks up the schedule for a payment type and computes the fee.
func (s *Service) Resolve(ctx context.Context, paymentType string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	schedule, err := s.repo.GetByPaymentType(ctx, paymentType)
	if err != nil {
		return 0, err
	}
	return schedule.Resolve(amount), nil
}
