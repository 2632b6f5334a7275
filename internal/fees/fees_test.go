package fees

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func percentSchedule() Schedule {
	return Schedule{
		ID:          "sched-card",
		PaymentType: "CARD",
		FeeType:     TypePercentage,
		Fee:         decimal.NewFromInt(2),
		MinAmount:   500,
		MaxAmount:   5000,
	}
}

func TestPercentageResolve(t *testing.T) {
	s := percentSchedule()

	if fee := s.Resolve(100_000); fee != 2000 {
		t.Fatalf("2%% of 100000 should be 2000, got %d", fee)
	}
}

func TestPercentageClampFloor(t *testing.T) {
	s := percentSchedule()

	// 2% of 10000 is 200, below the 500 floor.
	if fee := s.Resolve(10_000); fee != 500 {
		t.Fatalf("expected floor 500, got %d", fee)
	}
}

func TestPercentageClampCeiling(t *testing.T) {
	s := percentSchedule()

	// 2% of 1000000 is 20000, above the 5000 ceiling.
	if fee := s.Resolve(1_000_000); fee != 5000 {
		t.Fatalf("expected ceiling 5000, got %d", fee)
	}
}

func TestAnyUpperLimitSkipsCeiling(t *testing.T) {
	s := percentSchedule()
	s.AnyUpperLimit = true

	if fee := s.Resolve(1_000_000); fee != 20_000 {
		t.Fatalf("expected uncapped 20000, got %d", fee)
	}
}

func TestPercentageUnsetCeiling(t *testing.T) {
	s := Schedule{
		PaymentType: "CARD",
		FeeType:     TypePercentage,
		Fee:         decimal.NewFromInt(2),
	}

	// No MaxAmount configured means no ceiling, not a ceiling of zero.
	if fee := s.Resolve(100_000); fee != 2000 {
		t.Fatalf("expected uncapped 2000, got %d", fee)
	}
}

func TestPercentageRoundsToWholeMinorUnit(t *testing.T) {
	s := Schedule{
		PaymentType: "CARD",
		FeeType:     TypePercentage,
		Fee:         decimal.NewFromInt(2),
	}

	// 2% of 75 is 1.5; rounds to 2 whole minor units.
	if fee := s.Resolve(75); fee != 2 {
		t.Fatalf("expected rounded fee 2, got %d", fee)
	}
}

func TestFlatResolve(t *testing.T) {
	s := Schedule{
		PaymentType: "BANK_TRANSFER",
		FeeType:     TypeFlat,
		Fee:         decimal.NewFromInt(200),
	}

	for _, amount := range []int64{1_000, 50_000, 2_000_000} {
		if fee := s.Resolve(amount); fee != 200 {
			t.Fatalf("flat fee must ignore amount %d, got %d", amount, fee)
		}
	}
}

func TestServiceResolve(t *testing.T) {
	repo := NewMemoryRepository()
	repo.Put(percentSchedule())
	svc := NewService(repo)
	ctx := context.Background()

	fee, err := svc.Resolve(ctx, "CARD", 100_000)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if fee != 2000 {
		t.Fatalf("expected 2000, got %d", fee)
	}

	if _, err := svc.Resolve(ctx, "CARD", 0); err == nil {
		t.Fatal("expected error for non-positive amount")
	}
	if _, err := svc.Resolve(ctx, "CRYPTO", 100); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unconfigured type, got %v", err)
	}
}
