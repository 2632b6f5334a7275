package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/paisaone/paisa_core/internal/idgen"
	"github.com/paisaone/paisa_core/internal/ledger"
	"github.com/paisaone/paisa_core/internal/wallet"
)

func TestCompleteRestoresStateOnEntryCollision(t *testing.T) {
	ctx := context.Background()
	walletMem := wallet.NewMemoryRepository()
	ledgerMem := ledger.NewMemoryRepository()
	repo := NewMemoryRepository(walletMem, ledgerMem)
	walletSvc := wallet.NewService(walletMem)

	userID := uuid.NewString()
	w, err := walletSvc.Create(ctx, userID)
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}

	now := time.Now().UTC()
	p := Payment{
		ID:        "PAY240101AAAAAAAA",
		UserID:    userID,
		Type:      TypeCard,
		Amount:    100_000,
		Fee:       2000,
		Detail:    Detail{BankName: "First Bank"},
		Status:    StatusPending,
		CreatedAt: now,
	}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("create payment: %v", err)
	}

	creditEntry, err := ledger.NewSettled(ledger.CreateInput{
		UserID:   userID,
		Type:     ledger.TypeCredit,
		Amount:   98_000,
		Category: ledger.CategoryCardPayment,
		Sub:      wallet.SubPrimary,
	}, now)
	if err != nil {
		t.Fatalf("build credit entry: %v", err)
	}
	feeEntry, err := ledger.NewSettled(ledger.CreateInput{
		UserID:   userID,
		Type:     ledger.TypeDebit,
		Amount:   2000,
		Category: ledger.CategoryFeeCharge,
		Sub:      wallet.SubPrimary,
	}, now)
	if err != nil {
		t.Fatalf("build fee entry: %v", err)
	}
	// Occupy the second entry's identifier so the settlement fails after the
	// credit entry already landed.
	if err := ledgerMem.Insert(ctx, feeEntry); err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	s := Settlement{At: now, WalletID: w.ID, CreditAmount: 98_000, Entries: []ledger.Transaction{creditEntry, feeEntry}}
	if _, err := repo.Complete(ctx, p.ID, s); !errors.Is(err, idgen.ErrDuplicateIdentifier) {
		t.Fatalf("expected ErrDuplicateIdentifier, got %v", err)
	}

	w, err = walletSvc.Get(ctx, w.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if w.PrimaryBalance != 0 {
		t.Fatalf("failed settlement must leave the wallet uncredited, got %d", w.PrimaryBalance)
	}
	after, err := repo.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if after.Status != StatusPending {
		t.Fatalf("failed settlement must leave the payment PENDING, got %s", after.Status)
	}
	if _, err := ledgerMem.Get(ctx, creditEntry.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("the partial credit entry must be unwound, got %v", err)
	}
}
