package topup

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

func TestApproveRestoresStateOnEntryCollision(t *testing.T) {
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
	req := Request{
		ID:        "TPR240101AAAAAAAA",
		UserID:    userID,
		Amount:    500,
		Method:    MethodUPI,
		Sub:       wallet.SubPrimary,
		Status:    StatusPending,
		CreatedAt: now,
	}
	if err := repo.Create(ctx, req); err != nil {
		t.Fatalf("create request: %v", err)
	}

	entry, err := ledger.NewSettled(ledger.CreateInput{
		UserID:   userID,
		Type:     ledger.TypeCredit,
		Amount:   500,
		Category: ledger.CategoryTopUp,
		Sub:      wallet.SubPrimary,
	}, now)
	if err != nil {
		t.Fatalf("build entry: %v", err)
	}
	// Occupy the identifier so the approval's insert collides.
	if err := ledgerMem.Insert(ctx, entry); err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	a := Approval{At: now, WalletID: w.ID, Sub: wallet.SubPrimary, Amount: 500, Entry: entry}
	if _, err := repo.Approve(ctx, req.ID, a); !errors.Is(err, idgen.ErrDuplicateIdentifier) {
		t.Fatalf("expected ErrDuplicateIdentifier, got %v", err)
	}

	w, err = walletSvc.Get(ctx, w.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if w.PrimaryBalance != 0 {
		t.Fatalf("failed approval must leave the wallet uncredited, got %d", w.PrimaryBalance)
	}
	after, err := repo.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if after.Status != StatusPending {
		t.Fatalf("failed approval must leave the request PENDING, got %s", after.Status)
	}
}
