package transfer

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

func TestTransferRestoresStateOnEntryCollision(t *testing.T) {
	ctx := context.Background()
	walletMem := wallet.NewMemoryRepository()
	ledgerMem := ledger.NewMemoryRepository()
	repo := NewMemoryRepository(walletMem, ledgerMem)
	walletSvc := wallet.NewService(walletMem)

	fromUser, toUser := uuid.NewString(), uuid.NewString()
	from, err := walletSvc.Create(ctx, fromUser)
	if err != nil {
		t.Fatalf("create sender wallet: %v", err)
	}
	to, err := walletSvc.Create(ctx, toUser)
	if err != nil {
		t.Fatalf("create receiver wallet: %v", err)
	}
	if _, err := walletSvc.Credit(ctx, from.ID, wallet.SubPrimary, 1000); err != nil {
		t.Fatalf("fund sender: %v", err)
	}

	now := time.Now().UTC()
	debitEntry, err := ledger.NewSettled(ledger.CreateInput{
		UserID:   fromUser,
		Type:     ledger.TypeDebit,
		Amount:   300,
		Category: ledger.CategoryWalletTransfer,
		Sub:      wallet.SubPrimary,
	}, now)
	if err != nil {
		t.Fatalf("build debit entry: %v", err)
	}
	creditEntry, err := ledger.NewSettled(ledger.CreateInput{
		UserID:   toUser,
		Type:     ledger.TypeCredit,
		Amount:   300,
		Category: ledger.CategoryWalletTransfer,
		Sub:      wallet.SubPrimary,
	}, now)
	if err != nil {
		t.Fatalf("build credit entry: %v", err)
	}
	// Occupy the credit entry's identifier so the posting fails after the
	// debit entry already landed.
	if err := ledgerMem.Insert(ctx, creditEntry); err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	p := Posting{At: now, FromWalletID: from.ID, ToWalletID: to.ID, Amount: 300, DebitEntry: debitEntry, CreditEntry: creditEntry}
	if _, err := repo.Transfer(ctx, p); !errors.Is(err, idgen.ErrDuplicateIdentifier) {
		t.Fatalf("expected ErrDuplicateIdentifier, got %v", err)
	}

	from, err = walletSvc.Get(ctx, from.ID)
	if err != nil {
		t.Fatalf("get sender: %v", err)
	}
	to, err = walletSvc.Get(ctx, to.ID)
	if err != nil {
		t.Fatalf("get receiver: %v", err)
	}
	if from.PrimaryBalance != 1000 || to.PrimaryBalance != 0 {
		t.Fatalf("failed posting must not move funds, got %d/%d", from.PrimaryBalance, to.PrimaryBalance)
	}
	if _, err := ledgerMem.Get(ctx, debitEntry.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("the partial debit entry must be unwound, got %v", err)
	}
}
