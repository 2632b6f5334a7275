package safe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/paisaone/paisa_core/internal/idgen"
	"github.com/paisaone/paisa_core/internal/ledger"
	"github.com/paisaone/paisa_core/internal/logging"
	"github.com/paisaone/paisa_core/internal/wallet"
)

type collisionEnv struct {
	repo      *MemoryRepository
	ledgerMem *ledger.MemoryRepository
	wallets   *wallet.Service
	userID    string
	wallet    wallet.Wallet
}

func newCollisionEnv(t *testing.T, funded int64) collisionEnv {
	t.Helper()
	ctx := context.Background()
	walletMem := wallet.NewMemoryRepository()
	ledgerMem := ledger.NewMemoryRepository()
	repo := NewMemoryRepository(idgen.NewMemorySequence(), walletMem, ledgerMem)
	walletSvc := wallet.NewService(walletMem)

	userID := uuid.NewString()
	w, err := walletSvc.Create(ctx, userID)
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if w, err = walletSvc.Credit(ctx, w.ID, wallet.SubPrimary, funded); err != nil {
		t.Fatalf("fund wallet: %v", err)
	}
	return collisionEnv{repo: repo, ledgerMem: ledgerMem, wallets: walletSvc, userID: userID, wallet: w}
}

func TestCreateRestoresStateOnEntryCollision(t *testing.T) {
	env := newCollisionEnv(t, 10_000)
	ctx := context.Background()

	now := time.Now().UTC()
	entry, err := ledger.NewSettled(ledger.CreateInput{
		UserID:   env.userID,
		Type:     ledger.TypeDebit,
		Amount:   3000,
		Category: ledger.CategorySafeDeposit,
		Sub:      wallet.SubPrimary,
	}, now)
	if err != nil {
		t.Fatalf("build entry: %v", err)
	}
	// Occupy the identifier so the creation's insert collides.
	if err := env.ledgerMem.Insert(ctx, entry); err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	d := Deposit{UserID: env.userID, WalletID: env.wallet.ID, Amount: 3000, StartDate: now, EndDate: now.AddDate(0, 0, 30), CreatedAt: now}
	if _, err := env.repo.Create(ctx, d, entry); !errors.Is(err, idgen.ErrDuplicateIdentifier) {
		t.Fatalf("expected ErrDuplicateIdentifier, got %v", err)
	}

	w, err := env.wallets.Get(ctx, env.wallet.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if w.PrimaryBalance != 10_000 || w.SafeBalance != 0 {
		t.Fatalf("failed creation must not move funds, got %d/%d", w.PrimaryBalance, w.SafeBalance)
	}

	// The sequence must still hand out the first identifier afterwards.
	svc := NewService(env.repo, env.wallets, logging.Discard())
	created, err := svc.Create(ctx, CreateInput{UserID: env.userID, Amount: 1000, TermDays: 7})
	if err != nil {
		t.Fatalf("create after failure: %v", err)
	}
	if created.ID != "SW0001" {
		t.Fatalf("expected SW0001, got %s", created.ID)
	}
}

func TestWithdrawRestoresStateOnEntryCollision(t *testing.T) {
	env := newCollisionEnv(t, 10_000)
	ctx := context.Background()
	svc := NewService(env.repo, env.wallets, logging.Discard())

	d, err := svc.Create(ctx, CreateInput{UserID: env.userID, Amount: 3000, TermDays: 30})
	if err != nil {
		t.Fatalf("create deposit: %v", err)
	}

	now := time.Now().UTC()
	releaseEntry, err := ledger.NewSettled(ledger.CreateInput{
		UserID:   env.userID,
		Type:     ledger.TypeCredit,
		Amount:   3000,
		Category: ledger.CategorySafeWithdraw,
		Sub:      wallet.SubPrimary,
	}, now)
	if err != nil {
		t.Fatalf("build release entry: %v", err)
	}
	interestEntry, err := ledger.NewSettled(ledger.CreateInput{
		UserID:   env.userID,
		Type:     ledger.TypeCredit,
		Amount:   100,
		Category: ledger.CategoryInterestCredit,
		Sub:      wallet.SubPrimary,
	}, now)
	if err != nil {
		t.Fatalf("build interest entry: %v", err)
	}
	// Occupy the second entry's identifier so the withdrawal fails after the
	// release entry already landed.
	if err := env.ledgerMem.Insert(ctx, interestEntry); err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	_, err = env.repo.Withdraw(ctx, d.ID, func(dep Deposit) (Withdrawal, error) {
		return Withdrawal{
			At:       now,
			WalletID: dep.WalletID,
			Amount:   dep.Amount,
			Interest: 100,
			Entries:  []ledger.Transaction{releaseEntry, interestEntry},
		}, nil
	})
	if !errors.Is(err, idgen.ErrDuplicateIdentifier) {
		t.Fatalf("expected ErrDuplicateIdentifier, got %v", err)
	}

	w, err := env.wallets.Get(ctx, env.wallet.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if w.PrimaryBalance != 7000 || w.SafeBalance != 3000 {
		t.Fatalf("failed withdrawal must not move funds, got %d/%d", w.PrimaryBalance, w.SafeBalance)
	}
	after, err := env.repo.Get(ctx, d.ID)
	if err != nil {
		t.Fatalf("get deposit: %v", err)
	}
	if after.Withdrawn {
		t.Fatal("failed withdrawal must leave the deposit locked")
	}
	if _, err := env.ledgerMem.Get(ctx, releaseEntry.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("the partial release entry must be unwound, got %v", err)
	}
}
