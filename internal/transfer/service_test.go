package transfer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/paisaone/paisa_core/internal/ledger"
	"github.com/paisaone/paisa_core/internal/logging"
	"github.com/paisaone/paisa_core/internal/wallet"
)

type testEnv struct {
	svc     *Service
	wallets *wallet.Service
	ledger  *ledger.Service
	from    wallet.Wallet
	to      wallet.Wallet
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	walletMem := wallet.NewMemoryRepository()
	ledgerMem := ledger.NewMemoryRepository()
	walletSvc := wallet.NewService(walletMem)
	svc := NewService(NewMemoryRepository(walletMem, ledgerMem), walletSvc, logging.Discard())

	ctx := context.Background()
	from, err := walletSvc.Create(ctx, uuid.NewString())
	if err != nil {
		t.Fatalf("create sender wallet: %v", err)
	}
	if from, err = walletSvc.Credit(ctx, from.ID, wallet.SubPrimary, 1000); err != nil {
		t.Fatalf("fund sender: %v", err)
	}
	to, err := walletSvc.Create(ctx, uuid.NewString())
	if err != nil {
		t.Fatalf("create receiver wallet: %v", err)
	}
	return testEnv{svc: svc, wallets: walletSvc, ledger: ledger.NewService(ledgerMem), from: from, to: to}
}

func TestTransferMovesFunds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Transfer(ctx, Input{
		FromWalletID: env.from.ID,
		ToWalletID:   env.to.ID,
		Amount:       300,
		Notes:        "lunch",
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if res.FromBalance != 700 || res.ToBalance != 300 {
		t.Fatalf("expected 700/300, got %d/%d", res.FromBalance, res.ToBalance)
	}

	debits, err := env.ledger.ListByUser(ctx, env.from.UserID, ledger.Filter{Category: ledger.CategoryWalletTransfer})
	if err != nil {
		t.Fatalf("list sender entries: %v", err)
	}
	if len(debits) != 1 || debits[0].Type != ledger.TypeDebit || debits[0].Status != ledger.StatusCompleted {
		t.Fatalf("expected one settled WALLET_TRANSFER debit, got %d", len(debits))
	}
	credits, err := env.ledger.ListByUser(ctx, env.to.UserID, ledger.Filter{Category: ledger.CategoryWalletTransfer})
	if err != nil {
		t.Fatalf("list receiver entries: %v", err)
	}
	if len(credits) != 1 || credits[0].Type != ledger.TypeCredit || credits[0].Amount != 300 {
		t.Fatalf("expected one WALLET_TRANSFER credit of 300, got %d", len(credits))
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.Transfer(ctx, Input{FromWalletID: env.from.ID, ToWalletID: env.to.ID, Amount: 1001}); !errors.Is(err, wallet.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	from, err := env.wallets.Get(ctx, env.from.ID)
	if err != nil {
		t.Fatalf("get sender: %v", err)
	}
	to, err := env.wallets.Get(ctx, env.to.ID)
	if err != nil {
		t.Fatalf("get receiver: %v", err)
	}
	if from.PrimaryBalance != 1000 || to.PrimaryBalance != 0 {
		t.Fatalf("failed transfer must not move funds, got %d/%d", from.PrimaryBalance, to.PrimaryBalance)
	}
}

func TestTransferValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.Transfer(ctx, Input{FromWalletID: env.from.ID, ToWalletID: env.to.ID, Amount: 0}); !errors.Is(err, wallet.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := env.svc.Transfer(ctx, Input{FromWalletID: env.from.ID, ToWalletID: env.from.ID, Amount: 10}); err == nil {
		t.Fatal("expected error transferring to the same wallet")
	}
	if _, err := env.svc.Transfer(ctx, Input{FromWalletID: env.from.ID, ToWalletID: "WAL000000MISSING", Amount: 10}); !errors.Is(err, wallet.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown receiver, got %v", err)
	}
}

func TestTransferRequiresOwnership(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Transfer(context.Background(), Input{
		FromWalletID:    env.from.ID,
		ToWalletID:      env.to.ID,
		Amount:          100,
		RequestorUserID: uuid.NewString(),
	})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}
