package safe

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/paisaone/paisa_core/internal/idgen"
	"github.com/paisaone/paisa_core/internal/ledger"
	"github.com/paisaone/paisa_core/internal/logging"
	"github.com/paisaone/paisa_core/internal/wallet"
)

type testEnv struct {
	svc     *Service
	wallets *wallet.Service
	ledger  *ledger.Service
	userID  string
	wallet  wallet.Wallet
}

func newTestEnv(t *testing.T, funded int64) testEnv {
	t.Helper()
	walletMem := wallet.NewMemoryRepository()
	ledgerMem := ledger.NewMemoryRepository()
	walletSvc := wallet.NewService(walletMem)
	repo := NewMemoryRepository(idgen.NewMemorySequence(), walletMem, ledgerMem)
	svc := NewService(repo, walletSvc, logging.Discard())

	ctx := context.Background()
	userID := uuid.NewString()
	w, err := walletSvc.Create(ctx, userID)
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if funded > 0 {
		if w, err = walletSvc.Credit(ctx, w.ID, wallet.SubPrimary, funded); err != nil {
			t.Fatalf("fund wallet: %v", err)
		}
	}
	return testEnv{svc: svc, wallets: walletSvc, ledger: ledger.NewService(ledgerMem), userID: userID, wallet: w}
}

func TestCreateMovesFundsIntoSafe(t *testing.T) {
	env := newTestEnv(t, 10_000)
	ctx := context.Background()

	d, err := env.svc.Create(ctx, CreateInput{UserID: env.userID, Amount: 3000, TermDays: 30})
	if err != nil {
		t.Fatalf("create deposit: %v", err)
	}
	if d.ID != "SW0001" {
		t.Fatalf("expected first sequential id SW0001, got %s", d.ID)
	}
	if !d.EndDate.After(d.StartDate) {
		t.Fatal("end date must follow start date")
	}

	w, err := env.wallets.Get(ctx, env.wallet.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if w.PrimaryBalance != 7000 || w.SafeBalance != 3000 {
		t.Fatalf("expected 7000/3000 split, got %d/%d", w.PrimaryBalance, w.SafeBalance)
	}
	if w.Total() != 10_000 {
		t.Fatalf("total must be conserved, got %d", w.Total())
	}

	entries, err := env.ledger.ListByUser(ctx, env.userID, ledger.Filter{Category: ledger.CategorySafeDeposit})
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Type != ledger.TypeDebit || entries[0].Amount != 3000 {
		t.Fatalf("expected one SAFE_DEPOSIT debit of 3000, got %d", len(entries))
	}
}

func TestCreateInsufficientFunds(t *testing.T) {
	env := newTestEnv(t, 1000)
	ctx := context.Background()

	if _, err := env.svc.Create(ctx, CreateInput{UserID: env.userID, Amount: 1001, TermDays: 30}); !errors.Is(err, wallet.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	w, err := env.wallets.Get(ctx, env.wallet.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if w.PrimaryBalance != 1000 || w.SafeBalance != 0 {
		t.Fatalf("failed creation must not move funds, got %d/%d", w.PrimaryBalance, w.SafeBalance)
	}

	// The sequence must not have been consumed by the failed attempt.
	d, err := env.svc.Create(ctx, CreateInput{UserID: env.userID, Amount: 500, TermDays: 30})
	if err != nil {
		t.Fatalf("create after failure: %v", err)
	}
	if d.ID != "SW0001" {
		t.Fatalf("expected SW0001, got %s", d.ID)
	}
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t, 1000)
	ctx := context.Background()

	if _, err := env.svc.Create(ctx, CreateInput{UserID: env.userID, Amount: 0, TermDays: 30}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := env.svc.Create(ctx, CreateInput{UserID: env.userID, Amount: 100, TermDays: 0}); !errors.Is(err, ErrInvalidTerm) {
		t.Fatalf("expected ErrInvalidTerm, got %v", err)
	}
}

func TestWithdrawReturnsAmountAndInterest(t *testing.T) {
	env := newTestEnv(t, 10_000)
	ctx := context.Background()

	d, err := env.svc.Create(ctx, CreateInput{UserID: env.userID, Amount: 3000, TermDays: 30})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.svc.MarkInterest(ctx, d.ID, 150); err != nil {
		t.Fatalf("mark interest: %v", err)
	}

	withdrawn, err := env.svc.Withdraw(ctx, d.ID)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if !withdrawn.Withdrawn || withdrawn.WithdrawDate == nil {
		t.Fatal("expected deposit marked withdrawn with a date")
	}

	w, err := env.wallets.Get(ctx, env.wallet.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if w.PrimaryBalance != 10_150 || w.SafeBalance != 0 {
		t.Fatalf("expected 10150/0 after withdrawal with interest, got %d/%d", w.PrimaryBalance, w.SafeBalance)
	}

	interest, err := env.ledger.ListByUser(ctx, env.userID, ledger.Filter{Category: ledger.CategoryInterestCredit})
	if err != nil {
		t.Fatalf("list interest entries: %v", err)
	}
	if len(interest) != 1 || interest[0].Amount != 150 {
		t.Fatalf("expected one INTEREST_CREDIT of 150, got %d", len(interest))
	}
	release, err := env.ledger.ListByUser(ctx, env.userID, ledger.Filter{Category: ledger.CategorySafeWithdraw})
	if err != nil {
		t.Fatalf("list withdraw entries: %v", err)
	}
	if len(release) != 1 || release[0].Amount != 3000 {
		t.Fatalf("expected one SAFE_WITHDRAW of 3000, got %d", len(release))
	}
}

// staleGetRepo serves reads from a snapshot missing the latest interest, the
// way a caller racing the accrual process would see the deposit.
type staleGetRepo struct {
	*MemoryRepository
}

func (r *staleGetRepo) Get(ctx context.Context, id string) (Deposit, error) {
	d, err := r.MemoryRepository.Get(ctx, id)
	if err != nil {
		return Deposit{}, err
	}
	d.Interest = 0
	d.InterestUpdated = false
	return d, nil
}

func TestWithdrawCreditsInterestRecordedAfterRead(t *testing.T) {
	env := newCollisionEnv(t, 10_000)
	ctx := context.Background()
	svc := NewService(&staleGetRepo{env.repo}, env.wallets, logging.Discard())

	d, err := svc.Create(ctx, CreateInput{UserID: env.userID, Amount: 3000, TermDays: 30})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Interest lands on the stored row; stale reads never see it.
	if _, err := env.repo.MarkInterest(ctx, d.ID, 150); err != nil {
		t.Fatalf("mark interest: %v", err)
	}

	if _, err := svc.Withdraw(ctx, d.ID); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	w, err := env.wallets.Get(ctx, env.wallet.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if w.PrimaryBalance != 10_150 {
		t.Fatalf("withdrawal must credit the interest held on the row, got %d", w.PrimaryBalance)
	}
}

func TestWithdrawTwiceMovesFundsOnce(t *testing.T) {
	env := newTestEnv(t, 5000)
	ctx := context.Background()

	d, err := env.svc.Create(ctx, CreateInput{UserID: env.userID, Amount: 2000, TermDays: 7})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.svc.Withdraw(ctx, d.ID); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if _, err := env.svc.Withdraw(ctx, d.ID); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}

	w, err := env.wallets.Get(ctx, env.wallet.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if w.PrimaryBalance != 5000 || w.SafeBalance != 0 {
		t.Fatalf("retried withdrawal must not move funds, got %d/%d", w.PrimaryBalance, w.SafeBalance)
	}
}

func TestMarkInterestOnWithdrawnDeposit(t *testing.T) {
	env := newTestEnv(t, 5000)
	ctx := context.Background()

	d, err := env.svc.Create(ctx, CreateInput{UserID: env.userID, Amount: 1000, TermDays: 7})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.svc.Withdraw(ctx, d.ID); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if _, err := env.svc.MarkInterest(ctx, d.ID, 10); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("withdrawn deposits no longer accrue, got %v", err)
	}
}

func TestConcurrentCreatesGetDistinctIDs(t *testing.T) {
	env := newTestEnv(t, 100_000)
	ctx := context.Background()

	const workers = 10
	ids := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := env.svc.Create(ctx, CreateInput{UserID: env.userID, Amount: 100, TermDays: 30})
			if err != nil {
				t.Errorf("concurrent create: %v", err)
				return
			}
			ids <- d.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("two deposits share identifier %s", id)
		}
		seen[id] = true
	}
	if len(seen) != workers {
		t.Fatalf("expected %d distinct identifiers, got %d", workers, len(seen))
	}

	w, err := env.wallets.Get(ctx, env.wallet.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if w.SafeBalance != workers*100 {
		t.Fatalf("expected safe balance %d, got %d", workers*100, w.SafeBalance)
	}
}
