package transfer

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paisaone/paisa_core/internal/ledger"
	"github.com/paisaone/paisa_core/internal/wallet"
)

// Posting bundles the balanced pair of moves a transfer applies atomically.
type Posting struct {
	At           time.Time
	FromWalletID string
	ToWalletID   string
	Amount       int64
	DebitEntry   ledger.Transaction
	CreditEntry  ledger.Transaction
}

// Repository applies transfer postings.
type Repository interface {
	Transfer(ctx context.Context, p Posting) (Result, error)
}

// PostgresRepository posts transfers in PostgreSQL. Wallet rows are locked
// in identifier order to avoid deadlocks between opposing transfers.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Transfer debits the sender, credits the receiver and appends both ledger
// entries in one transaction.
func (r *PostgresRepository) Transfer(ctx context.Context, p Posting) (Result, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Result{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	first, second := p.FromWalletID, p.ToWalletID
	if second < first {
		first, second = second, first
	}
	if _, err := wallet.LockTx(ctx, tx, first); err != nil {
		return Result{}, err
	}
	if _, err := wallet.LockTx(ctx, tx, second); err != nil {
		return Result{}, err
	}

	from, err := wallet.DebitTx(ctx, tx, p.FromWalletID, wallet.SubPrimary, p.Amount)
	if err != nil {
		return Result{}, err
	}
	to, err := wallet.CreditTx(ctx, tx, p.ToWalletID, wallet.SubPrimary, p.Amount)
	if err != nil {
		return Result{}, err
	}
	if err := ledger.InsertTx(ctx, tx, p.DebitEntry); err != nil {
		return Result{}, err
	}
	if err := ledger.InsertTx(ctx, tx, p.CreditEntry); err != nil {
		return Result{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Result{}, err
	}

	return Result{
		DebitEntryID:  p.DebitEntry.ID,
		CreditEntryID: p.CreditEntry.ID,
		FromBalance:   from.PrimaryBalance,
		ToBalance:     to.PrimaryBalance,
		CompletedAt:   p.At,
	}, nil
}

// MemoryRepository posts transfers against the wallet and ledger memory
// stores for tests.
type MemoryRepository struct {
	mu      sync.Mutex
	wallets *wallet.MemoryRepository
	entries *ledger.MemoryRepository
}

// NewMemoryRepository constructs an in-memory transfer repository.
func NewMemoryRepository(wallets *wallet.MemoryRepository, entries *ledger.MemoryRepository) *MemoryRepository {
	return &MemoryRepository{wallets: wallets, entries: entries}
}

func (r *MemoryRepository) Transfer(ctx context.Context, p Posting) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	from, err := r.wallets.ApplyLocked(p.FromWalletID, func(w wallet.Wallet) (wallet.Wallet, error) {
		return wallet.ApplyDebit(w, wallet.SubPrimary, p.Amount)
	})
	if err != nil {
		return Result{}, err
	}
	// put the moved funds back; the memory store has no rollback
	undoMoves := func() {
		_, _ = r.wallets.ApplyLocked(p.ToWalletID, func(w wallet.Wallet) (wallet.Wallet, error) {
			return wallet.ApplyDebit(w, wallet.SubPrimary, p.Amount)
		})
		_, _ = r.wallets.ApplyLocked(p.FromWalletID, func(w wallet.Wallet) (wallet.Wallet, error) {
			return wallet.ApplyCredit(w, wallet.SubPrimary, p.Amount)
		})
	}
	to, err := r.wallets.ApplyLocked(p.ToWalletID, func(w wallet.Wallet) (wallet.Wallet, error) {
		return wallet.ApplyCredit(w, wallet.SubPrimary, p.Amount)
	})
	if err != nil {
		_, _ = r.wallets.ApplyLocked(p.FromWalletID, func(w wallet.Wallet) (wallet.Wallet, error) {
			return wallet.ApplyCredit(w, wallet.SubPrimary, p.Amount)
		})
		return Result{}, err
	}
	if err := r.entries.Insert(ctx, p.DebitEntry); err != nil {
		undoMoves()
		return Result{}, err
	}
	if err := r.entries.Insert(ctx, p.CreditEntry); err != nil {
		r.entries.Remove(ctx, p.DebitEntry.ID)
		undoMoves()
		return Result{}, err
	}

	return Result{
		DebitEntryID:  p.DebitEntry.ID,
		CreditEntryID: p.CreditEntry.ID,
		FromBalance:   from.PrimaryBalance,
		ToBalance:     to.PrimaryBalance,
		CompletedAt:   p.At,
	}, nil
}
