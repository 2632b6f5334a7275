package safe

import (
	"context"
	"sort"
	"sync"

	"github.com/paisaone/paisa_core/internal/idgen"
	"github.com/paisaone/paisa_core/internal/ledger"
	"github.com/paisaone/paisa_core/internal/wallet"
)

// MemoryRepository is an in-memory safe deposit store for tests, composed
// with the wallet and ledger memory stores and an in-memory sequence.
type MemoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Deposit
	seq     *idgen.MemorySequence
	wallets *wallet.MemoryRepository
	entries *ledger.MemoryRepository
}

// NewMemoryRepository constructs an in-memory safe deposit repository.
func NewMemoryRepository(seq *idgen.MemorySequence, wallets *wallet.MemoryRepository, entries *ledger.MemoryRepository) *MemoryRepository {
	return &MemoryRepository{
		storage: make(map[string]Deposit),
		seq:     seq,
		wallets: wallets,
		entries: entries,
	}
}

func (r *MemoryRepository) Create(ctx context.Context, d Deposit, entry ledger.Transaction) (Deposit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// The entry goes in first: if the balance move then fails, removing it
	// restores the pre-operation state without touching the wallet.
	if err := r.entries.Insert(ctx, entry); err != nil {
		return Deposit{}, err
	}
	if _, err := r.wallets.ApplyLocked(d.WalletID, func(w wallet.Wallet) (wallet.Wallet, error) {
		moved, err := wallet.ApplyDebit(w, wallet.SubPrimary, d.Amount)
		if err != nil {
			return wallet.Wallet{}, err
		}
		return wallet.ApplyCredit(moved, wallet.SubSafe, d.Amount)
	}); err != nil {
		r.entries.Remove(ctx, entry.ID)
		return Deposit{}, err
	}

	id, err := r.seq.Next(ctx)
	if err != nil {
		r.entries.Remove(ctx, entry.ID)
		_, _ = r.wallets.ApplyLocked(d.WalletID, func(w wallet.Wallet) (wallet.Wallet, error) {
			moved, err := wallet.ApplyDebit(w, wallet.SubSafe, d.Amount)
			if err != nil {
				return wallet.Wallet{}, err
			}
			return wallet.ApplyCredit(moved, wallet.SubPrimary, d.Amount)
		})
		return Deposit{}, err
	}
	d.ID = id
	r.storage[d.ID] = d
	return d, nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (Deposit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.storage[id]
	if !ok {
		return Deposit{}, ErrNotFound
	}
	return d, nil
}

func (r *MemoryRepository) MarkInterest(_ context.Context, id string, interest int64) (Deposit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.storage[id]
	if !ok {
		return Deposit{}, ErrNotFound
	}
	updated, err := MarkInterest(current, interest)
	if err != nil {
		return Deposit{}, err
	}
	r.storage[id] = updated
	return updated, nil
}

func (r *MemoryRepository) Withdraw(ctx context.Context, id string, post func(Deposit) (Withdrawal, error)) (Deposit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.storage[id]
	if !ok {
		return Deposit{}, ErrNotFound
	}
	w, err := post(current)
	if err != nil {
		return Deposit{}, err
	}
	updated, err := MarkWithdrawn(current, w.At)
	if err != nil {
		return Deposit{}, err
	}
	if _, err := r.wallets.ApplyLocked(w.WalletID, func(wal wallet.Wallet) (wallet.Wallet, error) {
		moved, err := wallet.ApplyDebit(wal, wallet.SubSafe, w.Amount)
		if err != nil {
			return wallet.Wallet{}, err
		}
		return wallet.ApplyCredit(moved, wallet.SubPrimary, w.Amount+w.Interest)
	}); err != nil {
		return Deposit{}, err
	}
	for i, entry := range w.Entries {
		if err := r.entries.Insert(ctx, entry); err != nil {
			// unwind the partial unit; the memory store has no rollback
			for _, prior := range w.Entries[:i] {
				r.entries.Remove(ctx, prior.ID)
			}
			_, _ = r.wallets.ApplyLocked(w.WalletID, func(wal wallet.Wallet) (wallet.Wallet, error) {
				moved, err := wallet.ApplyDebit(wal, wallet.SubPrimary, w.Amount+w.Interest)
				if err != nil {
					return wallet.Wallet{}, err
				}
				return wallet.ApplyCredit(moved, wallet.SubSafe, w.Amount)
			})
			return Deposit{}, err
		}
	}
	r.storage[id] = updated
	return updated, nil
}

func (r *MemoryRepository) ListByUser(_ context.Context, userID string) ([]Deposit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Deposit
	for _, d := range r.storage {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
