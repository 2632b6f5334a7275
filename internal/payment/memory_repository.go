package payment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/paisaone/paisa_core/internal/idgen"
	"github.com/paisaone/paisa_core/internal/ledger"
	"github.com/paisaone/paisa_core/internal/wallet"
)

// MemoryRepository is an in-memory payment store for tests, composed with
// the wallet and ledger memory stores so settlements mimic the Postgres
// transactional path.
type MemoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Payment
	wallets *wallet.MemoryRepository
	entries *ledger.MemoryRepository
}

// NewMemoryRepository constructs an in-memory payment repository.
func NewMemoryRepository(wallets *wallet.MemoryRepository, entries *ledger.MemoryRepository) *MemoryRepository {
	return &MemoryRepository{
		storage: make(map[string]Payment),
		wallets: wallets,
		entries: entries,
	}
}

func (r *MemoryRepository) Create(_ context.Context, p Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[p.ID]; exists {
		return idgen.ErrDuplicateIdentifier
	}
	r.storage[p.ID] = p
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.storage[id]
	if !ok {
		return Payment{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepository) Complete(ctx context.Context, id string, s Settlement) (Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.storage[id]
	if !ok {
		return Payment{}, ErrNotFound
	}
	updated, err := MarkCompleted(current, s.At)
	if err != nil {
		return Payment{}, err
	}
	if _, err := r.wallets.ApplyLocked(s.WalletID, func(w wallet.Wallet) (wallet.Wallet, error) {
		return wallet.ApplyCredit(w, wallet.SubPrimary, s.CreditAmount)
	}); err != nil {
		return Payment{}, err
	}
	for i, entry := range s.Entries {
		if err := r.entries.Insert(ctx, entry); err != nil {
			// unwind the partial unit; the memory store has no rollback
			for _, prior := range s.Entries[:i] {
				r.entries.Remove(ctx, prior.ID)
			}
			_, _ = r.wallets.ApplyLocked(s.WalletID, func(w wallet.Wallet) (wallet.Wallet, error) {
				return wallet.ApplyDebit(w, wallet.SubPrimary, s.CreditAmount)
			})
			return Payment{}, err
		}
	}
	r.storage[id] = updated
	return updated, nil
}

func (r *MemoryRepository) Fail(_ context.Context, id, reason string, at time.Time) (Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.storage[id]
	if !ok {
		return Payment{}, ErrNotFound
	}
	updated, err := MarkFailed(current, reason, at)
	if err != nil {
		return Payment{}, err
	}
	r.storage[id] = updated
	return updated, nil
}

func (r *MemoryRepository) ListByUser(_ context.Context, userID string, status Status) ([]Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Payment
	for _, p := range r.storage {
		if p.UserID != userID {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) Summarize(_ context.Context, userID string) (Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	summary := Summary{UserID: userID}
	for _, p := range r.storage {
		if p.UserID != userID {
			continue
		}
		switch p.Status {
		case StatusPending:
			summary.PendingCount++
			summary.PendingAmount += p.Amount
		case StatusCompleted:
			summary.CompletedCount++
			summary.CompletedTotal += p.Amount
		case StatusFailed:
			summary.FailedCount++
		}
	}
	return summary, nil
}
