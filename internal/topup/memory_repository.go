package topup

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/paisaone/paisa_core/internal/idgen"
	"github.com/paisaone/paisa_core/internal/ledger"
	"github.com/paisaone/paisa_core/internal/wallet"
)

// MemoryRepository is an in-memory top-up store for tests, composed with the
// wallet and ledger memory stores so approvals mimic the Postgres
// transactional path.
type MemoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Request
	wallets *wallet.MemoryRepository
	entries *ledger.MemoryRepository
}

// NewMemoryRepository constructs an in-memory top-up repository.
func NewMemoryRepository(wallets *wallet.MemoryRepository, entries *ledger.MemoryRepository) *MemoryRepository {
	return &MemoryRepository{
		storage: make(map[string]Request),
		wallets: wallets,
		entries: entries,
	}
}

func (r *MemoryRepository) Create(_ context.Context, req Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[req.ID]; exists {
		return idgen.ErrDuplicateIdentifier
	}
	r.storage[req.ID] = req
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.storage[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	return req, nil
}

func (r *MemoryRepository) Approve(ctx context.Context, id string, a Approval) (Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.storage[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	updated, err := MarkApproved(current, a.At)
	if err != nil {
		return Request{}, err
	}
	if _, err := r.wallets.ApplyLocked(a.WalletID, func(w wallet.Wallet) (wallet.Wallet, error) {
		return wallet.ApplyCredit(w, a.Sub, a.Amount)
	}); err != nil {
		return Request{}, err
	}
	if err := r.entries.Insert(ctx, a.Entry); err != nil {
		// take the credit back; the memory store has no rollback
		_, _ = r.wallets.ApplyLocked(a.WalletID, func(w wallet.Wallet) (wallet.Wallet, error) {
			return wallet.ApplyDebit(w, a.Sub, a.Amount)
		})
		return Request{}, err
	}
	r.storage[id] = updated
	return updated, nil
}

func (r *MemoryRepository) Reject(_ context.Context, id, reason string, at time.Time) (Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.storage[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	updated, err := MarkRejected(current, reason, at)
	if err != nil {
		return Request{}, err
	}
	r.storage[id] = updated
	return updated, nil
}

func (r *MemoryRepository) ListByUser(_ context.Context, userID string, status Status) ([]Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Request
	for _, req := range r.storage {
		if req.UserID != userID {
			continue
		}
		if status != "" && req.Status != status {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) ListPending(_ context.Context) ([]Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Request
	for _, req := range r.storage {
		if req.Status == StatusPending {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) Summarize(_ context.Context, userID string) (Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	summary := Summary{UserID: userID}
	for _, req := range r.storage {
		if req.UserID != userID {
			continue
		}
		switch req.Status {
		case StatusPending:
			summary.PendingCount++
			summary.PendingAmount += req.Amount
		case StatusSuccess:
			summary.SuccessCount++
			summary.SuccessTotal += req.Amount
		case StatusRejected:
			summary.RejectedCount++
		}
	}
	return summary, nil
}
