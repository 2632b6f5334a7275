package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/paisaone/paisa_core/internal/idgen"
)

// MemoryRepository is a mutex-guarded in-memory store for tests. Workflow
// packages compose it into their own memory stores to mimic the Postgres
// transactional paths.
type MemoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Wallet
	byUser  map[string]string
}

// NewMemoryRepository constructs an in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		storage: make(map[string]Wallet),
		byUser:  make(map[string]string),
	}
}

func (r *MemoryRepository) Create(_ context.Context, w Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[w.ID]; exists {
		return idgen.ErrDuplicateIdentifier
	}
	if _, exists := r.byUser[w.UserID]; exists {
		return ErrWalletExists
	}
	r.storage[w.ID] = w
	r.byUser[w.UserID] = w.ID
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.storage[id]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return w, nil
}

func (r *MemoryRepository) GetByUser(_ context.Context, userID string) (Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUser[userID]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return r.storage[id], nil
}

func (r *MemoryRepository) Credit(_ context.Context, id string, sub Sub, amount int64) (Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyLocked(id, func(w Wallet) (Wallet, error) {
		return ApplyCredit(w, sub, amount)
	})
}

func (r *MemoryRepository) Debit(_ context.Context, id string, sub Sub, amount int64) (Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyLocked(id, func(w Wallet) (Wallet, error) {
		return ApplyDebit(w, sub, amount)
	})
}

func (r *MemoryRepository) SetStatus(_ context.Context, id string, status Status) (Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyLocked(id, func(w Wallet) (Wallet, error) {
		w.Status = status
		return w, nil
	})
}

func (r *MemoryRepository) SetPinHash(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.applyLocked(id, func(w Wallet) (Wallet, error) {
		w.PinHash = hash
		return w, nil
	})
	return err
}

// ApplyLocked runs apply against the stored wallet under the repository
// lock, persisting the result. Exposed for workflow memory stores that need
// balance moves inside their own atomic units.
func (r *MemoryRepository) ApplyLocked(id string, apply func(Wallet) (Wallet, error)) (Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyLocked(id, apply)
}

func (r *MemoryRepository) applyLocked(id string, apply func(Wallet) (Wallet, error)) (Wallet, error) {
	w, ok := r.storage[id]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	updated, err := apply(w)
	if err != nil {
		return Wallet{}, err
	}
	updated.UpdatedAt = time.Now().UTC()
	r.storage[id] = updated
	return updated, nil
}
