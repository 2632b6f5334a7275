package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/paisaone/paisa_core/internal/idgen"
)

// MemoryRepository is a mutex-guarded in-memory ledger for tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Transaction
}

// NewMemoryRepository constructs an in-memory ledger repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{storage: make(map[string]Transaction)}
}

func (r *MemoryRepository) Insert(_ context.Context, t Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[t.ID]; exists {
		return idgen.ErrDuplicateIdentifier
	}
	r.storage[t.ID] = t
	return nil
}

// Remove deletes an entry. Workflow memory stores use it to unwind a
// partially applied unit when a later step fails; it is not part of the
// Repository interface.
func (r *MemoryRepository) Remove(_ context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.storage, id)
}

func (r *MemoryRepository) Get(_ context.Context, id string) (Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.storage[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepository) Transition(_ context.Context, id string, to Status) (Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.storage[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	updated, err := Transition(t, to, time.Now().UTC())
	if err != nil {
		return Transaction{}, err
	}
	r.storage[id] = updated
	return updated, nil
}

func (r *MemoryRepository) ListByUser(_ context.Context, userID string, f Filter) ([]Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Transaction
	for _, t := range r.storage {
		if t.UserID != userID {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if !f.From.IsZero() && t.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && t.CreatedAt.After(f.To) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) Summarize(_ context.Context, userID string) (Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	summary := Summary{UserID: userID}
	for _, t := range r.storage {
		if t.UserID != userID || t.Status != StatusCompleted {
			continue
		}
		switch t.Type {
		case TypeCredit:
			summary.TotalCredited += t.Amount
			summary.CreditCount++
		case TypeDebit:
			summary.TotalDebited += t.Amount
			summary.DebitCount++
		}
	}
	return summary, nil
}
