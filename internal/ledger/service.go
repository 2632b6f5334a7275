package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/paisaone/paisa_core/internal/idgen"
	"github.com/paisaone/paisa_core/internal/wallet"
)

// Service exposes the append-style transaction ledger. It records intent
// only; callers move wallet funds and settle the matching entry as a single
// unit through their workflow repositories.
type Service struct {
	repo Repository
}

// NewService builds a ledger service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput captures the data required to open a pending entry.
type CreateInput struct {
	UserID   string
	Type     EntryType
	Amount   int64
	Category Category
	Sub      wallet.Sub
	Detail   Detail
}

// Create opens a PENDING ledger entry. The identifier prefix encodes the
// entry type (TXC for credits, TXD for debits).
func (s *Service) Create(ctx context.Context, input CreateInput) (Transaction, error) {
	if input.Amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	kind, err := kindForType(input.Type)
	if err != nil {
		return Transaction{}, err
	}
	if !wallet.ValidSub(input.Sub) {
		return Transaction{}, fmt.Errorf("unknown sub-balance %q", input.Sub)
	}
	if !ValidCategory(input.Category) {
		return Transaction{}, fmt.Errorf("unknown category %q", input.Category)
	}
	now := time.Now().UTC()
	var created Transaction
	err = idgen.WithRetry(func() error {
		t := Transaction{
			ID:        idgen.New(kind, now),
			UserID:    input.UserID,
			Type:      input.Type,
			Amount:    input.Amount,
			Category:  input.Category,
			Status:    StatusPending,
			Sub:       input.Sub,
			Detail:    input.Detail,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if insertErr := s.repo.Insert(ctx, t); insertErr != nil {
			return insertErr
		}
		created = t
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	return created, nil
}

// Complete settles a pending entry.
func (s *Service) Complete(ctx context.Context, id string) (Transaction, error) {
	return s.repo.Transition(ctx, id, StatusCompleted)
}

// Fail marks a pending entry failed.
func (s *Service) Fail(ctx context.Context, id string) (Transaction, error) {
	return s.repo.Transition(ctx, id, StatusFailed)
}

// Cancel voids a pending entry.
func (s *Service) Cancel(ctx context.Context, id string) (Transaction, error) {
	return s.repo.Transition(ctx, id, StatusCancelled)
}

// Get retrieves an entry by identifier.
func (s *Service) Get(ctx context.Context, id string) (Transaction, error) {
	return s.repo.Get(ctx, id)
}

// ListByUser returns a user's entries newest-first, optionally narrowed by
// category and date range.
func (s *Service) ListByUser(ctx context.Context, userID string, f Filter) ([]Transaction, error) {
	return s.repo.ListByUser(ctx, userID, f)
}

// Summarize aggregates credited and debited totals over COMPLETED entries
// only.
func (s *Service) Summarize(ctx context.Context, userID string) (Summary, error) {
	return s.repo.Summarize(ctx, userID)
}

// NewSettled builds an already-COMPLETED entry for workflows that settle in
// the same transaction that moves the funds. The caller persists it through
// its own atomic unit (InsertTx or a memory store).
func NewSettled(input CreateInput, at time.Time) (Transaction, error) {
	if input.Amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	kind, err := kindForType(input.Type)
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{
		ID:        idgen.New(kind, at),
		UserID:    input.UserID,
		Type:      input.Type,
		Amount:    input.Amount,
		Category:  input.Category,
		Status:    StatusCompleted,
		Sub:       input.Sub,
		Detail:    input.Detail,
		CreatedAt: at,
		UpdatedAt: at,
	}, nil
}

func kindForType(t EntryType) (idgen.Kind, error) {
	switch t {
	case TypeCredit:
		return idgen.KindCredit, nil
	case TypeDebit:
		return idgen.KindDebit, nil
	default:
		return "", fmt.Errorf("unknown entry type %q", t)
	}
}
