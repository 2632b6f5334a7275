package wallet

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/paisaone/paisa_core/internal/idgen"
)

// Service exposes wallet account operations.
type Service struct {
	repo Repository
}

// NewService builds a wallet service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create provisions the single wallet for a user with zero balances.
func (s *Service) Create(ctx context.Context, userID string) (Wallet, error) {
	if userID == "" {
		return Wallet{}, fmt.Errorf("user id is required")
	}
	now := time.Now().UTC()
	var created Wallet
	err := idgen.WithRetry(func() error {
		w := Wallet{
			ID:        idgen.New(idgen.KindWallet, now),
			UserID:    userID,
			Status:    StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Create(ctx, w); err != nil {
			return err
		}
		created = w
		return nil
	})
	if err != nil {
		return Wallet{}, err
	}
	return created, nil
}

// Get retrieves a wallet by identifier.
func (s *Service) Get(ctx context.Context, id string) (Wallet, error) {
	return s.repo.Get(ctx, id)
}

// GetByUser retrieves the wallet owned by a user.
func (s *Service) GetByUser(ctx context.Context, userID string) (Wallet, error) {
	return s.repo.GetByUser(ctx, userID)
}

// Credit increases the named sub-balance.
func (s *Service) Credit(ctx context.Context, id string, sub Sub, amount int64) (Wallet, error) {
	if amount <= 0 {
		return Wallet{}, ErrInvalidAmount
	}
	if !ValidSub(sub) {
		return Wallet{}, fmt.Errorf("unknown sub-balance %q", sub)
	}
	return s.repo.Credit(ctx, id, sub, amount)
}

// Debit decreases the named sub-balance, leaving it untouched on failure.
func (s *Service) Debit(ctx context.Context, id string, sub Sub, amount int64) (Wallet, error) {
	if amount <= 0 {
		return Wallet{}, ErrInvalidAmount
	}
	if !ValidSub(sub) {
		return Wallet{}, fmt.Errorf("unknown sub-balance %q", sub)
	}
	return s.repo.Debit(ctx, id, sub, amount)
}

// TotalBalance returns the sum of both sub-balances.
func (s *Service) TotalBalance(ctx context.Context, id string) (int64, error) {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return w.Total(), nil
}

// SetStatus changes the administrative status without touching balances.
func (s *Service) SetStatus(ctx context.Context, id string, status Status) (Wallet, error) {
	if !ValidStatus(status) {
		return Wallet{}, fmt.Errorf("unknown wallet status %q", status)
	}
	return s.repo.SetStatus(ctx, id, status)
}

// SetPin stores a bcrypt hash of the wallet PIN.
func (s *Service) SetPin(ctx context.Context, id, pin string) error {
	if len(pin) < 4 {
		return fmt.Errorf("pin must be at least 4 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}
	return s.repo.SetPinHash(ctx, id, string(hash))
}

// VerifyPin reports whether the supplied PIN matches the stored hash.
func (s *Service) VerifyPin(ctx context.Context, id, pin string) (bool, error) {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if w.PinHash == "" {
		return false, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(w.PinHash), []byte(pin)); err != nil {
		return false, nil
	}
	return true, nil
}
