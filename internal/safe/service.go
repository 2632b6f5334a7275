package safe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paisaone/paisa_core/internal/ledger"
	"github.com/paisaone/paisa_core/internal/wallet"
)

// Service coordinates fixed-term safe deposits: locking funds out of the
// primary balance, recording externally accrued interest, and withdrawal.
type Service struct {
	repo    Repository
	wallets *wallet.Service
	logger  *slog.Logger
}

// NewService builds a safe deposit service instance.
func NewService(repo Repository, wallets *wallet.Service, logger *slog.Logger) *Service {
	return &Service{repo: repo, wallets: wallets, logger: logger}
}

// CreateInput captures the data required to lock funds into a safe deposit.
type CreateInput struct {
	UserID   string
	Amount   int64
	TermDays int
}

// Create moves funds from the primary to the safe sub-balance and records
// the deposit under a sequentially allocated identifier. The debit, the
// credit, the identifier allocation and the ledger entry commit as one
// unit; an insufficient primary balance aborts everything.
func (s *Service) Create(ctx context.Context, input CreateInput) (Deposit, error) {
	if input.Amount <= 0 {
		return Deposit{}, ErrInvalidAmount
	}
	if input.TermDays <= 0 {
		return Deposit{}, ErrInvalidTerm
	}
	w, err := s.wallets.GetByUser(ctx, input.UserID)
	if err != nil {
		return Deposit{}, fmt.Errorf("wallet for user %s: %w", input.UserID, err)
	}

	now := time.Now().UTC()
	entry, err := ledger.NewSettled(ledger.CreateInput{
		UserID:   input.UserID,
		Type:     ledger.TypeDebit,
		Amount:   input.Amount,
		Category: ledger.CategorySafeDeposit,
		Sub:      wallet.SubPrimary,
		Detail:   ledger.Detail{Notes: "locked into safe deposit"},
	}, now)
	if err != nil {
		return Deposit{}, err
	}

	deposit := Deposit{
		UserID:    input.UserID,
		WalletID:  w.ID,
		Amount:    input.Amount,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, input.TermDays),
		CreatedAt: now,
	}
	created, err := s.repo.Create(ctx, deposit, entry)
	if err != nil {
		return Deposit{}, err
	}

	s.logger.Info("safe deposit created",
		slog.String("safe_id", created.ID),
		slog.String("wallet_id", w.ID),
		slog.Int64("amount", created.Amount))
	return created, nil
}

// MarkInterest records interest computed by the external accrual process.
func (s *Service) MarkInterest(ctx context.Context, id string, interest int64) (Deposit, error) {
	return s.repo.MarkInterest(ctx, id, interest)
}

// Withdraw releases the deposit back to the primary balance together with
// any accrued interest. Early withdrawal is permitted; penalty policy lives
// outside the core. A deposit already withdrawn fails with
// ErrIllegalTransition and no balance moves. The posting is computed from
// the deposit as the repository holds it under lock, so interest recorded
// concurrently is still credited.
func (s *Service) Withdraw(ctx context.Context, id string) (Deposit, error) {
	at := time.Now().UTC()
	withdrawn, err := s.repo.Withdraw(ctx, id, func(d Deposit) (Withdrawal, error) {
		entries := make([]ledger.Transaction, 0, 2)
		withdrawEntry, err := ledger.NewSettled(ledger.CreateInput{
			UserID:   d.UserID,
			Type:     ledger.TypeCredit,
			Amount:   d.Amount,
			Category: ledger.CategorySafeWithdraw,
			Sub:      wallet.SubPrimary,
			Detail:   ledger.Detail{Notes: "safe deposit " + d.ID + " withdrawn"},
		}, at)
		if err != nil {
			return Withdrawal{}, err
		}
		entries = append(entries, withdrawEntry)
		if d.Interest > 0 {
			interestEntry, err := ledger.NewSettled(ledger.CreateInput{
				UserID:   d.UserID,
				Type:     ledger.TypeCredit,
				Amount:   d.Interest,
				Category: ledger.CategoryInterestCredit,
				Sub:      wallet.SubPrimary,
				Detail:   ledger.Detail{Notes: "interest on safe deposit " + d.ID},
			}, at)
			if err != nil {
				return Withdrawal{}, err
			}
			entries = append(entries, interestEntry)
		}
		return Withdrawal{
			At:       at,
			WalletID: d.WalletID,
			Amount:   d.Amount,
			Interest: d.Interest,
			Entries:  entries,
		}, nil
	})
	if err != nil {
		return Deposit{}, err
	}

	s.logger.Info("safe deposit withdrawn",
		slog.String("safe_id", withdrawn.ID),
		slog.Int64("amount", withdrawn.Amount),
		slog.Int64("interest", withdrawn.Interest))
	return withdrawn, nil
}

// Get retrieves a deposit by identifier.
func (s *Service) Get(ctx context.Context, id string) (Deposit, error) {
	return s.repo.Get(ctx, id)
}

// ListByUser returns a user's deposits newest-first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Deposit, error) {
	return s.repo.ListByUser(ctx, userID)
}
