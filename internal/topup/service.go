package topup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paisaone/paisa_core/internal/idgen"
	"github.com/paisaone/paisa_core/internal/ledger"
	"github.com/paisaone/paisa_core/internal/wallet"
)

// Service coordinates the manual top-up approval workflow.
type Service struct {
	repo    Repository
	wallets *wallet.Service
	logger  *slog.Logger
}

// NewService builds a top-up service instance.
func NewService(repo Repository, wallets *wallet.Service, logger *slog.Logger) *Service {
	return &Service{repo: repo, wallets: wallets, logger: logger}
}

// CreateInput captures the data required to file a top-up request.
type CreateInput struct {
	UserID string
	Amount int64
	Method Method
	Bank   Bank
	Sub    wallet.Sub
}

// Create records a PENDING request awaiting human approval.
func (s *Service) Create(ctx context.Context, input CreateInput) (Request, error) {
	if input.Amount < MinAmount {
		return Request{}, ErrAmountBelowMinimum
	}
	if !ValidMethod(input.Method) {
		return Request{}, fmt.Errorf("unknown top-up method %q", input.Method)
	}
	if !wallet.ValidSub(input.Sub) {
		return Request{}, fmt.Errorf("unknown sub-balance %q", input.Sub)
	}

	now := time.Now().UTC()
	var created Request
	err := idgen.WithRetry(func() error {
		r := Request{
			ID:        idgen.New(idgen.KindTopUp, now),
			UserID:    input.UserID,
			Amount:    input.Amount,
			Method:    input.Method,
			Bank:      input.Bank,
			Sub:       input.Sub,
			Status:    StatusPending,
			CreatedAt: now,
		}
		if insertErr := s.repo.Create(ctx, r); insertErr != nil {
			return insertErr
		}
		created = r
		return nil
	})
	if err != nil {
		return Request{}, err
	}

	s.logger.Info("top-up requested",
		slog.String("request_id", created.ID),
		slog.String("user_id", created.UserID),
		slog.Int64("amount", created.Amount),
		slog.String("method", string(created.Method)))
	return created, nil
}

// Approve settles a pending request: the status flip, the sub-balance credit
// and the COMPLETED ledger entry commit as one unit. A second approval fails
// with ErrIllegalTransition and leaves the balance unchanged.
func (s *Service) Approve(ctx context.Context, requestID string) (Request, error) {
	r, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	w, err := s.wallets.GetByUser(ctx, r.UserID)
	if err != nil {
		return Request{}, fmt.Errorf("wallet for user %s: %w", r.UserID, err)
	}

	var approved Request
	err = idgen.WithRetry(func() error {
		at := time.Now().UTC()
		entry, err := ledger.NewSettled(ledger.CreateInput{
			UserID:   r.UserID,
			Type:     ledger.TypeCredit,
			Amount:   r.Amount,
			Category: ledger.CategoryTopUp,
			Sub:      r.Sub,
			Detail:   ledger.Detail{Party: r.Bank.Name, Account: r.Bank.Account, Notes: "top-up " + r.ID},
		}, at)
		if err != nil {
			return err
		}
		approved, err = s.repo.Approve(ctx, requestID, Approval{
			At:       at,
			WalletID: w.ID,
			Sub:      r.Sub,
			Amount:   r.Amount,
			Entry:    entry,
		})
		return err
	})
	if err != nil {
		return Request{}, err
	}

	s.logger.Info("top-up approved",
		slog.String("request_id", approved.ID),
		slog.String("wallet_id", w.ID),
		slog.Int64("amount", approved.Amount))
	return approved, nil
}

// Reject marks a pending request rejected. No balance is touched.
func (s *Service) Reject(ctx context.Context, requestID, reason string) (Request, error) {
	rejected, err := s.repo.Reject(ctx, requestID, reason, time.Now().UTC())
	if err != nil {
		return Request{}, err
	}
	s.logger.Info("top-up rejected",
		slog.String("request_id", rejected.ID),
		slog.String("reason", reason))
	return rejected, nil
}

// Get retrieves a request by identifier.
func (s *Service) Get(ctx context.Context, id string) (Request, error) {
	return s.repo.Get(ctx, id)
}

// ListByUser returns a user's requests, optionally narrowed by status.
func (s *Service) ListByUser(ctx context.Context, userID string, status Status) ([]Request, error) {
	return s.repo.ListByUser(ctx, userID, status)
}

// ListPending returns the review queue oldest-first.
func (s *Service) ListPending(ctx context.Context) ([]Request, error) {
	return s.repo.ListPending(ctx)
}

// Summarize aggregates a user's requests per status.
func (s *Service) Summarize(ctx context.Context, userID string) (Summary, error) {
	return s.repo.Summarize(ctx, userID)
}
