package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paisaone/paisa_core/internal/fees"
	"github.com/paisaone/paisa_core/internal/idgen"
	"github.com/paisaone/paisa_core/internal/ledger"
	"github.com/paisaone/paisa_core/internal/wallet"
)

// Service coordinates inbound payment intake: fee resolution, acquirer
// authorization for card payments, and atomic settlement into the wallet and
// ledger.
type Service struct {
	repo     Repository
	wallets  *wallet.Service
	fees     *fees.Service
	acquirer Acquirer
	logger   *slog.Logger
}

// NewService builds a payment service. A nil acquirer falls back to the
// static simulator.
func NewService(repo Repository, wallets *wallet.Service, feeSvc *fees.Service, acquirer Acquirer, logger *slog.Logger) *Service {
	if acquirer == nil {
		acquirer = StaticAcquirer{}
	}
	return &Service{repo: repo, wallets: wallets, fees: feeSvc, acquirer: acquirer, logger: logger}
}

// CreateInput captures the data required to open a pending payment.
type CreateInput struct {
	UserID string
	Type   Type
	Amount int64
	Detail Detail
}

// Create resolves the fee, authorizes card payments with the acquirer, and
// records a PENDING payment.
func (s *Service) Create(ctx context.Context, input CreateInput) (Payment, error) {
	if input.Amount < MinAmount {
		return Payment{}, ErrAmountBelowMinimum
	}
	if !ValidType(input.Type) {
		return Payment{}, fmt.Errorf("unknown payment type %q", input.Type)
	}
	if input.Detail.Empty() {
		return Payment{}, ErrDetailRequired
	}

	fee, err := s.fees.Resolve(ctx, string(input.Type), input.Amount)
	if err != nil {
		return Payment{}, fmt.Errorf("resolve fee: %w", err)
	}
	if fee < MinFee {
		fee = MinFee
	}
	if fee >= input.Amount {
		return Payment{}, fmt.Errorf("fee %d consumes the full amount %d", fee, input.Amount)
	}

	if input.Type == TypeCard {
		decision, err := s.acquirer.Authorize(ctx, Authorization{
			Instrument: input.Detail.Instrument,
			HolderName: input.Detail.HolderName,
			Amount:     input.Amount,
		})
		if err != nil {
			return Payment{}, fmt.Errorf("acquirer: %w", err)
		}
		if !decision.Approved {
			return Payment{}, ErrDeclined
		}
		if input.Detail.Reference == "" {
			input.Detail.Reference = decision.Reference
		}
	}

	now := time.Now().UTC()
	var created Payment
	err = idgen.WithRetry(func() error {
		p := Payment{
			ID:        idgen.New(idgen.KindPayment, now),
			UserID:    input.UserID,
			Type:      input.Type,
			Amount:    input.Amount,
			Fee:       fee,
			Detail:    input.Detail,
			Status:    StatusPending,
			CreatedAt: now,
		}
		if insertErr := s.repo.Create(ctx, p); insertErr != nil {
			return insertErr
		}
		created = p
		return nil
	})
	if err != nil {
		return Payment{}, err
	}

	s.logger.Info("payment created",
		slog.String("payment_id", created.ID),
		slog.String("user_id", created.UserID),
		slog.Int64("amount", created.Amount),
		slog.Int64("fee", created.Fee))
	return created, nil
}

// Complete settles a pending payment: the status flip, the primary-balance
// credit of amount minus fee, and the two ledger entries commit as one unit.
func (s *Service) Complete(ctx context.Context, paymentID string) (Payment, error) {
	p, err := s.repo.Get(ctx, paymentID)
	if err != nil {
		return Payment{}, err
	}
	w, err := s.wallets.GetByUser(ctx, p.UserID)
	if err != nil {
		return Payment{}, fmt.Errorf("wallet for user %s: %w", p.UserID, err)
	}

	var settled Payment
	err = idgen.WithRetry(func() error {
		at := time.Now().UTC()
		creditEntry, err := ledger.NewSettled(ledger.CreateInput{
			UserID:   p.UserID,
			Type:     ledger.TypeCredit,
			Amount:   p.Amount - p.Fee,
			Category: categoryFor(p.Type),
			Sub:      wallet.SubPrimary,
			Detail:   ledger.Detail{Party: p.Detail.HolderName, Account: p.Detail.Instrument, Notes: "payment " + p.ID},
		}, at)
		if err != nil {
			return err
		}
		feeEntry, err := ledger.NewSettled(ledger.CreateInput{
			UserID:   p.UserID,
			Type:     ledger.TypeDebit,
			Amount:   p.Fee,
			Category: ledger.CategoryFeeCharge,
			Sub:      wallet.SubPrimary,
			Detail:   ledger.Detail{Notes: "fee for payment " + p.ID},
		}, at)
		if err != nil {
			return err
		}
		settled, err = s.repo.Complete(ctx, paymentID, Settlement{
			At:           at,
			WalletID:     w.ID,
			CreditAmount: p.Amount - p.Fee,
			Entries:      []ledger.Transaction{creditEntry, feeEntry},
		})
		return err
	})
	if err != nil {
		return Payment{}, err
	}

	s.logger.Info("payment completed",
		slog.String("payment_id", settled.ID),
		slog.String("wallet_id", w.ID),
		slog.Int64("credited", settled.Amount-settled.Fee))
	return settled, nil
}

// Fail marks a pending payment failed with the given reason. No balance is
// touched.
func (s *Service) Fail(ctx context.Context, paymentID, reason string) (Payment, error) {
	failed, err := s.repo.Fail(ctx, paymentID, reason, time.Now().UTC())
	if err != nil {
		return Payment{}, err
	}
	s.logger.Info("payment failed",
		slog.String("payment_id", failed.ID),
		slog.String("reason", reason))
	return failed, nil
}

// Get retrieves a payment by identifier.
func (s *Service) Get(ctx context.Context, id string) (Payment, error) {
	return s.repo.Get(ctx, id)
}

// ListByUser returns a user's payments, optionally narrowed by status.
func (s *Service) ListByUser(ctx context.Context, userID string, status Status) ([]Payment, error) {
	return s.repo.ListByUser(ctx, userID, status)
}

// Summarize aggregates a user's payments per status.
func (s *Service) Summarize(ctx context.Context, userID string) (Summary, error) {
	return s.repo.Summarize(ctx, userID)
}

func categoryFor(t Type) ledger.Category {
	if t == TypeCard {
		return ledger.CategoryCardPayment
	}
	return ledger.CategoryBankTransfer
}
