package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/paisaone/paisa_core/internal/idgen"
	"github.com/paisaone/paisa_core/internal/ledger"
	"github.com/paisaone/paisa_core/internal/wallet"
)

// ErrNotOwner indicates the caller does not own the source wallet.
var ErrNotOwner = errors.New("not owner of source wallet")

// Service posts wallet-to-wallet transfers: a debit on the sender, a credit
// on the receiver and the matching ledger entries as one unit.
type Service struct {
	repo    Repository
	wallets *wallet.Service
	logger  *slog.Logger
}

// NewService builds a transfer service instance.
func NewService(repo Repository, wallets *wallet.Service, logger *slog.Logger) *Service {
	return &Service{repo: repo, wallets: wallets, logger: logger}
}

// Input captures the data needed to move funds between wallets.
type Input struct {
	FromWalletID    string
	ToWalletID      string
	Amount          int64
	Notes           string
	RequestorUserID string
}

// Result describes the outcome of a transfer.
type Result struct {
	DebitEntryID  string
	CreditEntryID string
	FromBalance   int64
	ToBalance     int64
	CompletedAt   time.Time
}

// Transfer moves funds between two primary balances.
func (s *Service) Transfer(ctx context.Context, input Input) (Result, error) {
	if input.Amount <= 0 {
		return Result{}, wallet.ErrInvalidAmount
	}
	if input.FromWalletID == input.ToWalletID {
		return Result{}, fmt.Errorf("cannot transfer to the same wallet")
	}

	from, err := s.wallets.Get(ctx, input.FromWalletID)
	if err != nil {
		return Result{}, err
	}
	if input.RequestorUserID != "" && from.UserID != input.RequestorUserID {
		return Result{}, ErrNotOwner
	}
	to, err := s.wallets.Get(ctx, input.ToWalletID)
	if err != nil {
		return Result{}, err
	}

	var res Result
	err = idgen.WithRetry(func() error {
		at := time.Now().UTC()
		debitEntry, err := ledger.NewSettled(ledger.CreateInput{
			UserID:   from.UserID,
			Type:     ledger.TypeDebit,
			Amount:   input.Amount,
			Category: ledger.CategoryWalletTransfer,
			Sub:      wallet.SubPrimary,
			Detail:   ledger.Detail{Party: to.UserID, Account: to.ID, Notes: input.Notes},
		}, at)
		if err != nil {
			return err
		}
		creditEntry, err := ledger.NewSettled(ledger.CreateInput{
			UserID:   to.UserID,
			Type:     ledger.TypeCredit,
			Amount:   input.Amount,
			Category: ledger.CategoryWalletTransfer,
			Sub:      wallet.SubPrimary,
			Detail:   ledger.Detail{Party: from.UserID, Account: from.ID, Notes: input.Notes},
		}, at)
		if err != nil {
			return err
		}
		res, err = s.repo.Transfer(ctx, Posting{
			At:           at,
			FromWalletID: from.ID,
			ToWalletID:   to.ID,
			Amount:       input.Amount,
			DebitEntry:   debitEntry,
			CreditEntry:  creditEntry,
		})
		return err
	})
	if err != nil {
		return Result{}, err
	}

	s.logger.Info("wallet transfer posted",
		slog.String("from", from.ID),
		slog.String("to", to.ID),
		slog.Int64("amount", input.Amount))
	return res, nil
}
