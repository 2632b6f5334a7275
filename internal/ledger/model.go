package ledger

import (
	"errors"
	"time"

	"github.com/paisaone/paisa_core/internal/wallet"
)

// EntryType distinguishes money entering or leaving a wallet.
type EntryType string

const (
	TypeCredit EntryType = "CREDIT"
	TypeDebit  EntryType = "DEBIT"
)

// Status is the ledger entry lifecycle state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Category is the closed set of balance-affecting event kinds.
type Category string

const (
	CategoryTopUp          Category = "TOP_UP"
	CategoryCardPayment    Category = "CARD_PAYMENT"
	CategoryBankTransfer   Category = "BANK_TRANSFER"
	CategoryAdminDeduction Category = "ADMIN_DEDUCTION"
	CategoryWalletTransfer Category = "WALLET_TRANSFER"
	CategoryInterestCredit Category = "INTEREST_CREDIT"
	CategoryRefund         Category = "REFUND"
	CategoryFeeCharge      Category = "FEE_CHARGE"
	CategoryRewards        Category = "REWARDS"
	CategorySafeWithdraw   Category = "SAFE_WITHDRAW"
	CategorySafeDeposit    Category = "SAFE_DEPOSIT"
)

// ValidCategory reports whether c belongs to the closed category set.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryTopUp, CategoryCardPayment, CategoryBankTransfer,
		CategoryAdminDeduction, CategoryWalletTransfer, CategoryInterestCredit,
		CategoryRefund, CategoryFeeCharge, CategoryRewards,
		CategorySafeWithdraw, CategorySafeDeposit:
		return true
	default:
		return false
	}
}

var (
	// ErrIllegalTransition rejects a status change out of a terminal or
	// mismatched state.
	ErrIllegalTransition = errors.New("illegal state transition")
	// ErrNotFound indicates an unknown transaction identifier.
	ErrNotFound = errors.New("transaction not found")
	// ErrInvalidAmount rejects non-positive entry amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// validTransitions lists the only allowed status moves. All three targets
// are terminal.
var validTransitions = map[Status][]Status{
	StatusPending: {StatusCompleted, StatusFailed, StatusCancelled},
}

// CanTransition reports whether a ledger entry may move from one status to
// another.
func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Detail carries free-form context for an entry.
type Detail struct {
	Party   string
	Account string
	Notes   string
}

// Transaction is an immutable-once-terminal record of a single
// balance-affecting event. Entries are never deleted.
type Transaction struct {
	ID        string
	UserID    string
	Type      EntryType
	Amount    int64
	Category  Category
	Status    Status
	Sub       wallet.Sub
	Detail    Detail
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Transition returns a copy of t advanced to the target status, or
// ErrIllegalTransition leaving the input untouched.
func Transition(t Transaction, to Status, at time.Time) (Transaction, error) {
	if !CanTransition(t.Status, to) {
		return Transaction{}, ErrIllegalTransition
	}
	t.Status = to
	t.UpdatedAt = at
	return t, nil
}

// Summary aggregates a user's COMPLETED entries.
type Summary struct {
	UserID        string
	TotalCredited int64
	TotalDebited  int64
	CreditCount   int64
	DebitCount    int64
}

// Filter narrows ledger listings.
type Filter struct {
	Category Category
	From     time.Time
	To       time.Time
}
