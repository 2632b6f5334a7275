package idgen

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind names a record family and carries its identifier prefix.
type Kind string

const (
	KindWallet       Kind = "WAL"
	KindPayment      Kind = "PAY"
	KindCredit       Kind = "TXC"
	KindDebit        Kind = "TXD"
	KindTopUp        Kind = "TPR"
	KindKYC          Kind = "KYC"
	KindBeneficiary  Kind = "BEN"
	KindFee          Kind = "FEE"
	KindNotification Kind = "NTF"
)

// ErrDuplicateIdentifier indicates the storage layer rejected a generated
// identifier because it already exists. Allocation performs no existence
// check up front; the unique constraint is the only collision detector.
var ErrDuplicateIdentifier = errors.New("duplicate identifier")

// maxAllocAttempts bounds how often an allocate-and-insert unit is retried
// after a collision before the failure is surfaced to the caller.
const maxAllocAttempts = 5

const tokenLength = 8

// New returns a date-salted random identifier: prefix, two-digit year, month
// and day, then an 8-character uppercase token drawn from a random source.
func New(kind Kind, now time.Time) string {
	return fmt.Sprintf("%s%s%s", kind, now.UTC().Format("060102"), token())
}

func token() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(raw[:tokenLength])
}

// WithRetry runs fn, re-invoking it while it reports a duplicate identifier.
// fn must allocate a fresh identifier and attempt the insert as one unit.
// After maxAllocAttempts collisions the last error is returned wrapped.
func WithRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxAllocAttempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, ErrDuplicateIdentifier) {
			return err
		}
	}
	return fmt.Errorf("identifier allocation exhausted after %d attempts: %w", maxAllocAttempts, err)
}
