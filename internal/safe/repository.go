package safe

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paisaone/paisa_core/internal/idgen"
	"github.com/paisaone/paisa_core/internal/ledger"
	"github.com/paisaone/paisa_core/internal/wallet"
)

// Withdrawal bundles everything a withdrawal must apply atomically with the
// status flip.
type Withdrawal struct {
	At       time.Time
	WalletID string
	Amount   int64
	Interest int64
	Entries  []ledger.Transaction
}

// Repository persists safe deposits. Create and Withdraw apply their balance
// moves as single transactional units. Withdraw calls post with the deposit
// as read under the row lock, so the credit reflects interest recorded right
// up to the withdrawal itself.
type Repository interface {
	Create(ctx context.Context, d Deposit, entry ledger.Transaction) (Deposit, error)
	Get(ctx context.Context, id string) (Deposit, error)
	MarkInterest(ctx context.Context, id string, interest int64) (Deposit, error)
	Withdraw(ctx context.Context, id string, post func(Deposit) (Withdrawal, error)) (Deposit, error)
	ListByUser(ctx context.Context, userID string) ([]Deposit, error)
}

// PostgresRepository stores safe deposits in PostgreSQL. The sequential
// identifier comes from an atomic counter advanced inside the same
// transaction as the deposit row, so concurrent creations can never share a
// number.
type PostgresRepository struct {
	db  *pgxpool.Pool
	seq *idgen.PostgresSequence
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool, seq *idgen.PostgresSequence) *PostgresRepository {
	return &PostgresRepository{db: db, seq: seq}
}

const selectColumns = `id, user_id, wallet_id, amount, start_date, end_date, withdraw_date, interest, interest_updated, withdrawn, created_at`

// Create debits the primary balance, credits the safe balance, allocates the
// sequential identifier and appends the ledger entry in one transaction.
func (r *PostgresRepository) Create(ctx context.Context, d Deposit, entry ledger.Transaction) (Deposit, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Deposit{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := wallet.DebitTx(ctx, tx, d.WalletID, wallet.SubPrimary, d.Amount); err != nil {
		return Deposit{}, err
	}
	if _, err := wallet.CreditTx(ctx, tx, d.WalletID, wallet.SubSafe, d.Amount); err != nil {
		return Deposit{}, err
	}

	id, err := r.seq.NextTx(ctx, tx)
	if err != nil {
		return Deposit{}, err
	}
	d.ID = id

	if _, err := tx.Exec(ctx, `INSERT INTO safe_deposits (id, user_id, wallet_id, amount, start_date, end_date, interest, interest_updated, withdrawn, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.UserID, d.WalletID, d.Amount, d.StartDate.UTC(), d.EndDate.UTC(),
		d.Interest, d.InterestUpdated, d.Withdrawn, d.CreatedAt.UTC()); err != nil {
		return Deposit{}, err
	}
	if err := ledger.InsertTx(ctx, tx, entry); err != nil {
		return Deposit{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Deposit{}, err
	}
	return d, nil
}

// Get fetches a deposit by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Deposit, error) {
	row := r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM safe_deposits WHERE id = $1`, id)
	return scanDeposit(row)
}

// MarkInterest records accrued interest under a row lock.
func (r *PostgresRepository) MarkInterest(ctx context.Context, id string, interest int64) (Deposit, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Deposit{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	current, err := lockDeposit(ctx, tx, id)
	if err != nil {
		return Deposit{}, err
	}
	updated, err := MarkInterest(current, interest)
	if err != nil {
		return Deposit{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE safe_deposits SET interest = $2, interest_updated = $3 WHERE id = $1`,
		id, updated.Interest, updated.InterestUpdated); err != nil {
		return Deposit{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Deposit{}, err
	}
	return updated, nil
}

// Withdraw flips the withdrawn flag, moves amount plus interest back to the
// primary balance and appends the ledger entries in one transaction. The
// posting is built from the locked row, not from whatever the caller last
// read.
func (r *PostgresRepository) Withdraw(ctx context.Context, id string, post func(Deposit) (Withdrawal, error)) (Deposit, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Deposit{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	current, err := lockDeposit(ctx, tx, id)
	if err != nil {
		return Deposit{}, err
	}
	w, err := post(current)
	if err != nil {
		return Deposit{}, err
	}
	updated, err := MarkWithdrawn(current, w.At)
	if err != nil {
		return Deposit{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE safe_deposits SET withdrawn = true, withdraw_date = $2 WHERE id = $1`,
		id, w.At); err != nil {
		return Deposit{}, err
	}
	if _, err := wallet.DebitTx(ctx, tx, w.WalletID, wallet.SubSafe, w.Amount); err != nil {
		return Deposit{}, err
	}
	if _, err := wallet.CreditTx(ctx, tx, w.WalletID, wallet.SubPrimary, w.Amount+w.Interest); err != nil {
		return Deposit{}, err
	}
	for _, entry := range w.Entries {
		if err := ledger.InsertTx(ctx, tx, entry); err != nil {
			return Deposit{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Deposit{}, err
	}
	return updated, nil
}

// ListByUser returns a user's deposits newest-first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Deposit, error) {
	rows, err := r.db.Query(ctx, `SELECT `+selectColumns+` FROM safe_deposits WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Deposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func lockDeposit(ctx context.Context, tx pgx.Tx, id string) (Deposit, error) {
	row := tx.QueryRow(ctx, `SELECT `+selectColumns+` FROM safe_deposits WHERE id = $1 FOR UPDATE`, id)
	return scanDeposit(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeposit(row rowScanner) (Deposit, error) {
	var d Deposit
	err := row.Scan(&d.ID, &d.UserID, &d.WalletID, &d.Amount, &d.StartDate, &d.EndDate,
		&d.WithdrawDate, &d.Interest, &d.InterestUpdated, &d.Withdrawn, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Deposit{}, ErrNotFound
	}
	if err != nil {
		return Deposit{}, err
	}
	return d, nil
}
