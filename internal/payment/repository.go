package payment

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paisaone/paisa_core/internal/idgen"
	"github.com/paisaone/paisa_core/internal/ledger"
	"github.com/paisaone/paisa_core/internal/wallet"
)

const uniqueViolationCode = "23505"

// Settlement bundles everything a completion must apply atomically with the
// status flip.
type Settlement struct {
	At           time.Time
	WalletID     string
	CreditAmount int64
	Entries      []ledger.Transaction
}

// Repository persists payments. Complete applies the settlement as a single
// transactional unit.
type Repository interface {
	Create(ctx context.Context, p Payment) error
	Get(ctx context.Context, id string) (Payment, error)
	Complete(ctx context.Context, id string, s Settlement) (Payment, error)
	Fail(ctx context.Context, id, reason string, at time.Time) (Payment, error)
	ListByUser(ctx context.Context, userID string, status Status) ([]Payment, error)
	Summarize(ctx context.Context, userID string) (Summary, error)
}

// PostgresRepository stores payments in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, user_id, type, amount, fee, bank_name, holder_name, instrument, reference, status, action_time, action_reason, created_at`

// Create inserts a pending payment. Identifier collisions surface as
// idgen.ErrDuplicateIdentifier.
func (r *PostgresRepository) Create(ctx context.Context, p Payment) error {
	_, err := r.db.Exec(ctx, `INSERT INTO payments (id, user_id, type, amount, fee, bank_name, holder_name, instrument, reference, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.UserID, p.Type, p.Amount, p.Fee, p.Detail.BankName, p.Detail.HolderName,
		p.Detail.Instrument, p.Detail.Reference, p.Status, p.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return idgen.ErrDuplicateIdentifier
	}
	return err
}

// Get fetches a payment by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM payments WHERE id = $1`, id)
	return scanPayment(row)
}

// Complete flips the status, credits the wallet and appends the ledger
// entries in one transaction. A payment already terminal aborts with
// ErrIllegalTransition and no write takes effect.
func (r *PostgresRepository) Complete(ctx context.Context, id string, s Settlement) (Payment, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Payment{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	current, err := lockPayment(ctx, tx, id)
	if err != nil {
		return Payment{}, err
	}
	updated, err := MarkCompleted(current, s.At)
	if err != nil {
		return Payment{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE payments SET status = $2, action_time = $3 WHERE id = $1`,
		id, updated.Status, s.At); err != nil {
		return Payment{}, err
	}
	if _, err := wallet.CreditTx(ctx, tx, s.WalletID, wallet.SubPrimary, s.CreditAmount); err != nil {
		return Payment{}, err
	}
	for _, entry := range s.Entries {
		if err := ledger.InsertTx(ctx, tx, entry); err != nil {
			return Payment{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Payment{}, err
	}
	return updated, nil
}

// Fail flips the status and records the reason; balances stay untouched.
func (r *PostgresRepository) Fail(ctx context.Context, id, reason string, at time.Time) (Payment, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Payment{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	current, err := lockPayment(ctx, tx, id)
	if err != nil {
		return Payment{}, err
	}
	updated, err := MarkFailed(current, reason, at)
	if err != nil {
		return Payment{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE payments SET status = $2, action_time = $3, action_reason = $4 WHERE id = $1`,
		id, updated.Status, at, reason); err != nil {
		return Payment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Payment{}, err
	}
	return updated, nil
}

// ListByUser returns a user's payments newest-first, optionally by status.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, status Status) ([]Payment, error) {
	query := `SELECT ` + selectColumns + ` FROM payments WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		args = append(args, status)
		query += ` AND status = $2`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Summarize aggregates a user's payments per status.
func (r *PostgresRepository) Summarize(ctx context.Context, userID string) (Summary, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*), COALESCE(SUM(amount), 0)
        FROM payments WHERE user_id = $1 GROUP BY status`, userID)
	if err != nil {
		return Summary{}, err
	}
	defer rows.Close()

	summary := Summary{UserID: userID}
	for rows.Next() {
		var status Status
		var count, total int64
		if err := rows.Scan(&status, &count, &total); err != nil {
			return Summary{}, err
		}
		switch status {
		case StatusPending:
			summary.PendingCount = count
			summary.PendingAmount = total
		case StatusCompleted:
			summary.CompletedCount = count
			summary.CompletedTotal = total
		case StatusFailed:
			summary.FailedCount = count
		}
	}
	return summary, rows.Err()
}

func lockPayment(ctx context.Context, tx pgx.Tx, id string) (Payment, error) {
	row := tx.QueryRow(ctx, `SELECT `+selectColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id)
	return scanPayment(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.UserID, &p.Type, &p.Amount, &p.Fee,
		&p.Detail.BankName, &p.Detail.HolderName, &p.Detail.Instrument, &p.Detail.Reference,
		&p.Status, &p.ActionTime, &p.ActionReason, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, ErrNotFound
	}
	if err != nil {
		return Payment{}, err
	}
	return p, nil
}
