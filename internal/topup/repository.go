package topup

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

// Approval bundles everything an approval must apply atomically with the
// status flip.
type Approval struct {
	At       time.Time
	WalletID string
	Sub      wallet.Sub
	Amount   int64
	Entry    ledger.Transaction
}

// Repository persists top-up requests. Approve applies the credit and the
// ledger entry as a single transactional unit.
type Repository interface {
	Create(ctx context.Context, r Request) error
	Get(ctx context.Context, id string) (Request, error)
	Approve(ctx context.Context, id string, a Approval) (Request, error)
	Reject(ctx context.Context, id, reason string, at time.Time) (Request, error)
	ListByUser(ctx context.Context, userID string, status Status) ([]Request, error)
	ListPending(ctx context.Context) ([]Request, error)
	Summarize(ctx context.Context, userID string) (Summary, error)
}

// PostgresRepository stores top-up requests in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, user_id, amount, method, bank_name, bank_account, bank_reference, sub_account, status, approval_time, rejection_time, rejection_reason, created_at`

// Create inserts a pending request.
func (r *PostgresRepository) Create(ctx context.Context, req Request) error {
	_, err := r.db.Exec(ctx, `INSERT INTO topup_requests (id, user_id, amount, method, bank_name, bank_account, bank_reference, sub_account, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		req.ID, req.UserID, req.Amount, req.Method, req.Bank.Name, req.Bank.Account,
		req.Bank.Reference, req.Sub, req.Status, req.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return idgen.ErrDuplicateIdentifier
	}
	return err
}

// Get fetches a request by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Request, error) {
	row := r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM topup_requests WHERE id = $1`, id)
	return scanRequest(row)
}

// Approve flips the status, credits the target sub-balance and appends the
// ledger entry in one transaction.
func (r *PostgresRepository) Approve(ctx context.Context, id string, a Approval) (Request, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Request{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	current, err := lockRequest(ctx, tx, id)
	if err != nil {
		return Request{}, err
	}
	updated, err := MarkApproved(current, a.At)
	if err != nil {
		return Request{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE topup_requests SET status = $2, approval_time = $3 WHERE id = $1`,
		id, updated.Status, a.At); err != nil {
		return Request{}, err
	}
	if _, err := wallet.CreditTx(ctx, tx, a.WalletID, a.Sub, a.Amount); err != nil {
		return Request{}, err
	}
	if err := ledger.InsertTx(ctx, tx, a.Entry); err != nil {
		return Request{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}
	return updated, nil
}

// Reject flips the status and records the reason; balances stay untouched.
func (r *PostgresRepository) Reject(ctx context.Context, id, reason string, at time.Time) (Request, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Request{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	current, err := lockRequest(ctx, tx, id)
	if err != nil {
		return Request{}, err
	}
	updated, err := MarkRejected(current, reason, at)
	if err != nil {
		return Request{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE topup_requests SET status = $2, rejection_time = $3, rejection_reason = $4 WHERE id = $1`,
		id, updated.Status, at, reason); err != nil {
		return Request{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}
	return updated, nil
}

// ListByUser returns a user's requests newest-first, optionally by status.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, status Status) ([]Request, error) {
	query := `SELECT ` + selectColumns + ` FROM topup_requests WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		args = append(args, status)
		query += ` AND status = $2`
	}
	query += ` ORDER BY created_at DESC`
	return r.list(ctx, query, args...)
}

// ListPending returns the review queue oldest-first.
func (r *PostgresRepository) ListPending(ctx context.Context) ([]Request, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM topup_requests WHERE status = $1 ORDER BY created_at ASC`, StatusPending)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]Request, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// Summarize aggregates a user's requests per status.
func (r *PostgresRepository) Summarize(ctx context.Context, userID string) (Summary, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*), COALESCE(SUM(amount), 0)
        FROM topup_requests WHERE user_id = $1 GROUP BY status`, userID)
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
		case StatusSuccess:
			summary.SuccessCount = count
			summary.SuccessTotal = total
		case StatusRejected:
			summary.RejectedCount = count
		}
	}
	return summary, rows.Err()
}

func lockRequest(ctx context.Context, tx pgx.Tx, id string) (Request, error) {
	row := tx.QueryRow(ctx, `SELECT `+selectColumns+` FROM topup_requests WHERE id = $1 FOR UPDATE`, id)
	return scanRequest(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (Request, error) {
	var req Request
	err := row.Scan(&req.ID, &req.UserID, &req.Amount, &req.Method,
		&req.Bank.Name, &req.Bank.Account, &req.Bank.Reference, &req.Sub,
		&req.Status, &req.ApprovalTime, &req.RejectionTime, &req.RejectionReason, &req.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, err
	}
	return req, nil
}
