package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paisaone/paisa_core/internal/idgen"
)

const uniqueViolationCode = "23505"

// Repository persists ledger entries.
type Repository interface {
	Insert(ctx context.Context, t Transaction) error
	Get(ctx context.Context, id string) (Transaction, error)
	Transition(ctx context.Context, id string, to Status) (Transaction, error)
	ListByUser(ctx context.Context, userID string, f Filter) ([]Transaction, error)
	Summarize(ctx context.Context, userID string) (Summary, error)
}

// PostgresRepository stores ledger entries in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, user_id, type, amount, category, status, sub_account, party, account, notes, created_at, updated_at`

// Insert appends an entry. Identifier collisions surface as
// idgen.ErrDuplicateIdentifier for the allocator retry loop.
func (r *PostgresRepository) Insert(ctx context.Context, t Transaction) error {
	_, err := r.db.Exec(ctx, `INSERT INTO transactions (id, user_id, type, amount, category, status, sub_account, party, account, notes, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.UserID, t.Type, t.Amount, t.Category, t.Status, t.Sub,
		t.Detail.Party, t.Detail.Account, t.Detail.Notes, t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return idgen.ErrDuplicateIdentifier
	}
	return err
}

// InsertTx appends an entry inside the caller's transaction so workflow
// settlements commit atomically with their balance moves.
func InsertTx(ctx context.Context, tx pgx.Tx, t Transaction) error {
	_, err := tx.Exec(ctx, `INSERT INTO transactions (id, user_id, type, amount, category, status, sub_account, party, account, notes, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.UserID, t.Type, t.Amount, t.Category, t.Status, t.Sub,
		t.Detail.Party, t.Detail.Account, t.Detail.Notes, t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return idgen.ErrDuplicateIdentifier
	}
	return err
}

// Get fetches an entry by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Transaction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

// Transition advances an entry's status under a row lock, rejecting moves
// out of a terminal state.
func (r *PostgresRepository) Transition(ctx context.Context, id string, to Status) (Transaction, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	row := tx.QueryRow(ctx, `SELECT `+selectColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id)
	current, err := scanTransaction(row)
	if err != nil {
		return Transaction{}, err
	}
	if !CanTransition(current.Status, to) {
		return Transaction{}, ErrIllegalTransition
	}
	if _, err := tx.Exec(ctx, `UPDATE transactions SET status = $2, updated_at = now() WHERE id = $1`, id, to); err != nil {
		return Transaction{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, err
	}
	current.Status = to
	return current, nil
}

// ListByUser returns a user's entries newest-first with optional filters.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, f Filter) ([]Transaction, error) {
	query := `SELECT ` + selectColumns + ` FROM transactions WHERE user_id = $1`
	args := []any{userID}
	if f.Category != "" {
		args = append(args, f.Category)
		query += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From.UTC())
		query += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To.UTC())
		query += fmt.Sprintf(` AND created_at <= $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Summarize aggregates COMPLETED entries only.
func (r *PostgresRepository) Summarize(ctx context.Context, userID string) (Summary, error) {
	rows, err := r.db.Query(ctx, `SELECT type, COALESCE(SUM(amount), 0), COUNT(*)
        FROM transactions WHERE user_id = $1 AND status = $2 GROUP BY type`, userID, StatusCompleted)
	if err != nil {
		return Summary{}, err
	}
	defer rows.Close()

	summary := Summary{UserID: userID}
	for rows.Next() {
		var entryType EntryType
		var total, count int64
		if err := rows.Scan(&entryType, &total, &count); err != nil {
			return Summary{}, err
		}
		switch entryType {
		case TypeCredit:
			summary.TotalCredited = total
			summary.CreditCount = count
		case TypeDebit:
			summary.TotalDebited = total
			summary.DebitCount = count
		}
	}
	return summary, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Category, &t.Status, &t.Sub,
		&t.Detail.Party, &t.Detail.Account, &t.Detail.Notes, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	if err != nil {
		return Transaction{}, err
	}
	return t, nil
}
