package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paisaone/paisa_core/internal/idgen"
)

const uniqueViolationCode = "23505"

// Repository persists wallet accounts.
type Repository interface {
	Create(ctx context.Context, w Wallet) error
	Get(ctx context.Context, id string) (Wallet, error)
	GetByUser(ctx context.Context, userID string) (Wallet, error)
	Credit(ctx context.Context, id string, sub Sub, amount int64) (Wallet, error)
	Debit(ctx context.Context, id string, sub Sub, amount int64) (Wallet, error)
	SetStatus(ctx context.Context, id string, status Status) (Wallet, error)
	SetPinHash(ctx context.Context, id, hash string) error
}

// PostgresRepository stores wallets in PostgreSQL. Balance mutations lock
// the wallet row so concurrent debits against the same wallet serialize.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a wallet record. A duplicate user maps to ErrWalletExists,
// a duplicate identifier to idgen.ErrDuplicateIdentifier so callers can
// retry allocation.
func (r *PostgresRepository) Create(ctx context.Context, w Wallet) error {
	_, err := r.db.Exec(ctx, `INSERT INTO wallets (id, user_id, primary_balance, safe_balance, status, pin_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		w.ID, w.UserID, w.PrimaryBalance, w.SafeBalance, w.Status, w.PinHash, w.CreatedAt.UTC(), w.UpdatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		if pgErr.ConstraintName == "wallets_user_id_key" {
			return ErrWalletExists
		}
		return idgen.ErrDuplicateIdentifier
	}
	return err
}

// Get fetches a wallet by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Wallet, error) {
	return r.scanOne(ctx, `SELECT id, user_id, primary_balance, safe_balance, status, pin_hash, created_at, updated_at
        FROM wallets WHERE id = $1`, id)
}

// GetByUser fetches the wallet owned by a user.
func (r *PostgresRepository) GetByUser(ctx context.Context, userID string) (Wallet, error) {
	return r.scanOne(ctx, `SELECT id, user_id, primary_balance, safe_balance, status, pin_hash, created_at, updated_at
        FROM wallets WHERE user_id = $1`, userID)
}

func (r *PostgresRepository) scanOne(ctx context.Context, query, arg string) (Wallet, error) {
	var w Wallet
	err := r.db.QueryRow(ctx, query, arg).Scan(&w.ID, &w.UserID, &w.PrimaryBalance, &w.SafeBalance,
		&w.Status, &w.PinHash, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Wallet{}, ErrNotFound
	}
	if err != nil {
		return Wallet{}, err
	}
	return w, nil
}

// Credit increases a sub-balance inside its own transaction.
func (r *PostgresRepository) Credit(ctx context.Context, id string, sub Sub, amount int64) (Wallet, error) {
	return r.mutate(ctx, id, func(w Wallet) (Wallet, error) {
		return ApplyCredit(w, sub, amount)
	})
}

// Debit decreases a sub-balance inside its own transaction.
func (r *PostgresRepository) Debit(ctx context.Context, id string, sub Sub, amount int64) (Wallet, error) {
	return r.mutate(ctx, id, func(w Wallet) (Wallet, error) {
		return ApplyDebit(w, sub, amount)
	})
}

func (r *PostgresRepository) mutate(ctx context.Context, id string, apply func(Wallet) (Wallet, error)) (Wallet, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Wallet{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	w, err := LockTx(ctx, tx, id)
	if err != nil {
		return Wallet{}, err
	}
	updated, err := apply(w)
	if err != nil {
		return Wallet{}, err
	}
	if err := saveBalancesTx(ctx, tx, updated); err != nil {
		return Wallet{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Wallet{}, err
	}
	updated.UpdatedAt = time.Now().UTC()
	return updated, nil
}

// SetStatus updates the administrative status only.
func (r *PostgresRepository) SetStatus(ctx context.Context, id string, status Status) (Wallet, error) {
	tag, err := r.db.Exec(ctx, `UPDATE wallets SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return Wallet{}, err
	}
	if tag.RowsAffected() == 0 {
		return Wallet{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

// SetPinHash stores the bcrypt hash of the wallet PIN.
func (r *PostgresRepository) SetPinHash(ctx context.Context, id, hash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE wallets SET pin_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LockTx loads a wallet row under FOR UPDATE inside the caller's transaction.
func LockTx(ctx context.Context, tx pgx.Tx, id string) (Wallet, error) {
	var w Wallet
	err := tx.QueryRow(ctx, `SELECT id, user_id, primary_balance, safe_balance, status, pin_hash, created_at, updated_at
        FROM wallets WHERE id = $1 FOR UPDATE`, id).Scan(&w.ID, &w.UserID, &w.PrimaryBalance, &w.SafeBalance,
		&w.Status, &w.PinHash, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Wallet{}, ErrNotFound
	}
	if err != nil {
		return Wallet{}, err
	}
	return w, nil
}

// CreditTx applies a credit inside the caller's transaction. Workflow
// repositories compose it with their own writes so a status transition and
// the balance move commit as one unit.
func CreditTx(ctx context.Context, tx pgx.Tx, id string, sub Sub, amount int64) (Wallet, error) {
	w, err := LockTx(ctx, tx, id)
	if err != nil {
		return Wallet{}, err
	}
	updated, err := ApplyCredit(w, sub, amount)
	if err != nil {
		return Wallet{}, err
	}
	if err := saveBalancesTx(ctx, tx, updated); err != nil {
		return Wallet{}, err
	}
	return updated, nil
}

// DebitTx applies a debit inside the caller's transaction.
func DebitTx(ctx context.Context, tx pgx.Tx, id string, sub Sub, amount int64) (Wallet, error) {
	w, err := LockTx(ctx, tx, id)
	if err != nil {
		return Wallet{}, err
	}
	updated, err := ApplyDebit(w, sub, amount)
	if err != nil {
		return Wallet{}, err
	}
	if err := saveBalancesTx(ctx, tx, updated); err != nil {
		return Wallet{}, err
	}
	return updated, nil
}

func saveBalancesTx(ctx context.Context, tx pgx.Tx, w Wallet) error {
	tag, err := tx.Exec(ctx, `UPDATE wallets SET primary_balance = $2, safe_balance = $3, updated_at = now() WHERE id = $1`,
		w.ID, w.PrimaryBalance, w.SafeBalance)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet %s vanished during update", w.ID)
	}
	return nil
}
