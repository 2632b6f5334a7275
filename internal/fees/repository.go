package fees

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository reads fee schedules from PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByPaymentType fetches the schedule configured for a payment type.
func (r *PostgresRepository) GetByPaymentType(ctx context.Context, paymentType string) (Schedule, error) {
	var s Schedule
	err := r.db.QueryRow(ctx, `SELECT id, payment_type, fee_type, fee, min_amount, max_amount, any_upper_limit
        FROM fee_schedules WHERE payment_type = $1`, paymentType).Scan(
		&s.ID, &s.PaymentType, &s.FeeType, &s.Fee, &s.MinAmount, &s.MaxAmount, &s.AnyUpperLimit)
	if errors.Is(err, pgx.ErrNoRows) {
		return Schedule{}, ErrNotFound
	}
	if err != nil {
		return Schedule{}, err
	}
	return s, nil
}

// MemoryRepository holds schedules in memory for tests and development.
type MemoryRepository struct {
	mu        sync.RWMutex
	schedules map[string]Schedule
}

// NewMemoryRepository constructs an in-memory schedule repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{schedules: make(map[string]Schedule)}
}

// Put registers a schedule for a payment type.
func (r *MemoryRepository) Put(s Schedule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schedules[s.PaymentType] = s
}

func (r *MemoryRepository) GetByPaymentType(_ context.Context, paymentType string) (Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schedules[paymentType]
	if !ok {
		return Schedule{}, ErrNotFound
	}
	return s, nil
}
