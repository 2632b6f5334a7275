package idgen

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	safePrefix     = "SW"
	narrowCapacity = 9999
)

// Sequence hands out strictly increasing safe-deposit identifiers.
type Sequence interface {
	Next(ctx context.Context) (string, error)
}

// FormatSafeID renders the counter value as a safe-deposit identifier.
// The first 9999 values occupy the four-digit tier (SW0001..SW9999); once
// that tier is exhausted the sequence switches permanently to eight digits,
// restarting the printed number at SW00000001.
func FormatSafeID(n int64) string {
	if n <= narrowCapacity {
		return fmt.Sprintf("%s%04d", safePrefix, n)
	}
	return fmt.Sprintf("%s%08d", safePrefix, n-narrowCapacity)
}

// PostgresSequence backs the counter with a single row updated via an atomic
// increment-and-fetch, so concurrent allocations can never observe the same
// value.
type PostgresSequence struct {
	db   *pgxpool.Pool
	name string
}

// NewPostgresSequence builds a sequence reading from the safe_sequences table.
func NewPostgresSequence(db *pgxpool.Pool, name string) *PostgresSequence {
	return &PostgresSequence{db: db, name: name}
}

// Next increments the counter outside any caller transaction.
func (s *PostgresSequence) Next(ctx context.Context) (string, error) {
	var value int64
	err := s.db.QueryRow(ctx, `UPDATE safe_sequences SET value = value + 1
        WHERE name = $1 RETURNING value`, s.name).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("advance sequence %s: %w", s.name, err)
	}
	return FormatSafeID(value), nil
}

// NextTx increments the counter inside the caller's transaction so the
// allocation commits or rolls back together with the record that uses it.
func (s *PostgresSequence) NextTx(ctx context.Context, tx pgx.Tx) (string, error) {
	var value int64
	err := tx.QueryRow(ctx, `UPDATE safe_sequences SET value = value + 1
        WHERE name = $1 RETURNING value`, s.name).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("advance sequence %s: %w", s.name, err)
	}
	return FormatSafeID(value), nil
}

// MemorySequence is a mutex-guarded counter for tests.
type MemorySequence struct {
	mu    sync.Mutex
	value int64
}

// NewMemorySequence constructs an in-memory sequence starting at zero.
func NewMemorySequence() *MemorySequence {
	return &MemorySequence{}
}

// NewMemorySequenceAt constructs an in-memory sequence with value already
// consumed up to n.
func NewMemorySequenceAt(n int64) *MemorySequence {
	return &MemorySequence{value: n}
}

func (s *MemorySequence) Next(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value++
	return FormatSafeID(s.value), nil
}
