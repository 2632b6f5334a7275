package idgen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestNewFormat(t *testing.T) {
	at := time.Date(2024, 1, 31, 15, 4, 5, 0, time.UTC)
	id := New(KindPayment, at)

	if len(id) != 17 {
		t.Fatalf("expected 17 characters, got %d (%s)", len(id), id)
	}
	if id[:3] != "PAY" {
		t.Fatalf("expected PAY prefix, got %s", id[:3])
	}
	if id[3:9] != "240131" {
		t.Fatalf("expected date salt 240131, got %s", id[3:9])
	}
	for _, ch := range id[9:] {
		if (ch < '0' || ch > '9') && (ch < 'A' || ch > 'F') {
			t.Fatalf("token contains non-uppercase-hex character %q in %s", ch, id)
		}
	}
}

func TestNewDistinct(t *testing.T) {
	now := time.Now().UTC()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := New(KindWallet, now)
		if seen[id] {
			t.Fatalf("duplicate identifier %s after %d allocations", id, i)
		}
		seen[id] = true
	}
}

func TestWithRetryRecoversFromCollisions(t *testing.T) {
	attempts := 0
	err := WithRetry(func() error {
		attempts++
		if attempts < 3 {
			return ErrDuplicateIdentifier
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithRetryExhausts(t *testing.T) {
	attempts := 0
	err := WithRetry(func() error {
		attempts++
		return ErrDuplicateIdentifier
	})
	if !errors.Is(err, ErrDuplicateIdentifier) {
		t.Fatalf("expected wrapped duplicate error, got %v", err)
	}
	if attempts != maxAllocAttempts {
		t.Fatalf("expected %d attempts, got %d", maxAllocAttempts, attempts)
	}
}

func TestWithRetryStopsOnOtherErrors(t *testing.T) {
	boom := errors.New("storage down")
	attempts := 0
	err := WithRetry(func() error {
		attempts++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("non-collision errors must not be retried, got %d attempts", attempts)
	}
}

func TestFormatSafeIDTiers(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{1, "SW0001"},
		{42, "SW0042"},
		{9999, "SW9999"},
		{10000, "SW00000001"},
		{10001, "SW00000002"},
	}
	for _, tc := range cases {
		if got := FormatSafeID(tc.n); got != tc.want {
			t.Fatalf("FormatSafeID(%d) = %s, want %s", tc.n, got, tc.want)
		}
	}
}

func TestMemorySequenceTierSwitch(t *testing.T) {
	seq := NewMemorySequenceAt(9998)
	ctx := context.Background()

	id, err := seq.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if id != "SW9999" {
		t.Fatalf("expected SW9999, got %s", id)
	}
	id, err = seq.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if id != "SW00000001" {
		t.Fatalf("expected SW00000001 after the narrow tier, got %s", id)
	}
}

func TestMemorySequenceConcurrentUnique(t *testing.T) {
	seq := NewMemorySequence()
	ctx := context.Background()

	const workers = 8
	const perWorker = 50
	ids := make(chan string, workers*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				id, err := seq.Next(ctx)
				if err != nil {
					ids <- fmt.Sprintf("error: %v", err)
					return
				}
				ids <- id
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("sequence handed out %s twice", id)
		}
		seen[id] = true
	}
	if len(seen) != workers*perWorker {
		t.Fatalf("expected %d identifiers, got %d", workers*perWorker, len(seen))
	}
}
