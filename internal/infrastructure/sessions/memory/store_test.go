package memory

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestRetryStoreCounts(t *testing.T) {
	s := NewRetryStore(time.Minute, 10)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := s.Increment(ctx, "caller")
		if err != nil || got != want {
			t.Fatalf("Increment() = %d, %v; want %d", got, err, want)
		}
	}
	if n, _ := s.Get(ctx, "caller"); n != 3 {
		t.Fatalf("Get() = %d, want 3", n)
	}
	if err := s.Reset(ctx, "caller"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if n, _ := s.Get(ctx, "caller"); n != 0 {
		t.Fatalf("expected reset counter, got %d", n)
	}
}

func TestRetryStoreExpiresIdleCallers(t *testing.T) {
	s := NewRetryStore(20*time.Millisecond, 10)
	ctx := context.Background()
	_, _ = s.Increment(ctx, "caller")
	time.Sleep(40 * time.Millisecond)
	if n, _ := s.Get(ctx, "caller"); n != 0 {
		t.Fatalf("expected idle counter to expire, got %d", n)
	}
}

func TestRetryStoreEvictsLeastRecentlyTouched(t *testing.T) {
	s := NewRetryStore(time.Minute, 2)
	ctx := context.Background()

	_, _ = s.Increment(ctx, "a")
	time.Sleep(2 * time.Millisecond)
	_, _ = s.Increment(ctx, "b")
	time.Sleep(2 * time.Millisecond)
	_, _ = s.Increment(ctx, "a")
	time.Sleep(2 * time.Millisecond)
	_, _ = s.Increment(ctx, "c")

	if s.Len() != 2 {
		t.Fatalf("expected bounded store, got %d entries", s.Len())
	}
	if n, _ := s.Get(ctx, "b"); n != 0 {
		t.Fatalf("expected b evicted, got %d", n)
	}
	if n, _ := s.Get(ctx, "a"); n != 2 {
		t.Fatalf("expected a kept with count 2, got %d", n)
	}
}

func TestRetryStoreSerializesIncrements(t *testing.T) {
	s := NewRetryStore(time.Minute, 10)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Increment(ctx, "caller")
		}()
	}
	wg.Wait()
	if n, _ := s.Get(ctx, "caller"); n != 50 {
		t.Fatalf("expected 50 increments, got %d", n)
	}
}
