package ratelimiter

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryQuotaExactness(t *testing.T) {
	q := NewMemoryQuota(10)
	day := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)

	var allowed, denied int64
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := q.Reserve(context.Background(), 42, day)
			if err != nil {
				t.Errorf("reserve: %v", err)
				return
			}
			if res.Allowed {
				atomic.AddInt64(&allowed, 1)
			} else {
				atomic.AddInt64(&denied, 1)
			}
		}()
	}
	wg.Wait()

	if allowed != 10 {
		t.Errorf("allowed = %d, want exactly 10", allowed)
	}
	if denied != 15 {
		t.Errorf("denied = %d, want exactly 15", denied)
	}
}

func TestMemoryQuotaDayRollover(t *testing.T) {
	q := NewMemoryQuota(1)
	ctx := context.Background()

	day1 := time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2025, 6, 2, 0, 1, 0, 0, time.UTC)

	if res, _ := q.Reserve(ctx, 7, day1); !res.Allowed {
		t.Fatal("first reservation should be allowed")
	}
	if res, _ := q.Reserve(ctx, 7, day1); res.Allowed {
		t.Fatal("second reservation same day should be denied")
	}
	// New UTC day means a fresh key; no reset operation exists.
	if res, _ := q.Reserve(ctx, 7, day2); !res.Allowed {
		t.Fatal("reservation on the next day should be allowed")
	}
}

func TestMemoryQuotaIsolatesUsers(t *testing.T) {
	q := NewMemoryQuota(1)
	ctx := context.Background()
	day := time.Now().UTC()

	if res, _ := q.Reserve(ctx, 1, day); !res.Allowed {
		t.Fatal("user 1 should be allowed")
	}
	if res, _ := q.Reserve(ctx, 2, day); !res.Allowed {
		t.Fatal("user 2 has an independent counter")
	}
}

func TestFixedWindowAllow(t *testing.T) {
	rl := NewFixedWindowLimiter(2, time.Minute)

	if ok, _ := rl.Allow("10.0.0.1"); !ok {
		t.Fatal("first request should pass")
	}
	if ok, _ := rl.Allow("10.0.0.1"); !ok {
		t.Fatal("second request should pass")
	}
	ok, retry := rl.Allow("10.0.0.1")
	if ok {
		t.Fatal("third request should be limited")
	}
	if retry != time.Minute {
		t.Errorf("retry-after = %v, want %v", retry, time.Minute)
	}
	if ok, _ := rl.Allow("10.0.0.2"); !ok {
		t.Fatal("other client should be unaffected")
	}
}
