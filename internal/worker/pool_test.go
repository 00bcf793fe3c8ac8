package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunBoundsConcurrency(t *testing.T) {
	p := NewPool(2)
	var running, peak int32
	var mu sync.Mutex
	var done []string

	errs := p.Run(context.Background(), []string{"a", "b", "c", "d", "e"}, func(ctx context.Context, u string) error {
		n := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		mu.Lock()
		done = append(done, u)
		mu.Unlock()
		return nil
	})

	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
	if len(done) != 5 {
		t.Errorf("ran %d jobs, want 5", len(done))
	}
	if peak > 2 {
		t.Errorf("peak concurrency %d exceeds pool size", peak)
	}
}

func TestRunCollectsErrorsAndDedupes(t *testing.T) {
	p := NewPool(4)
	var calls int32
	boom := errors.New("boom")

	errs := p.Run(context.Background(), []string{"a", "b", "a"}, func(ctx context.Context, u string) error {
		atomic.AddInt32(&calls, 1)
		if u == "b" {
			return boom
		}
		return nil
	})

	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if !errors.Is(errs["b"], boom) || len(errs) != 1 {
		t.Errorf("errs = %v", errs)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewPool(1)
	p.sem <- struct{}{} // occupy the only slot so nothing can start

	errs := p.Run(ctx, []string{"a", "b"}, func(ctx context.Context, u string) error {
		t.Errorf("job for %s should not run", u)
		return nil
	})
	if !errors.Is(errs["a"], context.Canceled) || !errors.Is(errs["b"], context.Canceled) {
		t.Errorf("errs = %v", errs)
	}
}
