package worker

import (
	"context"
	"sync"
)

// Job runs one user's unit of work.
type Job func(ctx context.Context, userID string) error

// Pool runs jobs for many users with bounded concurrency. Jobs for a single
// user are never run concurrently by one call to Run.
type Pool struct {
	sem chan struct{}
}

func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{sem: make(chan struct{}, size)}
}

// Run executes job once per distinct user and waits for all of them. The
// returned map holds the error of every job that failed. Users not yet
// started when ctx is cancelled report ctx.Err().
func (p *Pool) Run(ctx context.Context, userIDs []string, job Job) map[string]error {
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		errs = map[string]error{}
		seen = map[string]bool{}
	)
	fail := func(u string, err error) {
		mu.Lock()
		errs[u] = err
		mu.Unlock()
	}

	for _, u := range userIDs {
		if seen[u] {
			continue
		}
		seen[u] = true

		select {
		case <-ctx.Done():
			fail(u, ctx.Err())
			continue
		case p.sem <- struct{}{}:
		}

		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			defer func() { <-p.sem }()
			if err := job(ctx, u); err != nil {
				fail(u, err)
			}
		}(u)
	}
	wg.Wait()
	return errs
}
