package dependency

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/khanhnv2901/assess/internal/domain/source"
)

// LookupFunc queries one dependency.
type LookupFunc func(ctx context.Context, dep source.Dependency)

// Runner fans lookups out over a bounded worker pool with a global rate
// limit.
type Runner struct {
	Concurrency int // Maximum number of concurrent lookups
	RateLimit   int // Lookups per second (global)
}

// Run calls lookup once per dependency. After ctx is cancelled no new lookup
// starts; lookups already running finish. The returned count is the number
// of lookups that were started.
func (r *Runner) Run(ctx context.Context, deps []source.Dependency, lookup LookupFunc) int {
	concurrency := r.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	limit := rate.Inf
	burst := 1
	if r.RateLimit > 0 {
		limit = rate.Limit(r.RateLimit)
		burst = r.RateLimit
	}
	limiter := rate.NewLimiter(limit, burst)

	sem := make(chan struct{}, concurrency)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		started int
	)

loop:
	for _, dep := range deps {
		if ctx.Err() != nil {
			break
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break loop
		}

		wg.Add(1)
		go func(d source.Dependency) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := limiter.Wait(ctx); err != nil {
				return
			}
			mu.Lock()
			started++
			mu.Unlock()

			lookup(ctx, d)
		}(dep)
	}

	wg.Wait()
	return started
}
