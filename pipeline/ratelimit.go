package pipeline

import (
	"context"
	"sync"

	"github.com/fwojciec/htmlner"
	"golang.org/x/time/rate"
)

var _ htmlner.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter rate limits requests per domain with one token bucket each,
// so different domains are fetched concurrently.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

// NewDomainLimiter creates a DomainLimiter allowing rps requests per second
// to each domain, without bursting.
func NewDomainLimiter(rps float64) *DomainLimiter {
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    1,
	}
}

// Wait blocks until a request to domain is allowed or ctx is done.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	d.mu.Lock()
	l, ok := d.limiters[domain]
	if !ok {
		l = rate.NewLimiter(rate.Limit(d.rps), d.burst)
		d.limiters[domain] = l
	}
	d.mu.Unlock()

	return l.Wait(ctx)
}
