package mock

import (
	"context"

	"github.com/fwojciec/htmlner"
)

var (
	_ htmlner.Fetcher       = (*Fetcher)(nil)
	_ htmlner.DomainLimiter = (*DomainLimiter)(nil)
	_ htmlner.Cleaner       = (*Cleaner)(nil)
)

// Fetcher is a mock implementation of htmlner.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

// DomainLimiter is a mock implementation of htmlner.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return d.WaitFn(ctx, domain)
}

// Cleaner is a mock implementation of htmlner.Cleaner.
type Cleaner struct {
	CleanFn func(html string) (string, error)
}

func (c *Cleaner) Clean(html string) (string, error) {
	return c.CleanFn(html)
}
