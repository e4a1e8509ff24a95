package pipeline

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fwojciec/htmlner"
	"golang.org/x/sync/errgroup"
)

// FetchSources downloads urls concurrently, waiting on limiter before each
// request to a host. Sources keep the order of urls. A nil limiter disables
// rate limiting. Transient fetch errors are retried after each of
// RetryDelays.
func (p *Pipeline) FetchSources(ctx context.Context, fetcher htmlner.Fetcher, limiter htmlner.DomainLimiter, urls []string) ([]Source, error) {
	sources := make([]Source, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency())
	for i, raw := range urls {
		g.Go(func() error {
			u, err := url.Parse(raw)
			if err != nil || u.Host == "" {
				return htmlner.Errorf(htmlner.EINVALID, "invalid URL %q", raw)
			}
			if limiter != nil {
				if err := limiter.Wait(gctx, u.Host); err != nil {
					return err
				}
			}
			body, err := p.fetchWithRetry(gctx, fetcher, raw)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", raw, err)
			}
			sources[i] = Source{Name: raw, Data: []byte(body)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sources, nil
}
