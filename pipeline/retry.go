package pipeline

import (
	"context"
	"time"

	"github.com/fwojciec/htmlner"
)

// DefaultRetryDelays returns the backoff delays for fetch retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// fetchWithRetry calls fetcher once, then once more after each delay while
// the error is transient. EINVALID and ENOTFOUND are returned immediately.
func (p *Pipeline) fetchWithRetry(ctx context.Context, fetcher htmlner.Fetcher, url string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= len(p.RetryDelays); attempt++ {
		body, err := fetcher.Fetch(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		switch htmlner.ErrorCode(err) {
		case htmlner.EINVALID, htmlner.ENOTFOUND:
			return "", err
		}
		if attempt == len(p.RetryDelays) {
			break
		}

		p.logger().Warn("retrying fetch", "url", url, "attempt", attempt+2, "err", err)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.RetryDelays[attempt]):
		}
	}
	return "", lastErr
}
