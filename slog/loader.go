package slog

import (
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/htmlner"
	"golang.org/x/net/html"
)

// Ensure LoggingLoader implements htmlner.Loader.
var _ htmlner.Loader = (*LoggingLoader)(nil)

// LoggingLoader wraps a Loader with debug logging.
type LoggingLoader struct {
	next   htmlner.Loader
	logger *slog.Logger
}

// NewLoggingLoader creates a new LoggingLoader.
func NewLoggingLoader(next htmlner.Loader, logger *slog.Logger) *LoggingLoader {
	return &LoggingLoader{next: next, logger: logger}
}

// Load logs the number of bytes read and delegates to the wrapped loader.
func (l *LoggingLoader) Load(r io.Reader) (root *html.Node, err error) {
	cr := &countingReader{r: r}
	defer func(begin time.Time) {
		l.logger.Debug("load",
			"bytes", cr.n,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return l.next.Load(cr)
}

type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}
