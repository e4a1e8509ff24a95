// Package trafilatura strips page boilerplate with go-trafilatura.
package trafilatura

import (
	"bytes"
	stdhtml "html"
	"strings"

	"github.com/fwojciec/htmlner"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Cleaner implements htmlner.Cleaner at compile time.
var _ htmlner.Cleaner = (*Cleaner)(nil)

// Cleaner keeps the main content of a page, preceded by its title.
type Cleaner struct {
	opts trafilatura.Options
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithFallback enables or disables the readability and dom-distiller
// fallbacks trafilatura uses when its own extraction finds little text.
// Enabled by default.
func WithFallback(enabled bool) Option {
	return func(c *Cleaner) {
		c.opts.EnableFallback = enabled
	}
}

// NewCleaner creates a new Cleaner.
func NewCleaner(opts ...Option) *Cleaner {
	c := &Cleaner{
		opts: trafilatura.Options{
			EnableFallback: true,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clean returns a minimal HTML document holding the page title and its
// main content.
func (c *Cleaner) Clean(rawHTML string) (string, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", htmlner.Errorf(htmlner.EINVALID, "empty HTML input")
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), c.opts)
	if err != nil {
		return "", htmlner.Errorf(htmlner.EINVALID, "trafilatura: %v", err)
	}

	var buf bytes.Buffer
	buf.WriteString("<html><head><title>")
	buf.WriteString(stdhtml.EscapeString(result.Metadata.Title))
	buf.WriteString("</title></head><body>")
	if result.ContentNode != nil {
		if err := html.Render(&buf, result.ContentNode); err != nil {
			return "", err
		}
	}
	buf.WriteString("</body></html>")
	return buf.String(), nil
}
