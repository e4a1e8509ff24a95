// Package readability strips page boilerplate with go-readability.
package readability

import (
	"html"
	"strings"

	"github.com/fwojciec/htmlner"
	"github.com/go-shiori/go-readability"
)

// Ensure Cleaner implements htmlner.Cleaner at compile time.
var _ htmlner.Cleaner = (*Cleaner)(nil)

// Cleaner keeps the main article of a page, preceded by its title.
type Cleaner struct{}

// NewCleaner creates a new Cleaner.
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Clean returns a minimal HTML document holding the page title and its
// main content.
func (c *Cleaner) Clean(rawHTML string) (string, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", htmlner.Errorf(htmlner.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return "", htmlner.Errorf(htmlner.EINVALID, "readability: %v", err)
	}

	return document(article.Title, article.Content), nil
}

func document(title, content string) string {
	var sb strings.Builder
	sb.WriteString("<html><head><title>")
	sb.WriteString(html.EscapeString(title))
	sb.WriteString("</title></head><body>")
	sb.WriteString(content)
	sb.WriteString("</body></html>")
	return sb.String()
}
