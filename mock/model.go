package mock

import (
	"context"
	"io"

	"github.com/fwojciec/htmlner"
	"golang.org/x/net/html"
)

var (
	_ htmlner.Model         = (*Model)(nil)
	_ htmlner.Loader        = (*Loader)(nil)
	_ htmlner.TreeTokenizer = (*TreeTokenizer)(nil)
	_ htmlner.TextTokenizer = (*TextTokenizer)(nil)
)

// Model is a mock implementation of htmlner.Model.
type Model struct {
	FitFn     func(ctx context.Context, features [][]htmlner.FeatureMap, tags [][]htmlner.Tag) error
	PredictFn func(ctx context.Context, features [][]htmlner.FeatureMap) ([][]htmlner.Tag, error)
}

func (m *Model) Fit(ctx context.Context, features [][]htmlner.FeatureMap, tags [][]htmlner.Tag) error {
	return m.FitFn(ctx, features, tags)
}

func (m *Model) Predict(ctx context.Context, features [][]htmlner.FeatureMap) ([][]htmlner.Tag, error) {
	return m.PredictFn(ctx, features)
}

// Loader is a mock implementation of htmlner.Loader.
type Loader struct {
	LoadFn func(r io.Reader) (*html.Node, error)
}

func (l *Loader) Load(r io.Reader) (*html.Node, error) {
	return l.LoadFn(r)
}

// TreeTokenizer is a mock implementation of htmlner.TreeTokenizer.
type TreeTokenizer struct {
	TokenizeFn func(root *html.Node) (*htmlner.Document, error)
}

func (t *TreeTokenizer) Tokenize(root *html.Node) (*htmlner.Document, error) {
	return t.TokenizeFn(root)
}

// TextTokenizer is a mock implementation of htmlner.TextTokenizer.
type TextTokenizer struct {
	TokenizeFn func(text string) []htmlner.TextToken
}

func (t *TextTokenizer) Tokenize(text string) []htmlner.TextToken {
	return t.TokenizeFn(text)
}
