// Package htmltree tokenizes parsed HTML trees into position-aware tokens
// and IOB2 tags.
package htmltree

import (
	"strings"
	"unicode"

	"github.com/fwojciec/htmlner"
	"github.com/fwojciec/htmlner/tokenize"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Ensure Tokenizer implements htmlner.TreeTokenizer at compile time.
var _ htmlner.TreeTokenizer = (*Tokenizer)(nil)

// blockElements start a new visual line. Their boundaries separate tokens
// even when the source has no whitespace there.
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Body: true, atom.Br: true, atom.Caption: true, atom.Dd: true,
	atom.Details: true, atom.Dialog: true, atom.Div: true, atom.Dl: true,
	atom.Dt: true, atom.Fieldset: true, atom.Figcaption: true, atom.Figure: true,
	atom.Footer: true, atom.Form: true, atom.H1: true, atom.H2: true,
	atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Head: true, atom.Header: true, atom.Hgroup: true, atom.Hr: true,
	atom.Html: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.Option: true, atom.P: true, atom.Pre: true,
	atom.Section: true, atom.Select: true, atom.Summary: true, atom.Table: true,
	atom.Tbody: true, atom.Td: true, atom.Textarea: true, atom.Tfoot: true,
	atom.Th: true, atom.Thead: true, atom.Title: true, atom.Tr: true,
	atom.Ul: true,
}

// skippedElements never contribute text.
var skippedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
}

// Tokenizer walks HTML trees in document order and tokenizes their text.
// In-text annotation markers (see htmlner.StartMarker) drive IOB2 tagging.
// A Tokenizer holds no per-document state and is safe for concurrent use.
type Tokenizer struct {
	text   htmlner.TextTokenizer
	labels map[string]bool
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithTextTokenizer sets the tokenizer used for text content.
// Defaults to tokenize.DefaultTokenizer.
func WithTextTokenizer(tt htmlner.TextTokenizer) Option {
	return func(t *Tokenizer) {
		t.text = tt
	}
}

// WithLabels restricts annotation labels to the given set. Markers with
// other labels are reported as malformed annotations.
func WithLabels(labels ...string) Option {
	return func(t *Tokenizer) {
		t.labels = make(map[string]bool, len(labels))
		for _, l := range labels {
			t.labels[strings.ToUpper(l)] = true
		}
	}
}

// NewTokenizer creates a new Tokenizer.
func NewTokenizer(opts ...Option) *Tokenizer {
	t := &Tokenizer{
		text: tokenize.NewDefaultTokenizer(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tokenize returns the tokens and tags of the tree rooted at root.
// Returns EANNOTATION if annotations overlap, mismatch or are left open;
// no partial document is returned in that case.
func (t *Tokenizer) Tokenize(root *html.Node) (*htmlner.Document, error) {
	w := &walker{
		Tokenizer: t,
		doc:       &htmlner.Document{Root: root},
	}
	if err := w.walk(root); err != nil {
		return nil, err
	}
	if err := w.enc.Close(); err != nil {
		return nil, err
	}
	return w.doc, nil
}

// walker holds the state of a single Tokenize call.
type walker struct {
	*Tokenizer

	doc *htmlner.Document
	enc htmlner.IobEncoder

	// space records whitespace or an element boundary since the last token.
	space bool

	// chunkStart is the document index of the current chunk's first token.
	chunkStart int
}

func (w *walker) walk(n *html.Node) error {
	switch n.Type {
	case html.TextNode:
		return w.textNode(n)
	case html.ElementNode:
		if skippedElements[n.DataAtom] {
			return nil
		}
		block := blockElements[n.DataAtom]
		if block {
			w.space = true
		}
		if err := w.children(n); err != nil {
			return err
		}
		if block {
			w.space = true
		}
		return nil
	case html.DocumentNode:
		return w.children(n)
	default:
		return nil
	}
}

// children walks the children of n. An element directly following another
// element counts as a whitespace boundary; text running into or out of an
// element does not.
func (w *walker) children(n *html.Node) error {
	var prev *html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.CommentNode || (c.Type == html.ElementNode && skippedElements[c.DataAtom]) {
			continue
		}
		if c.Type == html.ElementNode && prev != nil && prev.Type == html.ElementNode {
			w.space = true
		}
		if err := w.walk(c); err != nil {
			return err
		}
		prev = c
	}
	return nil
}

// textNode tokenizes one text chunk. Text following an element is owned by
// that element as tail text; other text is owned by its parent.
func (w *walker) textNode(n *html.Node) error {
	elem, tail := owner(n)
	w.chunkStart = len(w.doc.Tokens)

	text := n.Data
	pos := 0
	for _, m := range htmlner.FindMarkers(text) {
		w.segment(text[pos:m.Position], elem, tail)
		if err := w.marker(m); err != nil {
			return err
		}
		pos = m.Position + m.Length
	}
	w.segment(text[pos:], elem, tail)

	tokens := w.doc.Tokens[w.chunkStart:]
	chunk := make([]string, len(tokens))
	for i := range tokens {
		chunk[i] = tokens[i].Text
	}
	for i := range tokens {
		tokens[i].Chunk = chunk
	}
	return nil
}

// segment tokenizes marker-free text.
func (w *walker) segment(text string, elem *html.Node, tail bool) {
	prevEnd := 0
	for _, tt := range w.text.Tokenize(text) {
		if tt.Position > prevEnd && hasSpace(text[prevEnd:tt.Position]) {
			w.space = true
		}
		w.emit(tt.Text, elem, tail)
		prevEnd = tt.End()
	}
	if prevEnd < len(text) && hasSpace(text[prevEnd:]) {
		w.space = true
	}
}

func (w *walker) emit(text string, elem *html.Node, tail bool) {
	position := len(w.doc.Tokens)
	w.doc.Tokens = append(w.doc.Tokens, htmlner.HtmlToken{
		Text:        text,
		Elem:        elem,
		IsTail:      tail,
		Index:       position - w.chunkStart,
		SpaceBefore: w.space && position > 0,
		Position:    position,
	})
	w.doc.Tags = append(w.doc.Tags, w.enc.Next())
	w.space = false
}

func (w *walker) marker(m htmlner.Marker) error {
	if len(w.labels) > 0 && !w.labels[m.Label] {
		return htmlner.Errorf(htmlner.EANNOTATION, "unknown annotation label %s before token %d", m.Label, len(w.doc.Tokens))
	}

	var err error
	if m.Kind == htmlner.MarkerStart {
		err = w.enc.Begin(m.Label)
	} else {
		err = w.enc.End(m.Label)
	}
	if err != nil {
		return htmlner.Errorf(htmlner.EANNOTATION, "%s before token %d", htmlner.ErrorMessage(err), len(w.doc.Tokens))
	}
	return nil
}

func owner(n *html.Node) (*html.Node, bool) {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return s, true
		}
	}
	return n.Parent, false
}

func hasSpace(s string) bool {
	return strings.IndexFunc(s, unicode.IsSpace) >= 0
}
