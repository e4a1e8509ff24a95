package htmlner

import (
	"io"

	"golang.org/x/net/html"
)

// HtmlToken is one text token together with its position in an HTML tree.
// Tokens are created by a TreeTokenizer and are read-only afterwards.
type HtmlToken struct {
	// Text is the token string.
	Text string

	// Elem is the element owning the text chunk the token came from.
	// It is a lookup-only reference into the tree: the tree owns its nodes
	// and callers must never mutate the tree through it.
	Elem *html.Node

	// IsTail reports whether the token comes from text following Elem
	// (inside Elem's parent) rather than from text inside Elem.
	IsTail bool

	// Index is the token's index within Chunk.
	Index int

	// Chunk holds the texts of all tokens of the same text chunk.
	// It is shared between those tokens and must not be modified.
	Chunk []string

	// SpaceBefore reports whether whitespace or a block-level element
	// boundary separated this token from the previous one.
	SpaceBefore bool

	// Position is the token's index in document order.
	Position int
}

// Parent returns the element whose content holds the token's text.
func (t HtmlToken) Parent() *html.Node {
	if t.IsTail && t.Elem != nil {
		return t.Elem.Parent
	}
	return t.Elem
}

// String returns the token text.
func (t HtmlToken) String() string {
	return t.Text
}

// Document is one tokenized HTML document: a training or prediction example.
type Document struct {
	// Root is the tree the tokens point into. Keeping it here keeps token
	// element references valid for as long as the document is in use.
	Root *html.Node

	Tokens []HtmlToken
	Tags   []Tag
}

// Validate returns ELENGTH if tokens and tags are not aligned.
func (d *Document) Validate() error {
	if len(d.Tokens) != len(d.Tags) {
		return Errorf(ELENGTH, "document has %d tokens but %d tags", len(d.Tokens), len(d.Tags))
	}
	return nil
}

// Texts returns the token texts in document order.
func (d *Document) Texts() []string {
	texts := make([]string, len(d.Tokens))
	for i := range d.Tokens {
		texts[i] = d.Tokens[i].Text
	}
	return texts
}

// TextToken is a token produced by a TextTokenizer from a plain string.
type TextToken struct {
	Text string

	// Position is the byte offset of the token in the source text and
	// Length its byte length there. For normalized tokens (e.g. quotes
	// rewritten to ``) Text may differ from the source bytes.
	Position int
	Length   int
}

// End returns the byte offset just after the token in the source text.
func (t TextToken) End() int {
	return t.Position + t.Length
}

// TextTokenizer splits plain text into tokens.
type TextTokenizer interface {
	Tokenize(text string) []TextToken
}

// TreeTokenizer turns a loaded HTML tree into a tokenized document.
type TreeTokenizer interface {
	// Tokenize walks the tree in document order. Annotated trees produce
	// B-/I-/O tags; un-annotated trees produce all-O placeholder tags.
	// Returns EANNOTATION for malformed annotations.
	Tokenize(root *html.Node) (*Document, error)
}

// Loader parses an HTML document into a tree, converting any annotation
// markup it understands into start/end markers.
type Loader interface {
	Load(r io.Reader) (*html.Node, error)
}
