package goquery

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/htmlner"
	"golang.org/x/net/html"
)

// Ensure loaders implement htmlner.Loader at compile time.
var (
	_ htmlner.Loader = (*HTMLLoader)(nil)
	_ htmlner.Loader = (*WebAnnotatorLoader)(nil)
	_ htmlner.Loader = (*GateLoader)(nil)
)

// removedSelector matches elements that never carry page text.
const removedSelector = "script, style, noscript, iframe, object, embed, link"

// HTMLLoader loads unannotated HTML and strips non-content elements.
type HTMLLoader struct{}

// NewHTMLLoader creates a new HTMLLoader.
func NewHTMLLoader() *HTMLLoader {
	return &HTMLLoader{}
}

// Load parses r and returns the cleaned document root.
func (l *HTMLLoader) Load(r io.Reader) (*html.Node, error) {
	doc, err := parse(r)
	if err != nil {
		return nil, err
	}
	return clean(doc), nil
}

// WebAnnotatorLoader loads HTML saved by WebAnnotator. Entities are
// span[wa-id] elements; spans sharing a wa-id belong to one entity whose
// label is the first span's wa-type.
type WebAnnotatorLoader struct{}

// NewWebAnnotatorLoader creates a new WebAnnotatorLoader.
func NewWebAnnotatorLoader() *WebAnnotatorLoader {
	return &WebAnnotatorLoader{}
}

// Load parses r, converts WebAnnotator spans into annotation markers and
// returns the cleaned document root.
func (l *WebAnnotatorLoader) Load(r io.Reader) (*html.Node, error) {
	doc, err := parse(r)
	if err != nil {
		return nil, err
	}

	var order []string
	entities := make(map[string][]*html.Node)
	labels := make(map[string]string)
	doc.Find("span[wa-id]").Each(func(_ int, sel *goquery.Selection) {
		id, _ := sel.Attr("wa-id")
		if _, ok := entities[id]; !ok {
			order = append(order, id)
			labels[id] = strings.TrimSpace(sel.AttrOr("wa-type", ""))
		}
		entities[id] = append(entities[id], sel.Get(0))
	})

	for _, id := range order {
		spans := entities[id]
		label := labels[id]
		if label == "" {
			return nil, htmlner.Errorf(htmlner.EANNOTATION, "annotation %s has no wa-type", id)
		}
		if err := htmlner.ValidateLabel(label); err != nil {
			return nil, htmlner.Errorf(htmlner.EANNOTATION, "annotation %s: %s", id, htmlner.ErrorMessage(err))
		}
		first, last := spans[0], spans[len(spans)-1]
		first.InsertBefore(textNode(htmlner.StartMarker(label)), first.FirstChild)
		last.AppendChild(textNode(htmlner.EndMarker(label)))
		for _, span := range spans {
			unwrap(span)
		}
	}

	doc.Find("wa-color").Remove()
	root := clean(doc)
	mergeText(root)
	return root, nil
}

// GateLoader loads HTML annotated by GATE, where entities are custom
// <LABEL>...</LABEL> tags. Tags are replaced before parsing because GATE
// output is rarely valid HTML.
type GateLoader struct {
	open  *regexp.Regexp
	close *regexp.Regexp
}

// NewGateLoader creates a GateLoader recognizing the given labels.
// Returns EINVALID when no labels are given or a label cannot be written
// as a marker.
func NewGateLoader(labels ...string) (*GateLoader, error) {
	quoted := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if err := htmlner.ValidateLabel(l); err != nil {
			return nil, err
		}
		quoted = append(quoted, regexp.QuoteMeta(l))
	}
	if len(quoted) == 0 {
		return nil, htmlner.Errorf(htmlner.EINVALID, "GATE loader requires at least one label")
	}
	pattern := strings.Join(quoted, "|")
	return &GateLoader{
		open:  regexp.MustCompile(`(?i)<(` + pattern + `)>`),
		close: regexp.MustCompile(`(?i)</(` + pattern + `)>`),
	}, nil
}

// Load replaces GATE tags in r with annotation markers, then parses and
// cleans the result.
func (l *GateLoader) Load(r io.Reader) (*html.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, htmlner.Errorf(htmlner.EINVALID, "failed to read HTML: %v", err)
	}

	data = l.open.ReplaceAllFunc(data, func(m []byte) []byte {
		return []byte(htmlner.StartMarker(string(l.open.FindSubmatch(m)[1])))
	})
	data = l.close.ReplaceAllFunc(data, func(m []byte) []byte {
		return []byte(htmlner.EndMarker(string(l.close.FindSubmatch(m)[1])))
	})

	doc, err := parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return clean(doc), nil
}

func parse(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, htmlner.Errorf(htmlner.EINVALID, "failed to parse HTML: %v", err)
	}
	return doc, nil
}

// clean removes non-content elements and comments, returning the root node.
func clean(doc *goquery.Document) *html.Node {
	doc.Find(removedSelector).Remove()
	root := doc.Get(0)
	removeComments(root)
	return root
}

func removeComments(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			removeComments(c)
		}
		c = next
	}
}

// unwrap replaces n with its children.
func unwrap(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
	}
	parent.RemoveChild(n)
}

// mergeText joins adjacent text nodes so unwrapped text shares one chunk
// with its neighbours.
func mergeText(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode {
			mergeText(c)
			continue
		}
		for next := c.NextSibling; next != nil && next.Type == html.TextNode; next = c.NextSibling {
			c.Data += next.Data
			n.RemoveChild(next)
		}
	}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
