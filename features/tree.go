package features

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/fwojciec/htmlner"
	"golang.org/x/net/html"
)

// Position emits where the token sits in its text chunk ("first_in_chunk",
// "last_in_chunk") and whether it follows whitespace ("space_before").
func Position() htmlner.Feature {
	return htmlner.NewTokenFeature("position", func(tok *htmlner.HtmlToken) (htmlner.FeatureMap, error) {
		return htmlner.FeatureMap{
			"first_in_chunk": tok.Index == 0,
			"last_in_chunk":  tok.Index == len(tok.Chunk)-1,
			"space_before":   tok.SpaceBefore,
		}, nil
	})
}

// ParentTag emits the name of the element containing the token's text as
// "parent_tag".
func ParentTag() htmlner.Feature {
	return htmlner.NewTokenFeature("parent_tag", func(tok *htmlner.HtmlToken) (htmlner.FeatureMap, error) {
		tag := ""
		if p := tok.Parent(); p != nil && p.Type == html.ElementNode {
			tag = p.Data
		}
		return htmlner.FeatureMap{"parent_tag": tag}, nil
	})
}

// InsideTags emits "inside_<tag>" for each given tag, true when the token's
// text is inside such an element at any depth.
func InsideTags(tags ...string) htmlner.Feature {
	names := make(map[string]string, len(tags))
	for _, t := range tags {
		t = strings.ToLower(t)
		names[t] = "inside_" + t
	}
	return htmlner.NewTokenFeature("inside", func(tok *htmlner.HtmlToken) (htmlner.FeatureMap, error) {
		m := make(htmlner.FeatureMap, len(names))
		for _, name := range names {
			m[name] = false
		}
		for n := tok.Parent(); n != nil; n = n.Parent {
			if name, ok := names[n.Data]; ok && n.Type == html.ElementNode {
				m[name] = true
			}
		}
		return m, nil
	})
}

// ElementAttrs emits the "class" and "id" attributes of the element
// containing the token's text, empty when absent.
func ElementAttrs() htmlner.Feature {
	return htmlner.NewTokenFeature("attrs", func(tok *htmlner.HtmlToken) (htmlner.FeatureMap, error) {
		m := htmlner.FeatureMap{"class": "", "id": ""}
		p := tok.Parent()
		if p == nil {
			return m, nil
		}
		sel := goquery.NewDocumentFromNode(p).Selection
		m["class"] = strings.Join(strings.Fields(sel.AttrOr("class", "")), " ")
		m["id"] = sel.AttrOr("id", "")
		return m, nil
	})
}

// Selector emits name as true when the element containing the token's text,
// or one of its ancestors, matches the CSS selector css.
// Returns EINVALID if css does not compile.
func Selector(name, css string) (htmlner.Feature, error) {
	m, err := cascadia.Compile(css)
	if err != nil {
		return htmlner.Feature{}, htmlner.Errorf(htmlner.EINVALID, "invalid selector %q for feature %s: %v", css, name, err)
	}
	return htmlner.NewTokenFeature(name, func(tok *htmlner.HtmlToken) (htmlner.FeatureMap, error) {
		matched := false
		if p := tok.Parent(); p != nil {
			matched = goquery.NewDocumentFromNode(p).ClosestMatcher(m).Length() > 0
		}
		return htmlner.FeatureMap{name: matched}, nil
	}), nil
}
