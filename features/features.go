// Package features provides ready-made feature functions for
// htmlner.FeatureExtractor: token text, shape and affixes, position in the
// text chunk, enclosing HTML elements, CSS selector matches, windows over
// neighbouring tokens and gazetteer lookups.
package features

import "github.com/fwojciec/htmlner"

// DefaultInsideTags are the elements reported by the default InsideTags
// feature.
var DefaultInsideTags = []string{
	"a", "b", "strong", "em", "i", "h1", "h2", "h3", "li", "td", "th", "address", "title",
}

// DefaultWindow are the neighbour offsets used by the default window feature.
var DefaultWindow = []int{-2, -1, 1, 2}

// Default returns the default ordered feature set. Each call returns new
// Feature values, so callers may append to the result.
func Default() []htmlner.Feature {
	return []htmlner.Feature{
		Token(),
		Lower(),
		Shape(),
		Affixes(),
		Flags(),
		Position(),
		ParentTag(),
		InsideTags(DefaultInsideTags...),
		ElementAttrs(),
		Window(DefaultWindow, Lower(), Shape()),
	}
}
