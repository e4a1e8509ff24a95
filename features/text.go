package features

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fwojciec/htmlner"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Token emits the token text as "token".
func Token() htmlner.Feature {
	return htmlner.NewTokenFeature("token", func(tok *htmlner.HtmlToken) (htmlner.FeatureMap, error) {
		return htmlner.FeatureMap{"token": tok.Text}, nil
	})
}

// Lower emits the NFKC-normalized, lowercased token text as "lower".
func Lower() htmlner.Feature {
	return htmlner.NewTokenFeature("lower", func(tok *htmlner.HtmlToken) (htmlner.FeatureMap, error) {
		return htmlner.FeatureMap{"lower": normalize(tok.Text)}, nil
	})
}

// normalize folds compatibility characters and case. A Caser keeps state,
// so each call gets its own.
func normalize(s string) string {
	return cases.Lower(language.Und).String(norm.NFKC.String(s))
}

// Shape emits the word shape as "shape" ("Dublin" is "Xxxxxx") and the same
// shape with repeats collapsed as "short_shape" ("Xx").
func Shape() htmlner.Feature {
	return htmlner.NewTokenFeature("shape", func(tok *htmlner.HtmlToken) (htmlner.FeatureMap, error) {
		shape := wordShape(tok.Text)
		return htmlner.FeatureMap{
			"shape":       shape,
			"short_shape": collapse(shape),
		}, nil
	})
}

func wordShape(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			sb.WriteByte('X')
		case unicode.IsLower(r):
			sb.WriteByte('x')
		case unicode.IsDigit(r):
			sb.WriteByte('d')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func collapse(s string) string {
	var sb strings.Builder
	var prev rune = -1
	for _, r := range s {
		if r != prev {
			sb.WriteRune(r)
		}
		prev = r
	}
	return sb.String()
}

// Affixes emits the first and last two and three characters of the
// lowercased token as "prefix2", "prefix3", "suffix2" and "suffix3".
func Affixes() htmlner.Feature {
	return htmlner.NewTokenFeature("affixes", func(tok *htmlner.HtmlToken) (htmlner.FeatureMap, error) {
		runes := []rune(normalize(tok.Text))
		return htmlner.FeatureMap{
			"prefix2": prefix(runes, 2),
			"prefix3": prefix(runes, 3),
			"suffix2": suffix(runes, 2),
			"suffix3": suffix(runes, 3),
		}, nil
	})
}

func prefix(r []rune, n int) string {
	return string(r[:min(n, len(r))])
}

func suffix(r []rune, n int) string {
	return string(r[len(r)-min(n, len(r)):])
}

// Flags emits character class flags of the token: "isupper", "istitle",
// "isdigit", "isalpha", "has_digit", "is_punct" and its rune "length".
func Flags() htmlner.Feature {
	return htmlner.NewTokenFeature("flags", func(tok *htmlner.HtmlToken) (htmlner.FeatureMap, error) {
		s := tok.Text
		return htmlner.FeatureMap{
			"isupper":   isUpper(s),
			"istitle":   isTitle(s),
			"isdigit":   all(s, unicode.IsDigit),
			"isalpha":   all(s, unicode.IsLetter),
			"has_digit": strings.IndexFunc(s, unicode.IsDigit) >= 0,
			"is_punct":  all(s, isPunct),
			"length":    utf8.RuneCountInString(s),
		}, nil
	})
}

func all(s string, fn func(rune) bool) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !fn(r) {
			return false
		}
	}
	return true
}

func isPunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func isCased(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
}

// isUpper reports whether s has a cased character and no lowercase ones.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		cased = cased || isCased(r)
	}
	return cased
}

// isTitle reports whether every cased run in s starts with an uppercase
// character followed only by lowercase ones.
func isTitle(s string) bool {
	cased, prevCased := false, false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased, cased = true, true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
		default:
			prevCased = false
		}
	}
	return cased
}
