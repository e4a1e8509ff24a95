// Package tokenize provides text tokenizers used to split the text content
// of HTML nodes into tokens.
package tokenize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fwojciec/htmlner"
)

var (
	_ htmlner.TextTokenizer = (*WordTokenizer)(nil)
	_ htmlner.TextTokenizer = (*DefaultTokenizer)(nil)
	_ htmlner.TextTokenizer = (*WhitespaceTokenizer)(nil)
)

// WordTokenizer is a Treebank-style word tokenizer that keeps e-mail
// addresses, "Email:"-style labels and contractions in one token.
//
// Opening double quotes become `` and closing ones become ''.
// Positions are byte offsets into the input.
type WordTokenizer struct{}

// NewWordTokenizer creates a new WordTokenizer.
func NewWordTokenizer() *WordTokenizer {
	return &WordTokenizer{}
}

// Tokenize splits text into tokens.
func (t *WordTokenizer) Tokenize(text string) []htmlner.TextToken {
	return spanTokenize(text, 0, nil)
}

// spanTokenize appends the tokens of text, shifted by offset, to out.
func spanTokenize(text string, offset int, out []htmlner.TextToken) []htmlner.TextToken {
	// Open quotes depend on the previous character, so they are split off
	// before the rule loop.
	if q := openQuoteIndex(text); q >= 0 {
		out = spanTokenize(text[:q], offset, out)
		out = append(out, htmlner.TextToken{Text: "``", Position: offset + q, Length: 1})
		return spanTokenize(text[q+1:], offset+q+1, out)
	}

	emit := func(s string, pos, length int) {
		if s != "" {
			out = append(out, htmlner.TextToken{Text: s, Position: offset + pos, Length: length})
		}
	}

	i, start := 0, 0
	for i < len(text) {
		_, shift := utf8.DecodeRuneInString(text[i:])
		if tok, n, ok := matchRule(text, i); ok {
			emit(text[start:i], start, i-start)
			emit(tok, i, n)
			shift = n
			start = i + n
		}
		i += shift
	}
	emit(text[start:], start, len(text)-start)
	return out
}

// openQuoteIndex returns the index of the first double quote that starts
// the text or follows whitespace or an opening bracket, or -1.
func openQuoteIndex(text string) int {
	prev := rune(-1)
	for i, r := range text {
		if r == '"' && (prev == -1 || unicode.IsSpace(prev) || strings.ContainsRune("([{<", prev)) {
			return i
		}
		prev = r
	}
	return -1
}

// matchRule matches the splitting rules at text[i:]. It returns the token
// to emit ("" for dropped whitespace), the number of bytes consumed and
// whether any rule matched.
func matchRule(text string, i int) (string, int, bool) {
	rest := text[i:]
	r, size := utf8.DecodeRuneInString(rest)

	switch {
	case unicode.IsSpace(r):
		n := len(rest) - len(strings.TrimLeftFunc(rest, unicode.IsSpace))
		return "", n, true
	case r == '“':
		return "``", size, true
	case r == '"' || r == '”':
		return "''", size, true
	case strings.HasPrefix(rest, "``"):
		return "``", 2, true
	case r == '…':
		return "...", size, true
	case strings.HasPrefix(rest, "..."):
		return "...", 3, true
	case strings.HasPrefix(rest, "--"):
		return "--", 2, true
	case r == ',':
		next, _ := utf8.DecodeRuneInString(rest[size:])
		if len(rest) == size || !unicode.IsDigit(next) {
			return ",", size, true
		}
	case r == '.':
		if tail := rest[size:]; tail == "" || tail == "\n" {
			return ".", size, true
		}
	case strings.ContainsRune(";#$£%&|!?[](){}<>", r):
		return rest[:size], size, true
	case r == '\'':
		if strings.HasPrefix(rest, "''") {
			return "''", 2, true
		}
		next, _ := utf8.DecodeRuneInString(rest[size:])
		if len(rest) > size && unicode.IsSpace(next) {
			return "'", size, true
		}
	}
	return "", 0, false
}

// DefaultTokenizer is a WordTokenizer that also drops standalone commas and
// semicolons, which otherwise tend to break entity spans apart.
type DefaultTokenizer struct {
	words WordTokenizer
}

// NewDefaultTokenizer creates a new DefaultTokenizer.
func NewDefaultTokenizer() *DefaultTokenizer {
	return &DefaultTokenizer{}
}

// Tokenize splits text into tokens, omitting "," and ";" tokens.
func (t *DefaultTokenizer) Tokenize(text string) []htmlner.TextToken {
	tokens := t.words.Tokenize(text)
	out := tokens[:0]
	for _, tok := range tokens {
		if tok.Text == "," || tok.Text == ";" {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// WhitespaceTokenizer splits text on Unicode whitespace only.
type WhitespaceTokenizer struct{}

// NewWhitespaceTokenizer creates a new WhitespaceTokenizer.
func NewWhitespaceTokenizer() *WhitespaceTokenizer {
	return &WhitespaceTokenizer{}
}

// Tokenize splits text into whitespace-separated tokens.
func (t *WhitespaceTokenizer) Tokenize(text string) []htmlner.TextToken {
	var out []htmlner.TextToken
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, htmlner.TextToken{Text: text[start:i], Position: start, Length: i - start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, htmlner.TextToken{Text: text[start:], Position: start, Length: len(text) - start})
	}
	return out
}
