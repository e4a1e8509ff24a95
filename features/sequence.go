package features

import (
	"bufio"
	"errors"
	"io"
	"sort"
	"strconv"
	"slices"
	"strings"

	"github.com/fwojciec/htmlner"
	"github.com/fwojciec/htmlner/tokenize"
)

// Window copies the output of base features from neighbouring tokens.
// For each offset and each name emitted by base, the token receives
// "<offset>:<name>" with the value of the token offset positions away, so
// Window([]int{-1}, Lower()) emits "-1:lower". Offsets falling outside the
// document emit nothing.
func Window(offsets []int, base ...htmlner.Feature) htmlner.Feature {
	offsets = append([]int(nil), offsets...)
	base = append([]htmlner.Feature(nil), base...)
	return htmlner.NewSequenceFeature("window", func(tokens []htmlner.HtmlToken) ([]htmlner.FeatureMap, error) {
		merged := make([]htmlner.FeatureMap, len(tokens))
		for i := range merged {
			merged[i] = make(htmlner.FeatureMap)
		}
		for _, f := range base {
			maps, err := f.Apply(tokens)
			if err != nil {
				return nil, errors.New(htmlner.ErrorMessage(err))
			}
			for i, m := range maps {
				merged[i].Merge(m)
			}
		}

		out := make([]htmlner.FeatureMap, len(tokens))
		for i := range tokens {
			out[i] = make(htmlner.FeatureMap)
			for _, off := range offsets {
				j := i + off
				if off == 0 || j < 0 || j >= len(tokens) {
					continue
				}
				prefix := strconv.Itoa(off) + ":"
				for k, v := range merged[j] {
					out[i][prefix+k] = v
				}
			}
		}
		return out, nil
	})
}

// Gazetteer marks runs of tokens matching one of the entries. Matching is
// case-insensitive on whole tokens and prefers the longest entry; the first
// token of a match gets name "B" and the others "I". Unmatched tokens do
// not emit name.
//
// Entries are split with tok, which should be the text tokenizer that
// produced the document tokens; nil uses tokenize.DefaultTokenizer.
func Gazetteer(name string, entries []string, tok htmlner.TextTokenizer) htmlner.Feature {
	if tok == nil {
		tok = tokenize.NewDefaultTokenizer()
	}
	index := make(map[string][][]string)
	for _, e := range entries {
		for _, words := range entryWords(tok, e) {
			index[words[0]] = append(index[words[0]], words)
		}
	}
	for _, phrases := range index {
		sort.SliceStable(phrases, func(i, j int) bool {
			return len(phrases[i]) > len(phrases[j])
		})
	}

	return htmlner.NewSequenceFeature("gazetteer:"+name, func(tokens []htmlner.HtmlToken) ([]htmlner.FeatureMap, error) {
		words := make([]string, len(tokens))
		for i := range tokens {
			words[i] = normalize(tokens[i].Text)
		}

		out := make([]htmlner.FeatureMap, len(tokens))
		for i := range out {
			out[i] = make(htmlner.FeatureMap)
		}
		for i := 0; i < len(words); {
			n := longestMatch(index[words[i]], words[i:])
			if n == 0 {
				i++
				continue
			}
			out[i][name] = "B"
			for j := i + 1; j < i+n; j++ {
				out[j][name] = "I"
			}
			i += n
		}
		return out, nil
	})
}

// entrySentinel follows an entry when it is tokenized as running text.
const entrySentinel = "x"

// entryWords returns the normalized token sequences entry can take in a
// document. Tokenizers may split differently at the end of a text chunk
// (a final "Inc." becomes "Inc" and "."), so both the chunk-final form and
// the form followed by more text are returned when they differ.
func entryWords(tok htmlner.TextTokenizer, entry string) [][]string {
	words := func(text string) []string {
		tokens := tok.Tokenize(text)
		out := make([]string, len(tokens))
		for i, t := range tokens {
			out[i] = normalize(t.Text)
		}
		return out
	}

	var variants [][]string
	if final := words(entry); len(final) > 0 {
		variants = append(variants, final)
	}
	running := words(entry + " " + entrySentinel)
	if n := len(running); n > 1 && running[n-1] == entrySentinel {
		running = running[:n-1]
		if len(variants) == 0 || !slices.Equal(variants[0], running) {
			variants = append(variants, running)
		}
	}
	return variants
}

// longestMatch returns the length of the first phrase that prefixes words.
// Phrases are sorted longest first.
func longestMatch(phrases [][]string, words []string) int {
	for _, p := range phrases {
		if len(p) > len(words) {
			continue
		}
		ok := true
		for k := range p {
			if p[k] != words[k] {
				ok = false
				break
			}
		}
		if ok {
			return len(p)
		}
	}
	return 0
}

// ReadGazetteer reads one entry per line from r, ignoring blank lines and
// lines starting with '#'.
func ReadGazetteer(r io.Reader) ([]string, error) {
	var entries []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	if err := sc.Err(); err != nil {
		return nil, htmlner.Errorf(htmlner.EINVALID, "failed to read gazetteer: %v", err)
	}
	return entries, nil
}
