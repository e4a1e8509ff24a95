package features_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/htmlner"
	"github.com/fwojciec/htmlner/features"
	"github.com/fwojciec/htmlner/htmltree"
	"github.com/fwojciec/htmlner/tokenize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func tokens(t *testing.T, s string) []htmlner.HtmlToken {
	t.Helper()
	root, err := html.Parse(strings.NewReader(s))
	require.NoError(t, err)
	doc, err := htmltree.NewTokenizer().Tokenize(root)
	require.NoError(t, err)
	return doc.Tokens
}

func apply(t *testing.T, f htmlner.Feature, toks []htmlner.HtmlToken) []htmlner.FeatureMap {
	t.Helper()
	maps, err := f.Apply(toks)
	require.NoError(t, err)
	require.Len(t, maps, len(toks))
	return maps
}

func TestTextFeatures(t *testing.T) {
	t.Parallel()

	toks := tokens(t, `<p>Dublin ＡＢＣ 2024 IBM-7 ! McDonald</p>`)
	require.Len(t, toks, 6)

	t.Run("token and lower", func(t *testing.T) {
		t.Parallel()

		tok := apply(t, features.Token(), toks)
		low := apply(t, features.Lower(), toks)

		assert.Equal(t, "Dublin", tok[0]["token"])
		assert.Equal(t, "dublin", low[0]["lower"])
		assert.Equal(t, "abc", low[1]["lower"])
	})

	t.Run("shape", func(t *testing.T) {
		t.Parallel()

		maps := apply(t, features.Shape(), toks)

		assert.Equal(t, "Xxxxxx", maps[0]["shape"])
		assert.Equal(t, "Xx", maps[0]["short_shape"])
		assert.Equal(t, "dddd", maps[2]["shape"])
		assert.Equal(t, "XXX-d", maps[3]["shape"])
		assert.Equal(t, "XxXxxxxx", maps[5]["shape"])
		assert.Equal(t, "XxXx", maps[5]["short_shape"])
	})

	t.Run("affixes", func(t *testing.T) {
		t.Parallel()

		maps := apply(t, features.Affixes(), toks)

		assert.Equal(t, htmlner.FeatureMap{
			"prefix2": "du", "prefix3": "dub", "suffix2": "in", "suffix3": "lin",
		}, maps[0])
		assert.Equal(t, "!", maps[4]["prefix3"])
		assert.Equal(t, "!", maps[4]["suffix2"])
	})

	t.Run("flags", func(t *testing.T) {
		t.Parallel()

		maps := apply(t, features.Flags(), toks)

		assert.Equal(t, htmlner.FeatureMap{
			"isupper": false, "istitle": true, "isdigit": false, "isalpha": true,
			"has_digit": false, "is_punct": false, "length": 6,
		}, maps[0])
		assert.Equal(t, true, maps[1]["isupper"])
		assert.Equal(t, true, maps[2]["isdigit"])
		assert.Equal(t, true, maps[3]["isupper"])
		assert.Equal(t, true, maps[3]["has_digit"])
		assert.Equal(t, false, maps[3]["isalpha"])
		assert.Equal(t, true, maps[4]["is_punct"])
		assert.Equal(t, false, maps[5]["istitle"])
	})
}

func TestPosition(t *testing.T) {
	t.Parallel()

	toks := tokens(t, `<p>one two<b>three</b></p>`)
	maps := apply(t, features.Position(), toks)

	assert.Equal(t, htmlner.FeatureMap{"first_in_chunk": true, "last_in_chunk": false, "space_before": false}, maps[0])
	assert.Equal(t, htmlner.FeatureMap{"first_in_chunk": false, "last_in_chunk": true, "space_before": true}, maps[1])
	assert.Equal(t, htmlner.FeatureMap{"first_in_chunk": true, "last_in_chunk": true, "space_before": false}, maps[2])
}

func TestTreeFeatures(t *testing.T) {
	t.Parallel()

	toks := tokens(t, `<div class="card  vcard" id="c1"><a href="/"><b>Acme</b> Corp</a></div><address>Main St</address>`)
	require.Len(t, toks, 4)

	t.Run("parent tag uses the element holding the text", func(t *testing.T) {
		t.Parallel()

		maps := apply(t, features.ParentTag(), toks)

		assert.Equal(t, "b", maps[0]["parent_tag"])
		assert.Equal(t, "a", maps[1]["parent_tag"])
		assert.Equal(t, "address", maps[2]["parent_tag"])
	})

	t.Run("inside tags", func(t *testing.T) {
		t.Parallel()

		maps := apply(t, features.InsideTags("a", "B", "address"), toks)

		assert.Equal(t, htmlner.FeatureMap{"inside_a": true, "inside_b": true, "inside_address": false}, maps[0])
		assert.Equal(t, htmlner.FeatureMap{"inside_a": true, "inside_b": false, "inside_address": false}, maps[1])
		assert.Equal(t, htmlner.FeatureMap{"inside_a": false, "inside_b": false, "inside_address": true}, maps[3])
	})

	t.Run("element attributes", func(t *testing.T) {
		t.Parallel()

		root, err := html.Parse(strings.NewReader(`<div class="card  vcard" id="c1">Acme</div>`))
		require.NoError(t, err)
		doc, err := htmltree.NewTokenizer().Tokenize(root)
		require.NoError(t, err)

		maps := apply(t, features.ElementAttrs(), doc.Tokens)

		assert.Equal(t, htmlner.FeatureMap{"class": "card vcard", "id": "c1"}, maps[0])
		assert.Equal(t, htmlner.FeatureMap{"class": "", "id": ""}, apply(t, features.ElementAttrs(), toks)[2])
	})

	t.Run("selector matches ancestors", func(t *testing.T) {
		t.Parallel()

		f, err := features.Selector("in_vcard", ".vcard")
		require.NoError(t, err)

		maps := apply(t, f, toks)

		assert.Equal(t, true, maps[0]["in_vcard"])
		assert.Equal(t, true, maps[1]["in_vcard"])
		assert.Equal(t, false, maps[2]["in_vcard"])
	})

	t.Run("selector rejects invalid css", func(t *testing.T) {
		t.Parallel()

		_, err := features.Selector("bad", "div[")

		require.Error(t, err)
		assert.Equal(t, htmlner.EINVALID, htmlner.ErrorCode(err))
	})
}

func TestWindow(t *testing.T) {
	t.Parallel()

	toks := tokens(t, `<p>Visit New York today</p>`)
	maps := apply(t, features.Window([]int{-1, 1}, features.Lower()), toks)

	assert.Equal(t, htmlner.FeatureMap{"1:lower": "new"}, maps[0])
	assert.Equal(t, htmlner.FeatureMap{"-1:lower": "visit", "1:lower": "york"}, maps[1])
	assert.Equal(t, htmlner.FeatureMap{"-1:lower": "york"}, maps[3])
}

func TestWindow_PropagatesBaseFailure(t *testing.T) {
	t.Parallel()

	failing := htmlner.NewTokenFeature("boom", func(*htmlner.HtmlToken) (htmlner.FeatureMap, error) {
		return nil, assert.AnError
	})

	_, err := features.Window([]int{1}, failing).Apply(tokens(t, `<p>a b</p>`))

	require.Error(t, err)
	assert.Equal(t, htmlner.EFEATURE, htmlner.ErrorCode(err))
	assert.Contains(t, htmlner.ErrorMessage(err), "boom")
}

func TestGazetteer(t *testing.T) {
	t.Parallel()

	f := features.Gazetteer("city", []string{"York", "New York", "new york city", "Dublin"}, nil)
	toks := tokens(t, `<p>From New York City to york and DUBLIN</p>`)

	maps := apply(t, f, toks)

	got := make([]any, len(maps))
	for i, m := range maps {
		got[i] = m["city"]
	}
	assert.Equal(t, []any{nil, "B", "I", "I", nil, "B", nil, "B"}, got)
}

func TestGazetteer_Punctuation(t *testing.T) {
	t.Parallel()

	f := features.Gazetteer("org", []string{"Acme, Inc.", "St. Louis"}, tokenize.NewDefaultTokenizer())
	labels := func(t *testing.T, toks []htmlner.HtmlToken) []any {
		maps := apply(t, f, toks)
		got := make([]any, len(maps))
		for i, m := range maps {
			got[i] = m["org"]
		}
		return got
	}

	t.Run("matches entries inside running text", func(t *testing.T) {
		t.Parallel()

		toks := tokens(t, `<p>Visit Acme, Inc. today and St. Louis</p>`)
		require.Equal(t, []string{"Visit", "Acme", "Inc.", "today", "and", "St.", "Louis"}, texts(toks))

		assert.Equal(t, []any{nil, "B", "I", nil, nil, "B", "I"}, labels(t, toks))
	})

	t.Run("matches entries ending a chunk", func(t *testing.T) {
		t.Parallel()

		toks := tokens(t, `<p>We met Acme, Inc.</p>`)
		require.Equal(t, []string{"We", "met", "Acme", "Inc", "."}, texts(toks))

		assert.Equal(t, []any{nil, nil, "B", "I", "I"}, labels(t, toks))
	})
}

func texts(toks []htmlner.HtmlToken) []string {
	out := make([]string, len(toks))
	for i, tok := range toks {
		out[i] = tok.Text
	}
	return out
}

func TestReadGazetteer(t *testing.T) {
	t.Parallel()

	entries, err := features.ReadGazetteer(strings.NewReader("# cities\nDublin\n\n  New York  \n"))

	require.NoError(t, err)
	assert.Equal(t, []string{"Dublin", "New York"}, entries)
}

func TestDefault(t *testing.T) {
	t.Parallel()

	ex, err := htmlner.NewFeatureExtractor(features.Default())
	require.NoError(t, err)

	maps, err := ex.Extract(tokens(t, `<p>Call <b>John</b> now</p>`))

	require.NoError(t, err)
	require.Len(t, maps, 3)
	for _, name := range []string{"token", "lower", "shape", "prefix3", "isupper", "first_in_chunk", "parent_tag", "inside_b", "class", "1:lower", "-1:shape"} {
		assert.Contains(t, maps[1], name)
	}
	assert.Equal(t, "John", maps[1]["token"])
	assert.Equal(t, true, maps[1]["inside_b"])
	assert.Equal(t, "now", maps[1]["1:lower"])
}
