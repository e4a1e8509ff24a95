package htmlner

import "strings"

// Entity is a reconstructed entity: a labelled span of tokens and its text.
type Entity struct {
	Label string `json:"label"`
	Text  string `json:"text"`

	// Start and End are inclusive token positions in the document.
	Start int `json:"start"`
	End   int `json:"end"`

	Tokens []HtmlToken `json:"-"`
}

// SmartJoin rebuilds surface text from tokens: a single space goes before
// every token whose SpaceBefore flag is set and nothing before the others.
func SmartJoin(tokens []HtmlToken) string {
	var sb strings.Builder
	for i, tok := range tokens {
		if i > 0 && tok.SpaceBefore {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok.Text)
	}
	return sb.String()
}

// ExtractEntities groups tags into spans and joins each span's text.
// Entities are returned in document order of their first token.
func ExtractEntities(tokens []HtmlToken, tags []Tag, policy OrphanPolicy) ([]Entity, error) {
	spans, err := Group(tokens, tags, policy)
	if err != nil {
		return nil, err
	}

	entities := make([]Entity, 0, len(spans))
	for _, span := range spans {
		toks := tokens[span.Start : span.End+1]
		entities = append(entities, Entity{
			Label:  span.Label,
			Text:   SmartJoin(toks),
			Start:  span.Start,
			End:    span.End,
			Tokens: toks,
		})
	}
	return entities, nil
}
