package htmlner

import "context"

// FeatureMap maps feature names to values. Values are strings, booleans
// or numbers.
type FeatureMap map[string]any

// Merge copies every entry of other into m, overwriting existing names.
func (m FeatureMap) Merge(other FeatureMap) {
	for k, v := range other {
		m[k] = v
	}
}

// Scope tells the extractor how a feature function is applied.
type Scope int

const (
	// ScopeToken features are called once per token.
	ScopeToken Scope = iota + 1

	// ScopeSequence features are called once per document and return one
	// mapping per token.
	ScopeSequence
)

// TokenFunc computes features of a single token. Neighbouring tokens of the
// same element are available through the token's Chunk and Index.
type TokenFunc func(tok *HtmlToken) (FeatureMap, error)

// SequenceFunc computes features for a whole document at once and must
// return exactly one mapping per token.
type SequenceFunc func(tokens []HtmlToken) ([]FeatureMap, error)

// Feature is a named feature function of one of the two scopes.
type Feature struct {
	Name  string
	Scope Scope

	token    TokenFunc
	sequence SequenceFunc
}

// NewTokenFeature returns a per-token feature.
func NewTokenFeature(name string, fn TokenFunc) Feature {
	return Feature{Name: name, Scope: ScopeToken, token: fn}
}

// NewSequenceFeature returns a per-document feature.
func NewSequenceFeature(name string, fn SequenceFunc) Feature {
	return Feature{Name: name, Scope: ScopeSequence, sequence: fn}
}

// Apply runs the feature over tokens and returns one mapping per token.
func (f Feature) Apply(tokens []HtmlToken) ([]FeatureMap, error) {
	switch f.Scope {
	case ScopeToken:
		out := make([]FeatureMap, len(tokens))
		for i := range tokens {
			m, err := f.token(&tokens[i])
			if err != nil {
				return nil, Errorf(EFEATURE, "feature %q failed on token %d: %v", f.Name, i, err)
			}
			out[i] = m
		}
		return out, nil
	case ScopeSequence:
		out, err := f.sequence(tokens)
		if err != nil {
			return nil, Errorf(EFEATURE, "feature %q failed: %v", f.Name, err)
		}
		if len(out) != len(tokens) {
			return nil, Errorf(EFEATURE, "feature %q returned %d mappings for %d tokens", f.Name, len(out), len(tokens))
		}
		return out, nil
	default:
		return nil, Errorf(EFEATURE, "feature %q has no scope", f.Name)
	}
}

func (f Feature) validate() error {
	if f.Name == "" {
		return Errorf(EINVALID, "feature name required")
	}
	switch {
	case f.Scope == ScopeToken && f.token != nil:
	case f.Scope == ScopeSequence && f.sequence != nil:
	default:
		return Errorf(EINVALID, "feature %q has no function for its scope", f.Name)
	}
	return nil
}

// FeatureExtractor applies an ordered, fixed set of features to documents.
// It is immutable once constructed and safe for concurrent use.
type FeatureExtractor struct {
	features []Feature
	template string
}

// ExtractorOption configures a FeatureExtractor.
type ExtractorOption func(*FeatureExtractor)

// WithTemplate attaches a raw feature template for the sequence model.
// The extractor never interprets it.
func WithTemplate(tpl string) ExtractorOption {
	return func(e *FeatureExtractor) {
		e.template = tpl
	}
}

// NewFeatureExtractor returns an extractor applying features in the given
// order. Returns EINVALID if a feature is incomplete or names repeat.
func NewFeatureExtractor(features []Feature, opts ...ExtractorOption) (*FeatureExtractor, error) {
	seen := make(map[string]bool, len(features))
	for _, f := range features {
		if err := f.validate(); err != nil {
			return nil, err
		}
		if seen[f.Name] {
			return nil, Errorf(EINVALID, "duplicate feature %q", f.Name)
		}
		seen[f.Name] = true
	}

	e := &FeatureExtractor{
		features: append([]Feature(nil), features...),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Names returns the configured feature function names in order.
func (e *FeatureExtractor) Names() []string {
	names := make([]string, len(e.features))
	for i, f := range e.features {
		names[i] = f.Name
	}
	return names
}

// Template returns the attached model template, if any.
func (e *FeatureExtractor) Template() string {
	return e.template
}

// Extract returns one merged feature mapping per token. When two features
// emit the same name for a token, the one configured later wins.
func (e *FeatureExtractor) Extract(tokens []HtmlToken) ([]FeatureMap, error) {
	merged := make([]FeatureMap, len(tokens))
	for i := range merged {
		merged[i] = make(FeatureMap)
	}

	for _, f := range e.features {
		maps, err := f.Apply(tokens)
		if err != nil {
			return nil, err
		}
		for i, m := range maps {
			merged[i].Merge(m)
		}
	}
	return merged, nil
}

// ExtractDocument extracts features for doc after checking its invariants.
func (e *FeatureExtractor) ExtractDocument(doc *Document) ([]FeatureMap, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return e.Extract(doc.Tokens)
}

// Model is an external sequence-labelling model. Both methods take
// document-aligned, token-aligned sequences.
type Model interface {
	// Fit trains the model on feature mappings and their gold tags.
	Fit(ctx context.Context, features [][]FeatureMap, tags [][]Tag) error

	// Predict returns one tag sequence per document, each as long as the
	// document's feature sequence.
	Predict(ctx context.Context, features [][]FeatureMap) ([][]Tag, error)
}

// CheckAligned returns ELENGTH unless every features[i] has the same length
// as tags[i] and both outer slices are equally long.
func CheckAligned(features [][]FeatureMap, tags [][]Tag) error {
	if len(features) != len(tags) {
		return Errorf(ELENGTH, "%d feature sequences but %d tag sequences", len(features), len(tags))
	}
	for i := range features {
		if len(features[i]) != len(tags[i]) {
			return Errorf(ELENGTH, "document %d: %d feature mappings but %d tags", i, len(features[i]), len(tags[i]))
		}
	}
	return nil
}
