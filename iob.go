package htmlner

import (
	"fmt"
	"strings"
)

// IobEncoder is the encoding half of the IOB2 state machine. It is driven
// by annotation boundaries (Begin/End) and emits one tag per token (Next).
// The zero value is ready to use and starts outside any entity.
type IobEncoder struct {
	label  string
	inside bool
	start  bool
}

// Begin opens an entity of label. Entities cannot nest or overlap.
func (e *IobEncoder) Begin(label string) error {
	if e.inside {
		return Errorf(EANNOTATION, "annotation %s starts inside unterminated annotation %s", label, e.label)
	}
	e.label = label
	e.inside = true
	e.start = true
	return nil
}

// End closes the currently open entity, which must have the same label.
func (e *IobEncoder) End(label string) error {
	if !e.inside {
		return Errorf(EANNOTATION, "annotation %s ends but was never started", label)
	}
	if e.label != label {
		return Errorf(EANNOTATION, "annotation %s ends inside annotation %s", label, e.label)
	}
	e.label = ""
	e.inside = false
	e.start = false
	return nil
}

// Next returns the tag for the next token.
func (e *IobEncoder) Next() Tag {
	if !e.inside {
		return Outside
	}
	if e.start {
		e.start = false
		return BeginTag(e.label)
	}
	return InsideTag(e.label)
}

// Inside reports whether an entity is open, and its label.
func (e *IobEncoder) Inside() (string, bool) {
	return e.label, e.inside
}

// Close checks that the document did not end inside an entity.
func (e *IobEncoder) Close() error {
	if e.inside {
		return Errorf(EANNOTATION, "annotation %s is not terminated", e.label)
	}
	return nil
}

// Reset returns the encoder to the outside state.
func (e *IobEncoder) Reset() {
	*e = IobEncoder{}
}

// Span is a contiguous run of tokens sharing one entity label.
// Start and End are inclusive token indexes.
type Span struct {
	Label string
	Start int
	End   int
}

// Len returns the number of tokens in the span.
func (s Span) Len() int {
	return s.End - s.Start + 1
}

// OrphanPolicy decides how grouping treats an I-<label> tag that does not
// follow B-<label> or I-<label>. There is deliberately no default: the zero
// value is rejected.
type OrphanPolicy int

const (
	// OrphanBegin treats an orphan I-<label> as B-<label>.
	OrphanBegin OrphanPolicy = iota + 1

	// OrphanReject fails grouping with ETAG.
	OrphanReject
)

// String returns the configuration name of the policy.
func (p OrphanPolicy) String() string {
	switch p {
	case OrphanBegin:
		return "lenient"
	case OrphanReject:
		return "strict"
	default:
		return fmt.Sprintf("OrphanPolicy(%d)", int(p))
	}
}

// ParseOrphanPolicy parses "lenient" or "strict".
func ParseOrphanPolicy(s string) (OrphanPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lenient":
		return OrphanBegin, nil
	case "strict":
		return OrphanReject, nil
	default:
		return 0, Errorf(EINVALID, "unknown orphan policy %q (want lenient or strict)", s)
	}
}

// Validate returns EINVALID unless p is OrphanBegin or OrphanReject.
func (p OrphanPolicy) Validate() error {
	if p != OrphanBegin && p != OrphanReject {
		return Errorf(EINVALID, "orphan policy must be set explicitly")
	}
	return nil
}

// GroupTags decodes a tag sequence into entity spans in document order.
// B-<label> always starts a span, I-<label> continues a span of the same
// label, O closes any open span. Malformed tags return ETAG.
func GroupTags(tags []Tag, policy OrphanPolicy) ([]Span, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	var spans []Span
	open := false
	for i, tag := range tags {
		kind, label, err := tag.Split()
		if err != nil {
			return nil, Errorf(ETAG, "tag %d: %s", i, ErrorMessage(err))
		}

		switch kind {
		case KindOutside:
			open = false
		case KindBegin:
			spans = append(spans, Span{Label: label, Start: i, End: i})
			open = true
		case KindInside:
			if open && spans[len(spans)-1].Label == label {
				spans[len(spans)-1].End = i
				continue
			}
			if policy == OrphanReject {
				return nil, Errorf(ETAG, "tag %d: %s does not continue an entity of the same label", i, string(tag))
			}
			spans = append(spans, Span{Label: label, Start: i, End: i})
			open = true
		}
	}
	return spans, nil
}

// EncodeSpans is the inverse of GroupTags: it returns n tags with the given
// spans encoded. Spans must be ordered, in range and non-overlapping.
func EncodeSpans(n int, spans []Span) ([]Tag, error) {
	var enc IobEncoder
	tags := make([]Tag, 0, n)

	next := 0
	for _, span := range spans {
		if span.Start < next || span.Start > span.End || span.End >= n {
			return nil, Errorf(EANNOTATION, "span %s [%d,%d] is out of order or out of range", span.Label, span.Start, span.End)
		}
		for ; next < span.Start; next++ {
			tags = append(tags, enc.Next())
		}
		if err := enc.Begin(span.Label); err != nil {
			return nil, err
		}
		for ; next <= span.End; next++ {
			tags = append(tags, enc.Next())
		}
		if err := enc.End(span.Label); err != nil {
			return nil, err
		}
	}
	for ; next < n; next++ {
		tags = append(tags, enc.Next())
	}
	return tags, enc.Close()
}

// Group decodes tags like GroupTags and checks they align with tokens.
func Group(tokens []HtmlToken, tags []Tag, policy OrphanPolicy) ([]Span, error) {
	if len(tokens) != len(tags) {
		return nil, Errorf(ELENGTH, "%d tokens but %d tags", len(tokens), len(tags))
	}
	return GroupTags(tags, policy)
}
