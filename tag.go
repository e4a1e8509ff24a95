package htmlner

import "strings"

// Tag is an IOB2 tag: O, B-<label> or I-<label>.
type Tag string

// Outside tags a token that belongs to no entity.
const Outside Tag = "O"

// TagKind is the IOB2 prefix of a tag.
type TagKind int

const (
	KindOutside TagKind = iota
	KindBegin
	KindInside
)

// BeginTag returns the tag for the first token of an entity.
func BeginTag(label string) Tag {
	return Tag("B-" + label)
}

// InsideTag returns the tag for a continuation token of an entity.
func InsideTag(label string) Tag {
	return Tag("I-" + label)
}

// Split parses the tag into its kind and label.
// Returns ETAG for anything other than O, B-<label> or I-<label>.
func (t Tag) Split() (TagKind, string, error) {
	if t == Outside {
		return KindOutside, "", nil
	}

	prefix, label, ok := strings.Cut(string(t), "-")
	if !ok || label == "" {
		return 0, "", Errorf(ETAG, "malformed tag %q", string(t))
	}

	switch prefix {
	case "B":
		return KindBegin, label, nil
	case "I":
		return KindInside, label, nil
	default:
		return 0, "", Errorf(ETAG, "malformed tag %q: unknown prefix %q", string(t), prefix)
	}
}

// Label returns the tag's entity label, or "" for O and malformed tags.
func (t Tag) Label() string {
	_, label, err := t.Split()
	if err != nil {
		return ""
	}
	return label
}

// ParseTags converts strings to tags, validating each one.
func ParseTags(ss []string) ([]Tag, error) {
	tags := make([]Tag, len(ss))
	for i, s := range ss {
		tag := Tag(s)
		if _, _, err := tag.Split(); err != nil {
			return nil, err
		}
		tags[i] = tag
	}
	return tags, nil
}
