package htmlner

import (
	"regexp"
	"strings"
	"unicode"
)

// MarkerKind distinguishes annotation start markers from end markers.
type MarkerKind int

const (
	MarkerStart MarkerKind = iota + 1
	MarkerEnd
)

// Marker is an annotation boundary found in tree text.
type Marker struct {
	Kind  MarkerKind
	Label string

	// Position and Length locate the marker in the text it was found in.
	Position int
	Length   int
}

// Labels are any run of non-space characters; ValidateLabel rejects the
// ones a marker could not delimit.
var markerRe = regexp.MustCompile(`__(START|END)_(\S+?)__`)

// ValidateLabel returns EINVALID if label cannot be written as a marker:
// it must be non-empty, contain no whitespace or "__", and not end in "_".
func ValidateLabel(label string) error {
	switch {
	case label == "":
		return Errorf(EINVALID, "empty annotation label")
	case strings.IndexFunc(label, unicode.IsSpace) >= 0:
		return Errorf(EINVALID, "annotation label %q contains whitespace", label)
	case strings.Contains(label, "__"), strings.HasSuffix(label, "_"):
		return Errorf(EINVALID, "annotation label %q cannot be delimited", label)
	}
	return nil
}

// StartMarker returns the in-text marker opening an entity of label.
// Loaders insert it where annotated content begins.
func StartMarker(label string) string {
	return "__START_" + strings.ToUpper(label) + "__"
}

// EndMarker returns the in-text marker closing an entity of label.
func EndMarker(label string) string {
	return "__END_" + strings.ToUpper(label) + "__"
}

// FindMarkers returns all annotation markers in text, in order.
func FindMarkers(text string) []Marker {
	matches := markerRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	markers := make([]Marker, 0, len(matches))
	for _, m := range matches {
		kind := MarkerStart
		if text[m[2]:m[3]] == "END" {
			kind = MarkerEnd
		}
		markers = append(markers, Marker{
			Kind:     kind,
			Label:    strings.ToUpper(text[m[4]:m[5]]),
			Position: m[0],
			Length:   m[1] - m[0],
		})
	}
	return markers
}
