package wapiti

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/fwojciec/htmlner"
)

// Columns returns the sorted union of feature names over all sequences.
// Every encoded token line has one column per name in this order.
func Columns(features [][]htmlner.FeatureMap) []string {
	seen := make(map[string]bool)
	for _, seq := range features {
		for _, m := range seq {
			for name := range m {
				seen[name] = true
			}
		}
	}
	cols := make([]string, 0, len(seen))
	for name := range seen {
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return cols
}

// Encode writes sequences in wapiti's column format: one token per line,
// one "name=value" cell per column, tab separated, and a blank line after
// each sequence. When tags is non-nil the tag is appended as the last
// column. Names missing from a mapping are written as "name=".
func Encode(w io.Writer, columns []string, features [][]htmlner.FeatureMap, tags [][]htmlner.Tag) error {
	if tags != nil {
		if err := htmlner.CheckAligned(features, tags); err != nil {
			return err
		}
	}

	bw := bufio.NewWriter(w)
	for i, seq := range features {
		for j, m := range seq {
			for k, name := range columns {
				if k > 0 {
					bw.WriteByte('\t')
				}
				bw.WriteString(escape(name))
				bw.WriteByte('=')
				if v, ok := m[name]; ok {
					bw.WriteString(escape(format(v)))
				}
			}
			if tags != nil {
				if len(columns) > 0 {
					bw.WriteByte('\t')
				}
				bw.WriteString(string(tags[i][j]))
			}
			bw.WriteByte('\n')
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Decode reads wapiti labelling output and returns the last column of each
// token line, one slice per blank-line separated sequence.
func Decode(r io.Reader) ([][]htmlner.Tag, error) {
	var (
		out     [][]htmlner.Tag
		cur     []string
		pending bool
	)
	flush := func() error {
		if !pending {
			return nil
		}
		tags, err := htmlner.ParseTags(cur)
		if err != nil {
			return err
		}
		out = append(out, tags)
		cur, pending = nil, false
		return nil
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		cur = append(cur, fields[len(fields)-1])
		pending = true
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read wapiti output: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

func format(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case bool:
		if v {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// escape replaces whitespace, which wapiti treats as a column separator.
func escape(s string) string {
	if strings.IndexFunc(s, unicode.IsSpace) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, s)
}
