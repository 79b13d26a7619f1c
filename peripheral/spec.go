package peripheral

import (
	"fmt"
	"strings"
)

// Spec is one parsed peripheral entry: a class name and its positional
// arguments.
type Spec struct {
	Class string
	Args  []string
}

func (s Spec) String() string {
	return strings.Join(append([]string{s.Class}, s.Args...), ":")
}

// ParseSpec parses a pins entry of the form
//
//	Class:arg:arg[, Class:arg ...]
//
// A backslash escapes a literal comma or colon.
func ParseSpec(value string) ([]Spec, error) {
	var specs []Spec
	for _, item := range SplitEscaped(value, ',', true) {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, fmt.Errorf("empty entry in %q", value)
		}
		parts := SplitEscaped(item, ':', false)
		specs = append(specs, Spec{Class: parts[0], Args: parts[1:]})
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no peripherals in %q", value)
	}
	return specs, nil
}

// SplitEscaped splits s on glue, honouring backslash escapes. With
// preserve the backslashes are kept so that a later split can still see
// them. A trailing empty piece is dropped.
func SplitEscaped(s string, glue rune, preserve bool) []string {
	var out []string
	var buf strings.Builder
	escaped := false
	for _, c := range s {
		switch {
		case escaped:
			buf.WriteRune(c)
			escaped = false
		case c == '\\':
			if preserve {
				buf.WriteRune(c)
			}
			escaped = true
		case c == glue:
			out = append(out, buf.String())
			buf.Reset()
		default:
			buf.WriteRune(c)
		}
	}
	if escaped && !preserve {
		// dangling escape; keep it literally
		buf.WriteRune('\\')
	}
	if buf.Len() > 0 {
		out = append(out, buf.String())
	}
	return out
}
