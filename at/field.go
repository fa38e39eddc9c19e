package at

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMissingLine is returned when a Field addresses a response line that
	// is not present.
	ErrMissingLine = errors.New("response line missing")

	// ErrMissingField is returned when a Step cannot find the part it selects,
	// for example the third comma separated value of a line that has two.
	ErrMissingField = errors.New("response field missing")
)

// Step narrows a value to one of its parts.
type Step struct {
	name string
	fn   func(string) (string, bool)
}

func (s Step) String() string { return s.name }

// Split selects the i-th part of the value split on sep.
func Split(sep string, i int) Step {
	return Step{
		name: fmt.Sprintf("split(%q, %d)", sep, i),
		fn: func(v string) (string, bool) {
			parts := strings.Split(v, sep)
			if i < 0 || i >= len(parts) {
				return "", false
			}
			return parts[i], true
		},
	}
}

// Param selects the i-th parameter of an AT parameter list. Commas inside
// double quotes do not separate parameters and the quotes are removed.
func Param(i int) Step {
	return Step{
		name: "param(" + strconv.Itoa(i) + ")",
		fn: func(v string) (string, bool) {
			params := Params(v)
			if i < 0 || i >= len(params) {
				return "", false
			}
			return params[i], true
		},
	}
}

// After selects what follows the first sep, e.g. the parameter list of a
// "+CMGL: " line however many separators the parameters contain.
func After(sep string) Step {
	return Step{
		name: fmt.Sprintf("after(%q)", sep),
		fn: func(v string) (string, bool) {
			_, rest, ok := strings.Cut(v, sep)
			return rest, ok
		},
	}
}

// UpTo cuts the value before the first byte contained in cutset. A value
// without any of them is kept whole.
func UpTo(cutset string) Step {
	return Step{
		name: fmt.Sprintf("upto(%q)", cutset),
		fn: func(v string) (string, bool) {
			if i := strings.IndexAny(v, cutset); i >= 0 {
				return v[:i], true
			}
			return v, true
		},
	}
}

// Unquote trims surrounding double quotes.
var Unquote = Step{
	name: "unquote",
	fn: func(v string) (string, bool) {
		return strings.Trim(v, `"`), true
	},
}

// Field locates a value inside a response: the line is chosen by position
// or, when Prefix is set, as the first line starting with Prefix; Path is
// then applied left to right.
type Field struct {
	Line   int
	Prefix string
	Path   []Step
}

// Extract applies the field to the lines of a response. It never reads past
// the end of lines or of any intermediate split.
func (f Field) Extract(lines []string) (string, error) {
	v, err := f.line(lines)
	if err != nil {
		return "", err
	}
	for _, step := range f.Path {
		next, ok := step.fn(v)
		if !ok {
			return "", fmt.Errorf("%w: %s of %q", ErrMissingField, step, v)
		}
		v = next
	}
	return v, nil
}

func (f Field) line(lines []string) (string, error) {
	if f.Prefix != "" {
		if i := Find(lines, f.Prefix); i >= 0 {
			return lines[i], nil
		}
		return "", fmt.Errorf("%w: no line starts with %q", ErrMissingLine, f.Prefix)
	}
	if f.Line < 0 || f.Line >= len(lines) {
		return "", fmt.Errorf("%w: line %d of %d", ErrMissingLine, f.Line, len(lines))
	}
	return lines[f.Line], nil
}

// Find returns the index of the first line starting with prefix, or -1.
func Find(lines []string, prefix string) int {
	for i, l := range lines {
		if strings.HasPrefix(l, prefix) {
			return i
		}
	}
	return -1
}

// Params splits an AT parameter list on commas outside double quotes and
// removes the quotes. Empty parameters are kept, so `1,,"a"` has three.
func Params(v string) []string {
	var (
		params []string
		cur    strings.Builder
		quoted bool
	)
	for _, r := range v {
		switch {
		case r == '"':
			quoted = !quoted
		case r == ',' && !quoted:
			params = append(params, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(params, cur.String())
}
