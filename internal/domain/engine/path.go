package engine

import (
	"fmt"
	"strings"
)

const (
	// CallSegment marks the result of calling the preceding path.
	CallSegment = "()"
	// AnySegment matches exactly one arbitrary segment in registry patterns
	// and stands for a computed key whose value is unknown.
	AnySegment = "*"
)

// Path identifies a host API by its member segments. Segments may contain
// dots, so Components.classes["foo.bar"] keeps "foo.bar" as one segment.
type Path []string

// Append returns a new path with segs added. The receiver is never modified.
func (p Path) Append(segs ...string) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)

	return append(out, segs...)
}

// Equal reports whether both paths have the same segments.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}

	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}

	return true
}

// HasPrefix reports whether prefix is a leading sub-path of p.
func (p Path) HasPrefix(prefix Path) bool {
	return len(prefix) <= len(p) && p[:len(prefix)].Equal(prefix)
}

// Last returns the final segment, or "" for an empty path.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}

	return p[len(p)-1]
}

func (p Path) String() string {
	var b strings.Builder

	for i, seg := range p {
		switch {
		case seg == CallSegment:
			b.WriteString(CallSegment)
		case i == 0:
			b.WriteString(seg)
		case seg == AnySegment || isIdentifier(seg):
			b.WriteByte('.')
			b.WriteString(seg)
		default:
			fmt.Fprintf(&b, "[%q]", seg)
		}
	}

	return b.String()
}

// ParsePath parses the textual form produced by Path.String, e.g.
// `Components.classes["foo.bar"].createInstance()`.
func ParsePath(s string) (Path, error) {
	var (
		out Path
		cur strings.Builder
	)

	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '.':
			if cur.Len() == 0 && (i == 0 || s[i-1] != ')' && s[i-1] != ']') {
				return nil, fmt.Errorf("empty segment at offset %d in %q", i, s)
			}

			flush()
		case '(':
			if i+1 >= len(s) || s[i+1] != ')' {
				return nil, fmt.Errorf("unbalanced call marker at offset %d in %q", i, s)
			}

			flush()
			out = append(out, CallSegment)
			i++
		case '[':
			flush()

			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated bracket at offset %d in %q", i, s)
			}

			seg := strings.TrimSpace(s[i+1 : i+end])
			if len(seg) >= 2 && (seg[0] == '"' || seg[0] == '\'') && seg[len(seg)-1] == seg[0] {
				seg = seg[1 : len(seg)-1]
			}

			out = append(out, seg)
			i += end
		default:
			cur.WriteByte(c)
		}
	}

	flush()

	if len(out) == 0 {
		return nil, fmt.Errorf("empty path %q", s)
	}

	return out, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}

	return true
}
