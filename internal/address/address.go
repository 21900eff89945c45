// Package address parses, formats, and matches path addresses over JSON
// trees. An address is an ordered sequence of segments: literal object keys,
// literal list indices, or single-level wildcards. The canonical textual form
// is a root marker followed by `.key`, `[n]`, `[*]`, or `.*` segments.
package address

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedPath reports a textual address that fails to parse.
var ErrMalformedPath = errors.New("malformed path")

// SegmentKind discriminates the segment union.
type SegmentKind uint8

const (
	// KeySegment is a literal object key.
	KeySegment SegmentKind = iota
	// IndexSegment is a literal non-negative list index.
	IndexSegment
	// WildcardIndex is the bracket-style wildcard `[*]`.
	WildcardIndex
	// WildcardKey is the dot-style wildcard `.*`.
	WildcardKey
)

// Segment is one step of an address.
type Segment struct {
	Kind  SegmentKind
	Key   string
	Index int
}

// Key builds a literal key segment.
func Key(k string) Segment { return Segment{Kind: KeySegment, Key: k} }

// Index builds a literal index segment.
func Index(i int) Segment { return Segment{Kind: IndexSegment, Index: i} }

// Wildcard builds a bracket-style wildcard segment.
func Wildcard() Segment { return Segment{Kind: WildcardIndex} }

// IsWildcard reports whether the segment matches any single key or index.
// Both surface styles (`[*]` and `.*`) are wildcards.
func (s Segment) IsWildcard() bool {
	return s.Kind == WildcardIndex || s.Kind == WildcardKey
}

func (s Segment) String() string {
	switch s.Kind {
	case KeySegment:
		return "." + s.Key
	case IndexSegment:
		return "[" + strconv.Itoa(s.Index) + "]"
	case WildcardKey:
		return ".*"
	default:
		return "[*]"
	}
}

// Address is an immutable sequence of segments rooted at `$`.
type Address struct {
	segs []Segment
}

// New builds an address from segments. The empty address is the root.
func New(segs ...Segment) Address {
	return Address{segs: segs}
}

// Parse decodes the canonical textual form. It fails with a wrapped
// ErrMalformedPath on a missing root marker, unbalanced brackets, a
// non-numeric index, or an empty segment.
func Parse(text string) (Address, error) {
	if text == "" || text[0] != '$' {
		return Address{}, fmt.Errorf("%w: missing root marker in %q", ErrMalformedPath, text)
	}
	rest := text[1:]
	var segs []Segment
	for len(rest) > 0 {
		switch rest[0] {
		case '.':
			rest = rest[1:]
			end := strings.IndexAny(rest, ".[")
			if end < 0 {
				end = len(rest)
			}
			key := rest[:end]
			rest = rest[end:]
			if key == "" {
				return Address{}, fmt.Errorf("%w: empty segment in %q", ErrMalformedPath, text)
			}
			if strings.ContainsRune(key, ']') {
				return Address{}, fmt.Errorf("%w: unbalanced bracket in %q", ErrMalformedPath, text)
			}
			if key == "*" {
				segs = append(segs, Segment{Kind: WildcardKey})
			} else {
				segs = append(segs, Key(key))
			}
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return Address{}, fmt.Errorf("%w: unbalanced bracket in %q", ErrMalformedPath, text)
			}
			body := rest[1:end]
			rest = rest[end+1:]
			if body == "*" {
				segs = append(segs, Wildcard())
				continue
			}
			idx, err := strconv.Atoi(body)
			if err != nil || idx < 0 {
				return Address{}, fmt.Errorf("%w: index %q in %q", ErrMalformedPath, body, text)
			}
			segs = append(segs, Index(idx))
		default:
			return Address{}, fmt.Errorf("%w: unexpected %q in %q", ErrMalformedPath, rest[0], text)
		}
	}
	return Address{segs: segs}, nil
}

// MustParse is Parse for known-good literals; it panics on error.
func MustParse(text string) Address {
	a, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return a
}

// String renders the canonical textual form. Parse(a.String()) equals a,
// including the surface style of wildcards.
func (a Address) String() string {
	var b strings.Builder
	b.WriteByte('$')
	for _, s := range a.segs {
		b.WriteString(s.String())
	}
	return b.String()
}

// Canonical renders the address with every wildcard in bracket style, so the
// two surface forms key identically. Addresses that Equal reports as equal
// share one canonical form.
func (a Address) Canonical() string {
	var b strings.Builder
	b.WriteByte('$')
	for _, s := range a.segs {
		if s.Kind == WildcardKey {
			b.WriteString("[*]")
		} else {
			b.WriteString(s.String())
		}
	}
	return b.String()
}

// Len returns the number of segments.
func (a Address) Len() int { return len(a.segs) }

// Segments returns a copy of the segment sequence.
func (a Address) Segments() []Segment {
	out := make([]Segment, len(a.segs))
	copy(out, a.segs)
	return out
}

// At returns the i-th segment.
func (a Address) At(i int) Segment { return a.segs[i] }

// Child returns a new address with seg appended. The receiver is not
// modified; the backing array is never shared with the result.
func (a Address) Child(seg Segment) Address {
	segs := make([]Segment, len(a.segs)+1)
	copy(segs, a.segs)
	segs[len(a.segs)] = seg
	return Address{segs: segs}
}

// Normalize replaces every literal index with the `[*]` wildcard. Keys stay
// untouched: only positions inside arrays are structurally variable.
func (a Address) Normalize() Address {
	segs := make([]Segment, len(a.segs))
	for i, s := range a.segs {
		if s.Kind == IndexSegment {
			segs[i] = Wildcard()
		} else {
			segs[i] = s
		}
	}
	return Address{segs: segs}
}

// Equal reports structural equality: same length, and each segment pair is
// either two wildcards (any style) or two identical literals.
func (a Address) Equal(b Address) bool {
	if len(a.segs) != len(b.segs) {
		return false
	}
	for i, s := range a.segs {
		o := b.segs[i]
		if s.IsWildcard() || o.IsWildcard() {
			if s.IsWildcard() && o.IsWildcard() {
				continue
			}
			return false
		}
		if s.Kind != o.Kind || s.Key != o.Key || s.Index != o.Index {
			return false
		}
	}
	return true
}

// Matches reports whether the receiver, read as a pattern, covers the given
// concrete address: same length, wildcard segments match any single key or
// index, literals must be identical. Matching is segment-local; there is no
// descendant wildcard.
func (a Address) Matches(concrete Address) bool {
	if len(a.segs) != len(concrete.segs) {
		return false
	}
	for i, p := range a.segs {
		c := concrete.segs[i]
		if p.IsWildcard() {
			continue
		}
		if p.Kind != c.Kind || p.Key != c.Key || p.Index != c.Index {
			return false
		}
	}
	return true
}
