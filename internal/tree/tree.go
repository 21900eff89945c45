// Package tree materializes a JSON document as an addressable node graph.
// Every JSON element becomes one Node carrying its concrete address from the
// root; object key order and list positions are preserved, so child order is
// deterministic given the source document. Trees are immutable after
// construction except for the Meta enrichment slot.
package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/agentic-research/descry/internal/address"
)

// Kind is the runtime category of a node's value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	default:
		return "object"
	}
}

// KindFromString is the inverse of Kind.String. Unknown names map to KindNull.
func KindFromString(s string) Kind {
	switch s {
	case "boolean":
		return KindBool
	case "number":
		return KindNumber
	case "string":
		return KindString
	case "list":
		return KindList
	case "object":
		return KindObject
	default:
		return KindNull
	}
}

// Metadata is the enrichment slot filled when a model is applied. It is nil
// until then.
type Metadata struct {
	DescriptiveType string
	Description     string
	Unique          *bool
	Default         any
	Example         []any
	Regex           string
}

// Node is one element of a tree. Address is concrete (no wildcards) and
// unique within the owning tree. Value is nil for containers.
type Node struct {
	Address   address.Address
	Value     any
	FoundType Kind
	Children  []*Node
	Meta      *Metadata
}

// Leaf reports whether the node holds a scalar (or null) value.
func (n *Node) Leaf() bool {
	return n.FoundType != KindList && n.FoundType != KindObject
}

// child returns the direct child addressed by seg, or nil.
func (n *Node) child(seg address.Segment) *Node {
	for _, c := range n.Children {
		last := c.Address.At(c.Address.Len() - 1)
		if last.Kind == seg.Kind && last.Key == seg.Key && last.Index == seg.Index {
			return c
		}
	}
	return nil
}

// Tree is the root node plus the identifier of the source document it was
// built from.
type Tree struct {
	Source string
	Root   *Node
}

// Parse builds a tree from raw JSON bytes. Decoding goes through the token
// stream so object keys keep their first-seen order.
func Parse(data []byte, source string) (*Tree, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	root, err := parseValue(dec, address.New())
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("parse %s: trailing content after document", source)
	}
	return &Tree{Source: source, Root: root}, nil
}

func parseValue(dec *json.Decoder, addr address.Address) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			n := &Node{Address: addr, FoundType: KindObject}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key := keyTok.(string)
				child, err := parseValue(dec, addr.Child(address.Key(key)))
				if err != nil {
					return nil, err
				}
				n.Children = append(n.Children, child)
			}
			if _, err := dec.Token(); err != nil { // closing '}'
				return nil, err
			}
			return n, nil
		case '[':
			n := &Node{Address: addr, FoundType: KindList}
			for i := 0; dec.More(); i++ {
				child, err := parseValue(dec, addr.Child(address.Index(i)))
				if err != nil {
					return nil, err
				}
				n.Children = append(n.Children, child)
			}
			if _, err := dec.Token(); err != nil { // closing ']'
				return nil, err
			}
			return n, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	default:
		return &Node{Address: addr, Value: tok, FoundType: scalarKind(tok)}, nil
	}
}

// FromValue builds a tree from an already-decoded JSON value, as produced by
// a standard decode into any. Go maps do not retain document order, so object
// children are emitted in sorted key order to keep construction deterministic.
func FromValue(v any, source string) *Tree {
	return &Tree{Source: source, Root: fromValue(v, address.New())}
}

func fromValue(v any, addr address.Address) *Node {
	switch val := v.(type) {
	case map[string]any:
		n := &Node{Address: addr, FoundType: KindObject}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			n.Children = append(n.Children, fromValue(val[k], addr.Child(address.Key(k))))
		}
		return n
	case []any:
		n := &Node{Address: addr, FoundType: KindList}
		for i, item := range val {
			n.Children = append(n.Children, fromValue(item, addr.Child(address.Index(i))))
		}
		return n
	default:
		return &Node{Address: addr, Value: val, FoundType: scalarKind(val)}
	}
}

func scalarKind(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case float64, json.Number, int, int64:
		return KindNumber
	case string:
		return KindString
	default:
		return KindString
	}
}

// GetChildren resolves a possibly-wildcarded address against the tree.
// Literal segments narrow the candidate set, wildcards fan out to all
// children. A pattern that matches nothing yields an empty result, not an
// error. Result order follows parent order, then stored child order.
func (t *Tree) GetChildren(pattern address.Address) []*Node {
	candidates := []*Node{t.Root}
	for i := 0; i < pattern.Len(); i++ {
		seg := pattern.At(i)
		var next []*Node
		for _, c := range candidates {
			if seg.IsWildcard() {
				next = append(next, c.Children...)
				continue
			}
			if child := c.child(seg); child != nil {
				next = append(next, child)
			}
		}
		candidates = next
		if len(candidates) == 0 {
			return nil
		}
	}
	return candidates
}

// Query is GetChildren over the textual pattern form.
func (t *Tree) Query(pattern string) ([]*Node, error) {
	addr, err := address.Parse(pattern)
	if err != nil {
		return nil, err
	}
	return t.GetChildren(addr), nil
}

// Walk visits every node in preorder, parents before children.
func (t *Tree) Walk(fn func(*Node)) {
	var recur func(n *Node)
	recur = func(n *Node) {
		fn(n)
		for _, c := range n.Children {
			recur(c)
		}
	}
	recur(t.Root)
}

// Paths returns every concrete address in traversal order.
func (t *Tree) Paths() []address.Address {
	var out []address.Address
	t.Walk(func(n *Node) {
		out = append(out, n.Address)
	})
	return out
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	count := 0
	t.Walk(func(*Node) { count++ })
	return count
}
