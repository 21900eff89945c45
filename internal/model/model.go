// Package model infers a reusable structural schema from one or more trees
// and projects it back onto concrete trees as semantic enrichment.
//
// The attribute map is keyed by (normalized address, source). Merging is
// append-only and source-scoped: adding a second tree never deletes or
// overwrites descriptors contributed by the first, it creates parallel
// records for the new source. A combined view unions the evidence per
// normalized address across sources.
package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/agentic-research/descry/internal/address"
	"github.com/agentic-research/descry/internal/tree"
)

// ErrUnknownAddress reports curation of an address/source pair with no prior
// inference evidence. Curation only annotates observed structure.
var ErrUnknownAddress = errors.New("unknown address")

type key struct {
	addr   string
	source string
}

// Model is a named attribute map built from zero or more trees.
type Model struct {
	Name string

	byKey map[key]*Descriptor
	order []key // insertion order, for deterministic iteration

	// Normalized addresses are interned to uint32 ids; bySource holds a
	// roaring bitmap of the address ids each source contributed. This backs
	// per-source projections without scanning the whole map.
	addrID   map[string]uint32
	addrByID []string
	bySource map[string]*roaring.Bitmap
	sources  []string // first-seen order
}

// New returns an empty model.
func New(name string) *Model {
	return &Model{
		Name:     name,
		byKey:    make(map[key]*Descriptor),
		addrID:   make(map[string]uint32),
		bySource: make(map[string]*roaring.Bitmap),
	}
}

// FromTree builds a model seeded with one tree's evidence.
func FromTree(t *tree.Tree) *Model {
	m := New(t.Source)
	m.AddTree(t)
	return m
}

// AddTree walks every node of t and folds its evidence into the attribute
// map. Repeatable; returns the model for chaining. Calls for one model must
// be serialized by the caller.
func (m *Model) AddTree(t *tree.Tree) *Model {
	m.registerSource(t.Source)
	// A normalized address that more than one concrete node collapses onto
	// sits inside a multi-element collection, and so does everything nested
	// beneath those elements. Count occurrences first, then fold.
	counts := make(map[string]int)
	t.Walk(func(n *tree.Node) {
		counts[n.Address.Normalize().Canonical()]++
	})
	t.Walk(func(n *tree.Node) {
		norm := n.Address.Normalize()
		d := m.descriptor(norm, t.Source)
		d.addFoundType(n.FoundType)
		if n.Leaf() {
			d.addExample(n.Value)
		}
		// The root is not a position inside anything; it carries no
		// uniqueness evidence.
		if norm.Len() > 0 {
			d.observeUnique(counts[norm.Canonical()] == 1)
		}
	})
	return m
}

func (m *Model) registerSource(name string) {
	if _, ok := m.bySource[name]; ok {
		return
	}
	m.bySource[name] = roaring.New()
	m.sources = append(m.sources, name)
}

func (m *Model) internAddr(addrText string) uint32 {
	if id, ok := m.addrID[addrText]; ok {
		return id
	}
	id := uint32(len(m.addrByID))
	m.addrID[addrText] = id
	m.addrByID = append(m.addrByID, addrText)
	return id
}

// descriptor returns the record at (addr, source), creating it on first use.
// Keys use the canonical rendering so both wildcard surface styles resolve to
// the same record.
func (m *Model) descriptor(addr address.Address, source string) *Descriptor {
	k := key{addr: addr.Canonical(), source: source}
	if d, ok := m.byKey[k]; ok {
		return d
	}
	d := &Descriptor{Address: addr, Source: source, Sources: []string{source}}
	m.byKey[k] = d
	m.order = append(m.order, k)
	m.registerSource(source)
	m.bySource[source].Add(m.internAddr(k.addr))
	return d
}

// Get returns the descriptor at (addr, source), if any.
func (m *Model) Get(addr address.Address, source string) (*Descriptor, bool) {
	d, ok := m.byKey[key{addr: addr.Canonical(), source: source}]
	return d, ok
}

// Descriptors returns every record in insertion order.
func (m *Model) Descriptors() []*Descriptor {
	out := make([]*Descriptor, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.byKey[k])
	}
	return out
}

// Len returns the number of (address, source) records.
func (m *Model) Len() int { return len(m.order) }

// Sources returns contributing source names in first-seen order.
func (m *Model) Sources() []string {
	return append([]string(nil), m.sources...)
}

// Paths returns the distinct normalized addresses in first-seen order.
func (m *Model) Paths() []address.Address {
	seen := make(map[string]bool, len(m.order))
	var out []address.Address
	for _, k := range m.order {
		if seen[k.addr] {
			continue
		}
		seen[k.addr] = true
		out = append(out, m.byKey[k].Address)
	}
	return out
}

// SourcePaths returns the normalized addresses one source contributed, using
// the per-source bitmap index.
func (m *Model) SourcePaths(source string) []address.Address {
	bm, ok := m.bySource[source]
	if !ok {
		return nil
	}
	var out []address.Address
	it := bm.Iterator()
	for it.HasNext() {
		addrText := m.addrByID[it.Next()]
		out = append(out, m.byKey[key{addr: addrText, source: source}].Address)
	}
	return out
}

// Combined returns a union view of all sources' evidence at one normalized
// address, or nil when no source observed it. Structural evidence is merged
// (types and examples unioned, false-dominant uniqueness); semantic fields
// take the first curated value in source order.
func (m *Model) Combined(addr address.Address) *Descriptor {
	addrText := addr.Canonical()
	var out *Descriptor
	for _, k := range m.order {
		if k.addr != addrText {
			continue
		}
		d := m.byKey[k]
		if out == nil {
			out = d.Clone()
			out.Source = ""
			continue
		}
		out.addSource(d.Source)
		for _, ft := range d.FoundTypes {
			out.addFoundType(ft)
		}
		for _, e := range d.Examples {
			out.addExample(e)
		}
		if d.Unique != nil {
			out.observeUnique(*d.Unique)
		}
		if out.DescriptiveType == "" {
			out.DescriptiveType = d.DescriptiveType
		}
		if out.Description == "" {
			out.Description = d.Description
		}
		if out.Regex == "" {
			out.Regex = d.Regex
		}
		if out.Default == nil {
			out.Default = d.Default
		}
	}
	return out
}

// Attrs names the curated fields settable on a descriptor. Nil fields are
// left untouched; Default is set only when non-nil.
type Attrs struct {
	DescriptiveType *string
	Description     *string
	Regex           *string
	Default         any
	Unique          *bool
	Extra           map[string]string
}

// SetAttributes overwrites the named semantic fields on the descriptor at
// (addr, source). It fails with ErrUnknownAddress when inference never
// produced a record there: curation cannot invent structure.
func (m *Model) SetAttributes(addr address.Address, source string, attrs Attrs) error {
	d, ok := m.byKey[key{addr: addr.Canonical(), source: source}]
	if !ok {
		return fmt.Errorf("%w: %s (source %q)", ErrUnknownAddress, addr.String(), source)
	}
	if attrs.DescriptiveType != nil {
		d.DescriptiveType = *attrs.DescriptiveType
	}
	if attrs.Description != nil {
		d.Description = *attrs.Description
	}
	if attrs.Regex != nil {
		d.Regex = *attrs.Regex
	}
	if attrs.Default != nil {
		d.Default = attrs.Default
	}
	if attrs.Unique != nil {
		u := *attrs.Unique
		d.Unique = &u
	}
	for k, v := range attrs.Extra {
		if d.Extra == nil {
			d.Extra = make(map[string]string)
		}
		d.Extra[k] = v
	}
	return nil
}

// Restore inserts a descriptor as-is, wiring the index structures. Used by
// snapshot loading; inference should go through AddTree.
func (m *Model) Restore(d *Descriptor) {
	k := key{addr: d.Address.Canonical(), source: d.Source}
	if _, ok := m.byKey[k]; !ok {
		m.order = append(m.order, k)
	}
	m.byKey[k] = d
	m.registerSource(d.Source)
	m.bySource[d.Source].Add(m.internAddr(k.addr))
}

// Select returns a new model holding clones of the descriptors pred accepts,
// in the receiver's order.
func (m *Model) Select(pred func(*Descriptor) bool) *Model {
	out := New(m.Name)
	for _, k := range m.order {
		d := m.byKey[k]
		if pred(d) {
			out.Restore(d.Clone())
		}
	}
	return out
}

// Table projects the attribute map into a tabular form: column names plus
// one row slice per source, used by the report exporters.
func (m *Model) Table() ([]string, map[string][][]string) {
	columns := []string{"path", "foundType", "descriptiveType", "unique", "default", "description", "examples", "regex"}
	rows := make(map[string][][]string, len(m.sources))
	for _, k := range m.order {
		d := m.byKey[k]
		rows[d.Source] = append(rows[d.Source], []string{
			d.Address.String(),
			formatKinds(d.FoundTypes),
			d.DescriptiveType,
			formatUnique(d.Unique),
			formatValue(d.Default),
			d.Description,
			formatExamples(d.Examples),
			d.Regex,
		})
	}
	return columns, rows
}

func formatKinds(kinds []tree.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ",")
}

func formatUnique(u *bool) string {
	if u == nil {
		return ""
	}
	if *u {
		return "true"
	}
	return "false"
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func formatExamples(examples []any) string {
	parts := make([]string, len(examples))
	for i, e := range examples {
		parts[i] = fmt.Sprint(e)
	}
	return strings.Join(parts, ",")
}
