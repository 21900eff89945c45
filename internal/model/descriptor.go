package model

import (
	"github.com/agentic-research/descry/internal/address"
	"github.com/agentic-research/descry/internal/tree"
)

// maxExamples caps the sampled values kept per descriptor.
const maxExamples = 5

// Descriptor records everything observed and curated at one normalized
// address for one contributing source. The semantic fields (DescriptiveType,
// Description, Default, Regex) start unset and are filled by curation; the
// structural fields (FoundTypes, Unique, Examples) accumulate evidence during
// inference.
type Descriptor struct {
	Address address.Address // normalized: every index segment wildcarded
	Source  string
	Sources []string // contributing tree identifiers; a union view lists several

	FoundTypes []tree.Kind // observed runtime categories, sorted, unique

	DescriptiveType string
	Description     string
	Regex           string
	Default         any
	Unique          *bool // tri-state: nil until evidence exists

	Examples []any // bounded, deduplicated, insertion order

	// Extra carries forward-compatible custom annotations that are not part
	// of the known field set.
	Extra map[string]string
}

// HasFoundType reports whether k was observed at this address.
func (d *Descriptor) HasFoundType(k tree.Kind) bool {
	for _, ft := range d.FoundTypes {
		if ft == k {
			return true
		}
	}
	return false
}

func (d *Descriptor) addFoundType(k tree.Kind) {
	if d.HasFoundType(k) {
		return
	}
	i := 0
	for i < len(d.FoundTypes) && d.FoundTypes[i] < k {
		i++
	}
	d.FoundTypes = append(d.FoundTypes, 0)
	copy(d.FoundTypes[i+1:], d.FoundTypes[i:])
	d.FoundTypes[i] = k
}

func (d *Descriptor) addExample(v any) {
	if v == nil || len(d.Examples) >= maxExamples {
		return
	}
	for _, e := range d.Examples {
		if e == v {
			return
		}
	}
	d.Examples = append(d.Examples, v)
}

// observeUnique folds one piece of uniqueness evidence in. False dominates
// true: a position observed inside a multi-element collection even once stays
// non-unique.
func (d *Descriptor) observeUnique(single bool) {
	if d.Unique != nil && !*d.Unique {
		return
	}
	u := single
	d.Unique = &u
}

func (d *Descriptor) addSource(name string) {
	for _, s := range d.Sources {
		if s == name {
			return
		}
	}
	d.Sources = append(d.Sources, name)
}

// Clone returns a deep copy; descriptor views handed out by Select and
// Combined never alias the model's own records.
func (d *Descriptor) Clone() *Descriptor {
	out := *d
	out.Sources = append([]string(nil), d.Sources...)
	out.FoundTypes = append([]tree.Kind(nil), d.FoundTypes...)
	out.Examples = append([]any(nil), d.Examples...)
	if d.Unique != nil {
		u := *d.Unique
		out.Unique = &u
	}
	if d.Extra != nil {
		out.Extra = make(map[string]string, len(d.Extra))
		for k, v := range d.Extra {
			out.Extra[k] = v
		}
	}
	return &out
}
