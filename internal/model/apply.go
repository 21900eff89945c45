package model

import (
	"github.com/agentic-research/descry/internal/address"
	"github.com/agentic-research/descry/internal/tree"
)

// TypeMismatch records a node whose runtime type was never observed at its
// descriptor's address. Mismatches are findings, not errors: schema drift
// across real export snapshots is expected and must not block enrichment of
// the rest of the document.
type TypeMismatch struct {
	Address  address.Address
	Found    tree.Kind
	Expected []tree.Kind
}

// ApplyReport summarizes one enrichment walk.
type ApplyReport struct {
	Source     string
	Enriched   int // nodes that received metadata
	Unmatched  int // nodes with no descriptor at their normalized address
	Mismatches []TypeMismatch
}

// Apply projects the model onto every node of t, copying the descriptor's
// semantic fields into the node's metadata slot. Descriptors are looked up by
// (normalized address, t.Source) first, then by the same address under any
// other source, so a model inferred from one export generalizes to another.
//
// Apply never changes values or structure and is idempotent: re-applying the
// same model rewrites identical metadata. The walk always completes; type
// mismatches are collected in the report.
func (m *Model) Apply(t *tree.Tree) *ApplyReport {
	report := &ApplyReport{Source: t.Source}
	t.Walk(func(n *tree.Node) {
		d := m.lookup(n.Address.Normalize(), t.Source)
		if d == nil {
			report.Unmatched++
			return
		}
		meta := &tree.Metadata{
			DescriptiveType: d.DescriptiveType,
			Description:     d.Description,
			Default:         d.Default,
			Regex:           d.Regex,
			Example:         append([]any(nil), d.Examples...),
		}
		if d.Unique != nil {
			u := *d.Unique
			meta.Unique = &u
		}
		n.Meta = meta
		report.Enriched++
		if !d.HasFoundType(n.FoundType) {
			report.Mismatches = append(report.Mismatches, TypeMismatch{
				Address:  n.Address,
				Found:    n.FoundType,
				Expected: append([]tree.Kind(nil), d.FoundTypes...),
			})
		}
	})
	return report
}

// lookup resolves (addr, source) with cross-source fallback: when the exact
// source never contributed, the first descriptor sharing the normalized
// address is used instead.
func (m *Model) lookup(addr address.Address, source string) *Descriptor {
	addrText := addr.Canonical()
	if d, ok := m.byKey[key{addr: addrText, source: source}]; ok {
		return d
	}
	for _, k := range m.order {
		if k.addr == addrText {
			return m.byKey[k]
		}
	}
	return nil
}
