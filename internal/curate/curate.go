// Package curate applies human-authored annotations to a model from an HCL
// file. Each attribute block targets one normalized address, optionally
// scoped to a single source; unscoped blocks annotate every source that
// observed the address. Curation never invents structure: a block whose
// address was never inferred is an error.
package curate

import (
	"fmt"

	"github.com/agentic-research/descry/internal/address"
	"github.com/agentic-research/descry/internal/model"
	"github.com/hashicorp/hcl/v2/hclsimple"
)

// File is the root of a curation document.
type File struct {
	Attributes []Attribute `hcl:"attribute,block"`
}

// Attribute is one curation block.
type Attribute struct {
	Path            string            `hcl:"path,label"`
	Source          *string           `hcl:"source,optional"`
	DescriptiveType *string           `hcl:"descriptive_type,optional"`
	Description     *string           `hcl:"description,optional"`
	Unique          *bool             `hcl:"unique,optional"`
	Regex           *string           `hcl:"regex,optional"`
	Default         *string           `hcl:"default,optional"`
	Extra           map[string]string `hcl:"extra,optional"`
}

// ParseFile decodes curation HCL. The filename is only used in diagnostics.
func ParseFile(filename string, data []byte) (*File, error) {
	var f File
	if err := hclsimple.Decode(filename, data, nil, &f); err != nil {
		return nil, fmt.Errorf("parse curation %s: %w", filename, err)
	}
	return &f, nil
}

// Apply folds every attribute block into m via SetAttributes. The first
// failing block aborts: partial curation of a bad file is worse than none.
func Apply(m *model.Model, f *File) error {
	for _, attr := range f.Attributes {
		addr, err := address.Parse(attr.Path)
		if err != nil {
			return fmt.Errorf("curation block %q: %w", attr.Path, err)
		}
		attrs := model.Attrs{
			DescriptiveType: attr.DescriptiveType,
			Description:     attr.Description,
			Regex:           attr.Regex,
			Unique:          attr.Unique,
			Extra:           attr.Extra,
		}
		if attr.Default != nil {
			attrs.Default = *attr.Default
		}

		if attr.Source != nil {
			if err := m.SetAttributes(addr, *attr.Source, attrs); err != nil {
				return err
			}
			continue
		}

		applied := false
		for _, source := range m.Sources() {
			if _, ok := m.Get(addr, source); !ok {
				continue
			}
			if err := m.SetAttributes(addr, source, attrs); err != nil {
				return err
			}
			applied = true
		}
		if !applied {
			return fmt.Errorf("%w: %s", model.ErrUnknownAddress, attr.Path)
		}
	}
	return nil
}
