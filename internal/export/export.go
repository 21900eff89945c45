// Package export renders a model's attribute map into report formats: CSV
// for spreadsheets, Markdown for documentation, JSON-LD for semantic
// tooling. Writers go through a billy.Filesystem so callers pick the backing
// store (OS filesystem in the CLI, memfs in tests).
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/agentic-research/descry/api"
	"github.com/agentic-research/descry/internal/model"
	"github.com/agentic-research/descry/internal/tree"
	"github.com/go-git/go-billy/v5"
)

// Records flattens a model into wire records, one per (address, source), in
// the model's insertion order.
func Records(m *model.Model) []api.Record {
	out := make([]api.Record, 0, m.Len())
	for _, d := range m.Descriptors() {
		rec := api.Record{
			Path:            d.Address.String(),
			Source:          d.Source,
			DescriptiveType: d.DescriptiveType,
			Description:     d.Description,
			Regex:           d.Regex,
			Default:         d.Default,
			Examples:        append([]any(nil), d.Examples...),
			Extra:           d.Extra,
		}
		for _, k := range d.FoundTypes {
			rec.FoundTypes = append(rec.FoundTypes, k.String())
		}
		if d.Unique != nil {
			u := *d.Unique
			rec.Unique = &u
		}
		out = append(out, rec)
	}
	return out
}

// WriteCSV writes the tabular projection, one row per (path, source).
func WriteCSV(fs billy.Filesystem, path string, m *model.Model) (err error) {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	columns, rows := m.Table()
	if err := w.Write(append([]string{"source"}, columns...)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, source := range m.Sources() {
		for _, row := range rows[source] {
			if err := w.Write(append([]string{source}, row...)); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	w.Flush()
	return w.Error()
}

// WriteMarkdown writes a human-readable schema table.
func WriteMarkdown(fs billy.Filesystem, path string, m *model.Model) (err error) {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err := fmt.Fprintf(f, "# %s\n\n", m.Name); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(f, "| path | source | foundType | descriptiveType | description |"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(f, "| --- | --- | --- | --- | --- |"); err != nil {
		return err
	}
	for _, rec := range Records(m) {
		foundTypes := ""
		for i, ft := range rec.FoundTypes {
			if i > 0 {
				foundTypes += ","
			}
			foundTypes += ft
		}
		if _, err := fmt.Fprintf(f, "| %s | %s | %s | %s | %s |\n",
			rec.Path, rec.Source, foundTypes, rec.DescriptiveType, rec.Description); err != nil {
			return err
		}
	}
	return nil
}

// TreeRecords flattens an enriched tree into wire records, one per node in
// walk order. Leaf records carry the node's value; nodes an apply left
// without metadata produce a bare structural record.
func TreeRecords(t *tree.Tree) []api.Record {
	var out []api.Record
	t.Walk(func(n *tree.Node) {
		rec := api.Record{
			Path:       n.Address.String(),
			Source:     t.Source,
			FoundTypes: []string{n.FoundType.String()},
		}
		if n.Leaf() {
			rec.Value = n.Value
		}
		if n.Meta != nil {
			rec.DescriptiveType = n.Meta.DescriptiveType
			rec.Description = n.Meta.Description
			rec.Regex = n.Meta.Regex
			rec.Default = n.Meta.Default
			rec.Examples = append([]any(nil), n.Meta.Example...)
			if n.Meta.Unique != nil {
				u := *n.Meta.Unique
				rec.Unique = &u
			}
		}
		out = append(out, rec)
	})
	return out
}

// WriteTreeJSONLD writes an enriched tree as a JSON-LD frame, one record per
// node.
func WriteTreeJSONLD(fs billy.Filesystem, path string, t *tree.Tree) (err error) {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	frame := api.Frame{
		Context: api.DefaultContext(),
		Name:    t.Source,
		Records: TreeRecords(t),
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(frame); err != nil {
		return fmt.Errorf("encode json-ld frame: %w", err)
	}
	return nil
}

// WriteJSONLD writes the model as a JSON-LD frame with the default context.
func WriteJSONLD(fs billy.Filesystem, path string, m *model.Model) (err error) {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	frame := api.Frame{
		Context: api.DefaultContext(),
		Name:    m.Name,
		Records: Records(m),
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(frame); err != nil {
		return fmt.Errorf("encode json-ld frame: %w", err)
	}
	return nil
}
