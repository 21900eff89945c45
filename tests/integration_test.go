package tests

import (
	"path/filepath"
	"testing"

	"github.com/agentic-research/descry/internal/address"
	"github.com/agentic-research/descry/internal/curate"
	"github.com/agentic-research/descry/internal/export"
	"github.com/agentic-research/descry/internal/filter"
	"github.com/agentic-research/descry/internal/model"
	"github.com/agentic-research/descry/internal/snapshot"
	"github.com/agentic-research/descry/internal/tree"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two snapshots of the same conceptual export, taken at different times: the
// second one grew a list where the first had a single object, and one field
// drifted from number to string.
const exportJanuary = `
{
  "account": {"id": 41, "url": "https://example.org/u/41"},
  "sessions": [
    {"ip": "10.0.0.1", "active": true}
  ]
}
`

const exportJune = `
{
  "account": {"id": "41-b", "url": "https://example.org/u/41b"},
  "sessions": [
    {"ip": "10.0.0.2", "active": false},
    {"ip": "10.0.0.3", "active": true}
  ]
}
`

const curationDoc = `
attribute "$.account.url" {
  descriptive_type = "https://schema.org/URL"
  description      = "Account profile URL."
}
`

func TestPipeline(t *testing.T) {
	jan, err := tree.Parse([]byte(exportJanuary), "january.json")
	require.NoError(t, err)
	jun, err := tree.Parse([]byte(exportJune), "june.json")
	require.NoError(t, err)

	// Infer from both snapshots.
	m := model.New("provider-export")
	m.AddTree(jan).AddTree(jun)

	// Drifted field: number in January, string in June, unioned per address.
	combined := m.Combined(address.MustParse("$.account.id"))
	require.NotNil(t, combined)
	assert.ElementsMatch(t, []tree.Kind{tree.KindNumber, tree.KindString}, combined.FoundTypes)

	// Sessions grew: the June evidence makes the position non-unique.
	sessions := m.Combined(address.MustParse("$.sessions[*]"))
	require.NotNil(t, sessions.Unique)
	assert.False(t, *sessions.Unique)

	// Curate, snapshot, and reload.
	f, err := curate.ParseFile("curation.hcl", []byte(curationDoc))
	require.NoError(t, err)
	require.NoError(t, curate.Apply(m, f))

	dbPath := filepath.Join(t.TempDir(), "model.db")
	require.NoError(t, snapshot.Export(m, dbPath))
	loaded, err := snapshot.Load(dbPath)
	require.NoError(t, err)
	assert.Equal(t, m.Descriptors(), loaded.Descriptors())

	// Select the curated URL descriptors.
	urls := filter.New(
		filter.Where(filter.FieldDescriptiveType, filter.OpExact, "https://schema.org/URL"),
	).Apply(loaded)
	require.Equal(t, 2, urls.Len())
	for _, d := range urls.Descriptors() {
		assert.Equal(t, "$.account.url", d.Address.String())
	}

	// Apply the reloaded model to a brand-new export.
	fresh, err := tree.Parse([]byte(`{"account": {"id": 99, "url": "https://example.org/u/99"}, "sessions": []}`), "fresh.json")
	require.NoError(t, err)
	report := loaded.Apply(fresh)
	assert.Empty(t, report.Mismatches)

	urlNodes, err := fresh.Query("$.account.url")
	require.NoError(t, err)
	require.Len(t, urlNodes, 1)
	require.NotNil(t, urlNodes[0].Meta)
	assert.Equal(t, "https://schema.org/URL", urlNodes[0].Meta.DescriptiveType)
	assert.Equal(t, "Account profile URL.", urlNodes[0].Meta.Description)

	// And export the filtered view as a report.
	fs := memfs.New()
	require.NoError(t, export.WriteMarkdown(fs, "schema.md", urls))
	info, err := fs.Stat("schema.md")
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestDriftIsReportedNotFatal(t *testing.T) {
	jan, err := tree.Parse([]byte(exportJanuary), "january.json")
	require.NoError(t, err)
	m := model.FromTree(jan)

	jun, err := tree.Parse([]byte(exportJune), "june.json")
	require.NoError(t, err)
	report := m.Apply(jun)

	// $.account.id drifted to string; everything else still enriches.
	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, "$.account.id", report.Mismatches[0].Address.String())
	assert.Equal(t, tree.KindString, report.Mismatches[0].Found)
	assert.Equal(t, jun.Len(), report.Enriched+report.Unmatched)
}
