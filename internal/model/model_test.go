package model

import (
	"testing"

	"github.com/agentic-research/descry/internal/address"
	"github.com/agentic-research/descry/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTree(t *testing.T, doc, source string) *tree.Tree {
	t.Helper()
	tr, err := tree.Parse([]byte(doc), source)
	require.NoError(t, err)
	return tr
}

func TestInferenceCollapsesIndices(t *testing.T) {
	tr := mustTree(t, `{"a": [{"x": 1}, {"x": 2}, {"x": 3}]}`, "a.json")
	m := FromTree(tr)

	d, ok := m.Get(address.MustParse("$.a[*].x"), "a.json")
	require.True(t, ok)
	assert.Equal(t, []tree.Kind{tree.KindNumber}, d.FoundTypes)
	assert.Equal(t, []any{float64(1), float64(2), float64(3)}, d.Examples)

	// Three list elements collapse onto one normalized record.
	var paths []string
	for _, p := range m.Paths() {
		paths = append(paths, p.String())
	}
	assert.Equal(t, []string{"$", "$.a", "$.a[*]", "$.a[*].x"}, paths)
}

func TestExamplesCappedAndDeduplicated(t *testing.T) {
	tr := mustTree(t, `{"a": [1, 2, 2, 3, 4, 5, 6, 7]}`, "a.json")
	m := FromTree(tr)

	d, ok := m.Get(address.MustParse("$.a[*]"), "a.json")
	require.True(t, ok)
	assert.Equal(t, []any{float64(1), float64(2), float64(3), float64(4), float64(5)}, d.Examples)
}

func TestUniquenessInference(t *testing.T) {
	single := mustTree(t, `{"a": {"b": 1}}`, "one.json")
	many := mustTree(t, `{"a": [{"b": 1}, {"b": 2}]}`, "two.json")

	m := New("uniq")
	m.AddTree(single).AddTree(many)

	// Object key position: exactly one child per occurrence.
	d1, ok := m.Get(address.MustParse("$.a.b"), "one.json")
	require.True(t, ok)
	require.NotNil(t, d1.Unique)
	assert.True(t, *d1.Unique)

	// Array evidence dominates: two elements means non-unique.
	d2, ok := m.Get(address.MustParse("$.a[*]"), "two.json")
	require.True(t, ok)
	require.NotNil(t, d2.Unique)
	assert.False(t, *d2.Unique)

	// Positions nested inside the two-element list inherit its multiplicity:
	// two concrete nodes collapsed onto this normalized address.
	d3, ok := m.Get(address.MustParse("$.a[*].b"), "two.json")
	require.True(t, ok)
	require.NotNil(t, d3.Unique)
	assert.False(t, *d3.Unique)
}

func TestNestedUniquenessUnderSingleElementList(t *testing.T) {
	tr := mustTree(t, `{"a": [{"b": 1}], "c": [{"d": 1}, {"d": 2}]}`, "doc.json")
	m := FromTree(tr)

	// One element: everything beneath it occurred exactly once.
	d, ok := m.Get(address.MustParse("$.a[*].b"), "doc.json")
	require.True(t, ok)
	require.NotNil(t, d.Unique)
	assert.True(t, *d.Unique)

	// Deep nesting under a multi-element list stays non-unique.
	d, ok = m.Get(address.MustParse("$.c[*].d"), "doc.json")
	require.True(t, ok)
	require.NotNil(t, d.Unique)
	assert.False(t, *d.Unique)
}

func TestWildcardStylesShareDescriptors(t *testing.T) {
	m := FromTree(mustTree(t, `{"a": [{"b": 1}]}`, "doc.json"))

	bracket := address.MustParse("$.a[*].b")
	dot := address.MustParse("$.a.*.b")

	d1, ok := m.Get(bracket, "doc.json")
	require.True(t, ok)
	d2, ok := m.Get(dot, "doc.json")
	require.True(t, ok)
	assert.Same(t, d1, d2)

	// Curation through either style lands on the same record.
	desc := "curated through the dot style"
	require.NoError(t, m.SetAttributes(dot, "doc.json", Attrs{Description: &desc}))
	assert.Equal(t, desc, d1.Description)
}

func TestFalseDominatesAcrossTrees(t *testing.T) {
	one := mustTree(t, `{"a": [1]}`, "s")
	many := mustTree(t, `{"a": [1, 2]}`, "s")

	m := New("dom")
	m.AddTree(one)
	d, _ := m.Get(address.MustParse("$.a[*]"), "s")
	require.NotNil(t, d.Unique)
	assert.True(t, *d.Unique)

	m.AddTree(many)
	d, _ = m.Get(address.MustParse("$.a[*]"), "s")
	assert.False(t, *d.Unique)

	// Later single-element evidence cannot flip it back.
	m.AddTree(one)
	d, _ = m.Get(address.MustParse("$.a[*]"), "s")
	assert.False(t, *d.Unique)
}

func TestMergeIsSourceScopedAndAppendOnly(t *testing.T) {
	a := mustTree(t, `{"x": "s"}`, "a.json")
	b := mustTree(t, `{"x": null}`, "b.json")

	m := FromTree(a)
	m.AddTree(b)

	da, ok := m.Get(address.MustParse("$.x"), "a.json")
	require.True(t, ok)
	assert.Equal(t, []tree.Kind{tree.KindString}, da.FoundTypes)

	db, ok := m.Get(address.MustParse("$.x"), "b.json")
	require.True(t, ok)
	assert.Equal(t, []tree.Kind{tree.KindNull}, db.FoundTypes)

	combined := m.Combined(address.MustParse("$.x"))
	require.NotNil(t, combined)
	assert.Equal(t, []tree.Kind{tree.KindNull, tree.KindString}, combined.FoundTypes)
	assert.ElementsMatch(t, []string{"a.json", "b.json"}, combined.Sources)
}

func TestMergeCommutativity(t *testing.T) {
	docA := `{"x": "s", "l": [1, 2]}`
	docB := `{"x": null, "l": [3]}`

	ab := New("m")
	ab.AddTree(mustTree(t, docA, "a")).AddTree(mustTree(t, docB, "b"))
	ba := New("m")
	ba.AddTree(mustTree(t, docB, "b")).AddTree(mustTree(t, docA, "a"))

	for _, p := range ab.Paths() {
		ca := ab.Combined(p)
		cb := ba.Combined(p)
		require.NotNil(t, cb, p.String())
		assert.Equal(t, ca.FoundTypes, cb.FoundTypes, p.String())
		assert.ElementsMatch(t, ca.Examples, cb.Examples, p.String())
		assert.Equal(t, ca.Unique, cb.Unique, p.String())
	}
}

func TestSetAttributes(t *testing.T) {
	m := FromTree(mustTree(t, `{"url": "https://example.org"}`, "doc.json"))

	dt := "https://schema.org/URL"
	desc := "Public URL."
	err := m.SetAttributes(address.MustParse("$.url"), "doc.json", Attrs{
		DescriptiveType: &dt,
		Description:     &desc,
		Extra:           map[string]string{"pii": "no"},
	})
	require.NoError(t, err)

	d, _ := m.Get(address.MustParse("$.url"), "doc.json")
	assert.Equal(t, dt, d.DescriptiveType)
	assert.Equal(t, desc, d.Description)
	assert.Equal(t, "no", d.Extra["pii"])
}

func TestSetAttributesUnknownAddress(t *testing.T) {
	m := FromTree(mustTree(t, `{"a": 1}`, "doc.json"))

	dt := "https://schema.org/URL"
	err := m.SetAttributes(address.MustParse("$.never.seen"), "doc.json", Attrs{DescriptiveType: &dt})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownAddress)

	// Known address, wrong source is just as unknown.
	err = m.SetAttributes(address.MustParse("$.a"), "other.json", Attrs{DescriptiveType: &dt})
	assert.ErrorIs(t, err, ErrUnknownAddress)
}

func TestSourcePathsUsesIndex(t *testing.T) {
	m := New("idx")
	m.AddTree(mustTree(t, `{"a": 1}`, "a.json"))
	m.AddTree(mustTree(t, `{"b": 2}`, "b.json"))

	var a []string
	for _, p := range m.SourcePaths("a.json") {
		a = append(a, p.String())
	}
	assert.ElementsMatch(t, []string{"$", "$.a"}, a)
	assert.Nil(t, m.SourcePaths("missing.json"))
}

func TestSelect(t *testing.T) {
	m := FromTree(mustTree(t, `{"a": 1, "b": "x"}`, "doc.json"))
	sub := m.Select(func(d *Descriptor) bool {
		return d.HasFoundType(tree.KindString)
	})
	require.Equal(t, 1, sub.Len())
	assert.Equal(t, "$.b", sub.Descriptors()[0].Address.String())

	// Subset holds clones; mutating it leaves the original untouched.
	sub.Descriptors()[0].Description = "changed"
	orig, _ := m.Get(address.MustParse("$.b"), "doc.json")
	assert.Empty(t, orig.Description)
}

func TestTable(t *testing.T) {
	m := FromTree(mustTree(t, `{"a": [1, 2]}`, "doc.json"))
	columns, rows := m.Table()
	assert.Equal(t, "path", columns[0])
	require.Len(t, rows, 1)
	require.Len(t, rows["doc.json"], 3)
	assert.Equal(t, "$", rows["doc.json"][0][0])
	assert.Equal(t, "$.a[*]", rows["doc.json"][2][0])
	assert.Equal(t, "false", rows["doc.json"][2][3])
	assert.Equal(t, "1,2", rows["doc.json"][2][6])
}
