package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	cases := []string{
		"$",
		"$.a",
		"$.a.b.c",
		"$.a[0]",
		"$.a[12].b",
		"$.a[*].b",
		"$.a.*",
		"$[0][1]",
		"$.users[*].name",
	}
	for _, tc := range cases {
		t.Run(tc, func(t *testing.T) {
			a, err := Parse(tc)
			require.NoError(t, err)
			assert.Equal(t, tc, a.String())

			again, err := Parse(a.String())
			require.NoError(t, err)
			assert.True(t, a.Equal(again))
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"",
		"a.b",
		"$.",
		"$..a",
		"$.a[",
		"$.a[x]",
		"$.a[-1]",
		"$.a]b",
	}
	for _, tc := range cases {
		t.Run(tc, func(t *testing.T) {
			_, err := Parse(tc)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedPath)
		})
	}
}

func TestNormalize(t *testing.T) {
	a := MustParse("$.a[3].b[0].c")
	assert.Equal(t, "$.a[*].b[*].c", a.Normalize().String())

	// Keys are never wildcarded, and normalizing is idempotent.
	n := MustParse("$.a[*].b").Normalize()
	assert.Equal(t, "$.a[*].b", n.String())
}

func TestEqualWildcardStyles(t *testing.T) {
	bracket := MustParse("$.a[*]")
	dot := MustParse("$.a.*")
	assert.True(t, bracket.Equal(dot))
	assert.NotEqual(t, bracket.String(), dot.String())
}

func TestCanonical(t *testing.T) {
	bracket := MustParse("$.a[*].b")
	dot := MustParse("$.a.*.b")
	assert.Equal(t, "$.a[*].b", bracket.Canonical())
	assert.Equal(t, bracket.Canonical(), dot.Canonical())

	// Literal segments render unchanged; String keeps the surface style.
	assert.Equal(t, "$.a[3].b", MustParse("$.a[3].b").Canonical())
	assert.Equal(t, "$.a.*.b", dot.String())
}

func TestMatches(t *testing.T) {
	pattern := MustParse("$.a[*].x")
	assert.True(t, pattern.Matches(MustParse("$.a[0].x")))
	assert.True(t, pattern.Matches(MustParse("$.a[7].x")))
	assert.False(t, pattern.Matches(MustParse("$.a[0].y")))
	assert.False(t, pattern.Matches(MustParse("$.a[0]")))
	assert.False(t, pattern.Matches(MustParse("$.a[0].x.y")))

	// A dot wildcard also matches keys.
	keyPattern := MustParse("$.meta.*")
	assert.True(t, keyPattern.Matches(MustParse("$.meta.version")))
	assert.False(t, keyPattern.Matches(MustParse("$.other.version")))
}

func TestChildDoesNotAlias(t *testing.T) {
	base := MustParse("$.a")
	c1 := base.Child(Key("b"))
	c2 := base.Child(Key("c"))
	assert.Equal(t, "$.a.b", c1.String())
	assert.Equal(t, "$.a.c", c2.String())
	assert.Equal(t, "$.a", base.String())
}
