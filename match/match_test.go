package match_test

import (
	"sort"
	"testing"

	"github.com/b-clawson/pms-finder/colorutils"
	"github.com/b-clawson/pms-finder/match"
	"github.com/b-clawson/pms-finder/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color string

func (c color) ComparisonHex() (string, bool) {
	return colorutils.NormalizeHex(string(c))
}

func TestRank(t *testing.T) {
	t.Parallel()

	pool := []color{"#0000FF", "#FF0000", "bogus", "#FE0000", "#00FF00", "#FF0000"}
	red := colorutils.RGB{R: 255}

	tests := map[string]struct {
		limit int
		want  []color
	}{
		"top two":         {limit: 2, want: []color{"#FF0000", "#FF0000"}},
		"ties keep order": {limit: 3, want: []color{"#FF0000", "#FF0000", "#FE0000"}},
		"limit past pool": {limit: 50, want: []color{"#FF0000", "#FF0000", "#FE0000", "#0000FF", "#00FF00"}},
		"zero limit":      {limit: 0, want: []color{}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := match.Rank(red, pool, tt.limit)
			items := make([]color, 0, len(got))
			for _, s := range got {
				items = append(items, s.Item)
			}
			assert.Equal(t, tt.want, items)
			assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool { return got[i].Distance < got[j].Distance }))
		})
	}
}

func TestRankStableOnTies(t *testing.T) {
	t.Parallel()

	a := schema.Swatch{Code: "a", Hex: "#FF0000"}
	b := schema.Swatch{Code: "b", Hex: "#00FF00"}
	c := schema.Swatch{Code: "c", Hex: "#0000FF"}

	got, ok := match.RankHex("#000000", []schema.Swatch{c, a, b}, 3)
	require.True(t, ok)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{got[0].Item.Code, got[1].Item.Code, got[2].Item.Code})
	assert.Equal(t, 255.0, got[0].Distance)
}

func TestRankExcludesUnrankableFormulas(t *testing.T) {
	t.Parallel()

	pool := []schema.Formula{
		{Code: "gray", ResolvedHex: schema.HexPtr("#888888")},
		{Code: "none"},
		{Code: "near", ResolvedHex: schema.HexPtr("#123456")},
		{Code: "far", ResolvedHex: schema.HexPtr("#FFFFFF")},
	}

	got, ok := match.RankHex("123457", pool, 10)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "near", got[0].Item.Code)
	assert.Equal(t, 1.0, got[0].Distance)
	assert.Equal(t, "far", got[1].Item.Code)

	_, ok = match.RankHex("#12", pool, 10)
	assert.False(t, ok)
}

func TestRankRoundsDistance(t *testing.T) {
	t.Parallel()

	got := match.Rank(colorutils.RGB{}, []color{"#010101"}, 1)
	require.Len(t, got, 1)
	assert.Equal(t, 1.73, got[0].Distance)
}
