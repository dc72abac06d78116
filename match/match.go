// Package match ranks candidate colors by distance to a target.
package match

import (
	"sort"

	"github.com/b-clawson/pms-finder/colorutils"
)

// Candidate is anything with a color to compare. Candidates reporting false
// are left out of the ranking.
type Candidate interface {
	ComparisonHex() (string, bool)
}

// Scored is a ranked candidate.
type Scored[T Candidate] struct {
	Item     T       `json:"item"`
	Hex      string  `json:"hex"`
	Distance float64 `json:"distance"`
}

// Rank returns at most limit candidates ordered by ascending RGB distance to
// target. Equal distances keep input order. The limit is not clamped;
// callers bound it. A non-positive limit yields an empty result.
func Rank[T Candidate](target colorutils.RGB, pool []T, limit int) []Scored[T] {
	if limit <= 0 {
		return []Scored[T]{}
	}
	scored := make([]Scored[T], 0, len(pool))
	for _, c := range pool {
		hex, ok := c.ComparisonHex()
		if !ok {
			continue
		}
		rgb, ok := colorutils.HexToRGB(hex)
		if !ok {
			continue
		}
		scored = append(scored, Scored[T]{
			Item:     c,
			Hex:      hex,
			Distance: colorutils.Round2(colorutils.RGBDistance(target, rgb)),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Distance < scored[j].Distance
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// RankHex is Rank with a hex target. It reports false for an invalid target.
func RankHex[T Candidate](targetHex string, pool []T, limit int) ([]Scored[T], bool) {
	target, ok := colorutils.HexToRGB(targetHex)
	if !ok {
		return nil, false
	}
	return Rank(target, pool, limit), true
}
