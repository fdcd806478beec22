package universe

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestCellOf(t *testing.T) {
	assert.Equal(t, Cell{X: 0, Y: 0}, CellOf(Pt(0, 0)))
	assert.Equal(t, Cell{X: 0, Y: 0}, CellOf(Pt(29.99, 29.99)))
	assert.Equal(t, Cell{X: 1, Y: 0}, CellOf(Pt(30, 0)))
	assert.Equal(t, Cell{X: -1, Y: -1}, CellOf(Pt(-0.5, -29.9)), "floor, not truncation")
	assert.Equal(t, Cell{X: -2, Y: 3}, CellOf(Pt(-31, 95)))
}

func TestSpatialGrid_Insert(t *testing.T) {
	g := NewSpatialGrid()
	a := starAt(t, "A", 1, 1)
	b := starAt(t, "B", 2, 2)
	c := starAt(t, "C", -40, 100)

	g.Insert(a)
	g.Insert(b)
	g.Insert(c)
	g.Insert(a)
	g.Insert(nil)

	assert.Equal(t, 3, g.Len())
	assert.Equal(t, 2, g.CellCount())
	assert.ElementsMatch(t, []*Star{a, b}, g.StarsInCell(Cell{X: 0, Y: 0}))
	assert.Equal(t, []*Star{c}, g.StarsInCell(Cell{X: -2, Y: 3}))
}

func TestSpatialGrid_Within(t *testing.T) {
	origin := starAt(t, "ORIGIN", 10, 10)
	near := starAt(t, "NEAR", 25, 10)
	edge := starAt(t, "EDGE", 40, 10)
	far := starAt(t, "FAR", 41, 10)
	g := NewSpatialGridFrom([]*Star{origin, near, edge, far})

	assert.Equal(t, []string{"ORIGIN", "NEAR", "EDGE"}, g.NearbyStarIDs(origin, 30))
	assert.Equal(t, []string{"ORIGIN"}, g.NearbyStarIDs(origin, 0))
	assert.Empty(t, g.Within(origin.Position(), -1))
	assert.Len(t, g.Within(Pt(0, 0), 1e9), 4)
}

func TestSpatialGrid_WithinAcrossNegativeCells(t *testing.T) {
	a := starAt(t, "A", -1, -1)
	b := starAt(t, "B", 1, 1)
	g := NewSpatialGridFrom([]*Star{a, b})
	assert.Equal(t, []string{"A", "B"}, g.NearbyStarIDs(a, 3))
}

func bruteForce(stars []*Star, origin SpatialPoint, radius float64) []string {
	var ids []string
	for _, s := range stars {
		if origin.DistanceTo(s.Position()) <= radius {
			ids = append(ids, s.ID())
		}
	}
	sort.Strings(ids)
	return ids
}

func TestPropertyGridMatchesBruteForce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 60).Draw(t, "n")
		stars := make([]*Star, n)
		for i := range stars {
			s, err := NewStar(StarParams{
				ID:            fmt.Sprintf("S%03d", i),
				X:             rapid.Float64Range(-500, 500).Draw(t, fmt.Sprintf("x%d", i)),
				Y:             rapid.Float64Range(-500, 500).Draw(t, fmt.Sprintf("y%d", i)),
				SpectralClass: SpectralG,
			})
			if err != nil {
				t.Fatalf("building star: %v", err)
			}
			stars[i] = s
		}
		g := NewSpatialGridFrom(stars)
		origin := stars[rapid.IntRange(0, n-1).Draw(t, "origin")]
		radius := rapid.Float64Range(0, 250).Draw(t, "radius")

		got := g.NearbyStarIDs(origin, radius)
		sort.Strings(got)
		assert.Equal(t, bruteForce(stars, origin.Position(), radius), got)
		assert.Contains(t, got, origin.ID())
	})
}

func TestPropertyGridResultsSortedByDistance(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var stars []*Star
		for i := 0; i < 20; i++ {
			s, err := NewStar(StarParams{
				ID:            fmt.Sprintf("S%02d", i),
				X:             rapid.Float64Range(-100, 100).Draw(t, fmt.Sprintf("x%d", i)),
				Y:             rapid.Float64Range(-100, 100).Draw(t, fmt.Sprintf("y%d", i)),
				SpectralClass: SpectralM,
			})
			if err != nil {
				t.Fatalf("building star: %v", err)
			}
			stars = append(stars, s)
		}
		g := NewSpatialGridFrom(stars)
		origin := Pt(rapid.Float64Range(-100, 100).Draw(t, "ox"), rapid.Float64Range(-100, 100).Draw(t, "oy"))
		found := g.Within(origin, 60)
		for i := 1; i < len(found); i++ {
			assert.LessOrEqual(t, origin.DistanceTo(found[i-1].Position()), origin.DistanceTo(found[i].Position()))
		}
	})
}
