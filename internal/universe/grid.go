package universe

import (
	"math"
	"sort"
)

// CellSize is the side length of a grid cell in light-years. It is fixed for
// every query; large radii simply visit more cells.
const CellSize = 30.0

// Cell identifies one square of the spatial grid.
type Cell struct {
	X int
	Y int
}

// CellOf returns the cell containing p, using floor division so negative
// coordinates land in negative cells.
func CellOf(p SpatialPoint) Cell {
	return Cell{
		X: int(math.Floor(p.X / CellSize)),
		Y: int(math.Floor(p.Y / CellSize)),
	}
}

// SpatialGrid buckets stars into fixed-size cells so that proximity queries
// scale with local density rather than with the size of the catalog. The grid
// has no removal; it is rebuilt wholesale whenever the catalog reloads.
//
// A SpatialGrid is not safe for concurrent mutation. Once populated it may be
// queried from any number of goroutines.
type SpatialGrid struct {
	cells map[Cell][]*Star
	count int
}

// NewSpatialGrid returns an empty grid.
func NewSpatialGrid() *SpatialGrid {
	return &SpatialGrid{cells: make(map[Cell][]*Star)}
}

// NewSpatialGridFrom builds a grid holding every star in stars.
func NewSpatialGridFrom(stars []*Star) *SpatialGrid {
	g := NewSpatialGrid()
	for _, s := range stars {
		g.Insert(s)
	}
	return g
}

// Insert adds star to the cell implied by its coordinates. Inserting the same
// star twice is a no-op.
//
// Postcondition: star appears in exactly one cell.
func (g *SpatialGrid) Insert(star *Star) {
	if star == nil {
		return
	}
	c := CellOf(star.Position())
	for _, existing := range g.cells[c] {
		if existing == star {
			return
		}
	}
	g.cells[c] = append(g.cells[c], star)
	g.count++
}

// Len returns the number of stars in the grid.
func (g *SpatialGrid) Len() int { return g.count }

// CellCount returns the number of non-empty cells.
func (g *SpatialGrid) CellCount() int { return len(g.cells) }

// StarsInCell returns the stars bucketed in c.
func (g *SpatialGrid) StarsInCell(c Cell) []*Star {
	return g.cells[c]
}

// Within returns every star whose distance to origin is at most radius,
// ordered by distance and then by ID.
//
// The scan covers ceil(radius/CellSize) cells in each direction around the
// origin's cell, then filters candidates by exact distance. When that window
// is larger than the set of occupied cells, the occupied cells are scanned
// instead.
func (g *SpatialGrid) Within(origin SpatialPoint, radius float64) []*Star {
	if radius < 0 || math.IsNaN(radius) {
		return nil
	}
	var found []*Star
	dist := make(map[*Star]float64)
	collect := func(bucket []*Star) {
		for _, s := range bucket {
			d := origin.DistanceTo(s.Position())
			if d <= radius {
				found = append(found, s)
				dist[s] = d
			}
		}
	}

	reach := math.Ceil(radius / CellSize)
	if span := 2*reach + 1; span*span > float64(len(g.cells)) {
		// The window holds more cells than exist; walk the occupied ones.
		for _, bucket := range g.cells {
			collect(bucket)
		}
	} else {
		r := int(reach)
		center := CellOf(origin)
		for x := center.X - r; x <= center.X+r; x++ {
			for y := center.Y - r; y <= center.Y+r; y++ {
				collect(g.cells[Cell{X: x, Y: y}])
			}
		}
	}
	sort.Slice(found, func(i, j int) bool {
		di, dj := dist[found[i]], dist[found[j]]
		if di != dj {
			return di < dj
		}
		return found[i].ID() < found[j].ID()
	})
	return found
}

// NearbyStarIDs returns the identifiers of all stars within radius light-years
// of star, including star itself.
func (g *SpatialGrid) NearbyStarIDs(star *Star, radius float64) []string {
	stars := g.Within(star.Position(), radius)
	ids := make([]string, len(stars))
	for i, s := range stars {
		ids[i] = s.ID()
	}
	return ids
}
