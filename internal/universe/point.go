// Package universe models the interstellar map: stars on a 2-D plane, the
// locations inside a star system, the travel rules between them, and the
// spatial index used for proximity queries.
package universe

import "math"

// SpatialPoint is an immutable planar coordinate in light-years.
type SpatialPoint struct {
	X float64
	Y float64
}

// Pt is shorthand for SpatialPoint{X: x, Y: y}.
func Pt(x, y float64) SpatialPoint {
	return SpatialPoint{X: x, Y: y}
}

// DistanceTo returns the planar Euclidean distance to other, in light-years.
func (p SpatialPoint) DistanceTo(other SpatialPoint) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}
