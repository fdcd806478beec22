package universe

import (
	"fmt"
	"math"
	"strconv"
)

// Kind tags the variant held by a Location.
type Kind int

// Location kinds. KindNowhere is the zero value.
const (
	KindNowhere Kind = iota
	KindOrbital
	KindJumpPoint
	KindRechargeStation
)

// String returns the tag used in canonical location names.
func (k Kind) String() string {
	switch k {
	case KindOrbital:
		return "OrbitalPoint"
	case KindJumpPoint:
		return "JumpPoint"
	case KindRechargeStation:
		return "RechargeStation"
	default:
		return "Nowhere"
	}
}

// Travel and jump constants.
const (
	// JumpRange is the farthest a jump can reach, in light-years.
	JumpRange = 30.0
	// RechargeStationOffset is how far inward of the jump point a recharge
	// station sits, in km.
	RechargeStationOffset = 5000.0
	// JumpDuration is the time spent performing a single jump, in hours.
	JumpDuration = 1.0

	standardGravity = 9.8
)

// Location is a point in space in the context of at most one star. It is a
// small value type: points are rebuilt from a star and parameters whenever
// needed rather than cached. The zero value is Nowhere.
type Location struct {
	kind     Kind
	star     *Star
	nadir    bool
	distance float64
}

// Nowhere is the sentinel location outside any system. It can reach nothing.
var Nowhere = Location{}

// OrbitalPoint returns a point on an orbit of the given semimajor axis in km.
// A negative or non-finite distance is replaced by 0.
func OrbitalPoint(star *Star, distance float64) Location {
	if !validDistance(distance) {
		distance = 0
	}
	return Location{kind: KindOrbital, star: star, distance: distance}
}

func validDistance(d float64) bool {
	return d >= 0 && !math.IsInf(d, 1)
}

// JumpPoint returns the nadir or zenith jump point of star.
func JumpPoint(star *Star, nadir bool) Location {
	return Location{kind: KindJumpPoint, star: star, nadir: nadir}
}

// RechargeStation returns the recharge station slightly inward of the nadir
// or zenith jump point of star.
func RechargeStation(star *Star, nadir bool) Location {
	return Location{kind: KindRechargeStation, star: star, nadir: nadir}
}

// Kind returns the variant tag.
func (l Location) Kind() Kind { return l.kind }

// Star returns the star this location belongs to, or nil.
func (l Location) Star() *Star { return l.star }

// StarID returns the identifier of the location's star, or "" for none.
func (l Location) StarID() string {
	if l.star == nil {
		return ""
	}
	return l.star.ID()
}

// IsNowhere reports whether l is the Nowhere sentinel.
func (l Location) IsNowhere() bool { return l.kind == KindNowhere }

// IsConstant reports whether l sits at a fixed pole of its star: a jump point
// or a recharge station.
func (l Location) IsConstant() bool {
	return l.kind == KindJumpPoint || l.kind == KindRechargeStation
}

// IsNadir reports whether a constant point is on the nadir side.
func (l Location) IsNadir() bool { return l.IsConstant() && l.nadir }

// IsZenith reports whether a constant point is on the zenith side.
func (l Location) IsZenith() bool { return l.IsConstant() && !l.nadir }

// InSameSystemAs reports whether both locations reference the same, non-nil star.
func (l Location) InSameSystemAs(other Location) bool {
	return l.star != nil && l.star == other.star
}

// Equal reports whether two locations denote the same point: same kind, same
// star, and same side (constant points) or orbit (orbital points).
func (l Location) Equal(other Location) bool {
	if l.kind != other.kind || l.star != other.star {
		return false
	}
	switch l.kind {
	case KindOrbital:
		return l.distance == other.distance
	case KindJumpPoint, KindRechargeStation:
		return l.nadir == other.nadir
	default:
		return true
	}
}

// Distance returns the distance to the star in km: the semimajor axis for an
// orbital point, the jump-point distance for a jump point, and the jump-point
// distance less RechargeStationOffset for a station. Points with no star, and
// stations of stars with an unknown jump distance, report 0.
func (l Location) Distance() float64 {
	switch l.kind {
	case KindOrbital:
		return l.distance
	case KindJumpPoint:
		if l.star == nil {
			return 0
		}
		return l.star.JumpPointDistance()
	case KindRechargeStation:
		if l.star == nil {
			return 0
		}
		// An unknown (0) jump distance must not turn into a negative one.
		return math.Max(l.star.JumpPointDistance()-RechargeStationOffset, 0)
	default:
		return 0
	}
}

// TravelTimeTo returns the in-system travel time to other in hours at a
// constant 1 g, or +Inf when no direct route applies.
func (l Location) TravelTimeTo(other Location) float64 {
	if l.Equal(other) {
		return 0
	}
	if !l.InSameSystemAs(other) {
		return math.Inf(1)
	}
	switch {
	case l.IsConstant() && other.kind == KindOrbital,
		l.kind == KindOrbital && other.IsConstant():
		return transitHours(math.Hypot(l.Distance(), other.Distance()))
	case l.IsConstant() && other.IsConstant():
		if l.nadir == other.nadir {
			return transitHours(math.Abs(l.Distance() - other.Distance()))
		}
		return transitHours(l.Distance() + other.Distance())
	case l.kind == KindOrbital && other.kind == KindOrbital:
		// The larger semimajor axis stands in for the unmodelled orbital phase.
		return transitHours(math.Max(l.distance, other.distance))
	default:
		return math.Inf(1)
	}
}

// transitHours converts a distance in km into hours of 1 g transit. A distance
// that is not positive takes no time.
func transitHours(km float64) float64 {
	if !(km > 0) {
		return 0
	}
	return math.Sqrt(km*1000/standardGravity) / 1800
}

// CanJumpTo reports whether a jump drive can go directly from l to other.
// Only a jump point can jump, only to a jump point on the opposite side, and
// only within JumpRange. Opposite poles of the same star qualify.
func (l Location) CanJumpTo(other Location) bool {
	if l.kind != KindJumpPoint || other.kind != KindJumpPoint {
		return false
	}
	if l.star == nil || other.star == nil || l.nadir == other.nadir {
		return false
	}
	return l.star.DistanceTo(other.star) <= JumpRange
}

// RechargeTime returns the hours needed to recharge a jump drive from empty at
// this location, or +Inf where recharging is impossible.
func (l Location) RechargeTime() float64 {
	switch l.kind {
	case KindJumpPoint:
		if l.star == nil {
			return math.Inf(1)
		}
		return l.star.naturalRechargeTime()
	case KindRechargeStation:
		return StationRechargeTime
	default:
		return math.Inf(1)
	}
}

// Name returns the canonical machine-readable name, the only persisted
// identity of a location.
func (l Location) Name() string {
	switch l.kind {
	case KindOrbital:
		return "[" + l.kind.String() + ",star=" + l.StarID() + ",distance=" + formatNumber(l.distance) + "]"
	case KindJumpPoint, KindRechargeStation:
		return "[" + l.kind.String() + ",star=" + l.StarID() + ",nadir=" + strconv.FormatBool(l.nadir) + "]"
	default:
		return ""
	}
}

// Description returns a human-readable description.
func (l Location) Description() string {
	if l.star == nil {
		return "Lost in space"
	}
	switch l.kind {
	case KindOrbital:
		return fmt.Sprintf("In orbit around %s, average distance %.0f km", l.star.Name(), l.distance)
	case KindJumpPoint:
		return fmt.Sprintf("At %s jump point of %s", l.side(), l.star.Name())
	case KindRechargeStation:
		return fmt.Sprintf("At %s recharge station of %s", l.side(), l.star.Name())
	default:
		return "Lost in space"
	}
}

// String returns the canonical name so locations print usefully in logs.
func (l Location) String() string {
	if l.kind == KindNowhere {
		return "[Nowhere]"
	}
	return l.Name()
}

func (l Location) side() string {
	if l.nadir {
		return "nadir"
	}
	return "zenith"
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
