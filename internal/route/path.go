// Package route provides jump paths through the star map: ordered sequences of
// locations with aggregate travel statistics, their persisted forms, and a
// planner that builds them.
package route

import (
	"github.com/cory-johannsen/starmap/internal/universe"
)

const hoursPerDay = 24.0

// JumpPath is an ordered sequence of locations describing a planned route.
// Statistics are always computed over consecutive pairs; no later location is
// ever reached by skipping an intermediate one.
//
// A JumpPath has a single owner and is not safe for concurrent use.
type JumpPath struct {
	locs []universe.Location
}

// New returns a path visiting locs in order.
func New(locs ...universe.Location) *JumpPath {
	p := &JumpPath{}
	p.locs = append(p.locs, locs...)
	return p
}

// Add appends loc to the end of the path.
func (p *JumpPath) Add(loc universe.Location) {
	p.locs = append(p.locs, loc)
}

// AddPlanet appends the planet's representative orbital point.
func (p *JumpPath) AddPlanet(planet *universe.Planet) {
	p.Add(planet.PointOnSurface())
}

// AddStar appends the star's nadir jump point.
func (p *JumpPath) AddStar(star *universe.Star) {
	p.Add(star.JumpPoint(true))
}

// RemoveFirst drops the first location, as happens when the head of the path
// has been reached. It is a no-op on an empty path.
func (p *JumpPath) RemoveFirst() {
	if len(p.locs) == 0 {
		return
	}
	p.locs[0] = universe.Nowhere
	p.locs = p.locs[1:]
}

// Len returns the number of locations.
func (p *JumpPath) Len() int { return len(p.locs) }

// IsEmpty reports whether the path has no locations.
func (p *JumpPath) IsEmpty() bool { return len(p.locs) == 0 }

// HopCount returns the number of consecutive pairs.
func (p *JumpPath) HopCount() int {
	if len(p.locs) < 2 {
		return 0
	}
	return len(p.locs) - 1
}

// Jumps returns the number of hops that are actual jumps.
func (p *JumpPath) Jumps() int {
	n := 0
	for i := 0; i+1 < len(p.locs); i++ {
		if p.locs[i].CanJumpTo(p.locs[i+1]) {
			n++
		}
	}
	return n
}

// First returns the first location, or Nowhere for an empty path.
func (p *JumpPath) First() universe.Location {
	if len(p.locs) == 0 {
		return universe.Nowhere
	}
	return p.locs[0]
}

// Last returns the final location, or Nowhere for an empty path.
func (p *JumpPath) Last() universe.Location {
	if len(p.locs) == 0 {
		return universe.Nowhere
	}
	return p.locs[len(p.locs)-1]
}

// At returns the location at index i.
//
// Postcondition: Returns (loc, true) for 0 <= i < Len(), or (Nowhere, false).
func (p *JumpPath) At(i int) (universe.Location, bool) {
	if i < 0 || i >= len(p.locs) {
		return universe.Nowhere, false
	}
	return p.locs[i], true
}

// Locations returns a copy of the locations in order.
func (p *JumpPath) Locations() []universe.Location {
	out := make([]universe.Location, len(p.locs))
	copy(out, p.locs)
	return out
}

// Names returns the canonical name of every location in order.
func (p *JumpPath) Names() []string {
	names := make([]string, len(p.locs))
	for i, l := range p.locs {
		names[i] = l.Name()
	}
	return names
}

// TotalRechargeTime returns the days spent recharging along the path. Each hop
// that is a jump adds the departure point's recharge time; in-system hops add
// nothing.
func (p *JumpPath) TotalRechargeTime() float64 {
	hours := 0.0
	for i := 0; i+1 < len(p.locs); i++ {
		if p.locs[i].CanJumpTo(p.locs[i+1]) {
			hours += p.locs[i].RechargeTime()
		}
	}
	return hours / hoursPerDay
}

// TotalTime returns the days needed to traverse the path: recharge time plus
// JumpDuration for each jump, and travel time for each in-system hop.
//
// currentTransit is the progress already made on the current hop. It is
// accepted for callers that track it but is not subtracted from the total.
func (p *JumpPath) TotalTime(currentTransit float64) float64 {
	hours := 0.0
	for i := 0; i+1 < len(p.locs); i++ {
		from, to := p.locs[i], p.locs[i+1]
		if from.CanJumpTo(to) {
			hours += from.RechargeTime() + universe.JumpDuration
		} else {
			hours += from.TravelTimeTo(to)
		}
	}
	return hours / hoursPerDay
}

// Stats summarises a path.
type Stats struct {
	Hops         int
	Jumps        int
	RechargeDays float64
	TotalDays    float64
}

// Stats computes the summary statistics of the path.
func (p *JumpPath) Stats() Stats {
	return Stats{
		Hops:         p.HopCount(),
		Jumps:        p.Jumps(),
		RechargeDays: p.TotalRechargeTime(),
		TotalDays:    p.TotalTime(0),
	}
}
