package universe

import (
	"errors"
	"fmt"
	"math"
)

// ErrSlotOccupied is returned when an orbital slot already holds another planet.
var ErrSlotOccupied = errors.New("orbital slot occupied")

// PlanetParams carries the attributes needed to construct a Planet.
type PlanetParams struct {
	ID   string
	Name string
	// SystemPosition is the 1-indexed orbital slot around the star. Zero takes
	// the lowest free slot.
	SystemPosition int
	// OrbitSemimajorAxis is the orbit radius in km. Zero, or any value that is
	// not a positive finite number, places the planet in the middle of the
	// star's habitable zone.
	OrbitSemimajorAxis float64
}

// Planet is a body orbiting exactly one Star. The planet owns the reference to
// its star; the star only records the planet's identifier in a slot.
type Planet struct {
	id        string
	name      string
	star      *Star
	sysPos    int
	semimajor float64
}

// NewPlanet builds a Planet around star and records it in the star's orbital
// slot.
//
// Precondition: star must be non-nil.
// Postcondition: Returns the planet, or an error when star is nil, the ID is
// empty, the system position is negative, or the slot holds another planet.
func NewPlanet(p PlanetParams, star *Star) (*Planet, error) {
	if star == nil {
		return nil, errors.New("planet must belong to a star")
	}
	if p.ID == "" {
		return nil, fmt.Errorf("star %q: planet ID must not be empty", star.ID())
	}
	pos := p.SystemPosition
	if pos == 0 {
		pos = star.NextFreeSlot()
	}
	if err := star.SetPlanet(pos, p.ID); err != nil {
		return nil, fmt.Errorf("planet %q: %w", p.ID, err)
	}
	axis := p.OrbitSemimajorAxis
	if !(axis > 0) || math.IsInf(axis, 1) {
		axis = star.AverageHabitableZone()
	}
	name := p.Name
	if name == "" {
		name = p.ID
	}
	return &Planet{
		id:        p.ID,
		name:      name,
		star:      star,
		sysPos:    pos,
		semimajor: axis,
	}, nil
}

// ID returns the planet's unique identifier.
func (p *Planet) ID() string { return p.id }

// Name returns the display name.
func (p *Planet) Name() string { return p.name }

// Star returns the star this planet orbits.
func (p *Planet) Star() *Star { return p.star }

// SystemPosition returns the 1-indexed orbital slot.
func (p *Planet) SystemPosition() int { return p.sysPos }

// OrbitSemimajorAxis returns the orbit radius in km.
func (p *Planet) OrbitSemimajorAxis() float64 { return p.semimajor }

// PointOnSurface returns the location used to represent this planet in routes.
func (p *Planet) PointOnSurface() Location {
	return OrbitalPoint(p.star, p.semimajor)
}

// TimeToJumpPoint returns the average travel time from low orbit to the
// system's jump point in days at the given acceleration in g.
func (p *Planet) TimeToJumpPoint(acceleration float64) float64 {
	if acceleration <= 0 {
		return math.Inf(1)
	}
	return math.Sqrt(p.star.JumpPointDistance()*1000/(standardGravity*acceleration)) / 43200
}

// DistanceTo returns the distance to another planet's star in light-years.
func (p *Planet) DistanceTo(other *Planet) float64 {
	return p.star.DistanceTo(other.star)
}
