package universe

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SpectralClass is the Harvard spectral class of a star. The numeric value
// feeds the recharge-time formula, so the ordering is fixed.
type SpectralClass int

// Spectral classes from hottest to coolest.
const (
	SpectralO SpectralClass = iota
	SpectralB
	SpectralA
	SpectralF
	SpectralG
	SpectralK
	SpectralM
)

var spectralLetters = [...]string{"O", "B", "A", "F", "G", "K", "M"}

// String returns the class letter, or "?" for an unknown class.
func (c SpectralClass) String() string {
	if c < SpectralO || c > SpectralM {
		return "?"
	}
	return spectralLetters[c]
}

// Valid reports whether c is one of the seven known classes.
func (c SpectralClass) Valid() bool {
	return c >= SpectralO && c <= SpectralM
}

// ParseSpectralClass maps a class letter to a SpectralClass. Matching is
// case-insensitive and ignores surrounding whitespace; anything unrecognised
// maps to SpectralO, as the catalog format always has.
func ParseSpectralClass(s string) SpectralClass {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, letter := range spectralLetters {
		if s == letter {
			return SpectralClass(i)
		}
	}
	return SpectralO
}

// Luminosity is the Yerkes luminosity class of a star.
type Luminosity string

// Luminosity classes.
const (
	Luminosity0   Luminosity = "0"
	LuminosityIa  Luminosity = "Ia"
	LuminosityIb  Luminosity = "Ib"
	LuminosityII  Luminosity = "II"
	LuminosityIII Luminosity = "III"
	LuminosityIV  Luminosity = "IV"
	LuminosityV   Luminosity = "V"
	LuminosityVI  Luminosity = "VI"
	LuminosityVII Luminosity = "VII"
)

var luminosities = []Luminosity{
	Luminosity0, LuminosityIa, LuminosityIb, LuminosityII, LuminosityIII,
	LuminosityIV, LuminosityV, LuminosityVI, LuminosityVII,
}

// ParseLuminosity returns the luminosity class matching s exactly.
//
// Postcondition: Returns (lum, true) for a known class, or ("", false).
func ParseLuminosity(s string) (Luminosity, bool) {
	s = strings.TrimSpace(s)
	for _, l := range luminosities {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

// MaxSubtype is the highest numeric subtype a star may carry.
const MaxSubtype = 9

// Recharge-time constants in hours.
const (
	baseRechargeTime = 141
	// StationRechargeTime is the fixed recharge time at an artificial
	// recharge station; it also caps a star's recharge time when any
	// station is present.
	StationRechargeTime = 176
)

// StarParams carries the attributes needed to construct a Star.
type StarParams struct {
	ID            string
	Name          string
	X             float64
	Y             float64
	SpectralClass SpectralClass
	Subtype       int
	Luminosity    Luminosity
	NadirCharge   bool
	ZenithCharge  bool
}

// Star is a named, identified point on the map. Identity and position are
// fixed at construction, so an index that has bucketed a star can never go
// stale. Orbital slots refer to planets by identifier only.
type Star struct {
	id           string
	name         string
	pos          SpatialPoint
	class        SpectralClass
	subtype      int
	luminosity   Luminosity
	nadirCharge  bool
	zenithCharge bool
	// slots[i] holds the planet ID at system position i+1; "" marks an empty slot.
	slots []string
}

// reservedIDChars delimit fields in a location name and cannot appear in a
// star ID.
const reservedIDChars = ",=[]"

// NewStar validates p and builds a Star. An empty Luminosity defaults to V
// and an empty Name defaults to the ID.
//
// Postcondition: Returns a Star or an error describing the first violation.
func NewStar(p StarParams) (*Star, error) {
	if p.ID == "" {
		return nil, errors.New("star ID must not be empty")
	}
	if strings.ContainsAny(p.ID, reservedIDChars) {
		return nil, fmt.Errorf("star %q: ID must not contain any of %q", p.ID, reservedIDChars)
	}
	if !p.SpectralClass.Valid() {
		return nil, fmt.Errorf("star %q: unknown spectral class %d", p.ID, p.SpectralClass)
	}
	if p.Subtype < 0 || p.Subtype > MaxSubtype {
		return nil, fmt.Errorf("star %q: subtype must be 0-%d, got %d", p.ID, MaxSubtype, p.Subtype)
	}
	lum := p.Luminosity
	if lum == "" {
		lum = LuminosityV
	}
	if _, ok := ParseLuminosity(string(lum)); !ok {
		return nil, fmt.Errorf("star %q: unknown luminosity class %q", p.ID, lum)
	}
	name := p.Name
	if name == "" {
		name = p.ID
	}
	return &Star{
		id:           p.ID,
		name:         name,
		pos:          Pt(p.X, p.Y),
		class:        p.SpectralClass,
		subtype:      p.Subtype,
		luminosity:   lum,
		nadirCharge:  p.NadirCharge,
		zenithCharge: p.ZenithCharge,
	}, nil
}

// ID returns the star's unique identifier.
func (s *Star) ID() string { return s.id }

// Name returns the display name.
func (s *Star) Name() string { return s.name }

// Position returns the star's coordinates in light-years.
func (s *Star) Position() SpatialPoint { return s.pos }

// X returns the x coordinate in light-years.
func (s *Star) X() float64 { return s.pos.X }

// Y returns the y coordinate in light-years.
func (s *Star) Y() float64 { return s.pos.Y }

// SpectralClass returns the star's spectral class.
func (s *Star) SpectralClass() SpectralClass { return s.class }

// Subtype returns the numeric spectral subtype (0-9).
func (s *Star) Subtype() int { return s.subtype }

// Luminosity returns the luminosity class.
func (s *Star) Luminosity() Luminosity { return s.luminosity }

// NadirCharge reports whether a recharge station orbits the nadir jump point.
func (s *Star) NadirCharge() bool { return s.nadirCharge }

// ZenithCharge reports whether a recharge station orbits the zenith jump point.
func (s *Star) ZenithCharge() bool { return s.zenithCharge }

// HasRechargeStation reports whether the given side has a recharge station.
func (s *Star) HasRechargeStation(nadir bool) bool {
	if nadir {
		return s.nadirCharge
	}
	return s.zenithCharge
}

// DistanceTo returns the planar distance to other in light-years.
func (s *Star) DistanceTo(other *Star) float64 {
	return s.pos.DistanceTo(other.pos)
}

// JumpPointDistance returns the distance from the star to either of its jump
// points in km, or 0 when the classification is outside the table.
func (s *Star) JumpPointDistance() float64 {
	return JumpPointDistance(s.class, s.subtype)
}

// HabitableZone returns the habitable orbit band in km, or (0, 0) when the
// classification is outside the tables.
func (s *Star) HabitableZone() (float64, float64) {
	return HabitableZone(s.class, s.subtype)
}

// AverageHabitableZone returns the midpoint of the habitable band in km.
func (s *Star) AverageHabitableZone() float64 {
	lo, hi := s.HabitableZone()
	return (lo + hi) / 2
}

// RechargeTime returns the hours needed to fully recharge a jump drive at this
// star, taking the faster of the two options when a station is present.
func (s *Star) RechargeTime() float64 {
	t := s.naturalRechargeTime()
	if (s.nadirCharge || s.zenithCharge) && t > StationRechargeTime {
		return StationRechargeTime
	}
	return t
}

func (s *Star) naturalRechargeTime() float64 {
	return float64(baseRechargeTime + 10*int(s.class) + s.subtype)
}

// RechargeStations summarises which sides carry a recharge station.
func (s *Star) RechargeStations() string {
	switch {
	case s.zenithCharge && s.nadirCharge:
		return "Zenith, Nadir"
	case s.zenithCharge:
		return "Zenith"
	case s.nadirCharge:
		return "Nadir"
	default:
		return "None"
	}
}

// StarType formats the full stellar designation, e.g. "G2V". Subdwarfs use the
// "sd" prefix without a luminosity suffix; white dwarfs use the approximate
// "D<class>.<subtype>" form.
func (s *Star) StarType() string {
	switch s.luminosity {
	case LuminosityVI:
		return "sd" + s.class.String() + strconv.Itoa(s.subtype)
	case LuminosityVII:
		return fmt.Sprintf("D%d.%d", int(s.class), s.subtype)
	default:
		return s.class.String() + strconv.Itoa(s.subtype) + string(s.luminosity)
	}
}

// JumpPoint returns the nadir or zenith jump point of this star.
func (s *Star) JumpPoint(nadir bool) Location {
	return JumpPoint(s, nadir)
}

// RechargeStation returns the recharge station point on the given side.
func (s *Star) RechargeStation(nadir bool) Location {
	return RechargeStation(s, nadir)
}

// SetPlanet places a planet identifier in the 1-indexed orbital slot pos,
// growing the slot list as needed. Slots never shrink.
//
// Precondition: pos >= 1.
// Postcondition: Returns an error wrapping ErrSlotOccupied when another planet
// already holds pos; setting the same planet again is a no-op.
func (s *Star) SetPlanet(pos int, planetID string) error {
	if pos < 1 {
		return fmt.Errorf("star %q: system position must be >= 1, got %d", s.id, pos)
	}
	if held, ok := s.PlanetAt(pos); ok && held != planetID {
		return fmt.Errorf("star %q: position %d holds %q: %w", s.id, pos, held, ErrSlotOccupied)
	}
	for len(s.slots) < pos {
		s.slots = append(s.slots, "")
	}
	s.slots[pos-1] = planetID
	return nil
}

// NextFreeSlot returns the lowest empty 1-indexed orbital slot.
func (s *Star) NextFreeSlot() int {
	for i, id := range s.slots {
		if id == "" {
			return i + 1
		}
	}
	return len(s.slots) + 1
}

// PlanetAt returns the planet identifier in slot pos.
//
// Postcondition: Returns (id, true) for an occupied slot, or ("", false).
func (s *Star) PlanetAt(pos int) (string, bool) {
	if pos < 1 || pos > len(s.slots) || s.slots[pos-1] == "" {
		return "", false
	}
	return s.slots[pos-1], true
}

// SlotCount returns the number of orbital slots, occupied or not.
func (s *Star) SlotCount() int { return len(s.slots) }

// PlanetIDs returns the identifiers of all occupied slots in orbital order.
func (s *Star) PlanetIDs() []string {
	ids := make([]string, 0, len(s.slots))
	for _, id := range s.slots {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// String returns "Name (StarType)".
func (s *Star) String() string {
	return fmt.Sprintf("%s (%s)", s.name, s.StarType())
}
