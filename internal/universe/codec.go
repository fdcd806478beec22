package universe

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrMalformedLocation is returned when a name does not match the bracketed
// "[Kind,key=value,...]" grammar.
var ErrMalformedLocation = errors.New("malformed location name")

// ErrUnknownLocationKind is returned when a name's kind tag is not recognised.
var ErrUnknownLocationKind = errors.New("unknown location kind")

// StarLookup resolves star identifiers. Implementations must be safe to call
// at any time and report false for unknown identifiers.
type StarLookup interface {
	StarByID(id string) (*Star, bool)
}

// ParseLocation decodes a canonical location name. Options after the kind may
// appear in any order; unknown keys are ignored. A star identifier that does
// not resolve yields a location with no star rather than an error, so callers
// must be ready for points that are in no system.
//
// The nadir flag must be "true" or "false" in any case. Any other value is
// malformed rather than read as false, so a corrupt name cannot silently move
// a point to the other side of its star. A distance must be finite and not
// negative.
//
// Postcondition: Returns the decoded location, or Nowhere and an error wrapping
// ErrMalformedLocation or ErrUnknownLocationKind.
func ParseLocation(name string, stars StarLookup) (Location, error) {
	if len(name) <= 2 || !strings.HasPrefix(name, "[") || !strings.HasSuffix(name, "]") {
		return Nowhere, fmt.Errorf("%w: %q", ErrMalformedLocation, name)
	}
	body := name[1 : len(name)-1]
	tag, rest, _ := strings.Cut(body, ",")

	var kind Kind
	switch tag {
	case "OrbitalPoint":
		kind = KindOrbital
	case "JumpPoint":
		kind = KindJumpPoint
	case "RechargeStation":
		kind = KindRechargeStation
	default:
		return Nowhere, fmt.Errorf("%w: %q", ErrUnknownLocationKind, tag)
	}

	loc := Location{kind: kind, nadir: true}
	for _, opt := range strings.Split(rest, ",") {
		key, value, ok := strings.Cut(opt, "=")
		if !ok {
			continue
		}
		switch key {
		case "star":
			if stars != nil {
				if s, found := stars.StarByID(value); found {
					loc.star = s
				}
			}
		case "nadir":
			switch {
			case strings.EqualFold(value, "true"):
				loc.nadir = true
			case strings.EqualFold(value, "false"):
				loc.nadir = false
			default:
				return Nowhere, fmt.Errorf("%w: nadir=%q in %q", ErrMalformedLocation, value, name)
			}
		case "distance":
			d, err := strconv.ParseFloat(value, 64)
			if err != nil || !validDistance(d) {
				return Nowhere, fmt.Errorf("%w: distance=%q in %q", ErrMalformedLocation, value, name)
			}
			loc.distance = d
		}
	}
	if kind == KindOrbital {
		loc.nadir = false
	}
	return loc, nil
}

// LocationRegistry resolves persisted location names back into locations,
// logging and skipping anything it cannot decode.
type LocationRegistry struct {
	stars  StarLookup
	logger *zap.Logger
}

// NewLocationRegistry creates a registry backed by the given star lookup.
//
// Precondition: stars must be non-nil. A nil logger is replaced by a no-op logger.
func NewLocationRegistry(stars StarLookup, logger *zap.Logger) *LocationRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocationRegistry{stars: stars, logger: logger}
}

// Resolve decodes name.
//
// Postcondition: Returns (loc, true) on success. Malformed or unknown names are
// logged and return (Nowhere, false). A name whose star is unknown resolves to
// a location in no system and is logged at warn level.
func (r *LocationRegistry) Resolve(name string) (Location, bool) {
	loc, err := ParseLocation(name, r.stars)
	if err != nil {
		r.logger.Warn("could not parse location", zap.String("name", name), zap.Error(err))
		return Nowhere, false
	}
	if loc.star == nil {
		r.logger.Warn("location references unknown star", zap.String("name", name))
	}
	return loc, true
}
