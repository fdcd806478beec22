package route

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrRouteNotFound is returned when a saved route lookup yields no results.
var ErrRouteNotFound = errors.New("route not found")

// ErrRouteNameTaken is returned when saving a route under a name already in use.
var ErrRouteNameTaken = errors.New("route name already taken")

// Record is a saved jump path. Locations hold canonical names, the only
// persisted identity of a location; resolve them against the current catalog
// with Path.
type Record struct {
	ID        uuid.UUID
	Name      string
	Locations []string
	CreatedAt time.Time
}

// Path rebuilds the jump path, skipping names the resolver rejects.
func (r Record) Path(res Resolver) (*JumpPath, []string) {
	return FromNames(r.Locations, res)
}

// Store persists named jump paths.
type Store interface {
	// Save stores p under name with a fresh identifier.
	Save(ctx context.Context, name string, p *JumpPath) (Record, error)
	// Get returns the route with the given identifier or ErrRouteNotFound.
	Get(ctx context.Context, id uuid.UUID) (Record, error)
	// GetByName returns the route with the given name or ErrRouteNotFound.
	GetByName(ctx context.Context, name string) (Record, error)
	// List returns every saved route, newest first.
	List(ctx context.Context) ([]Record, error)
	// Delete removes the route or returns ErrRouteNotFound.
	Delete(ctx context.Context, id uuid.UUID) error
}
