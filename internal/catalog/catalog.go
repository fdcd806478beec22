// Package catalog holds the loaded star map: every star and planet keyed by
// identifier, the proximity grid built over them, and the machinery that loads
// and reloads them from disk without blocking readers.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/cory-johannsen/starmap/internal/universe"
)

// ErrNotReady is returned by operations that need a loaded catalog before the
// first load has completed.
var ErrNotReady = errors.New("catalog not ready")

// State is the lifecycle state of a Catalog.
type State int32

// Catalog states.
const (
	StateLoading State = iota
	StateReady
	StateFailed
)

// String returns a lower-case state name.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Data is the raw content produced by a Source.
type Data struct {
	Stars   []*universe.Star
	Planets []*universe.Planet
}

// Source produces catalog data.
type Source interface {
	Load(ctx context.Context) (*Data, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (*Data, error)

// Load calls f(ctx).
func (f SourceFunc) Load(ctx context.Context) (*Data, error) { return f(ctx) }

// snapshot is an immutable view of one successful load.
type snapshot struct {
	stars   map[string]*universe.Star
	planets map[string]*universe.Planet
	sorted  []*universe.Star
	planetL []*universe.Planet
	grid    *universe.SpatialGrid
}

var emptySnapshot = &snapshot{
	stars:   map[string]*universe.Star{},
	planets: map[string]*universe.Planet{},
	grid:    universe.NewSpatialGrid(),
}

func newSnapshot(d *Data) (*snapshot, error) {
	s := &snapshot{
		stars:   make(map[string]*universe.Star, len(d.Stars)),
		planets: make(map[string]*universe.Planet, len(d.Planets)),
		grid:    universe.NewSpatialGrid(),
	}
	for _, star := range d.Stars {
		if star == nil {
			continue
		}
		if _, exists := s.stars[star.ID()]; exists {
			return nil, fmt.Errorf("duplicate star ID: %q", star.ID())
		}
		s.stars[star.ID()] = star
		s.sorted = append(s.sorted, star)
		s.grid.Insert(star)
	}
	for _, p := range d.Planets {
		if p == nil {
			continue
		}
		if _, exists := s.planets[p.ID()]; exists {
			return nil, fmt.Errorf("duplicate planet ID: %q", p.ID())
		}
		if _, ok := s.stars[p.Star().ID()]; !ok {
			return nil, fmt.Errorf("planet %q orbits star %q outside the catalog", p.ID(), p.Star().ID())
		}
		s.planets[p.ID()] = p
		s.planetL = append(s.planetL, p)
	}
	sort.Slice(s.sorted, func(i, j int) bool { return s.sorted[i].ID() < s.sorted[j].ID() })
	sort.Slice(s.planetL, func(i, j int) bool { return s.planetL[i].ID() < s.planetL[j].ID() })
	return s, nil
}

// Catalog is the arena of all stars and planets. Each load builds a complete
// snapshot which is then published in one atomic swap, so readers never see a
// partially built map and never block on a load in progress. Until the first
// load completes, lookups report nothing.
//
// A Catalog is safe for concurrent use.
type Catalog struct {
	snap   atomic.Pointer[snapshot]
	state  atomic.Int32
	logger *zap.Logger

	mu      sync.Mutex
	err     error
	settled bool
	ready   chan struct{}

	reloads singleflight.Group
}

// New creates an empty catalog in the loading state.
//
// Precondition: A nil logger is replaced by a no-op logger.
func New(logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{logger: logger, ready: make(chan struct{})}
	c.snap.Store(emptySnapshot)
	return c
}

// State returns the current lifecycle state.
func (c *Catalog) State() State { return State(c.state.Load()) }

// Err returns the error of the most recent failed load, or nil.
func (c *Catalog) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Ready returns a channel that is closed once the first load has finished,
// successfully or not. Check State afterwards to tell the two apart.
func (c *Catalog) Ready() <-chan struct{} { return c.ready }

// Wait blocks until the first load has finished or ctx is done.
//
// Postcondition: Returns nil when the catalog is ready, the load error when
// the first load failed, or ctx.Err().
func (c *Catalog) Wait(ctx context.Context) error {
	select {
	case <-c.ready:
	case <-ctx.Done():
		return ctx.Err()
	}
	if c.State() == StateReady {
		return nil
	}
	if err := c.Err(); err != nil {
		return err
	}
	return ErrNotReady
}

// LoadAsync runs source in a new goroutine and publishes the result when done.
// The returned channel receives the load error (or nil) and is then closed.
func (c *Catalog) LoadAsync(ctx context.Context, source Source) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- c.Load(ctx, source)
	}()
	return done
}

// Load runs source synchronously and publishes the result.
//
// Postcondition: On success the new snapshot is visible and the state is
// StateReady. On failure the previous snapshot stays in place; the state
// becomes StateFailed only if no load has ever succeeded.
func (c *Catalog) Load(ctx context.Context, source Source) error {
	data, err := source.Load(ctx)
	if err == nil {
		var snap *snapshot
		snap, err = newSnapshot(data)
		if err == nil {
			c.publish(snap)
			return nil
		}
	}
	err = fmt.Errorf("loading catalog: %w", err)
	c.fail(err)
	return err
}

// Reload rebuilds the catalog from source and swaps it in wholesale.
// Concurrent calls share the reload already in flight and its result.
func (c *Catalog) Reload(ctx context.Context, source Source) error {
	_, err, shared := c.reloads.Do("reload", func() (any, error) {
		return nil, c.Load(ctx, source)
	})
	if shared {
		c.logger.Debug("catalog reload coalesced")
	}
	return err
}

func (c *Catalog) publish(s *snapshot) {
	c.snap.Store(s)
	c.state.Store(int32(StateReady))
	c.mu.Lock()
	c.err = nil
	c.settle()
	c.mu.Unlock()
	c.logger.Info("catalog loaded",
		zap.Int("stars", len(s.stars)),
		zap.Int("planets", len(s.planets)),
		zap.Int("cells", s.grid.CellCount()),
	)
}

func (c *Catalog) fail(err error) {
	c.mu.Lock()
	c.err = err
	c.state.CompareAndSwap(int32(StateLoading), int32(StateFailed))
	c.settle()
	c.mu.Unlock()
	c.logger.Error("catalog load failed", zap.Error(err))
}

// settle closes the ready channel once. Callers hold mu.
func (c *Catalog) settle() {
	if !c.settled {
		c.settled = true
		close(c.ready)
	}
}

// StarByID returns the star with the given identifier.
//
// Postcondition: Returns (star, true) if found, or (nil, false).
func (c *Catalog) StarByID(id string) (*universe.Star, bool) {
	s, ok := c.snap.Load().stars[id]
	return s, ok
}

// PlanetByID returns the planet with the given identifier.
//
// Postcondition: Returns (planet, true) if found, or (nil, false).
func (c *Catalog) PlanetByID(id string) (*universe.Planet, bool) {
	p, ok := c.snap.Load().planets[id]
	return p, ok
}

// Stars returns every star sorted by identifier. The slice is shared; do not
// modify it.
func (c *Catalog) Stars() []*universe.Star { return c.snap.Load().sorted }

// Planets returns every planet sorted by identifier. The slice is shared; do
// not modify it.
func (c *Catalog) Planets() []*universe.Planet { return c.snap.Load().planetL }

// Len returns the number of stars.
func (c *Catalog) Len() int { return len(c.snap.Load().stars) }

// Grid returns the proximity grid of the current snapshot.
func (c *Catalog) Grid() *universe.SpatialGrid { return c.snap.Load().grid }

// NearbyStars returns the stars within radius light-years of star, nearest
// first. The star itself is included.
func (c *Catalog) NearbyStars(star *universe.Star, radius float64) []*universe.Star {
	if star == nil {
		return nil
	}
	return c.Grid().Within(star.Position(), radius)
}

// Within returns the stars within radius of origin, nearest first.
func (c *Catalog) Within(origin universe.SpatialPoint, radius float64) []*universe.Star {
	return c.Grid().Within(origin, radius)
}

// Registry returns a location registry resolving names against this catalog.
func (c *Catalog) Registry() *universe.LocationRegistry {
	return universe.NewLocationRegistry(c, c.logger)
}
