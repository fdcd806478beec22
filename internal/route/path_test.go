package route

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/starmap/internal/universe"
)

func newStar(t testing.TB, id string, x, y float64) *universe.Star {
	t.Helper()
	s, err := universe.NewStar(universe.StarParams{
		ID: id, Name: id, X: x, Y: y, SpectralClass: universe.SpectralG, Subtype: 2,
	})
	require.NoError(t, err)
	return s
}

func TestJumpPath_Empty(t *testing.T) {
	p := New()
	assert.True(t, p.IsEmpty())
	assert.Equal(t, 0, p.HopCount())
	assert.Zero(t, p.TotalRechargeTime())
	assert.Zero(t, p.TotalTime(0))
	assert.True(t, p.First().IsNowhere())
	assert.True(t, p.Last().IsNowhere())
	p.RemoveFirst()
	assert.Equal(t, 0, p.Len())
}

func TestJumpPath_Mutators(t *testing.T) {
	sol := newStar(t, "SOL", 0, 0)
	earth, err := universe.NewPlanet(universe.PlanetParams{ID: "earth", SystemPosition: 3, OrbitSemimajorAxis: 149597871}, sol)
	require.NoError(t, err)

	p := New()
	p.AddPlanet(earth)
	p.AddStar(sol)
	p.Add(sol.JumpPoint(false))

	require.Equal(t, 3, p.Len())
	assert.Equal(t, 2, p.HopCount())
	assert.True(t, p.First().Equal(earth.PointOnSurface()))
	assert.True(t, p.Last().Equal(sol.JumpPoint(false)))
	second, ok := p.At(1)
	require.True(t, ok)
	assert.True(t, second.Equal(sol.JumpPoint(true)))
	_, ok = p.At(3)
	assert.False(t, ok)
	_, ok = p.At(-1)
	assert.False(t, ok)

	p.RemoveFirst()
	assert.Equal(t, 2, p.Len())
	assert.True(t, p.First().Equal(sol.JumpPoint(true)))
}

func TestJumpPath_LocationsIsACopy(t *testing.T) {
	sol := newStar(t, "SOL", 0, 0)
	p := New(sol.JumpPoint(true))
	locs := p.Locations()
	locs[0] = universe.Nowhere
	assert.True(t, p.First().Equal(sol.JumpPoint(true)))
}

// Scenario B: a recharge station never jumps, so the hop contributes no
// recharge time even though it ends at a jump point.
func TestScenario_StationToJumpPoint(t *testing.T) {
	sol := newStar(t, "SOL", 0, 0)
	p := New(sol.RechargeStation(true), sol.JumpPoint(true))

	assert.False(t, sol.RechargeStation(true).CanJumpTo(sol.JumpPoint(true)))
	assert.Zero(t, p.TotalRechargeTime())
	assert.Equal(t, 0, p.Jumps())
	assert.InDelta(t, 0.3968253968253968/24, p.TotalTime(0), 1e-12)
}

func TestJumpPath_JumpTotals(t *testing.T) {
	a := newStar(t, "A", 0, 0)
	b := newStar(t, "B", 20, 0)
	c := newStar(t, "C", 40, 0)
	p := New(a.JumpPoint(true), b.JumpPoint(false), c.JumpPoint(true))

	assert.Equal(t, 2, p.Jumps())
	assert.InDelta(t, 2*183.0/24, p.TotalRechargeTime(), 1e-12)
	assert.InDelta(t, 2*184.0/24, p.TotalTime(0), 1e-12)

	stats := p.Stats()
	assert.Equal(t, Stats{Hops: 2, Jumps: 2, RechargeDays: p.TotalRechargeTime(), TotalDays: p.TotalTime(0)}, stats)
}

func TestJumpPath_MixedRoute(t *testing.T) {
	a := newStar(t, "A", 0, 0)
	b := newStar(t, "B", 10, 0)
	orbit := universe.OrbitalPoint(a, 150000000)
	p := New(orbit, a.JumpPoint(true), b.JumpPoint(false))

	wantHours := orbit.TravelTimeTo(a.JumpPoint(true)) + 183 + universe.JumpDuration
	assert.InDelta(t, wantHours/24, p.TotalTime(0), 1e-9)
	assert.InDelta(t, 183.0/24, p.TotalRechargeTime(), 1e-12)
}

func TestJumpPath_NoShortcuts(t *testing.T) {
	a := newStar(t, "A", 0, 0)
	b := newStar(t, "B", 5, 0)
	// A's nadir point could jump straight to B's zenith point, but the path
	// goes through an orbit first; only consecutive pairs count.
	p := New(a.JumpPoint(true), universe.OrbitalPoint(a, 1000), b.JumpPoint(false))
	assert.Zero(t, p.Jumps())
	assert.True(t, math.IsInf(p.TotalTime(0), 1))
}

func TestJumpPath_TransitOffsetIgnored(t *testing.T) {
	a := newStar(t, "A", 0, 0)
	b := newStar(t, "B", 10, 0)
	p := New(a.JumpPoint(true), b.JumpPoint(false))
	assert.Equal(t, p.TotalTime(0), p.TotalTime(3.5))
}

func TestPropertyHopCount(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, err := universe.NewStar(universe.StarParams{ID: "S", SpectralClass: universe.SpectralK})
		if err != nil {
			t.Fatal(err)
		}
		n := rapid.IntRange(0, 20).Draw(t, "n")
		p := New()
		for i := 0; i < n; i++ {
			p.Add(s.JumpPoint(i%2 == 0))
		}
		assert.Equal(t, max(0, n-1), p.HopCount())
		assert.LessOrEqual(t, p.Jumps(), p.HopCount())
		assert.GreaterOrEqual(t, p.TotalTime(0), p.TotalRechargeTime())
	})
}
