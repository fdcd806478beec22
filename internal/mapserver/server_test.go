package mapserver

import (
	"context"
	"math"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/cory-johannsen/starmap/internal/catalog"
	"github.com/cory-johannsen/starmap/internal/storage/sqlite"
	"github.com/cory-johannsen/starmap/internal/universe"
)

type testStars struct {
	sol, ac, vega, far *universe.Star
}

func newTestStars(t *testing.T) testStars {
	t.Helper()
	mk := func(id string, x, y float64, class universe.SpectralClass) *universe.Star {
		s, err := universe.NewStar(universe.StarParams{ID: id, X: x, Y: y, SpectralClass: class, Subtype: 2})
		require.NoError(t, err)
		return s
	}
	return testStars{
		sol:  mk("SOL", 0, 0, universe.SpectralG),
		ac:   mk("ALPHACEN", 3, 3, universe.SpectralG),
		vega: mk("VEGA", 25, 0, universe.SpectralA),
		far:  mk("FAR", 200, 0, universe.SpectralG),
	}
}

func loadedCatalog(t *testing.T, s testStars) *catalog.Catalog {
	t.Helper()
	c := catalog.New(zaptest.NewLogger(t))
	require.NoError(t, c.Load(context.Background(), catalog.SourceFunc(func(context.Context) (*catalog.Data, error) {
		return &catalog.Data{Stars: []*universe.Star{s.sol, s.ac, s.vega, s.far}}, nil
	})))
	return c
}

// startServer serves srv on a loopback listener and returns a connected client.
func startServer(t *testing.T, srv StarMapServer, opts ...grpc.ServerOption) *Client {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	gs := grpc.NewServer(opts...)
	Register(gs, srv)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient(lis.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewClient(conn)
}

func callCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func assertCode(t *testing.T, want codes.Code, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, status.Code(err), "error: %v", err)
}

func TestServer_UnavailableUntilReady(t *testing.T) {
	c := catalog.New(zaptest.NewLogger(t))
	client := startServer(t, NewServer(c, zaptest.NewLogger(t)))

	_, err := client.Call(callCtx(t), "NearbyStars", map[string]any{"star": "SOL"})
	assertCode(t, codes.Unavailable, err)
	assert.Contains(t, err.Error(), "loading")
}

func TestServer_NearbyStars(t *testing.T) {
	s := newTestStars(t)
	client := startServer(t, NewServer(loadedCatalog(t, s), zaptest.NewLogger(t)))
	ctx := callCtx(t)

	resp, err := client.Call(ctx, "NearbyStars", map[string]any{"star": "SOL"})
	require.NoError(t, err)
	assert.Equal(t, []any{"SOL", "ALPHACEN", "VEGA"}, resp["stars"])
	dists := resp["distances"].([]any)
	require.Len(t, dists, 3)
	assert.InDelta(t, 0.0, dists[0], 1e-9)
	assert.InDelta(t, s.sol.DistanceTo(s.ac), dists[1], 1e-9)

	resp, err = client.Call(ctx, "NearbyStars", map[string]any{"star": "SOL", "radius": 5.0})
	require.NoError(t, err)
	assert.Equal(t, []any{"SOL", "ALPHACEN"}, resp["stars"])

	_, err = client.Call(ctx, "NearbyStars", map[string]any{"star": "NOPE"})
	assertCode(t, codes.NotFound, err)
	_, err = client.Call(ctx, "NearbyStars", map[string]any{})
	assertCode(t, codes.InvalidArgument, err)
	_, err = client.Call(ctx, "NearbyStars", map[string]any{"star": "SOL", "radius": -1.0})
	assertCode(t, codes.InvalidArgument, err)
}

func TestServer_TravelTime(t *testing.T) {
	s := newTestStars(t)
	client := startServer(t, NewServer(loadedCatalog(t, s), zaptest.NewLogger(t)))
	ctx := callCtx(t)

	resp, err := client.Call(ctx, "TravelTime", map[string]any{
		"from": s.sol.JumpPoint(true).Name(),
		"to":   s.ac.JumpPoint(false).Name(),
	})
	require.NoError(t, err)
	assert.Equal(t, true, resp["can_jump"])
	assert.Equal(t, true, resp["reachable"])
	assert.InDelta(t, universe.JumpDuration, resp["hours"], 1e-9)
	assert.InDelta(t, 183.0, resp["recharge_hours"], 1e-9)

	resp, err = client.Call(ctx, "TravelTime", map[string]any{
		"from": s.sol.RechargeStation(true).Name(),
		"to":   s.sol.JumpPoint(true).Name(),
	})
	require.NoError(t, err)
	assert.Equal(t, false, resp["can_jump"])
	assert.InDelta(t, 0.3968, resp["hours"], 1e-3)

	resp, err = client.Call(ctx, "TravelTime", map[string]any{
		"from": s.sol.JumpPoint(true).Name(),
		"to":   s.far.JumpPoint(false).Name(),
	})
	require.NoError(t, err)
	assert.Equal(t, false, resp["reachable"])
	assert.Equal(t, -1.0, resp["hours"])

	_, err = client.Call(ctx, "TravelTime", map[string]any{"from": "garbage", "to": "[JumpPoint,star=SOL]"})
	assertCode(t, codes.InvalidArgument, err)
	_, err = client.Call(ctx, "TravelTime", map[string]any{"from": "[JumpPoint,star=NOPE]", "to": "[JumpPoint,star=SOL]"})
	assertCode(t, codes.NotFound, err)
}

func TestServer_RouteStats(t *testing.T) {
	s := newTestStars(t)
	client := startServer(t, NewServer(loadedCatalog(t, s), zaptest.NewLogger(t)))

	resp, err := client.Call(callCtx(t), "RouteStats", map[string]any{
		"locations": []any{
			s.sol.JumpPoint(true).Name(),
			"not a location",
			s.ac.JumpPoint(false).Name(),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, resp["hops"])
	assert.Equal(t, 1.0, resp["jumps"])
	assert.InDelta(t, 183.0/24, resp["recharge_days"], 1e-9)
	assert.InDelta(t, 184.0/24, resp["total_days"], 1e-9)
	assert.Equal(t, []any{"not a location"}, resp["skipped"])

	_, err = client.Call(callCtx(t), "RouteStats", map[string]any{"locations": "nope"})
	assertCode(t, codes.InvalidArgument, err)
}

func TestServer_PlanRoute(t *testing.T) {
	s := newTestStars(t)
	client := startServer(t, NewServer(loadedCatalog(t, s), zaptest.NewLogger(t)))
	ctx := callCtx(t)

	resp, err := client.Call(ctx, "PlanRoute", map[string]any{"from": "SOL", "to": "VEGA"})
	require.NoError(t, err)
	locs := resp["locations"].([]any)
	require.NotEmpty(t, locs)
	assert.Equal(t, s.sol.JumpPoint(true).Name(), locs[0])
	assert.Positive(t, resp["jumps"])
	assert.Positive(t, resp["total_days"])

	_, err = client.Call(ctx, "PlanRoute", map[string]any{"from": "SOL", "to": "FAR"})
	assertCode(t, codes.NotFound, err)
	_, err = client.Call(ctx, "PlanRoute", map[string]any{"from": "SOL", "to": "NOPE"})
	assertCode(t, codes.NotFound, err)

	resp, err = client.Call(ctx, "PlanRoute", map[string]any{"from": "SOL", "to": "VEGA", "max_jumps": 0})
	require.NoError(t, err)
	assert.Positive(t, resp["jumps"])

	for _, bad := range []any{-1, 1.5, "two", math.Inf(1)} {
		_, err = client.Call(ctx, "PlanRoute", map[string]any{"from": "SOL", "to": "VEGA", "max_jumps": bad})
		assertCode(t, codes.InvalidArgument, err)
	}
}

func TestServer_RoutesWithoutStore(t *testing.T) {
	s := newTestStars(t)
	client := startServer(t, NewServer(loadedCatalog(t, s), zaptest.NewLogger(t)))
	ctx := callCtx(t)

	_, err := client.Call(ctx, "SaveRoute", map[string]any{"name": "x"})
	assertCode(t, codes.Unimplemented, err)
	_, err = client.Call(ctx, "LoadRoute", map[string]any{"name": "x"})
	assertCode(t, codes.Unimplemented, err)
	_, err = client.Call(ctx, "ListRoutes", map[string]any{})
	assertCode(t, codes.Unimplemented, err)
}

func TestServer_SaveLoadRoute(t *testing.T) {
	s := newTestStars(t)
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "routes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	client := startServer(t, NewServer(loadedCatalog(t, s), zaptest.NewLogger(t), WithStore(store)))
	ctx := callCtx(t)

	names := []any{s.sol.JumpPoint(true).Name(), s.ac.JumpPoint(false).Name()}
	saved, err := client.Call(ctx, "SaveRoute", map[string]any{"name": "to alpha", "locations": names})
	require.NoError(t, err)
	assert.Equal(t, "to alpha", saved["name"])
	assert.Empty(t, saved["skipped"])

	_, err = client.Call(ctx, "SaveRoute", map[string]any{"name": "to alpha", "locations": names})
	assertCode(t, codes.AlreadyExists, err)
	_, err = client.Call(ctx, "SaveRoute", map[string]any{"locations": names})
	assertCode(t, codes.InvalidArgument, err)

	byID, err := client.Call(ctx, "LoadRoute", map[string]any{"id": saved["id"]})
	require.NoError(t, err)
	assert.Equal(t, names, byID["locations"])
	assert.Equal(t, 1.0, byID["jumps"])
	assert.InDelta(t, 184.0/24, byID["total_days"], 1e-9)

	byName, err := client.Call(ctx, "LoadRoute", map[string]any{"name": "to alpha"})
	require.NoError(t, err)
	assert.Equal(t, saved["id"], byName["id"])

	_, err = client.Call(ctx, "LoadRoute", map[string]any{"id": "not-a-uuid"})
	assertCode(t, codes.InvalidArgument, err)
	_, err = client.Call(ctx, "LoadRoute", map[string]any{"name": "missing"})
	assertCode(t, codes.NotFound, err)
	_, err = client.Call(ctx, "LoadRoute", map[string]any{})
	assertCode(t, codes.InvalidArgument, err)

	list, err := client.Call(ctx, "ListRoutes", map[string]any{})
	require.NoError(t, err)
	routes := list["routes"].([]any)
	require.Len(t, routes, 1)
	assert.Equal(t, "to alpha", routes[0].(map[string]any)["name"])
	assert.Equal(t, 2.0, routes[0].(map[string]any)["locations"])
}

func TestInvoke(t *testing.T) {
	s := newTestStars(t)
	srv := NewServer(loadedCatalog(t, s), zaptest.NewLogger(t))
	ctx := context.Background()

	resp, err := Invoke(ctx, srv, "NearbyStars", map[string]any{"star": "SOL", "radius": 5.0})
	require.NoError(t, err)
	assert.Equal(t, []any{"SOL", "ALPHACEN"}, resp["stars"])

	_, err = Invoke(ctx, srv, "PlanRoute", map[string]any{"from": "SOL", "to": "FAR"})
	assertCode(t, codes.NotFound, err)

	_, err = Invoke(ctx, srv, "Teleport", map[string]any{})
	assertCode(t, codes.Unimplemented, err)
}
