// Package mapserver exposes the star map over gRPC. Requests and responses are
// google.protobuf.Struct values so the service needs no generated code; field
// names are documented on each method.
package mapserver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/starmap/internal/catalog"
	"github.com/cory-johannsen/starmap/internal/route"
	"github.com/cory-johannsen/starmap/internal/universe"
)

// Server implements StarMapServer over a catalog and an optional route store.
type Server struct {
	catalog  *catalog.Catalog
	store    route.Store
	logger   *zap.Logger
	maxJumps int
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables SaveRoute, LoadRoute and ListRoutes.
func WithStore(store route.Store) Option {
	return func(s *Server) { s.store = store }
}

// WithMaxJumps sets the default jump limit for PlanRoute. Zero is unbounded.
func WithMaxJumps(n int) Option {
	return func(s *Server) { s.maxJumps = n }
}

// NewServer creates a Server.
//
// Precondition: cat must be non-nil. A nil logger is replaced by a no-op logger.
func NewServer(cat *catalog.Catalog, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{catalog: cat, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) ready() error {
	if st := s.catalog.State(); st != catalog.StateReady {
		return status.Errorf(codes.Unavailable, "catalog %s", st)
	}
	return nil
}

// NearbyStars lists stars near a star.
//
// Request: {star: string, radius?: number (ly, default 30)}.
// Response: {stars: [string], distances: [number]}, nearest first, the star
// itself included.
func (s *Server) NearbyStars(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	star, err := s.star(req, "star")
	if err != nil {
		return nil, err
	}
	radius := numberField(req, "radius", universe.JumpRange)
	if radius < 0 || math.IsNaN(radius) {
		return nil, status.Errorf(codes.InvalidArgument, "radius must be >= 0, got %g", radius)
	}
	found := s.catalog.NearbyStars(star, radius)
	ids := make([]any, len(found))
	dists := make([]any, len(found))
	for i, other := range found {
		ids[i] = other.ID()
		dists[i] = star.DistanceTo(other)
	}
	return newStruct(map[string]any{"stars": ids, "distances": dists})
}

// TravelTime reports the cost of a single hop between two locations.
//
// Request: {from: string, to: string} canonical location names.
// Response: {hours: number, reachable: bool, can_jump: bool, recharge_hours: number}.
// An unreachable hop reports reachable=false and hours=-1.
func (s *Server) TravelTime(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	from, err := s.location(req, "from")
	if err != nil {
		return nil, err
	}
	to, err := s.location(req, "to")
	if err != nil {
		return nil, err
	}
	canJump := from.CanJumpTo(to)
	hours := from.TravelTimeTo(to)
	if canJump {
		hours = universe.JumpDuration
	}
	return newStruct(map[string]any{
		"hours":          finite(hours),
		"reachable":      !math.IsInf(hours, 1),
		"can_jump":       canJump,
		"recharge_hours": finite(from.RechargeTime()),
	})
}

// RouteStats computes statistics for a list of locations.
//
// Request: {locations: [string]}.
// Response: {hops, jumps, recharge_days, total_days, skipped: [string]}.
// total_days is -1 when some hop is impossible.
func (s *Server) RouteStats(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	names, err := stringList(req, "locations")
	if err != nil {
		return nil, err
	}
	p, skipped := route.FromNames(names, s.catalog.Registry())
	return statsStruct(p, skipped, nil)
}

// PlanRoute finds the fastest chain of jumps between two stars.
//
// Request: {from: string, to: string, max_jumps?: number} star identifiers.
// max_jumps must be a non-negative whole number; 0 means no limit.
// Response: {locations: [string], jumps, total_days}.
func (s *Server) PlanRoute(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	from, err := s.star(req, "from")
	if err != nil {
		return nil, err
	}
	to, err := s.star(req, "to")
	if err != nil {
		return nil, err
	}
	maxJumps, err := countField(req, "max_jumps", s.maxJumps)
	if err != nil {
		return nil, err
	}
	planner := route.NewPlanner(s.catalog.Grid())
	planner.MaxJumps = maxJumps
	p, err := planner.Plan(from, to)
	if err != nil {
		if errors.Is(err, route.ErrNoRoute) {
			return nil, status.Error(codes.NotFound, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return newStruct(map[string]any{
		"locations":  stringsToAny(p.Names()),
		"jumps":      p.Jumps(),
		"total_days": finite(p.TotalTime(0)),
	})
}

// SaveRoute stores a named route.
//
// Request: {name: string, locations: [string]}.
// Response: {id: string, name: string, skipped: [string]}.
func (s *Server) SaveRoute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, status.Error(codes.Unimplemented, "no route store configured")
	}
	name, err := stringField(req, "name")
	if err != nil {
		return nil, err
	}
	names, err := stringList(req, "locations")
	if err != nil {
		return nil, err
	}
	p, skipped := route.FromNames(names, s.catalog.Registry())
	rec, err := s.store.Save(ctx, name, p)
	if err != nil {
		return nil, storeError(err)
	}
	s.logger.Info("route saved", zap.String("route", rec.ID.String()), zap.String("name", name), zap.Int("locations", len(rec.Locations)))
	return newStruct(map[string]any{
		"id":      rec.ID.String(),
		"name":    rec.Name,
		"skipped": stringsToAny(skipped),
	})
}

// LoadRoute fetches a saved route by identifier or name and resolves it
// against the current catalog.
//
// Request: {id: string} or {name: string}.
// Response: {id, name, locations: [string], hops, jumps, recharge_days,
// total_days, skipped: [string]}.
func (s *Server) LoadRoute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, status.Error(codes.Unimplemented, "no route store configured")
	}
	var (
		rec route.Record
		err error
	)
	if raw, ok := req.GetFields()["id"]; ok {
		id, perr := uuid.Parse(raw.GetStringValue())
		if perr != nil {
			return nil, status.Errorf(codes.InvalidArgument, "id: %v", perr)
		}
		rec, err = s.store.Get(ctx, id)
	} else {
		name, ferr := stringField(req, "name")
		if ferr != nil {
			return nil, status.Error(codes.InvalidArgument, "id or name is required")
		}
		rec, err = s.store.GetByName(ctx, name)
	}
	if err != nil {
		return nil, storeError(err)
	}
	p, skipped := rec.Path(s.catalog.Registry())
	return statsStruct(p, skipped, map[string]any{
		"id":        rec.ID.String(),
		"name":      rec.Name,
		"locations": stringsToAny(p.Names()),
	})
}

// ListRoutes lists saved routes, newest first.
//
// Response: {routes: [{id, name, locations: number}]}.
func (s *Server) ListRoutes(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if s.store == nil {
		return nil, status.Error(codes.Unimplemented, "no route store configured")
	}
	recs, err := s.store.List(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	out := make([]any, len(recs))
	for i, r := range recs {
		out[i] = map[string]any{"id": r.ID.String(), "name": r.Name, "locations": len(r.Locations)}
	}
	return newStruct(map[string]any{"routes": out})
}

func (s *Server) star(req *structpb.Struct, key string) (*universe.Star, error) {
	id, err := stringField(req, key)
	if err != nil {
		return nil, err
	}
	star, ok := s.catalog.StarByID(id)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "%s: unknown star %q", key, id)
	}
	return star, nil
}

func (s *Server) location(req *structpb.Struct, key string) (universe.Location, error) {
	name, err := stringField(req, key)
	if err != nil {
		return universe.Nowhere, err
	}
	loc, err := universe.ParseLocation(name, s.catalog)
	if err != nil {
		return universe.Nowhere, status.Errorf(codes.InvalidArgument, "%s: %v", key, err)
	}
	if loc.Star() == nil {
		return universe.Nowhere, status.Errorf(codes.NotFound, "%s: location %q references an unknown star", key, name)
	}
	return loc, nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, route.ErrRouteNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, route.ErrRouteNameTaken):
		return status.Error(codes.AlreadyExists, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func statsStruct(p *route.JumpPath, skipped []string, extra map[string]any) (*structpb.Struct, error) {
	st := p.Stats()
	m := map[string]any{
		"hops":          st.Hops,
		"jumps":         st.Jumps,
		"recharge_days": finite(st.RechargeDays),
		"total_days":    finite(st.TotalDays),
		"skipped":       stringsToAny(skipped),
	}
	for k, v := range extra {
		m[k] = v
	}
	return newStruct(m)
}

func stringField(req *structpb.Struct, key string) (string, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok || sv.StringValue == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s must be a non-empty string", key)
	}
	return sv.StringValue, nil
}

func numberField(req *structpb.Struct, key string, def float64) float64 {
	v, ok := req.GetFields()[key]
	if !ok {
		return def
	}
	if nv, ok := v.GetKind().(*structpb.Value_NumberValue); ok {
		return nv.NumberValue
	}
	return def
}

// countField reads a non-negative whole number, or def when key is absent.
func countField(req *structpb.Struct, key string, def int) (int, error) {
	if _, ok := req.GetFields()[key]; !ok {
		return def, nil
	}
	n := numberField(req, key, math.NaN())
	if !(n >= 0) || n > math.MaxInt32 || n != math.Trunc(n) {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a non-negative whole number", key)
	}
	return int(n), nil
}

func stringList(req *structpb.Struct, key string) ([]string, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return nil, nil
	}
	lv := v.GetListValue()
	if lv == nil {
		return nil, status.Errorf(codes.InvalidArgument, "%s must be a list of strings", key)
	}
	out := make([]string, 0, len(lv.GetValues()))
	for i, item := range lv.GetValues() {
		sv, ok := item.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "%s[%d] must be a string", key, i)
		}
		out = append(out, sv.StringValue)
	}
	return out, nil
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// finite maps +Inf, which has no JSON form, to -1.
func finite(f float64) float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return -1
	}
	return f
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encoding response: %v", err))
	}
	return out, nil
}
