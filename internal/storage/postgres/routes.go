package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/starmap/internal/route"
)

// RouteRepository persists saved jump paths in the routes table.
type RouteRepository struct {
	db *pgxpool.Pool
}

// NewRouteRepository creates a RouteRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewRouteRepository(db *pgxpool.Pool) *RouteRepository {
	return &RouteRepository{db: db}
}

// Save inserts p under name with a freshly generated identifier.
//
// Precondition: name must be non-empty.
// Postcondition: Returns the stored record, or route.ErrRouteNameTaken on a
// duplicate name.
func (r *RouteRepository) Save(ctx context.Context, name string, p *route.JumpPath) (route.Record, error) {
	if name == "" {
		return route.Record{}, errors.New("route name must not be empty")
	}
	rec := route.Record{ID: uuid.New(), Name: name, Locations: p.Names()}
	err := r.db.QueryRow(ctx, `
		INSERT INTO routes (id, name, locations)
		VALUES ($1::uuid, $2, $3)
		RETURNING created_at`,
		rec.ID.String(), rec.Name, rec.Locations,
	).Scan(&rec.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return route.Record{}, route.ErrRouteNameTaken
		}
		return route.Record{}, fmt.Errorf("inserting route: %w", err)
	}
	return rec, nil
}

// Get returns the route with the given identifier.
//
// Postcondition: Returns the record, or route.ErrRouteNotFound.
func (r *RouteRepository) Get(ctx context.Context, id uuid.UUID) (route.Record, error) {
	return r.getOne(ctx, `
		SELECT id::text, name, locations, created_at
		FROM routes WHERE id = $1::uuid`, id.String())
}

// GetByName returns the route with the given name.
//
// Postcondition: Returns the record, or route.ErrRouteNotFound.
func (r *RouteRepository) GetByName(ctx context.Context, name string) (route.Record, error) {
	return r.getOne(ctx, `
		SELECT id::text, name, locations, created_at
		FROM routes WHERE name = $1`, name)
}

func (r *RouteRepository) getOne(ctx context.Context, query string, arg any) (route.Record, error) {
	rec, err := scanRoute(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return route.Record{}, route.ErrRouteNotFound
		}
		return route.Record{}, fmt.Errorf("querying route: %w", err)
	}
	return rec, nil
}

// List returns every saved route, newest first.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *RouteRepository) List(ctx context.Context) ([]route.Record, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id::text, name, locations, created_at
		FROM routes ORDER BY created_at DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing routes: %w", err)
	}
	defer rows.Close()

	var out []route.Record
	for rows.Next() {
		rec, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning route: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating routes: %w", err)
	}
	return out, nil
}

// Delete removes the route with the given identifier.
//
// Postcondition: Returns nil, or route.ErrRouteNotFound if no row matched.
func (r *RouteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM routes WHERE id = $1::uuid`, id.String())
	if err != nil {
		return fmt.Errorf("deleting route: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return route.ErrRouteNotFound
	}
	return nil
}

func scanRoute(row pgx.Row) (route.Record, error) {
	var (
		rec route.Record
		id  string
	)
	if err := row.Scan(&id, &rec.Name, &rec.Locations, &rec.CreatedAt); err != nil {
		return route.Record{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return route.Record{}, fmt.Errorf("parsing route id %q: %w", id, err)
	}
	rec.ID = parsed
	return rec, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}

var _ route.Store = (*RouteRepository)(nil)
