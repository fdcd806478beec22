// Package sqlite provides a single-file route store for deployments without a
// PostgreSQL server, such as the offline CLI.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/cory-johannsen/starmap/internal/route"
)

const schemaVersion = 1

// timeLayout is fixed-width so that created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// RouteStore persists saved jump paths in a SQLite database file.
type RouteStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and brings its schema up to date.
//
// Postcondition: Returns a ready RouteStore or a non-nil error.
func Open(ctx context.Context, path string) (*RouteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s: %w", path, err)
	}
	s := &RouteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}
	return s, nil
}

// Close closes the database.
func (s *RouteStore) Close() error {
	return s.db.Close()
}

func (s *RouteStore) migrate(ctx context.Context) error {
	version := 0
	// A missing table reads as version 0.
	_ = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)
	if version >= schemaVersion {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

		CREATE TABLE IF NOT EXISTS routes (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS route_locations (
			route_id TEXT    NOT NULL REFERENCES routes(id) ON DELETE CASCADE,
			seq      INTEGER NOT NULL,
			name     TEXT    NOT NULL,
			PRIMARY KEY (route_id, seq)
		);

		INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`)
	return err
}

// Save stores p under name with a freshly generated identifier.
//
// Precondition: name must be non-empty.
// Postcondition: Returns the stored record, or route.ErrRouteNameTaken on a
// duplicate name.
func (s *RouteStore) Save(ctx context.Context, name string, p *route.JumpPath) (route.Record, error) {
	if name == "" {
		return route.Record{}, errors.New("route name must not be empty")
	}
	rec := route.Record{
		ID:        uuid.New(),
		Name:      name,
		Locations: p.Names(),
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return route.Record{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO routes (id, name, created_at) VALUES (?, ?, ?)",
		rec.ID.String(), rec.Name, rec.CreatedAt.Format(timeLayout))
	if err != nil {
		if isUniqueViolation(err) {
			return route.Record{}, route.ErrRouteNameTaken
		}
		return route.Record{}, fmt.Errorf("inserting route: %w", err)
	}
	for i, loc := range rec.Locations {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO route_locations (route_id, seq, name) VALUES (?, ?, ?)",
			rec.ID.String(), i, loc); err != nil {
			return route.Record{}, fmt.Errorf("inserting route location %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return route.Record{}, fmt.Errorf("committing route: %w", err)
	}
	return rec, nil
}

// Get returns the route with the given identifier.
//
// Postcondition: Returns the record, or route.ErrRouteNotFound.
func (s *RouteStore) Get(ctx context.Context, id uuid.UUID) (route.Record, error) {
	return s.getOne(ctx, "SELECT id, name, created_at FROM routes WHERE id = ?", id.String())
}

// GetByName returns the route with the given name.
//
// Postcondition: Returns the record, or route.ErrRouteNotFound.
func (s *RouteStore) GetByName(ctx context.Context, name string) (route.Record, error) {
	return s.getOne(ctx, "SELECT id, name, created_at FROM routes WHERE name = ?", name)
}

func (s *RouteStore) getOne(ctx context.Context, query string, arg any) (route.Record, error) {
	rec, err := scanRoute(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return route.Record{}, route.ErrRouteNotFound
		}
		return route.Record{}, fmt.Errorf("querying route: %w", err)
	}
	if rec.Locations, err = s.locations(ctx, rec.ID); err != nil {
		return route.Record{}, err
	}
	return rec, nil
}

// List returns every saved route, newest first.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (s *RouteStore) List(ctx context.Context) ([]route.Record, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, created_at FROM routes ORDER BY created_at DESC, name ASC")
	if err != nil {
		return nil, fmt.Errorf("listing routes: %w", err)
	}
	var out []route.Record
	for rows.Next() {
		rec, err := scanRoute(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning route: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating routes: %w", err)
	}
	rows.Close()

	for i := range out {
		if out[i].Locations, err = s.locations(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Delete removes the route with the given identifier.
//
// Postcondition: Returns nil, or route.ErrRouteNotFound if no row matched.
func (s *RouteStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM routes WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("deleting route: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting route: %w", err)
	}
	if n == 0 {
		return route.ErrRouteNotFound
	}
	return nil
}

func (s *RouteStore) locations(ctx context.Context, id uuid.UUID) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM route_locations WHERE route_id = ? ORDER BY seq", id.String())
	if err != nil {
		return nil, fmt.Errorf("loading route locations: %w", err)
	}
	defer rows.Close()
	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scanning route location: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoute(row rowScanner) (route.Record, error) {
	var (
		rec       route.Record
		id, stamp string
	)
	if err := row.Scan(&id, &rec.Name, &stamp); err != nil {
		return route.Record{}, err
	}
	var err error
	if rec.ID, err = uuid.Parse(id); err != nil {
		return route.Record{}, fmt.Errorf("parsing route id %q: %w", id, err)
	}
	if rec.CreatedAt, err = time.Parse(timeLayout, stamp); err != nil {
		return route.Record{}, fmt.Errorf("parsing route timestamp %q: %w", stamp, err)
	}
	return rec, nil
}

func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

var _ route.Store = (*RouteStore)(nil)
