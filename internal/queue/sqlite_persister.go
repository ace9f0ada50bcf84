package queue

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// SQLitePersister stores the queue snapshot in a SQLite database. Each Save
// replaces every row inside one transaction.
type SQLitePersister struct {
	db   *sql.DB
	path string
}

// OpenSQLitePersister opens or creates the database at path.
func OpenSQLitePersister(ctx context.Context, path string) (*SQLitePersister, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create queue directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	p := &SQLitePersister{db: db, path: path}
	if err := p.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

// Path returns the database location.
func (p *SQLitePersister) Path() string {
	return p.path
}

// Close closes the underlying database connection.
func (p *SQLitePersister) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

func (p *SQLitePersister) initSchema(ctx context.Context) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	var version int
	err = tx.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case version != schemaVersion:
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Load reads the queue in insertion order.
func (p *SQLitePersister) Load(ctx context.Context) ([]Movie, error) {
	rows, err := p.db.QueryContext(ctx,
		"SELECT title, requestor, night_host, night_date FROM movies ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer rows.Close()

	movies := []Movie{}
	for rows.Next() {
		var (
			movie     Movie
			nightHost sql.NullString
			nightDate sql.NullString
		)
		if err := rows.Scan(&movie.Title, &movie.Requestor, &nightHost, &nightDate); err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		if nightDate.Valid {
			date, err := ParseDate(nightDate.String)
			if err != nil {
				return nil, fmt.Errorf("movie %q: planned movie night date: %w", movie.Title, err)
			}
			movie.PlannedMovieNight = &MovieNight{Host: nightHost.String, Date: date}
		}
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}
	return movies, nil
}

// Save replaces the stored queue with movies.
func (p *SQLitePersister) Save(ctx context.Context, movies []Movie) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM movies"); err != nil {
		return fmt.Errorf("clear movies: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO movies (position, title, requestor, night_host, night_date) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, movie := range movies {
		var nightHost, nightDate sql.NullString
		if movie.PlannedMovieNight != nil {
			nightHost = sql.NullString{String: movie.PlannedMovieNight.Host, Valid: true}
			nightDate = sql.NullString{String: FormatDate(movie.PlannedMovieNight.Date), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, i, movie.Title, movie.Requestor, nightHost, nightDate); err != nil {
			return fmt.Errorf("insert movie %q: %w", movie.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}
