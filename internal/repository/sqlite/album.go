// Package sqlite implements the record resource contract on an embedded
// sqlite database, for development and single-node deployments where running
// Postgres is overkill.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mkraev/crudkit/internal/model"
	"github.com/mkraev/crudkit/internal/query"
	"github.com/mkraev/crudkit/internal/repository"
	"github.com/mkraev/crudkit/internal/repository/sqlbuild"
)

var albumColumns = map[string]string{
	"id":     "id",
	"title":  "title",
	"artist": "artist",
	"genre":  "genre",
	"year":   "year",
}

const albumSelect = `SELECT id, title, artist, genre, year, created_at, updated_at FROM albums`

const albumSchema = `
CREATE TABLE IF NOT EXISTS albums (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	title      TEXT NOT NULL,
	artist     TEXT NOT NULL,
	genre      TEXT NOT NULL DEFAULT '',
	year       INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// Open opens (creating if needed) the database file and ensures the schema.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// The file is a single-writer store; serialize access at the pool level.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(albumSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure sqlite schema: %w", err)
	}
	return db, nil
}

type pinger struct{ db *sql.DB }

// NewPinger adapts the sql handle to the repository.Pinger interface.
func NewPinger(db *sql.DB) repository.Pinger { return &pinger{db: db} }

func (p *pinger) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

type albumResource struct {
	db  *sql.DB
	sql *sqlbuild.Builder
}

// NewAlbumResource returns the album backend over an open sqlite handle.
func NewAlbumResource(db *sql.DB) repository.Resource[model.Album] {
	return &albumResource{db: db, sql: sqlbuild.New(sqlbuild.SQLite, albumColumns)}
}

func (r *albumResource) Count(ctx context.Context, d query.Descriptor) (int, error) {
	where, args, err := r.sql.Where(d.Predicates)
	if err != nil {
		return 0, err
	}
	var total int
	stmt := sqlbuild.Join(`SELECT COUNT(*) FROM albums`, where)
	if err := r.db.QueryRowContext(ctx, stmt, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *albumResource) Search(ctx context.Context, d query.Descriptor) ([]model.Album, error) {
	where, args, err := r.sql.Where(d.Predicates)
	if err != nil {
		return nil, err
	}
	order, err := r.sql.OrderBy(d.Sort)
	if err != nil {
		return nil, err
	}
	paging, pargs := r.sql.Paging(d, len(args))
	args = append(args, pargs...)

	rows, err := r.db.QueryContext(ctx, sqlbuild.Join(albumSelect, where, order, paging), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Album
	for rows.Next() {
		var a model.Album
		if err := rows.Scan(&a.ID, &a.Title, &a.Artist, &a.Genre, &a.Year, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *albumResource) Fetch(ctx context.Context, key string) (model.Album, error) {
	id, err := parseKey(key)
	if err != nil {
		return model.Album{}, err
	}
	row := r.db.QueryRowContext(ctx, albumSelect+` WHERE id = ?`, id)
	var a model.Album
	if err := row.Scan(&a.ID, &a.Title, &a.Artist, &a.Genre, &a.Year, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Album{}, repository.ErrNotFound
		}
		return model.Album{}, err
	}
	return a, nil
}

func (r *albumResource) Create(ctx context.Context, rec model.Album) (model.Album, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO albums (title, artist, genre, year, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Title, rec.Artist, rec.Genre, rec.Year, now, now,
	)
	if err != nil {
		return model.Album{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Album{}, err
	}
	rec.ID = id
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return rec, nil
}

func (r *albumResource) Update(ctx context.Context, rec model.Album) (model.Album, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE albums SET title = ?, artist = ?, genre = ?, year = ?, updated_at = ? WHERE id = ?`,
		rec.Title, rec.Artist, rec.Genre, rec.Year, now, rec.ID,
	)
	if err != nil {
		return model.Album{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Album{}, err
	}
	if n == 0 {
		return model.Album{}, repository.ErrNotFound
	}
	return r.Fetch(ctx, strconv.FormatInt(rec.ID, 10))
}

func (r *albumResource) Delete(ctx context.Context, key string) error {
	id, err := parseKey(key)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM albums WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func parseKey(key string) (int64, error) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil || id < 1 {
		return 0, repository.ErrNotFound
	}
	return id, nil
}

var _ repository.Resource[model.Album] = (*albumResource)(nil)
