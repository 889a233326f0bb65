package postgres

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkraev/crudkit/internal/model"
	"github.com/mkraev/crudkit/internal/query"
	"github.com/mkraev/crudkit/internal/repository"
	"github.com/mkraev/crudkit/internal/repository/sqlbuild"
)

// albumColumns is the identifier allow-list for filter and sort fields.
// Nothing outside it ever reaches SQL text.
var albumColumns = map[string]string{
	"id":     "id",
	"title":  "title",
	"artist": "artist",
	"genre":  "genre",
	"year":   "year",
}

const albumSelect = `SELECT id, title, artist, genre, year, created_at, updated_at FROM albums`

type albumResource struct {
	pool *pgxpool.Pool
	sql  *sqlbuild.Builder
}

// NewAlbumResource returns the album backend over a pgx pool.
func NewAlbumResource(pool *pgxpool.Pool) repository.Resource[model.Album] {
	return &albumResource{pool: pool, sql: sqlbuild.New(sqlbuild.Postgres, albumColumns)}
}

func (r *albumResource) Count(ctx context.Context, d query.Descriptor) (int, error) {
	where, args, err := r.sql.Where(d.Predicates)
	if err != nil {
		return 0, err
	}
	stmt := sqlbuild.Join(`SELECT COUNT(*) FROM albums`, where)
	var total int
	if err := getQ(ctx, r.pool).QueryRow(ctx, stmt, args...).Scan(&total); err != nil {
		return 0, repository.MapPgError(err)
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

	stmt := sqlbuild.Join(albumSelect, where, order, paging)
	rows, err := getQ(ctx, r.pool).Query(ctx, stmt, args...)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()

	var out []model.Album
	for rows.Next() {
		var a model.Album
		if err := rows.Scan(&a.ID, &a.Title, &a.Artist, &a.Genre, &a.Year, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, repository.MapPgError(err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *albumResource) Fetch(ctx context.Context, key string) (model.Album, error) {
	id, err := parseAlbumKey(key)
	if err != nil {
		return model.Album{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx, albumSelect+` WHERE id = $1`, id)
	var a model.Album
	if err := row.Scan(&a.ID, &a.Title, &a.Artist, &a.Genre, &a.Year, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Album{}, repository.ErrNotFound
		}
		return model.Album{}, repository.MapPgError(err)
	}
	return a, nil
}

func (r *albumResource) Create(ctx context.Context, rec model.Album) (model.Album, error) {
	row := getQ(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO albums (title, artist, genre, year) VALUES ($1, $2, $3, $4)
		 RETURNING id, title, artist, genre, year, created_at, updated_at`,
		rec.Title, rec.Artist, rec.Genre, rec.Year,
	)
	var a model.Album
	if err := row.Scan(&a.ID, &a.Title, &a.Artist, &a.Genre, &a.Year, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return model.Album{}, repository.MapPgError(err)
	}
	return a, nil
}

func (r *albumResource) Update(ctx context.Context, rec model.Album) (model.Album, error) {
	row := getQ(ctx, r.pool).QueryRow(ctx,
		`UPDATE albums SET title = $1, artist = $2, genre = $3, year = $4, updated_at = now()
		 WHERE id = $5
		 RETURNING id, title, artist, genre, year, created_at, updated_at`,
		rec.Title, rec.Artist, rec.Genre, rec.Year, rec.ID,
	)
	var a model.Album
	if err := row.Scan(&a.ID, &a.Title, &a.Artist, &a.Genre, &a.Year, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Album{}, repository.ErrNotFound
		}
		return model.Album{}, repository.MapPgError(err)
	}
	return a, nil
}

func (r *albumResource) Delete(ctx context.Context, key string) error {
	id, err := parseAlbumKey(key)
	if err != nil {
		return err
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx, `DELETE FROM albums WHERE id = $1`, id)
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// parseAlbumKey turns the URL key into a serial id. A key that is not a
// number cannot name an existing album, so it maps to ErrNotFound rather
// than a parameter error.
func parseAlbumKey(key string) (int64, error) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil || id < 1 {
		return 0, repository.ErrNotFound
	}
	return id, nil
}

var _ repository.Resource[model.Album] = (*albumResource)(nil)
