package crud

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/mkraev/crudkit/internal/query"
	"github.com/mkraev/crudkit/internal/repository"
)

// Controller sequences CRUD and search actions for one record type over one
// backend. All methods are stateless per request; a single controller is safe
// for concurrent use.
type Controller[T any] struct {
	cfg      Config[T]
	res      repository.Resource[T]
	hooks    Hooks[T]
	validate func(ctx context.Context, rec T) error
	log      zerolog.Logger
}

// New wires a controller. A nil hooks gets BaseHooks; a nil cfg.Validate gets
// struct validation over the record's validator tags.
func New[T any](cfg Config[T], res repository.Resource[T], hooks Hooks[T], logger zerolog.Logger) (*Controller[T], error) {
	if cfg.ModelName == "" {
		return nil, errors.New("crud: ModelName is required")
	}
	if cfg.PrimaryKey == "" {
		return nil, errors.New("crud: PrimaryKey is required")
	}
	if cfg.NewRecord == nil || cfg.KeyOf == nil {
		return nil, errors.New("crud: NewRecord and KeyOf are required")
	}
	if res == nil {
		return nil, errors.New("crud: resource is required")
	}
	if hooks == nil {
		hooks = BaseHooks[T]{}
	}
	vfn := cfg.Validate
	if vfn == nil {
		vfn = structValidate[T](validator.New(validator.WithRequiredStructEnabled()))
	}
	l := logger.With().Str("module", "crud").Str("model", cfg.ModelName).Logger()
	return &Controller[T]{cfg: cfg, res: res, hooks: hooks, validate: vfn, log: l}, nil
}

// Config returns a copy of the controller's configuration.
func (c *Controller[T]) Config() Config[T] { return c.cfg }

// View loads one record by key and authorizes reading it.
func (c *Controller[T]) View(ctx context.Context, key string) (Outcome[T], error) {
	rec, err := c.res.Fetch(ctx, key)
	if err != nil {
		return Outcome[T]{}, err
	}
	if err := c.hooks.CanRead(ctx, rec); err != nil {
		return Outcome[T]{}, err
	}
	return Outcome[T]{Kind: OutcomeRecord, Record: rec, Template: c.cfg.Template}, nil
}

// Save runs the full mutation sequence for a create or update:
// fetch (or blank record for NewKey) → CanWrite → Validate → Precommit →
// backend mutation → Postcommit. Any step failing aborts the rest.
func (c *Controller[T]) Save(ctx context.Context, key string, rec T) (Outcome[T], error) {
	action := ActionUpdate
	var current T
	if key == NewKey {
		action = ActionCreate
		current = c.cfg.NewRecord()
	} else {
		var err error
		current, err = c.res.Fetch(ctx, key)
		if err != nil {
			return Outcome[T]{}, err
		}
	}

	if err := c.hooks.CanWrite(ctx, current); err != nil {
		return Outcome[T]{}, err
	}
	if err := c.validate(ctx, rec); err != nil {
		c.log.Debug().Str("action", string(action)).Interface("field_errors", FieldErrors(err)).Msg("validation failed")
		return Outcome[T]{}, err
	}
	var saved T
	var out *Outcome[T]
	err := c.inTx(ctx, func(ctx context.Context) error {
		if err := c.hooks.Precommit(ctx, action, rec); err != nil {
			return err
		}
		var err error
		switch action {
		case ActionCreate:
			saved, err = c.res.Create(ctx, rec)
		default:
			saved, err = c.res.Update(ctx, rec)
		}
		if err != nil {
			c.log.Error().Err(err).Str("action", string(action)).Msg("mutation failed")
			return err
		}
		out, err = c.hooks.Postcommit(ctx, action, saved)
		return err
	})
	if err != nil {
		return Outcome[T]{}, err
	}
	if out != nil {
		return *out, nil
	}
	return redirect[T](c.recordPath(saved), c.cfg.Template), nil
}

// Remove deletes one record: fetch → CanWrite → Precommit → Delete →
// Postcommit. The default response redirects to the listing.
func (c *Controller[T]) Remove(ctx context.Context, key string) (Outcome[T], error) {
	rec, err := c.res.Fetch(ctx, key)
	if err != nil {
		return Outcome[T]{}, err
	}
	if err := c.hooks.CanWrite(ctx, rec); err != nil {
		return Outcome[T]{}, err
	}
	var out *Outcome[T]
	err = c.inTx(ctx, func(ctx context.Context) error {
		if err := c.hooks.Precommit(ctx, ActionDelete, rec); err != nil {
			return err
		}
		if err := c.res.Delete(ctx, key); err != nil {
			c.log.Error().Err(err).Str("key", key).Msg("delete failed")
			return err
		}
		var err error
		out, err = c.hooks.Postcommit(ctx, ActionDelete, rec)
		return err
	})
	if err != nil {
		return Outcome[T]{}, err
	}
	if out != nil {
		return *out, nil
	}
	return redirect[T](c.cfg.basePath(), c.cfg.Template), nil
}

// Search builds a descriptor from the raw request parameters, counts, and
// fetches a page. A zero count yields an empty listing with a zeroed pager;
// exactly one match redirects to the record when ViewOnSingleResult is set.
func (c *Controller[T]) Search(ctx context.Context, params url.Values) (Outcome[T], error) {
	d, err := query.Build(params, c.cfg.Fields,
		query.FilterOptions{CaseSensitive: c.cfg.CaseSensitiveMatch, NotEqual: c.cfg.NotEqual},
		query.NormalizeOptions{PrimaryKey: c.cfg.PrimaryKey, DefaultPageSize: c.cfg.PageSize},
	)
	if err != nil {
		return Outcome[T]{}, err
	}

	total, err := c.res.Count(ctx, d)
	if err != nil {
		c.log.Error().Err(err).Msg("count failed")
		return Outcome[T]{}, err
	}

	if total == 0 {
		pager := query.NewPager(0, 1, pageSizeOf(d))
		return Outcome[T]{Kind: OutcomeListing, Records: []T{}, Pager: &pager, Query: d, Template: c.cfg.Template}, nil
	}

	if total == 1 && c.cfg.ViewOnSingleResult {
		one := d
		limit, offset := 1, 0
		one.Limit, one.Offset = &limit, &offset
		recs, err := c.res.Search(ctx, one)
		if err != nil {
			return Outcome[T]{}, err
		}
		if len(recs) == 1 {
			return redirect[T](c.recordPath(recs[0]), c.cfg.Template), nil
		}
		// Count raced a concurrent delete; fall through to the listing.
	}

	recs, err := c.res.Search(ctx, d)
	if err != nil {
		c.log.Error().Err(err).Msg("search failed")
		return Outcome[T]{}, err
	}

	out := Outcome[T]{Kind: OutcomeListing, Records: recs, Query: d, Template: c.cfg.Template}
	if d.Paged() {
		page := *d.Offset / *d.Limit + 1
		pager := query.NewPager(total, page, *d.Limit)
		out.Pager = &pager
	}
	return out, nil
}

// inTx runs fn inside the configured transaction manager, or directly when
// the backend has none.
func (c *Controller[T]) inTx(ctx context.Context, fn func(context.Context) error) error {
	if c.cfg.Tx == nil {
		return fn(ctx)
	}
	return c.cfg.Tx.WithinTx(ctx, fn)
}

func (c *Controller[T]) recordPath(rec T) string {
	return fmt.Sprintf("%s/%s", c.cfg.basePath(), url.PathEscape(c.cfg.KeyOf(rec)))
}

func pageSizeOf(d query.Descriptor) int {
	if d.Limit != nil {
		return *d.Limit
	}
	return query.MaxPageSize
}
