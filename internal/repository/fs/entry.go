package fs

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mkraev/crudkit/internal/model"
	"github.com/mkraev/crudkit/internal/query"
	"github.com/mkraev/crudkit/internal/repository"
)

// entryFields maps filterable/sortable field names to value getters.
// It is the fs equivalent of a SQL column allow-list.
var entryFields = map[string]func(model.CatalogEntry) string{
	"key":    func(e model.CatalogEntry) string { return e.Key },
	"title":  func(e model.CatalogEntry) string { return e.Title },
	"artist": func(e model.CatalogEntry) string { return e.Artist },
	"format": func(e model.CatalogEntry) string { return e.Format },
	"notes":  func(e model.CatalogEntry) string { return e.Notes },
}

// EntryResource serves catalog entries from a wrapped catalog file,
// evaluating descriptors in memory.
type EntryResource struct {
	file *CatalogFile
}

func NewEntryResource(file *CatalogFile) *EntryResource {
	return &EntryResource{file: file}
}

// File exposes the wrapped representation for callers that need the path.
func (r *EntryResource) File() *CatalogFile { return r.file }

func (r *EntryResource) Count(_ context.Context, d query.Descriptor) (int, error) {
	r.file.mu.Lock()
	defer r.file.mu.Unlock()
	entries, err := r.file.load()
	if err != nil {
		return 0, err
	}
	matched, err := filterEntries(entries, d.Predicates)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

func (r *EntryResource) Search(_ context.Context, d query.Descriptor) ([]model.CatalogEntry, error) {
	r.file.mu.Lock()
	defer r.file.mu.Unlock()
	entries, err := r.file.load()
	if err != nil {
		return nil, err
	}
	matched, err := filterEntries(entries, d.Predicates)
	if err != nil {
		return nil, err
	}
	if err := sortEntries(matched, d.Sort); err != nil {
		return nil, err
	}
	if d.Paged() {
		matched = window(matched, *d.Offset, *d.Limit)
	}
	return matched, nil
}

func (r *EntryResource) Fetch(_ context.Context, key string) (model.CatalogEntry, error) {
	r.file.mu.Lock()
	defer r.file.mu.Unlock()
	entries, err := r.file.load()
	if err != nil {
		return model.CatalogEntry{}, err
	}
	for _, e := range entries {
		if e.Key == key {
			return e, nil
		}
	}
	return model.CatalogEntry{}, repository.ErrNotFound
}

func (r *EntryResource) Create(_ context.Context, rec model.CatalogEntry) (model.CatalogEntry, error) {
	r.file.mu.Lock()
	defer r.file.mu.Unlock()
	entries, err := r.file.load()
	if err != nil {
		return model.CatalogEntry{}, err
	}
	if rec.Key == "" {
		rec.Key = uuid.NewString()
	} else {
		for _, e := range entries {
			if e.Key == rec.Key {
				return model.CatalogEntry{}, repository.ErrAlreadyExists
			}
		}
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if err := r.file.store(append(entries, rec)); err != nil {
		return model.CatalogEntry{}, err
	}
	return rec, nil
}

func (r *EntryResource) Update(_ context.Context, rec model.CatalogEntry) (model.CatalogEntry, error) {
	r.file.mu.Lock()
	defer r.file.mu.Unlock()
	entries, err := r.file.load()
	if err != nil {
		return model.CatalogEntry{}, err
	}
	for i, e := range entries {
		if e.Key == rec.Key {
			rec.CreatedAt = e.CreatedAt
			rec.UpdatedAt = time.Now().UTC()
			entries[i] = rec
			if err := r.file.store(entries); err != nil {
				return model.CatalogEntry{}, err
			}
			return rec, nil
		}
	}
	return model.CatalogEntry{}, repository.ErrNotFound
}

func (r *EntryResource) Delete(_ context.Context, key string) error {
	r.file.mu.Lock()
	defer r.file.mu.Unlock()
	entries, err := r.file.load()
	if err != nil {
		return err
	}
	for i, e := range entries {
		if e.Key == key {
			return r.file.store(append(entries[:i], entries[i+1:]...))
		}
	}
	return repository.ErrNotFound
}

var _ repository.Resource[model.CatalogEntry] = (*EntryResource)(nil)
