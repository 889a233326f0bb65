// Package fs implements the record resource contract over a JSON catalog
// file on disk. It exists for installations with no database at all; the
// whole catalog is read, filtered and rewritten per operation, guarded by a
// mutex, which is plenty for the catalog sizes this targets.
package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/mkraev/crudkit/internal/model"
)

// CatalogFile is the wrapped on-disk representation: one JSON array of
// entries. The resource composes it explicitly rather than forwarding
// unknown calls; callers that need the raw file go through File().
type CatalogFile struct {
	path string
	mu   sync.Mutex
}

// NewCatalogFile wraps the file at path. The file may not exist yet; a
// missing file reads as an empty catalog.
func NewCatalogFile(path string) *CatalogFile {
	return &CatalogFile{path: path}
}

// Path is the location of the underlying file.
func (f *CatalogFile) Path() string { return f.path }

// load reads every entry. Callers must hold f.mu.
func (f *CatalogFile) load() ([]model.CatalogEntry, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read catalog %q: %w", f.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var entries []model.CatalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode catalog %q: %w", f.path, err)
	}
	return entries, nil
}

// store rewrites the whole file. Callers must hold f.mu.
func (f *CatalogFile) store(entries []model.CatalogEntry) error {
	if entries == nil {
		entries = []model.CatalogEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write catalog %q: %w", f.path, err)
	}
	return nil
}
