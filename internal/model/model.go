// Package model contains the record types served through the CRUD layer.
// I keep it lean and focused on data shapes without behavior.
package model

import "time"

// Album is the demo record type exercised by every backend. Validator tags
// drive the default save-time validation in the crud controller.
type Album struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title" validate:"required,min=1,max=200"`
	Artist    string    `json:"artist" validate:"required,min=1,max=120"`
	Genre     string    `json:"genre" validate:"omitempty,max=60"`
	Year      int       `json:"year" validate:"omitempty,gte=1900,lte=2100"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CatalogEntry is a record stored in the on-disk catalog file. Keys are
// opaque strings (uuids for new entries) rather than serials, since there is
// no database allocating them.
type CatalogEntry struct {
	Key       string    `json:"key"`
	Title     string    `json:"title" validate:"required,min=1,max=200"`
	Artist    string    `json:"artist" validate:"required,min=1,max=120"`
	Format    string    `json:"format" validate:"omitempty,oneof=vinyl cd tape digital"`
	Notes     string    `json:"notes" validate:"omitempty,max=2000"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
