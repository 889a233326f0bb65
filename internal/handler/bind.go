package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mkraev/crudkit/internal/crud"
	"github.com/mkraev/crudkit/internal/model"
)

// bindAlbum decodes an album body and stamps the id from the URL key.
// Decoding failures surface as a validation error, not parser internals.
func bindAlbum(c *gin.Context, key string) (model.Album, error) {
	var rec model.Album
	if err := c.ShouldBindJSON(&rec); err != nil {
		return model.Album{}, crud.Invalid(crud.FieldError{Field: "body", Message: "malformed request body"})
	}
	if key != crud.NewKey {
		id, err := strconv.ParseInt(key, 10, 64)
		if err == nil {
			rec.ID = id
		}
	}
	return rec, nil
}

func bindEntry(c *gin.Context, key string) (model.CatalogEntry, error) {
	var rec model.CatalogEntry
	if err := c.ShouldBindJSON(&rec); err != nil {
		return model.CatalogEntry{}, crud.Invalid(crud.FieldError{Field: "body", Message: "malformed request body"})
	}
	if key != crud.NewKey {
		rec.Key = key
	}
	return rec, nil
}
