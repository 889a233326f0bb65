// Package response centralizes HTTP response shapes and helpers.
// Handlers rely on it to keep controllers thin and uniform.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkraev/crudkit/internal/crud"
	"github.com/mkraev/crudkit/internal/query"
	"github.com/mkraev/crudkit/internal/repository"
)

// ErrorPayload is the canonical error envelope returned by the API.
// Submitted carries the raw filter/form values back on validation failures
// so a client can redisplay the form with prior input preserved.
type ErrorPayload struct {
	Error       string            `json:"error"`
	Message     string            `json:"message,omitempty"`
	FieldErrors []crud.FieldError `json:"field_errors,omitempty"`
	Submitted   any               `json:"submitted,omitempty"`
}

// MapError converts a domain / infrastructure error into an HTTP status and payload.
// Extend here as new domain error categories emerge.
func MapError(err error) (int, ErrorPayload) {
	if err == nil {
		return http.StatusOK, ErrorPayload{Error: "ok"}
	}

	if errors.Is(err, crud.ErrValidationFailed) {
		return http.StatusUnprocessableEntity, ErrorPayload{
			Error:       "validation_failed",
			Message:     "one or more fields are invalid",
			FieldErrors: crud.FieldErrors(err),
		}
	}

	switch {
	case errors.Is(err, query.ErrInvalidParameter):
		return http.StatusBadRequest, ErrorPayload{Error: "invalid_parameter", Message: err.Error()}
	case errors.Is(err, crud.ErrPermissionDenied):
		return http.StatusForbidden, ErrorPayload{Error: "permission_denied"}
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, ErrorPayload{Error: "not_found"}
	case errors.Is(err, repository.ErrAlreadyExists):
		return http.StatusConflict, ErrorPayload{Error: "already_exists"}
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, ErrorPayload{Error: "conflict"}
	default:
		return http.StatusInternalServerError, ErrorPayload{Error: "internal_error"}
	}
}

// WriteError writes an error response and aborts the context.
func WriteError(c *gin.Context, err error) {
	status, payload := MapError(err)
	c.AbortWithStatusJSON(status, payload)
}

// WriteErrorWithSubmitted is WriteError plus the submitted record, used on
// validation failures where the caller redisplays the form with prior input.
func WriteErrorWithSubmitted(c *gin.Context, err error, submitted any) {
	status, payload := MapError(err)
	if payload.Error == "validation_failed" {
		payload.Submitted = submitted
	}
	c.AbortWithStatusJSON(status, payload)
}

// WriteData writes a successful JSON response.
func WriteData(c *gin.Context, status int, data any) {
	c.JSON(status, data)
}

// Listing is the JSON envelope for listing outcomes.
type Listing[T any] struct {
	Items   []T          `json:"items"`
	Total   int          `json:"total"`
	Pager   *query.Pager `json:"pager,omitempty"`
	Pages   []int        `json:"pages,omitempty"`
	Filters string       `json:"filters,omitempty"`
}

// WriteOutcome renders a controller outcome: 303 + Location for redirects,
// a listing envelope, or the bare record.
func WriteOutcome[T any](c *gin.Context, out crud.Outcome[T]) {
	switch out.Kind {
	case crud.OutcomeRedirect:
		c.Header("Location", out.Location)
		c.JSON(http.StatusSeeOther, gin.H{"location": out.Location})
	case crud.OutcomeListing:
		body := Listing[T]{Items: out.Records, Filters: out.Query.Display}
		if out.Pager != nil {
			body.Total = out.Pager.Total
			body.Pager = out.Pager
			body.Pages = out.Pager.Pages()
		} else {
			body.Total = len(out.Records)
		}
		c.JSON(http.StatusOK, body)
	default:
		c.JSON(http.StatusOK, out.Record)
	}
}
