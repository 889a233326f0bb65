// Package crud holds the generic controller that sequences CRUD and search
// actions over any record backend: fetch, authorize, precommit, mutate,
// postcommit. Kept intentionally lean: only use-case coordination, validation
// and domain error shaping.
package crud

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mkraev/crudkit/internal/query"
	"github.com/mkraev/crudkit/internal/repository"
)

// NewKey is the sentinel identity a save request uses for a record that does
// not exist yet.
const NewKey = "new"

// Action names the mutation a hook is being consulted about.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ErrPermissionDenied is returned when an authorization hook vetoes access.
var ErrPermissionDenied = errors.New("permission denied")

// ErrValidationFailed is the marker error for aggregated validation failures
// (maps to HTTP 422). Field-level details are retrieved via FieldErrors(err).
var ErrValidationFailed = errors.New("validation failed")

// FieldError describes a single invalid field in a submitted record.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// validationError aggregates FieldError instances and unwraps to ErrValidationFailed.
type validationError struct {
	fields []FieldError
}

func (e *validationError) Error() string        { return ErrValidationFailed.Error() }
func (e *validationError) Unwrap() error        { return ErrValidationFailed }
func (e *validationError) Fields() []FieldError { return e.fields }

// Invalid builds an aggregated validation error, or nil with no field errors.
func Invalid(fields ...FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &validationError{fields: fields}
}

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	type feIface interface{ Fields() []FieldError }
	if v, ok := err.(feIface); ok && errors.Is(err, ErrValidationFailed) {
		return v.Fields()
	}
	return nil
}

// Config declares everything a controller needs to serve one record type.
// Every field the old hash-style configuration carried is a named, typed
// field here; zero values get documented defaults from New.
type Config[T any] struct {
	// ModelName is the URL segment and log tag for this record type.
	ModelName string
	// PrimaryKey is the field that identifies a single record; it is also
	// the default sort column (descending) when a search names none.
	PrimaryKey string
	// Fields lists the names clients may filter on. Search predicates never
	// reference anything outside this list.
	Fields []string
	// BasePath overrides the canonical URL prefix; default "/" + ModelName.
	BasePath string
	// Template names the default view for HTML renderers; carried through on
	// outcomes untouched.
	Template string
	// PageSize is the rows-per-page default when a search does not set
	// _page_size. Values above query.MaxPageSize are capped there anyway.
	PageSize int
	// ViewOnSingleResult redirects a search matching exactly one record to
	// that record's canonical view instead of rendering a one-row listing.
	ViewOnSingleResult bool
	// CaseSensitiveMatch makes wildcard filters use LIKE instead of ILIKE.
	CaseSensitiveMatch bool
	// NotEqual is the operator emitted for negated filter values ("!=" when empty).
	NotEqual query.Operator

	// Tx, when set, runs precommit, mutation and postcommit inside one
	// transaction so a postcommit failure rolls the mutation back. Nil
	// means each backend call commits on its own.
	Tx repository.TxManager

	// NewRecord produces the blank record a create starts from.
	NewRecord func() T
	// KeyOf extracts the identifying key from a record, for redirects.
	KeyOf func(T) string
	// Validate checks a submitted record before precommit. Nil means struct
	// validation via the record's validator tags.
	Validate func(ctx context.Context, rec T) error
}

func (c Config[T]) basePath() string {
	if c.BasePath != "" {
		return c.BasePath
	}
	return "/" + c.ModelName
}

// Hooks is the strategy interface a controller consults around mutations.
// Embed BaseHooks to pick up no-op defaults and override selectively.
type Hooks[T any] interface {
	// CanRead authorizes viewing a record. Return ErrPermissionDenied
	// (wrapped or bare) to refuse.
	CanRead(ctx context.Context, rec T) error
	// CanWrite authorizes mutating a record. For creates it receives the
	// blank record from NewRecord.
	CanWrite(ctx context.Context, rec T) error
	// Precommit may veto the mutation; any error aborts before the backend
	// is touched.
	Precommit(ctx context.Context, action Action, rec T) error
	// Postcommit runs after a successful mutation and may supply the
	// response. A nil outcome means the default: redirect to the record's
	// canonical view, or to the listing after a delete.
	Postcommit(ctx context.Context, action Action, rec T) (*Outcome[T], error)
}

// BaseHooks is the documented all-defaults Hooks implementation: everything
// allowed, no vetoes, default responses.
type BaseHooks[T any] struct{}

func (BaseHooks[T]) CanRead(context.Context, T) error            { return nil }
func (BaseHooks[T]) CanWrite(context.Context, T) error           { return nil }
func (BaseHooks[T]) Precommit(context.Context, Action, T) error  { return nil }
func (BaseHooks[T]) Postcommit(context.Context, Action, T) (*Outcome[T], error) {
	return nil, nil
}

// structValidate is the default Validate: go-playground struct validation
// translated into the aggregated field-error shape.
func structValidate[T any](v *validator.Validate) func(context.Context, T) error {
	return func(ctx context.Context, rec T) error {
		err := v.StructCtx(ctx, rec)
		if err == nil {
			return nil
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{
				Field:   strings.ToLower(fe.Field()),
				Message: tagMessage(fe),
			})
		}
		return Invalid(fields...)
	}
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
