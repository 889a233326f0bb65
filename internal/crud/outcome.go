package crud

import "github.com/mkraev/crudkit/internal/query"

// OutcomeKind tells a renderer what shape an action produced.
type OutcomeKind string

const (
	// OutcomeRecord carries exactly one record.
	OutcomeRecord OutcomeKind = "record"
	// OutcomeListing carries zero or more records plus an optional pager.
	OutcomeListing OutcomeKind = "listing"
	// OutcomeRedirect carries only a location; HTTP renderers answer 303.
	OutcomeRedirect OutcomeKind = "redirect"
)

// Outcome is the data-only result of a controller action. It is created
// fresh per request and owned by the caller; the controller keeps nothing.
type Outcome[T any] struct {
	Kind     OutcomeKind
	Location string
	Template string

	Record  T
	Records []T

	// Pager is set on listings whose descriptor was paged; nil otherwise.
	Pager *query.Pager
	// Query is the descriptor the listing ran with, including the raw
	// filters and display string for search-form redisplay.
	Query query.Descriptor
}

func redirect[T any](location, template string) Outcome[T] {
	return Outcome[T]{Kind: OutcomeRedirect, Location: location, Template: template}
}
