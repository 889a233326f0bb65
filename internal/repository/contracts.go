package repository

import (
	"context"

	"github.com/mkraev/crudkit/internal/query"
)

// Pinger represents a minimal readiness probe capability.
// I use it to decouple health checks from storage implementation details.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Resource is the collaborator contract every record backend implements.
// Count and Search take the same descriptor; callers run Count first, decide
// on pagination, then Search with limit/offset in place. Keys travel as
// strings because they arrive from URLs; each backend parses its own key
// shape and answers ErrNotFound for keys it cannot parse.
type Resource[T any] interface {
	Count(ctx context.Context, d query.Descriptor) (int, error)
	Search(ctx context.Context, d query.Descriptor) ([]T, error)
	Fetch(ctx context.Context, key string) (T, error)
	Create(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, rec T) (T, error)
	Delete(ctx context.Context, key string) error
}

// TxFunc is the unit of work executed within a transaction boundary.
type TxFunc func(ctx context.Context) error

// TxManager abstracts transactional execution for backends that support it.
// I prefer a single entry point to keep transaction boundaries explicit and testable.
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}
