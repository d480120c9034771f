package reconcile

import (
	"context"

	"github.com/dmitrijs2005/gophsync/internal/dbx"
)

// Store is the narrow persistence surface a pass needs for one entity type.
// Implementations are bound to the handle handed out by a UnitOfWork.
type Store[K comparable, E Entity[K]] interface {
	// FindByRemoteIDs returns the stored entities whose remote id is in ids.
	// It must not return other entities and must accept an empty slice.
	FindByRemoteIDs(ctx context.Context, ids []K) ([]E, error)

	// All returns every stored entity of the type, soft-deleted ones included.
	All(ctx context.Context) ([]E, error)

	Insert(ctx context.Context, e E) error
	Update(ctx context.Context, e E) error
	Delete(ctx context.Context, e E) error
}

// UnitOfWork runs fn atomically: every store mutation made through tx commits
// together, or none does when fn returns an error.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error
}

// UnitOfWorkFunc adapts a function to UnitOfWork.
type UnitOfWorkFunc func(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error

func (f UnitOfWorkFunc) Do(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return f(ctx, fn)
}
