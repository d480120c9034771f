package files

import (
	"context"

	"github.com/dmitrijs2005/gophsync/internal/client/models"
	"github.com/dmitrijs2005/gophsync/internal/reconcile"
)

type Repository interface {
	reconcile.Store[string, *models.File]

	// FindByEntry returns the files attached to the entry with local id entryID.
	FindByEntry(ctx context.Context, entryID string) ([]*models.File, error)
}
