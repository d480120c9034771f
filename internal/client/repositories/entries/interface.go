package entries

import (
	"context"

	"github.com/dmitrijs2005/gophsync/internal/client/models"
	"github.com/dmitrijs2005/gophsync/internal/reconcile"
)

// Repository is the entry store used by the sync service.
type Repository interface {
	reconcile.Store[string, *models.Entry]

	// FindByVault returns every entry owned by the vault with local id
	// vaultID, soft-deleted ones included.
	FindByVault(ctx context.Context, vaultID string) ([]*models.Entry, error)
}
