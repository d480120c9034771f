package members

import (
	"context"

	"github.com/dmitrijs2005/gophsync/internal/client/models"
	"github.com/dmitrijs2005/gophsync/internal/reconcile"
)

type Repository interface {
	reconcile.Store[string, *models.Member]

	// FindByVault returns the members of the vault with local id vaultID.
	FindByVault(ctx context.Context, vaultID string) ([]*models.Member, error)
}
