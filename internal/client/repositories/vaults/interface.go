package vaults

import (
	"context"

	"github.com/dmitrijs2005/gophsync/internal/client/models"
	"github.com/dmitrijs2005/gophsync/internal/reconcile"
)

// Repository is the vault store used by the sync service.
type Repository interface {
	reconcile.Store[string, *models.Vault]

	// ListActive returns vaults that are not soft-deleted, ordered by name.
	ListActive(ctx context.Context) ([]*models.Vault, error)
}
