package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophsync/internal/client/models"
)

// Inventory summarizes the active part of the local store.
type Inventory struct {
	Vaults  int
	Entries map[models.EntryType]int
	// Unreadable counts active entries whose payload does not decode for
	// their kind. They are not included in Entries.
	Unreadable int
}

// Total returns the number of readable active entries.
func (inv Inventory) Total() int {
	n := 0
	for _, c := range inv.Entries {
		n += c
	}
	return n
}

// Inventory walks active vaults and their active entries, decoding every
// payload.
func (s *SyncService) Inventory(ctx context.Context) (Inventory, error) {
	inv := Inventory{Entries: make(map[models.EntryType]int)}

	vs, err := s.repos.Vaults(s.db).ListActive(ctx)
	if err != nil {
		return inv, err
	}
	inv.Vaults = len(vs)

	entries := s.repos.Entries(s.db)
	for _, v := range vs {
		es, err := entries.FindByVault(ctx, v.ID)
		if err != nil {
			return inv, fmt.Errorf("inventory of vault %s: %w", v.RemoteID, err)
		}
		for _, e := range es {
			if e.Deleted() {
				continue
			}
			if _, err := e.Details(); err != nil && !errors.Is(err, models.ErrEmptyPayload) {
				inv.Unreadable++
				s.logger.Warn(ctx, "unreadable entry payload",
					"entry", e.RemoteID, "kind", e.Kind, "error", err)
				continue
			}
			inv.Entries[e.Kind]++
		}
	}
	return inv, nil
}
