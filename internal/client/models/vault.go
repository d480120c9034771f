package models

import (
	"time"

	"github.com/dmitrijs2005/gophsync/internal/reconcile"
	"github.com/google/uuid"
)

// Vault is the top-level container. It is soft-deleted when it disappears
// from a snapshot, so entries and members keep their local rows.
type Vault struct {
	// ID is the local primary key, independent of the remote identity.
	ID string
	reconcile.SyncState[string]
	reconcile.Tombstone

	Name string
}

// NewVault returns a vault with a fresh local id.
func NewVault() *Vault {
	return &Vault{ID: uuid.NewString()}
}

// VaultDTO is a vault as carried by a snapshot.
type VaultDTO struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	UpdatedAt time.Time   `json:"updated_at"`
	Entries   []EntryDTO  `json:"entries,omitempty"`
	Members   []MemberDTO `json:"members,omitempty"`
}

func (d VaultDTO) RemoteID() string      { return d.ID }
func (d VaultDTO) ModifiedAt() time.Time { return d.UpdatedAt }
