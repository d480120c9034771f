package models

import (
	"time"

	"github.com/dmitrijs2005/gophsync/internal/reconcile"
	"github.com/google/uuid"
)

// Member grants a user access to a vault. Members carry no tombstone: a
// member missing from a snapshot is removed.
type Member struct {
	ID      string
	VaultID string
	reconcile.SyncState[string]

	Username string
	Role     string
}

func NewMember() *Member {
	return &Member{ID: uuid.NewString()}
}

type MemberDTO struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d MemberDTO) RemoteID() string      { return d.ID }
func (d MemberDTO) ModifiedAt() time.Time { return d.UpdatedAt }
