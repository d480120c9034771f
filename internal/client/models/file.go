package models

import (
	"time"

	"github.com/dmitrijs2005/gophsync/internal/reconcile"
	"github.com/google/uuid"
)

// File references an attachment blob in external storage.
type File struct {
	ID      string
	EntryID string
	reconcile.SyncState[string]

	Name       string
	StorageKey string
	Size       int64
}

func NewFile() *File {
	return &File{ID: uuid.NewString()}
}

type FileDTO struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StorageKey string    `json:"storage_key"`
	Size       int64     `json:"size"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (d FileDTO) RemoteID() string      { return d.ID }
func (d FileDTO) ModifiedAt() time.Time { return d.UpdatedAt }
