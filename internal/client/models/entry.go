package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/reconcile"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// EntryType classifies an entry payload.
type EntryType string

const (
	EntryTypeNote       EntryType = "note"
	EntryTypeBinaryFile EntryType = "binaryfile"
	EntryTypeLogin      EntryType = "login"
	EntryTypeCreditCard EntryType = "credit_card"
)

var ErrEmptyPayload = errors.New("entry payload is empty")

// Entry is a vault item. Payload holds the JSON details for Kind.
type Entry struct {
	ID      string
	VaultID string
	reconcile.SyncState[string]
	reconcile.Tombstone

	Title   string
	Kind    EntryType
	Payload []byte
}

// NewEntry returns an entry with a fresh local id.
func NewEntry() *Entry {
	return &Entry{ID: uuid.NewString()}
}

// Details decodes Payload according to Kind. Unknown kinds decode into a
// generic map.
func (e *Entry) Details() (any, error) {
	if len(e.Payload) == 0 {
		return nil, ErrEmptyPayload
	}
	switch e.Kind {
	case EntryTypeLogin:
		var v Login
		return v, json.Unmarshal(e.Payload, &v)
	case EntryTypeNote:
		var v Note
		return v, json.Unmarshal(e.Payload, &v)
	case EntryTypeCreditCard:
		var v CreditCard
		return v, json.Unmarshal(e.Payload, &v)
	case EntryTypeBinaryFile:
		var v BinaryFile
		return v, json.Unmarshal(e.Payload, &v)
	default:
		var m map[string]any
		if err := json.Unmarshal(e.Payload, &m); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", e.Kind, err)
		}
		return m, nil
	}
}

// EntryDTO is an entry as carried inside a VaultDTO.
type EntryDTO struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Kind      EntryType       `json:"kind"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
	Files     []FileDTO       `json:"files,omitempty"`
}

func (d EntryDTO) RemoteID() string      { return d.ID }
func (d EntryDTO) ModifiedAt() time.Time { return d.UpdatedAt }

// Login stores credentials.
type Login struct {
	Username string `json:"username"`
	Password string `json:"password"`
	URL      string `json:"url"`
}

// Note stores free-form text.
type Note struct {
	Text string `json:"text"`
}

// CreditCard stores payment card details.
type CreditCard struct {
	Number     string `json:"number"`
	Expiration string `json:"expiration"`
	CVV        string `json:"cvv"`
	Holder     string `json:"holder"`
}

// BinaryFile describes an attachment entry; the blobs are listed as Files.
type BinaryFile struct {
	Description string `json:"description"`
}
