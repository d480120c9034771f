package reconcile

import (
	"fmt"
	"strings"
	"time"
)

// Record is a remote data-transfer object: an identity that is stable across
// syncs and a last-modified timestamp. Payload fields are type-specific.
type Record[K comparable] interface {
	RemoteID() K
	ModifiedAt() time.Time
}

// SyncState holds the engine-managed fields of a persisted entity. Embed it in
// entity structs; Apply and Create callbacks must leave it alone.
type SyncState[K comparable] struct {
	RemoteID     K
	LastModified time.Time
}

// State returns the embedded sync state so the engine can stamp it.
func (s *SyncState[K]) State() *SyncState[K] {
	return s
}

// Entity is a locally persisted record that mirrors a Record identity.
type Entity[K comparable] interface {
	State() *SyncState[K]
}

// SoftDeletable is implemented by entities that can be marked deleted instead
// of being removed. Embedding Tombstone provides it.
type SoftDeletable interface {
	Deleted() bool
	MarkDeleted(at time.Time)
	Reactivate()
}

// Tombstone is the soft-delete marker. A nil DeletedAt means active.
type Tombstone struct {
	DeletedAt *time.Time
}

// Deleted reports whether the entity is soft-deleted.
func (t *Tombstone) Deleted() bool {
	return t.DeletedAt != nil
}

// MarkDeleted sets the soft-delete marker.
func (t *Tombstone) MarkDeleted(at time.Time) {
	t.DeletedAt = &at
}

// Reactivate clears the soft-delete marker.
func (t *Tombstone) Reactivate() {
	t.DeletedAt = nil
}

// DeletionPolicy governs what happens to stored entities that are missing from
// the incoming slice.
type DeletionPolicy int

const (
	// PolicyNone never deletes.
	PolicyNone DeletionPolicy = iota
	// PolicyHardDeleteMissing removes missing entities from the store.
	PolicyHardDeleteMissing
	// PolicySoftDeleteMissing marks missing entities deleted when they support
	// it and removes them otherwise.
	PolicySoftDeleteMissing
)

var policyNames = map[DeletionPolicy]string{
	PolicyNone:              "none",
	PolicyHardDeleteMissing: "hard",
	PolicySoftDeleteMissing: "soft",
}

func (p DeletionPolicy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("DeletionPolicy(%d)", int(p))
}

// ParseDeletionPolicy accepts "none", "hard" or "soft" (case-insensitive).
func ParseDeletionPolicy(s string) (DeletionPolicy, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for p, name := range policyNames {
		if name == v {
			return p, nil
		}
	}
	return PolicyNone, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Summary reports the outcome of one pass. Touched lists identities in DTO
// processing order, duplicates included.
type Summary[K comparable] struct {
	Touched  []K
	Inserted int
	Updated  int
	Deleted  int
}

// Changed reports whether the pass wrote anything.
func (s Summary[K]) Changed() bool {
	return s.Inserted+s.Updated+s.Deleted > 0
}

// TaskReport is the type-erased outcome of a child task, including nested
// tasks. Skipped counts parent groups whose parent was not resolved.
type TaskReport struct {
	Name     string
	Touched  int
	Inserted int
	Updated  int
	Deleted  int
	Skipped  int
	Children []TaskReport
}

// Changed reports whether the task or any nested task wrote anything.
func (r TaskReport) Changed() bool {
	if r.Inserted+r.Updated+r.Deleted > 0 {
		return true
	}
	for _, c := range r.Children {
		if c.Changed() {
			return true
		}
	}
	return false
}

// Result is returned by Reconciler.Reconcile: the parent summary plus one
// report per registered child task, in registration order.
type Result[K comparable] struct {
	Summary[K]
	Children []TaskReport
}
