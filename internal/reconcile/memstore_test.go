package reconcile

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/dbx"
)

// -------- test entities --------

type item struct {
	SyncState[string]
	Tombstone
	Name string
}

func cloneItem(e *item) *item {
	c := *e
	if e.DeletedAt != nil {
		t := *e.DeletedAt
		c.DeletedAt = &t
	}
	return &c
}

// plain has no soft-delete support.
type plain struct {
	SyncState[string]
	Name string
}

func clonePlain(e *plain) *plain {
	c := *e
	return &c
}

type kid struct {
	SyncState[string]
	ParentID string
	Name     string
}

func cloneKid(e *kid) *kid {
	c := *e
	return &c
}

type toy struct {
	SyncState[string]
	KidID string
	Name  string
}

func cloneToy(e *toy) *toy {
	c := *e
	return &c
}

// -------- test DTOs --------

type itemDTO struct {
	ID   string
	At   time.Time
	Name string
	Kids []kidDTO
	Pets []kidDTO
}

func (d itemDTO) RemoteID() string      { return d.ID }
func (d itemDTO) ModifiedAt() time.Time { return d.At }

type kidDTO struct {
	ID   string
	At   time.Time
	Name string
	Toys []toyDTO
}

func (d kidDTO) RemoteID() string      { return d.ID }
func (d kidDTO) ModifiedAt() time.Time { return d.At }

type toyDTO struct {
	ID   string
	At   time.Time
	Name string
}

func (d toyDTO) RemoteID() string      { return d.ID }
func (d toyDTO) ModifiedAt() time.Time { return d.At }

// -------- in-memory store --------

var errBoom = errors.New("boom")

type memStore[E Entity[string]] struct {
	rows  map[string]E
	clone func(E) E

	// failOp makes the named operation ("find", "all", "insert", "update",
	// "delete") return errBoom.
	failOp string

	finds int
}

func newMemStore[E Entity[string]](clone func(E) E, seed ...E) *memStore[E] {
	s := &memStore[E]{rows: make(map[string]E), clone: clone}
	for _, e := range seed {
		s.rows[e.State().RemoteID] = clone(e)
	}
	return s
}

func (s *memStore[E]) FindByRemoteIDs(ctx context.Context, ids []string) ([]E, error) {
	s.finds++
	if s.failOp == "find" {
		return nil, errBoom
	}
	var out []E
	for _, id := range ids {
		if e, ok := s.rows[id]; ok {
			out = append(out, s.clone(e))
		}
	}
	return out, nil
}

func (s *memStore[E]) All(ctx context.Context) ([]E, error) {
	return s.where(ctx, func(E) bool { return true })
}

func (s *memStore[E]) where(_ context.Context, keep func(E) bool) ([]E, error) {
	if s.failOp == "all" {
		return nil, errBoom
	}
	var out []E
	for _, id := range slices.Sorted(maps.Keys(s.rows)) {
		if e := s.rows[id]; keep(e) {
			out = append(out, s.clone(e))
		}
	}
	return out, nil
}

func (s *memStore[E]) Insert(ctx context.Context, e E) error {
	if s.failOp == "insert" {
		return errBoom
	}
	id := e.State().RemoteID
	if _, ok := s.rows[id]; ok {
		return fmt.Errorf("duplicate remote id %q", id)
	}
	s.rows[id] = s.clone(e)
	return nil
}

func (s *memStore[E]) Update(ctx context.Context, e E) error {
	if s.failOp == "update" {
		return errBoom
	}
	id := e.State().RemoteID
	if _, ok := s.rows[id]; !ok {
		return fmt.Errorf("update of missing remote id %q", id)
	}
	s.rows[id] = s.clone(e)
	return nil
}

func (s *memStore[E]) Delete(ctx context.Context, e E) error {
	if s.failOp == "delete" {
		return errBoom
	}
	delete(s.rows, e.State().RemoteID)
	return nil
}

func (s *memStore[E]) get(id string) (E, bool) {
	e, ok := s.rows[id]
	return e, ok
}

func (s *memStore[E]) ids() []string {
	return slices.Sorted(maps.Keys(s.rows))
}

func (s *memStore[E]) snapshot() func() {
	saved := make(map[string]E, len(s.rows))
	for id, e := range s.rows {
		saved[id] = s.clone(e)
	}
	return func() { s.rows = saved }
}

// memUOW restores every registered store when the body fails.
type memUOW struct {
	stores    []interface{ snapshot() func() }
	commits   int
	rollbacks int
}

func (u *memUOW) Do(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	restores := make([]func(), 0, len(u.stores))
	for _, s := range u.stores {
		restores = append(restores, s.snapshot())
	}
	if err := fn(ctx, nil); err != nil {
		for _, r := range restores {
			r()
		}
		u.rollbacks++
		return err
	}
	u.commits++
	return nil
}

// -------- helpers --------

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func at(m int) time.Time { return t0.Add(time.Duration(m) * time.Minute) }

func seedItem(id string, ts time.Time, name string) *item {
	return &item{SyncState: SyncState[string]{RemoteID: id, LastModified: ts}, Name: name}
}

func itemPass(s *memStore[*item], policy DeletionPolicy) Pass[string, itemDTO, *item] {
	return Pass[string, itemDTO, *item]{
		Store:  s,
		Apply:  func(e *item, d itemDTO) { e.Name = d.Name },
		Create: func(d itemDTO) *item { return &item{Name: d.Name} },
		Policy: policy,
		Now:    func() time.Time { return at(1000) },
	}
}

func newItemReconciler(s *memStore[*item], policy DeletionPolicy, extra ...interface{ snapshot() func() }) (*Reconciler[string, itemDTO, *item], *memUOW) {
	uow := &memUOW{stores: append([]interface{ snapshot() func() }{s}, extra...)}
	r := NewReconciler("items", uow, func(dbx.DBTX) Pass[string, itemDTO, *item] {
		return itemPass(s, policy)
	})
	return r, uow
}
