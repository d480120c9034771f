package reconcile

import (
	"context"
	"fmt"
	"time"
)

// Pass configures one reconciliation of a typed DTO collection.
type Pass[K comparable, D Record[K], E Entity[K]] struct {
	Store Store[K, E]

	// Fetch loads existing entities for an identity set.
	// Defaults to Store.FindByRemoteIDs.
	Fetch func(ctx context.Context, ids []K) ([]E, error)

	// Scope returns the candidate set for deletion.
	// Defaults to Store.All.
	Scope func(ctx context.Context) ([]E, error)

	// Apply copies the DTO payload onto an existing entity.
	Apply func(e E, d D)

	// Create builds a new entity from a DTO.
	Create func(d D) E

	Policy DeletionPolicy

	// RequireNonEmpty skips deletion when the DTO slice is empty.
	RequireNonEmpty bool

	// Now stamps soft deletions. Defaults to time.Now in UTC.
	Now func() time.Time
}

func (p Pass[K, D, E]) validate() error {
	switch {
	case p.Store == nil:
		return fmt.Errorf("%w: store is nil", ErrIncompletePass)
	case p.Apply == nil:
		return fmt.Errorf("%w: apply is nil", ErrIncompletePass)
	case p.Create == nil:
		return fmt.Errorf("%w: create is nil", ErrIncompletePass)
	}
	return nil
}

func (p Pass[K, D, E]) fetch(ctx context.Context, ids []K) ([]E, error) {
	if p.Fetch != nil {
		return p.Fetch(ctx, ids)
	}
	return p.Store.FindByRemoteIDs(ctx, ids)
}

func (p Pass[K, D, E]) scope(ctx context.Context) ([]E, error) {
	if p.Scope != nil {
		return p.Scope(ctx)
	}
	return p.Store.All(ctx)
}

// Run executes one pass inside the caller's unit of work and returns the
// summary together with every entity resolved for a DTO identity, keyed by
// remote id. The caller owns atomicity: on error it must roll back.
func Run[K comparable, D Record[K], E Entity[K]](ctx context.Context, p Pass[K, D, E], dtos []D) (Summary[K], map[K]E, error) {
	var sum Summary[K]

	if err := p.validate(); err != nil {
		return sum, nil, err
	}

	index, err := loadIndex(ctx, dtos, p.fetch)
	if err != nil {
		return sum, nil, err
	}

	u := upserter[K, D, E]{store: p.Store, apply: p.Apply, create: p.Create}
	touched, err := u.upsert(ctx, dtos, index, &sum)
	if err != nil {
		return sum, nil, err
	}

	if p.Policy == PolicyNone {
		return sum, index, nil
	}
	if p.RequireNonEmpty && len(dtos) == 0 {
		return sum, index, nil
	}

	scope, err := p.scope(ctx)
	if err != nil {
		return sum, nil, fmt.Errorf("fetch comparison scope: %w", err)
	}

	sum.Deleted, err = sweep(ctx, p.Store, scope, touched, p.Policy, clock(p.Now))
	if err != nil {
		return sum, nil, err
	}

	return sum, index, nil
}

func clock(now func() time.Time) func() time.Time {
	if now != nil {
		return now
	}
	return func() time.Time { return time.Now().UTC() }
}

// identities returns the distinct remote ids of dtos in first-seen order.
func identities[K comparable, D Record[K]](dtos []D) []K {
	seen := make(map[K]struct{}, len(dtos))
	ids := make([]K, 0, len(dtos))
	for _, d := range dtos {
		id := d.RemoteID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func loadIndex[K comparable, D Record[K], E Entity[K]](ctx context.Context, dtos []D,
	fetch func(context.Context, []K) ([]E, error)) (map[K]E, error) {

	ids := identities[K](dtos)
	index := make(map[K]E, len(ids))
	if len(ids) == 0 {
		return index, nil
	}

	existing, err := fetch(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch existing: %w", err)
	}
	for _, e := range existing {
		index[e.State().RemoteID] = e
	}
	return index, nil
}

// upserter runs the identity-matching loop shared by parent passes and child
// groups.
type upserter[K comparable, D Record[K], E Entity[K]] struct {
	store  Store[K, E]
	apply  func(E, D)
	create func(D) E
	link   func(E, D)
}

// upsert processes dtos in order against index. Inserted entities are added
// to index, so a repeated identity is compared with the in-memory entity left
// by its previous occurrence.
func (u upserter[K, D, E]) upsert(ctx context.Context, dtos []D, index map[K]E, sum *Summary[K]) (map[K]struct{}, error) {
	touched := make(map[K]struct{}, len(dtos))

	for _, d := range dtos {
		id := d.RemoteID()
		ts := d.ModifiedAt()

		if e, ok := index[id]; ok {
			st := e.State()
			if ts.After(st.LastModified) {
				if sd, ok := any(e).(SoftDeletable); ok && sd.Deleted() {
					sd.Reactivate()
				}
				u.apply(e, d)
				st.LastModified = ts
				if u.link != nil {
					u.link(e, d)
				}
				if err := u.store.Update(ctx, e); err != nil {
					return nil, fmt.Errorf("update %v: %w", id, err)
				}
				sum.Updated++
			}
		} else {
			e := u.create(d)
			st := e.State()
			st.RemoteID = id
			st.LastModified = ts
			if u.link != nil {
				u.link(e, d)
			}
			if err := u.store.Insert(ctx, e); err != nil {
				return nil, fmt.Errorf("insert %v: %w", id, err)
			}
			index[id] = e
			sum.Inserted++
		}

		sum.Touched = append(sum.Touched, id)
		touched[id] = struct{}{}
	}

	return touched, nil
}

// sweep applies policy to every entity in scope whose identity was not
// touched and returns how many were deleted.
func sweep[K comparable, E Entity[K]](ctx context.Context, store Store[K, E], scope []E,
	touched map[K]struct{}, policy DeletionPolicy, now func() time.Time) (int, error) {

	deleted := 0
	for _, e := range scope {
		id := e.State().RemoteID
		if _, ok := touched[id]; ok {
			continue
		}

		switch policy {
		case PolicyHardDeleteMissing:
			if err := store.Delete(ctx, e); err != nil {
				return deleted, fmt.Errorf("delete %v: %w", id, err)
			}
			deleted++

		case PolicySoftDeleteMissing:
			sd, ok := any(e).(SoftDeletable)
			if !ok {
				if err := store.Delete(ctx, e); err != nil {
					return deleted, fmt.Errorf("delete %v: %w", id, err)
				}
				deleted++
				continue
			}
			if sd.Deleted() {
				continue
			}
			sd.MarkDeleted(now())
			if err := store.Update(ctx, e); err != nil {
				return deleted, fmt.Errorf("soft delete %v: %w", id, err)
			}
			deleted++
		}
	}
	return deleted, nil
}
