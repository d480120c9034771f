package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/dbx"
)

// ChildPass configures the reconciliation of one child type under parents of
// entity type PE.
type ChildPass[PE any, CK comparable, CD Record[CK], CE Entity[CK]] struct {
	Store Store[CK, CE]

	// Fetch loads existing children for the union of child identities of
	// all parents. Defaults to Store.FindByRemoteIDs.
	Fetch func(ctx context.Context, ids []CK) ([]CE, error)

	// Scope returns the children currently owned by parent. Required when
	// Policy is not PolicyNone.
	Scope func(ctx context.Context, parent PE) ([]CE, error)

	Apply  func(e CE, d CD)
	Create func(d CD) CE

	// Link sets the back-reference of child to parent. It runs after
	// Apply/Create and before the child is persisted.
	Link func(child CE, d CD, parent PE)

	Policy          DeletionPolicy
	RequireNonEmpty bool
	Now             func() time.Time
}

func (p ChildPass[PE, CK, CD, CE]) validate() error {
	switch {
	case p.Store == nil:
		return fmt.Errorf("%w: store is nil", ErrIncompletePass)
	case p.Apply == nil:
		return fmt.Errorf("%w: apply is nil", ErrIncompletePass)
	case p.Create == nil:
		return fmt.Errorf("%w: create is nil", ErrIncompletePass)
	case p.Link == nil:
		return fmt.Errorf("%w: link is nil", ErrIncompletePass)
	case p.Policy != PolicyNone && p.Scope == nil:
		return fmt.Errorf("%w: scope is nil", ErrIncompletePass)
	}
	return nil
}

func (p ChildPass[PE, CK, CD, CE]) fetch(ctx context.Context, ids []CK) ([]CE, error) {
	if p.Fetch != nil {
		return p.Fetch(ctx, ids)
	}
	return p.Store.FindByRemoteIDs(ctx, ids)
}

// Children is a ChildTask for child records of type CD nested in parent
// records of type PD. Tasks may nest further tasks for grandchildren.
type Children[PK comparable, PD Record[PK], PE Entity[PK], CK comparable, CD Record[CK], CE Entity[CK]] struct {
	Name string

	// Extract returns the child DTOs carried by a parent DTO.
	Extract func(p PD) []CD

	// ParentID returns the identity children are grouped under.
	// Defaults to the parent's RemoteID.
	ParentID func(p PD) PK

	// Bind builds the pass for one Run using the unit-of-work handle.
	Bind func(tx dbx.DBTX) ChildPass[PE, CK, CD, CE]

	// Tasks run after this task, with its children as their parents.
	Tasks []ChildTask[CK, CD, CE]
}

// TaskName returns the task name used in reports and errors.
func (c *Children[PK, PD, PE, CK, CD, CE]) TaskName() string {
	return c.Name
}

type childGroup[PK comparable, CD any] struct {
	parent PK
	dtos   []CD
}

func (c *Children[PK, PD, PE, CK, CD, CE]) group(parents []PD) ([]childGroup[PK, CD], []CK) {
	parentID := c.ParentID
	if parentID == nil {
		parentID = func(p PD) PK { return p.RemoteID() }
	}

	pos := make(map[PK]int, len(parents))
	groups := make([]childGroup[PK, CD], 0, len(parents))
	for _, p := range parents {
		pk := parentID(p)
		kids := c.Extract(p)
		if i, ok := pos[pk]; ok {
			groups[i].dtos = kids
			continue
		}
		pos[pk] = len(groups)
		groups = append(groups, childGroup[PK, CD]{parent: pk, dtos: kids})
	}

	var all []CD
	for _, g := range groups {
		all = append(all, g.dtos...)
	}
	return groups, identities[CK](all)
}

// Run reconciles the children of every resolved parent. Existing children are
// fetched once for all parents. Deletion is scoped to each parent and runs
// after all groups have been upserted; a child is deleted only when no
// resolved group of this run lists it.
func (c *Children[PK, PD, PE, CK, CD, CE]) Run(ctx context.Context, parents []PD, resolved map[PK]PE, tx dbx.DBTX) (TaskReport, error) {
	rep := TaskReport{Name: c.Name}

	if c.Extract == nil || c.Bind == nil {
		return rep, fmt.Errorf("%w: %s: extract or bind is nil", ErrIncompletePass, c.Name)
	}
	p := c.Bind(tx)
	if err := p.validate(); err != nil {
		return rep, err
	}

	groups, ids := c.group(parents)

	index := make(map[CK]CE, len(ids))
	if len(ids) > 0 {
		existing, err := p.fetch(ctx, ids)
		if err != nil {
			return rep, fmt.Errorf("fetch existing: %w", err)
		}
		for _, e := range existing {
			index[e.State().RemoteID] = e
		}
	}

	type done struct {
		parent  PE
		dtos    []CD
		touched map[CK]struct{}
	}
	processed := make([]done, 0, len(groups))
	present := make(map[CK]struct{}, len(ids))
	var sum Summary[CK]

	for _, g := range groups {
		parent, ok := resolved[g.parent]
		if !ok {
			rep.Skipped++
			continue
		}

		u := upserter[CK, CD, CE]{
			store:  p.Store,
			apply:  p.Apply,
			create: p.Create,
			link:   func(e CE, d CD) { p.Link(e, d, parent) },
		}
		touched, err := u.upsert(ctx, g.dtos, index, &sum)
		if err != nil {
			return rep, err
		}
		processed = append(processed, done{parent: parent, dtos: g.dtos, touched: touched})
		for id := range touched {
			present[id] = struct{}{}
		}
	}

	if p.Policy != PolicyNone {
		now := clock(p.Now)
		for _, d := range processed {
			if p.RequireNonEmpty && len(d.dtos) == 0 {
				continue
			}
			scope, err := p.Scope(ctx, d.parent)
			if err != nil {
				return rep, fmt.Errorf("fetch comparison scope: %w", err)
			}
			// A child listed under another parent whose move was not applied
			// (stale timestamp) is still in the payload and must survive.
			n, err := sweep(ctx, p.Store, scope, present, p.Policy, now)
			if err != nil {
				return rep, err
			}
			sum.Deleted += n
		}
	}

	rep.Touched = len(sum.Touched)
	rep.Inserted = sum.Inserted
	rep.Updated = sum.Updated
	rep.Deleted = sum.Deleted

	if len(c.Tasks) == 0 {
		return rep, nil
	}

	var children []CD
	owned := make(map[CK]CE)
	for _, d := range processed {
		children = append(children, d.dtos...)
		for id := range d.touched {
			owned[id] = index[id]
		}
	}
	for _, t := range c.Tasks {
		sub, err := t.Run(ctx, children, owned, tx)
		if err != nil {
			return rep, fmt.Errorf("%s: %w", t.TaskName(), err)
		}
		rep.Children = append(rep.Children, sub)
	}

	return rep, nil
}
