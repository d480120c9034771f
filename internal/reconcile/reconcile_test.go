package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_InsertsThenIsIdempotent(t *testing.T) {
	s := newMemStore(cloneItem)
	r, uow := newItemReconciler(s, PolicyHardDeleteMissing)
	ctx := context.Background()

	dtos := []itemDTO{
		{ID: "a", At: at(1), Name: "A"},
		{ID: "b", At: at(2), Name: "B"},
	}

	res, err := r.Reconcile(ctx, dtos)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Touched)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, 0, res.Deleted)

	a, ok := s.get("a")
	require.True(t, ok)
	assert.Equal(t, "A", a.Name)
	assert.True(t, a.LastModified.Equal(at(1)))

	res, err = r.Reconcile(ctx, dtos)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, 0, res.Deleted)
	assert.False(t, res.Changed())
	assert.Equal(t, []string{"a", "b"}, s.ids())
	assert.Equal(t, 2, uow.commits)
}

func TestReconcile_UpdatesOnlyWhenStrictlyNewer(t *testing.T) {
	s := newMemStore(cloneItem,
		seedItem("older", at(10), "old"),
		seedItem("equal", at(10), "old"),
		seedItem("newer", at(10), "old"),
	)
	r, _ := newItemReconciler(s, PolicyNone)

	res, err := r.Reconcile(context.Background(), []itemDTO{
		{ID: "older", At: at(5), Name: "stale"},
		{ID: "equal", At: at(10), Name: "same-time"},
		{ID: "newer", At: at(11), Name: "fresh"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, []string{"older", "equal", "newer"}, res.Touched)

	older, _ := s.get("older")
	equal, _ := s.get("equal")
	newer, _ := s.get("newer")
	assert.Equal(t, "old", older.Name)
	assert.True(t, older.LastModified.Equal(at(10)))
	assert.Equal(t, "old", equal.Name)
	assert.Equal(t, "fresh", newer.Name)
	assert.True(t, newer.LastModified.Equal(at(11)))
}

func TestReconcile_HardDeleteMissing(t *testing.T) {
	s := newMemStore(cloneItem,
		seedItem("a", at(1), "A"),
		seedItem("b", at(1), "B"),
	)
	r, _ := newItemReconciler(s, PolicyHardDeleteMissing)

	res, err := r.Reconcile(context.Background(), []itemDTO{{ID: "a", At: at(2), Name: "A'"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, []string{"a"}, s.ids())

	a, _ := s.get("a")
	assert.Equal(t, "A'", a.Name)
}

func TestReconcile_PolicyNoneKeepsMissing(t *testing.T) {
	s := newMemStore(cloneItem, seedItem("a", at(1), "A"), seedItem("b", at(1), "B"))
	r, _ := newItemReconciler(s, PolicyNone)

	res, err := r.Reconcile(context.Background(), []itemDTO{{ID: "a", At: at(1), Name: "A"}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Deleted)
	assert.Equal(t, []string{"a", "b"}, s.ids())
}

func TestReconcile_SoftDeleteAndReactivation(t *testing.T) {
	s := newMemStore(cloneItem,
		seedItem("a", at(1), "A"),
		seedItem("b", at(1), "B"),
	)
	r, _ := newItemReconciler(s, PolicySoftDeleteMissing)
	ctx := context.Background()

	res, err := r.Reconcile(ctx, []itemDTO{{ID: "a", At: at(1), Name: "A"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)

	a, _ := s.get("a")
	b, _ := s.get("b")
	assert.Nil(t, a.DeletedAt)
	require.NotNil(t, b.DeletedAt)
	assert.True(t, b.DeletedAt.Equal(at(1000)))
	assert.Equal(t, "B", b.Name)

	// Already soft-deleted entities are not counted again.
	res, err = r.Reconcile(ctx, []itemDTO{{ID: "a", At: at(1), Name: "A"}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Deleted)

	res, err = r.Reconcile(ctx, []itemDTO{
		{ID: "a", At: at(1), Name: "A"},
		{ID: "b", At: at(3), Name: "B'"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 0, res.Deleted)

	b, _ = s.get("b")
	assert.Nil(t, b.DeletedAt)
	assert.Equal(t, "B'", b.Name)
	assert.True(t, b.LastModified.Equal(at(3)))
}

func TestReconcile_StaleDTODoesNotReactivate(t *testing.T) {
	gone := seedItem("b", at(5), "B")
	gone.MarkDeleted(at(6))
	s := newMemStore(cloneItem, gone)
	r, _ := newItemReconciler(s, PolicySoftDeleteMissing)

	res, err := r.Reconcile(context.Background(), []itemDTO{{ID: "b", At: at(5), Name: "B"}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Updated)

	b, _ := s.get("b")
	assert.True(t, b.Deleted())
}

func TestReconcile_SoftDeleteFallsBackToRemoval(t *testing.T) {
	s := newMemStore(clonePlain,
		&plain{SyncState: SyncState[string]{RemoteID: "a", LastModified: at(1)}},
		&plain{SyncState: SyncState[string]{RemoteID: "b", LastModified: at(1)}},
	)
	uow := &memUOW{stores: []interface{ snapshot() func() }{s}}
	r := NewReconciler("plain", uow, func(dbx.DBTX) Pass[string, itemDTO, *plain] {
		return Pass[string, itemDTO, *plain]{
			Store:  s,
			Apply:  func(e *plain, d itemDTO) { e.Name = d.Name },
			Create: func(d itemDTO) *plain { return &plain{Name: d.Name} },
			Policy: PolicySoftDeleteMissing,
		}
	})

	res, err := r.Reconcile(context.Background(), []itemDTO{{ID: "a", At: at(1)}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, []string{"a"}, s.ids())
}

func TestReconcile_EmptySliceGuard(t *testing.T) {
	seed := func() *memStore[*item] {
		return newMemStore(cloneItem, seedItem("a", at(1), "A"), seedItem("b", at(1), "B"))
	}

	t.Run("guarded empty slice deletes nothing", func(t *testing.T) {
		s := seed()
		uow := &memUOW{stores: []interface{ snapshot() func() }{s}}
		r := NewReconciler("items", uow, func(dbx.DBTX) Pass[string, itemDTO, *item] {
			p := itemPass(s, PolicyHardDeleteMissing)
			p.RequireNonEmpty = true
			return p
		})

		res, err := r.Reconcile(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, Summary[string]{}, res.Summary)
		assert.Equal(t, []string{"a", "b"}, s.ids())
	})

	t.Run("unguarded empty slice deletes whole scope", func(t *testing.T) {
		s := seed()
		r, _ := newItemReconciler(s, PolicyHardDeleteMissing)

		res, err := r.Reconcile(context.Background(), []itemDTO{})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Deleted)
		assert.Empty(t, s.ids())
	})
}

func TestReconcile_DuplicateIdentityConvergesOnNewest(t *testing.T) {
	t.Run("ascending timestamps", func(t *testing.T) {
		s := newMemStore(cloneItem)
		r, _ := newItemReconciler(s, PolicyNone)

		res, err := r.Reconcile(context.Background(), []itemDTO{
			{ID: "a", At: at(1), Name: "first"},
			{ID: "a", At: at(2), Name: "second"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Inserted)
		assert.Equal(t, 1, res.Updated)
		assert.Equal(t, []string{"a", "a"}, res.Touched)

		a, _ := s.get("a")
		assert.Equal(t, "second", a.Name)
		assert.True(t, a.LastModified.Equal(at(2)))
	})

	t.Run("descending timestamps", func(t *testing.T) {
		s := newMemStore(cloneItem, seedItem("a", at(0), "seed"))
		r, _ := newItemReconciler(s, PolicyNone)

		res, err := r.Reconcile(context.Background(), []itemDTO{
			{ID: "a", At: at(2), Name: "newest"},
			{ID: "a", At: at(1), Name: "older"},
		})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Inserted)
		assert.Equal(t, 1, res.Updated)

		a, _ := s.get("a")
		assert.Equal(t, "newest", a.Name)
		assert.True(t, a.LastModified.Equal(at(2)))
	})
}

func TestReconcile_CustomScopeNarrowsDeletion(t *testing.T) {
	s := newMemStore(cloneItem,
		seedItem("team-1", at(1), "team"),
		seedItem("team-2", at(1), "team"),
		seedItem("solo-1", at(1), "solo"),
	)
	uow := &memUOW{stores: []interface{ snapshot() func() }{s}}
	r := NewReconciler("items", uow, func(dbx.DBTX) Pass[string, itemDTO, *item] {
		p := itemPass(s, PolicyHardDeleteMissing)
		p.Scope = func(ctx context.Context) ([]*item, error) {
			return s.where(ctx, func(e *item) bool { return e.Name == "team" })
		}
		return p
	})

	res, err := r.Reconcile(context.Background(), []itemDTO{{ID: "team-1", At: at(1), Name: "team"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, []string{"solo-1", "team-1"}, s.ids())
}

func TestReconcile_CustomFetchIsUsed(t *testing.T) {
	s := newMemStore(cloneItem, seedItem("a", at(1), "A"))
	var asked []string
	uow := &memUOW{stores: []interface{ snapshot() func() }{s}}
	r := NewReconciler("items", uow, func(dbx.DBTX) Pass[string, itemDTO, *item] {
		p := itemPass(s, PolicyNone)
		p.Fetch = func(ctx context.Context, ids []string) ([]*item, error) {
			asked = append(asked, ids...)
			return s.FindByRemoteIDs(ctx, ids)
		}
		return p
	})

	_, err := r.Reconcile(context.Background(), []itemDTO{
		{ID: "a", At: at(2)}, {ID: "b", At: at(2)}, {ID: "a", At: at(3)},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, asked)
}

func TestReconcile_EmptyPayloadSkipsExistingFetch(t *testing.T) {
	s := newMemStore(cloneItem)
	r, _ := newItemReconciler(s, PolicyNone)

	_, err := r.Reconcile(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.finds)
}

func TestReconcile_StoreFailureRollsBack(t *testing.T) {
	for _, op := range []string{"find", "all", "insert", "update", "delete"} {
		t.Run(op, func(t *testing.T) {
			s := newMemStore(cloneItem,
				seedItem("a", at(1), "A"),
				seedItem("gone", at(1), "G"),
			)
			r, uow := newItemReconciler(s, PolicyHardDeleteMissing)
			s.failOp = op

			_, err := r.Reconcile(context.Background(), []itemDTO{
				{ID: "a", At: at(2), Name: "A'"},
				{ID: "new", At: at(2), Name: "N"},
			})
			require.ErrorIs(t, err, errBoom)
			assert.Equal(t, 1, uow.rollbacks)

			s.failOp = ""
			assert.Equal(t, []string{"a", "gone"}, s.ids())
			a, _ := s.get("a")
			assert.Equal(t, "A", a.Name)
		})
	}
}

func TestRun_IncompletePass(t *testing.T) {
	s := newMemStore(cloneItem)

	cases := map[string]func(p *Pass[string, itemDTO, *item]){
		"no store":  func(p *Pass[string, itemDTO, *item]) { p.Store = nil },
		"no apply":  func(p *Pass[string, itemDTO, *item]) { p.Apply = nil },
		"no create": func(p *Pass[string, itemDTO, *item]) { p.Create = nil },
	}
	for name, breakIt := range cases {
		t.Run(name, func(t *testing.T) {
			p := itemPass(s, PolicyHardDeleteMissing)
			breakIt(&p)
			_, _, err := Run(context.Background(), p, []itemDTO{{ID: "a", At: at(1)}})
			require.ErrorIs(t, err, ErrIncompletePass)
			assert.Empty(t, s.ids())
		})
	}
}

func TestRun_ReturnsResolvedEntities(t *testing.T) {
	s := newMemStore(cloneItem, seedItem("a", at(5), "A"))

	_, resolved, err := Run(context.Background(), itemPass(s, PolicyNone), []itemDTO{
		{ID: "a", At: at(1), Name: "stale"},
		{ID: "b", At: at(1), Name: "B"},
	})
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, "A", resolved["a"].Name)
	assert.Equal(t, "B", resolved["b"].Name)
}

func TestRun_DefaultClockStampsSoftDeletes(t *testing.T) {
	s := newMemStore(cloneItem, seedItem("a", at(1), "A"))
	p := itemPass(s, PolicySoftDeleteMissing)
	p.Now = nil

	before := time.Now().UTC()
	_, _, err := Run(context.Background(), p, []itemDTO{{ID: "z", At: at(1)}})
	require.NoError(t, err)

	a, _ := s.get("a")
	require.NotNil(t, a.DeletedAt)
	assert.False(t, a.DeletedAt.Before(before))
}

func TestDeletionPolicy_ParseAndString(t *testing.T) {
	tests := []struct {
		in   string
		want DeletionPolicy
	}{
		{"none", PolicyNone},
		{"HARD", PolicyHardDeleteMissing},
		{" soft ", PolicySoftDeleteMissing},
	}
	for _, tt := range tests {
		got, err := ParseDeletionPolicy(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseDeletionPolicy("purge")
	require.ErrorIs(t, err, ErrUnknownPolicy)

	assert.Equal(t, "soft", PolicySoftDeleteMissing.String())
	assert.Equal(t, "DeletionPolicy(9)", DeletionPolicy(9).String())
}
