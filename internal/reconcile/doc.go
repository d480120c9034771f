// Package reconcile converges a local store onto an authoritative remote
// snapshot.
//
// # Overview
//
// A reconciliation pass takes an ordered slice of remote records (DTOs) of one
// type and the persisted entities of the matching type, and
//
//   - inserts entities for identities that are not stored yet,
//   - updates entities whose incoming timestamp is strictly newer
//     (last write wins, stale payloads are ignored),
//   - applies a DeletionPolicy to stored entities the snapshot no longer
//     mentions.
//
// Child collections nested in parent DTOs are reconciled by ChildTask values
// registered on a Reconciler. Each task groups children by parent identity,
// links every child to a parent resolved in the same pass, and scopes deletion
// to that parent only.
//
// # Persistence
//
// The package does not talk to a database directly. Callers supply a
// UnitOfWork (all-or-nothing execution) and a Store per entity type bound to
// the unit-of-work handle. See internal/dbx for the database/sql
// implementation.
//
// # Concurrency
//
// A pass is strictly sequential and holds no locks. Callers must serialize
// reconciliation calls that write the same store.
//
// Typical usage
//
//	r := reconcile.NewReconciler("vaults", dbx.NewTxRunner(db, nil), bindVaults).
//	    Register(entriesTask, membersTask)
//	res, err := r.Reconcile(ctx, snapshot.Vaults)
package reconcile
