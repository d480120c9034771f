// Package vaults persists vaults in the local SQLite store.
//
// SQLiteRepository implements reconcile.Store for *models.Vault over a
// dbx.DBTX, so the same code runs on a plain *sql.DB or inside the sync
// transaction. Timestamps are stored as fixed-width UTC text (see timex.Stamp).
package vaults
