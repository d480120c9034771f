// Package services contains application services for the sync client.
//
// SyncService pulls the authoritative snapshot, reconciles the vault graph
// into SQLite in one transaction, and records the applied revision. It is the
// single writer of the local store: cycles are serialized by a mutex.
package services
