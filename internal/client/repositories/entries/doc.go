// Package entries persists vault entries in the local SQLite store.
//
// Entries are children of vaults: each row carries the local vault id and the
// row is removed together with its vault. FindByVault returns soft-deleted
// entries too, since it is the comparison scope for a vault's entry set.
package entries
