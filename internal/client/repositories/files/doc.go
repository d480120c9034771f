// Package files persists attachment metadata for entries. Rows belong to an
// entry by local id and are removed with it.
package files
