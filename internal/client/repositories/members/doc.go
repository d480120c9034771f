// Package members persists vault memberships. Members have no tombstone, so a
// soft deletion policy removes them outright.
package members
