package reconcile

import "errors"

var (
	// ErrIncompletePass is returned before any mutation when a pass lacks a
	// required collaborator (store or callback).
	ErrIncompletePass = errors.New("reconcile: incomplete pass")

	// ErrUnknownPolicy is returned by ParseDeletionPolicy.
	ErrUnknownPolicy = errors.New("reconcile: unknown deletion policy")
)
