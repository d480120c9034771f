package client

import "context"

// Prober checks whether the sync server can currently be reached.
type Prober interface {
	Ping(ctx context.Context) error
	Close() error
}
