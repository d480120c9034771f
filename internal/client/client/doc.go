// Package client talks to the sync server over gRPC.
//
// The sync service only needs to know whether the server is reachable before
// it pulls a snapshot, so the client wraps the standard gRPC health protocol
// (grpc.health.v1). Status codes are mapped to sentinel errors that callers
// match with errors.Is: ErrUnavailable and ErrUnauthorized.
package client
