package dbx

import "strings"

// MaxBatchSize keeps IN (...) lists well below SQLite's bound-parameter limit.
const MaxBatchSize = 500

// Placeholders returns n comma-separated "?" markers.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// Chunks splits ids into consecutive slices of at most size elements.
// A non-positive size falls back to MaxBatchSize.
func Chunks[T any](ids []T, size int) [][]T {
	if size <= 0 {
		size = MaxBatchSize
	}
	var out [][]T
	for len(ids) > 0 {
		n := min(size, len(ids))
		out = append(out, ids[:n:n])
		ids = ids[n:]
	}
	return out
}

// Args converts a typed slice to a []any suitable for variadic query args.
func Args[T any](vals []T) []any {
	args := make([]any, len(vals))
	for i, v := range vals {
		args[i] = v
	}
	return args
}
