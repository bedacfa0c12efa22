// Package buffer keeps the most recent media chunks of each room so that a
// viewer joining late gets some content before its peer connection is up.
package buffer

import "context"

// Capacity is the number of chunks retained per room.
const Capacity = 30

// Store is a per-room ring of opaque chunks.
//
// Push appends a chunk and evicts the oldest once Capacity is exceeded.
// Read returns the retained chunks oldest first, or an empty slice for an
// unknown room. Clear drops everything kept for the room.
type Store interface {
	Push(ctx context.Context, roomID string, chunk []byte) error
	Read(ctx context.Context, roomID string) ([][]byte, error)
	Clear(ctx context.Context, roomID string) error
}
