// Package artifact persists generated CSV files. The service works without a
// sink; storage is best-effort and never fails a query.
package artifact

import "context"

// Sink stores a named CSV payload and reports where it ended up.
type Sink interface {
	Store(ctx context.Context, filename string, data []byte) (string, error)
	Name() string
}
