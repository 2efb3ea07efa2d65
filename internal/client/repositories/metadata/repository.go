// Package metadata stores small client-side settings (the current access
// token, the server it was issued for) as key/value pairs.
package metadata

import (
	"context"
)

// Repository is a key/value store. Get returns common.ErrNotFound for an
// absent key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
