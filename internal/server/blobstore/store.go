// Package blobstore keeps ciphertext blobs in object storage. Stores never
// see plaintext; they only move opaque bytes by path.
package blobstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store is an opaque key-to-content store. Get of an unknown path returns
// common.ErrorNotFound; transport or provider failures wrap
// common.ErrUpstreamStorage.
type Store interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

// NewStorageKey returns a fresh, date-partitioned object path.
func NewStorageKey(now time.Time) string {
	return fmt.Sprintf("blobs/%d/%d/%d/%v", now.Year(), now.Month(), now.Day(), uuid.New())
}
