// Package files persists encrypted-file metadata.
package files

import (
	"context"
	"time"

	"github.com/dmitrijs2005/vaultshare/internal/server/models"
)

// Repository stores EncryptedFile rows. Get returns soft-deleted rows too;
// listings skip them.
type Repository interface {
	Create(ctx context.Context, f *models.EncryptedFile) error
	Get(ctx context.Context, id string) (*models.EncryptedFile, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.EncryptedFile, error)
	SoftDelete(ctx context.Context, ownerID, id string, at time.Time) error
	// SetPasswordHash replaces the hash only if it still equals expected
	// ("" meaning none); otherwise it returns common.ErrVersionConflict.
	SetPasswordHash(ctx context.Context, id, expected, hash string) error
}
