// Package keys persists key-encryption-key records and the per-owner
// active-key pointer.
package keys

import (
	"context"
	"time"

	"github.com/dmitrijs2005/vaultshare/internal/server/models"
)

// Repository stores KeyRecords. SetActiveKey is a compare-and-swap: it
// succeeds only when the stored pointer equals expected ("" meaning none)
// and returns common.ErrVersionConflict otherwise.
type Repository interface {
	Create(ctx context.Context, rec *models.KeyRecord) error
	Get(ctx context.Context, id string) (*models.KeyRecord, error)
	GetActiveKeyID(ctx context.Context, ownerID string) (string, error)
	SetActiveKey(ctx context.Context, ownerID, expected, keyID string) error
	ListByOwner(ctx context.Context, ownerID string) ([]*models.KeyRecord, error)
	Revoke(ctx context.Context, ownerID, id string, at time.Time) error
}
