// Package links persists saved share links in the CLI's local database.
package links

import (
	"context"

	"github.com/dmitrijs2005/vaultshare/internal/client/models"
)

// Repository stores links by name. Save replaces an existing link with the
// same name; Get and Delete return common.ErrNotFound for unknown names.
type Repository interface {
	Save(ctx context.Context, link *models.Link) error
	Get(ctx context.Context, name string) (*models.Link, error)
	List(ctx context.Context) ([]models.Link, error)
	Delete(ctx context.Context, name string) error
}
