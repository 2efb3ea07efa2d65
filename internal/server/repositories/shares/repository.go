// Package shares persists share groups, their files and allow-lists.
package shares

import (
	"context"

	"github.com/dmitrijs2005/vaultshare/internal/server/models"
)

type Repository interface {
	// Create inserts a group. A duplicate link token yields ErrorAlreadyExists.
	Create(ctx context.Context, g *models.ShareGroup) error
	AddFiles(ctx context.Context, groupID string, fileIDs []string) error
	AddUsers(ctx context.Context, groupID string, userIDs []string) error
	Get(ctx context.Context, id string) (*models.ShareGroup, error)
	GetByToken(ctx context.Context, token string) (*models.ShareGroup, error)
	// ListFiles returns the group's files that are not soft-deleted.
	ListFiles(ctx context.Context, groupID string) ([]*models.EncryptedFile, error)
	HasFile(ctx context.Context, groupID, fileID string) (bool, error)
	ListUsers(ctx context.Context, groupID string) ([]string, error)
	// SetPasswordHash is a compare-and-swap on the stored hash.
	SetPasswordHash(ctx context.Context, id, expected, hash string) error
	IncrementDownloadCount(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]*models.ShareGroup, error)
	Delete(ctx context.Context, ownerID, id string) error
}
