package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/server/models"
)

type FileRepository struct {
	s *Store
}

func NewFileRepository(s *Store) *FileRepository {
	return &FileRepository{s: s}
}

func copyFile(f *models.EncryptedFile) *models.EncryptedFile {
	c := *f
	c.WrappedDEK = cloneBytes(f.WrappedDEK)
	c.Nonce = cloneBytes(f.Nonce)
	if f.DeletedAt != nil {
		t := *f.DeletedAt
		c.DeletedAt = &t
	}
	return &c
}

func (r *FileRepository) Create(ctx context.Context, f *models.EncryptedFile) error {
	if err := f.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.files[f.ID]; ok {
		return common.ErrorAlreadyExists
	}
	if f.KeyID != "" {
		k, ok := r.s.keys[f.KeyID]
		if !ok || k.OwnerID != f.OwnerID {
			return common.ErrValidation
		}
	}
	r.s.files[f.ID] = copyFile(f)
	return nil
}

func (r *FileRepository) Get(ctx context.Context, id string) (*models.EncryptedFile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	f, ok := r.s.files[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyFile(f), nil
}

func sortFilesNewestFirst(fs []*models.EncryptedFile) {
	sort.Slice(fs, func(i, j int) bool {
		if !fs[i].CreatedAt.Equal(fs[j].CreatedAt) {
			return fs[i].CreatedAt.After(fs[j].CreatedAt)
		}
		return fs[i].ID < fs[j].ID
	})
}

func (r *FileRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.EncryptedFile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*models.EncryptedFile
	for _, f := range r.s.files {
		if f.OwnerID == ownerID && !f.Deleted() {
			result = append(result, copyFile(f))
		}
	}
	sortFilesNewestFirst(result)
	return result, nil
}

func (r *FileRepository) SoftDelete(ctx context.Context, ownerID, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	f, ok := r.s.files[id]
	if !ok || f.OwnerID != ownerID || f.Deleted() {
		return common.ErrorNotFound
	}
	f.DeletedAt = &at
	return nil
}

func (r *FileRepository) SetPasswordHash(ctx context.Context, id, expected, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	f, ok := r.s.files[id]
	if !ok || f.Deleted() || f.PasswordHash != expected {
		return common.ErrVersionConflict
	}
	f.PasswordHash = hash
	return nil
}
