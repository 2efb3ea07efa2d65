package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/server/models"
)

type ShareRepository struct {
	s *Store
}

func NewShareRepository(s *Store) *ShareRepository {
	return &ShareRepository{s: s}
}

func copyGroup(g *models.ShareGroup) *models.ShareGroup {
	c := *g
	if g.ExpiresAt != nil {
		t := *g.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

func (r *ShareRepository) Create(ctx context.Context, g *models.ShareGroup) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.groups[g.ID]; ok {
		return common.ErrorAlreadyExists
	}
	if _, ok := r.s.groupByToken[g.LinkToken]; ok {
		return common.ErrorAlreadyExists
	}
	r.s.groups[g.ID] = copyGroup(g)
	r.s.groupByToken[g.LinkToken] = g.ID
	return nil
}

func (r *ShareRepository) AddFiles(ctx context.Context, groupID string, fileIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.groups[groupID]; !ok {
		return common.ErrorNotFound
	}
	for _, id := range fileIDs {
		if _, ok := r.s.files[id]; !ok {
			return common.ErrorNotFound
		}
		r.s.sharedFiles[groupID] = appendUnique(r.s.sharedFiles[groupID], id)
	}
	return nil
}

func (r *ShareRepository) AddUsers(ctx context.Context, groupID string, userIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.groups[groupID]; !ok {
		return common.ErrorNotFound
	}
	for _, id := range userIDs {
		r.s.sharedUsers[groupID] = appendUnique(r.s.sharedUsers[groupID], id)
	}
	return nil
}

func (r *ShareRepository) Get(ctx context.Context, id string) (*models.ShareGroup, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.groups[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyGroup(g), nil
}

func (r *ShareRepository) GetByToken(ctx context.Context, token string) (*models.ShareGroup, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.groupByToken[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyGroup(r.s.groups[id]), nil
}

func (r *ShareRepository) ListFiles(ctx context.Context, groupID string) ([]*models.EncryptedFile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*models.EncryptedFile
	for _, id := range r.s.sharedFiles[groupID] {
		if f, ok := r.s.files[id]; ok && !f.Deleted() {
			result = append(result, copyFile(f))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *ShareRepository) HasFile(ctx context.Context, groupID, fileID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, id := range r.s.sharedFiles[groupID] {
		if id == fileID {
			return true, nil
		}
	}
	return false, nil
}

func (r *ShareRepository) ListUsers(ctx context.Context, groupID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := append([]string(nil), r.s.sharedUsers[groupID]...)
	sort.Strings(result)
	return result, nil
}

func (r *ShareRepository) SetPasswordHash(ctx context.Context, id, expected, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	g, ok := r.s.groups[id]
	if !ok || g.PasswordHash != expected {
		return common.ErrVersionConflict
	}
	g.PasswordHash = hash
	return nil
}

func (r *ShareRepository) IncrementDownloadCount(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	g, ok := r.s.groups[id]
	if !ok {
		return common.ErrorNotFound
	}
	g.DownloadCount++
	return nil
}

func (r *ShareRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.ShareGroup, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*models.ShareGroup
	for _, g := range r.s.groups {
		if g.OwnerID == ownerID {
			result = append(result, copyGroup(g))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *ShareRepository) Delete(ctx context.Context, ownerID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	g, ok := r.s.groups[id]
	if !ok || g.OwnerID != ownerID {
		return common.ErrorNotFound
	}
	delete(r.s.groupByToken, g.LinkToken)
	delete(r.s.groups, id)
	delete(r.s.sharedFiles, id)
	delete(r.s.sharedUsers, id)
	return nil
}
