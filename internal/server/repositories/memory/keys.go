package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/server/models"
)

type KeyRepository struct {
	s *Store
}

func NewKeyRepository(s *Store) *KeyRepository {
	return &KeyRepository{s: s}
}

func copyKey(k *models.KeyRecord) *models.KeyRecord {
	c := *k
	c.WrappedMaterial = cloneBytes(k.WrappedMaterial)
	if k.RevokedAt != nil {
		t := *k.RevokedAt
		c.RevokedAt = &t
	}
	return &c
}

func (r *KeyRepository) Create(ctx context.Context, rec *models.KeyRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.keys[rec.ID]; ok {
		return common.ErrorAlreadyExists
	}
	r.s.keys[rec.ID] = copyKey(rec)
	return nil
}

func (r *KeyRepository) Get(ctx context.Context, id string) (*models.KeyRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	k, ok := r.s.keys[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyKey(k), nil
}

func (r *KeyRepository) GetActiveKeyID(ctx context.Context, ownerID string) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.activeKeys[ownerID]
	if !ok {
		return "", common.ErrorNotFound
	}
	return id, nil
}

func (r *KeyRepository) SetActiveKey(ctx context.Context, ownerID, expected, keyID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k, ok := r.s.keys[keyID]
	if !ok || k.OwnerID != ownerID {
		return common.ErrorNotFound
	}
	if r.s.activeKeys[ownerID] != expected {
		return common.ErrVersionConflict
	}
	r.s.activeKeys[ownerID] = keyID
	return nil
}

func (r *KeyRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.KeyRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*models.KeyRecord
	for _, k := range r.s.keys {
		if k.OwnerID == ownerID {
			result = append(result, copyKey(k))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *KeyRepository) Revoke(ctx context.Context, ownerID, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k, ok := r.s.keys[id]
	if !ok || k.OwnerID != ownerID || r.s.activeKeys[ownerID] == id {
		return common.ErrorNotFound
	}
	if k.RevokedAt == nil {
		k.RevokedAt = &at
	}
	return nil
}
