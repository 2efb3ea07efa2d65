// Package services contains server-side business logic: key wrapping, the
// file encryption and decryption pipelines, sharing and access control,
// password gates and step-up verification.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/cryptox"
	"github.com/dmitrijs2005/vaultshare/internal/dbx"
	"github.com/dmitrijs2005/vaultshare/internal/logging"
	"github.com/dmitrijs2005/vaultshare/internal/server/models"
	"github.com/dmitrijs2005/vaultshare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vaultshare/internal/server/secrets"
)

const (
	defaultRotateRetries = 16
	rotateBackoff        = 5 * time.Millisecond
)

// WrapResult is what Wrap hands back: the DEK sealed under the owner's
// active KEK, and that KEK's id.
type WrapResult struct {
	WrappedDEK []byte
	KeyID      string
}

// KeyInfo is key metadata safe to show to the owner.
type KeyInfo struct {
	ID        string
	Algorithm string
	CreatedAt time.Time
	RevokedAt *time.Time
	Active    bool
}

// KeyService owns users' key-encryption keys. Raw KEKs exist only for the
// duration of one call and are wiped before returning.
type KeyService struct {
	runner     dbx.Runner
	repos      repomanager.RepositoryManager
	backend    secrets.Backend
	cipher     *cryptox.Cipher
	stepUp     *StepUpService
	log        logging.Logger
	now        func() time.Time
	maxRetries uint64
}

// NewKeyService constructs a KeyService. New KEKs use c's algorithm.
func NewKeyService(runner dbx.Runner, repos repomanager.RepositoryManager, backend secrets.Backend,
	c *cryptox.Cipher, stepUp *StepUpService, log logging.Logger) *KeyService {
	return &KeyService{
		runner:     runner,
		repos:      repos,
		backend:    backend,
		cipher:     c,
		stepUp:     stepUp,
		log:        log.With("module", "keys"),
		now:        time.Now,
		maxRetries: defaultRotateRetries,
	}
}

func wrapAAD(keyID, ownerID string) []byte {
	return []byte(keyID + "|" + ownerID)
}

// createKey mints a KEK, seals it with the backend and stores the record.
// The record is not active yet.
func (s *KeyService) createKey(ctx context.Context, ownerID string) (*models.KeyRecord, error) {
	kek := s.cipher.GenerateKey()
	defer common.WipeByteArray(kek)

	id := uuid.NewString()
	sealed, err := s.backend.Seal(ctx, kek, []byte(id))
	if err != nil {
		return nil, fmt.Errorf("seal kek: %w", err)
	}

	rec := &models.KeyRecord{
		ID:              id,
		OwnerID:         ownerID,
		Algorithm:       string(s.cipher.Algorithm()),
		WrappedMaterial: sealed,
		CreatedAt:       s.now(),
	}
	if err := s.repos.Keys(s.runner.Conn()).Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// dropOrphan revokes a record that never became active.
func (s *KeyService) dropOrphan(ctx context.Context, rec *models.KeyRecord) {
	if err := s.repos.Keys(s.runner.Conn()).Revoke(ctx, rec.OwnerID, rec.ID, s.now()); err != nil {
		s.log.Warn(ctx, "failed to revoke orphan key", "key_id", rec.ID, "error", err)
	}
}

// activeKey resolves the owner's active record, creating the first one on
// demand. When a concurrent creation wins the race, the winner is used.
func (s *KeyService) activeKey(ctx context.Context, ownerID string) (*models.KeyRecord, error) {
	repo := s.repos.Keys(s.runner.Conn())

	id, err := repo.GetActiveKeyID(ctx, ownerID)
	if err == nil {
		return repo.Get(ctx, id)
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	rec, err := s.createKey(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	err = repo.SetActiveKey(ctx, ownerID, "", rec.ID)
	if err == nil {
		s.log.Info(ctx, "initial key created", "owner_id", ownerID, "key_id", rec.ID)
		return rec, nil
	}
	if !errors.Is(err, common.ErrVersionConflict) {
		return nil, err
	}

	s.dropOrphan(ctx, rec)
	id, err = repo.GetActiveKeyID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return repo.Get(ctx, id)
}

func (s *KeyService) openKEK(ctx context.Context, rec *models.KeyRecord) ([]byte, *cryptox.Cipher, error) {
	c, err := cryptox.NewCipher(cryptox.Algorithm(rec.Algorithm))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", common.ErrInvalidKey, err)
	}
	kek, err := s.backend.Open(ctx, rec.WrappedMaterial, []byte(rec.ID))
	if err != nil {
		return nil, nil, err
	}
	return kek, c, nil
}

// Wrap seals dek under ownerID's active KEK. Persistence failures surface as
// ErrNoActiveKey.
func (s *KeyService) Wrap(ctx context.Context, dek []byte, ownerID string) (*WrapResult, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", common.ErrValidation)
	}

	rec, err := s.activeKey(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrNoActiveKey, err)
	}

	kek, c, err := s.openKEK(ctx, rec)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(kek)

	wrapped, err := c.Seal(kek, dek, wrapAAD(rec.ID, ownerID))
	if err != nil {
		return nil, err
	}
	return &WrapResult{WrappedDEK: wrapped, KeyID: rec.ID}, nil
}

// Unwrap opens a wrapped DEK. Ownership is checked before any cryptography:
// a key of another owner yields ErrForbidden. Missing or revoked keys yield
// ErrInvalidKey; a tag mismatch yields ErrAuthenticationFailed.
func (s *KeyService) Unwrap(ctx context.Context, wrappedDEK []byte, keyID, ownerID string) ([]byte, error) {
	rec, err := s.repos.Keys(s.runner.Conn()).Get(ctx, keyID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidKey
		}
		return nil, fmt.Errorf("load key: %w", err)
	}
	if rec.OwnerID != ownerID {
		s.log.Warn(ctx, "cross-owner unwrap refused", "key_id", keyID, "owner_id", ownerID)
		return nil, common.ErrForbidden
	}
	if rec.Revoked() {
		return nil, common.ErrInvalidKey
	}

	kek, c, err := s.openKEK(ctx, rec)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(kek)

	return c.Open(kek, wrappedDEK, wrapAAD(rec.ID, ownerID))
}

// Rotate installs a fresh active KEK for ownerID and returns its id. Older
// keys keep unwrapping existing files. Lost compare-and-swap races are
// retried; when retries run out the new record is revoked and
// ErrVersionConflict returned.
func (s *KeyService) Rotate(ctx context.Context, ownerID string) (string, error) {
	if ownerID == "" {
		return "", fmt.Errorf("%w: owner id is required", common.ErrValidation)
	}

	rec, err := s.createKey(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrNoActiveKey, err)
	}

	repo := s.repos.Keys(s.runner.Conn())
	b := retry.WithMaxRetries(s.maxRetries, retry.NewConstant(rotateBackoff))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		current, err := repo.GetActiveKeyID(ctx, ownerID)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		err = repo.SetActiveKey(ctx, ownerID, current, rec.ID)
		if errors.Is(err, common.ErrVersionConflict) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		s.dropOrphan(ctx, rec)
		if errors.Is(err, common.ErrVersionConflict) {
			return "", common.ErrVersionConflict
		}
		return "", err
	}

	s.log.Info(ctx, "key rotated", "owner_id", ownerID, "key_id", rec.ID)
	return rec.ID, nil
}

// Revoke disables a non-active key. Files wrapped under it can no longer be
// decrypted.
func (s *KeyService) Revoke(ctx context.Context, ownerID, keyID string) error {
	repo := s.repos.Keys(s.runner.Conn())

	active, err := repo.GetActiveKeyID(ctx, ownerID)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return err
	}
	if active == keyID {
		return fmt.Errorf("%w: the active key cannot be revoked", common.ErrValidation)
	}

	if err := repo.Revoke(ctx, ownerID, keyID, s.now()); err != nil {
		return err
	}
	s.log.Info(ctx, "key revoked", "owner_id", ownerID, "key_id", keyID)
	return nil
}

// ListKeys returns metadata of ownerID's keys, oldest first.
func (s *KeyService) ListKeys(ctx context.Context, ownerID string) ([]KeyInfo, error) {
	repo := s.repos.Keys(s.runner.Conn())

	active, err := repo.GetActiveKeyID(ctx, ownerID)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}
	recs, err := repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	result := make([]KeyInfo, 0, len(recs))
	for _, r := range recs {
		result = append(result, KeyInfo{
			ID:        r.ID,
			Algorithm: r.Algorithm,
			CreatedAt: r.CreatedAt,
			RevokedAt: r.RevokedAt,
			Active:    r.ID == active,
		})
	}
	return result, nil
}

// RotateKey is Rotate behind a step-up check.
func (s *KeyService) RotateKey(ctx context.Context, userID, code string) (string, error) {
	if err := s.stepUp.RequireStepUp(ctx, userID, code); err != nil {
		return "", err
	}
	return s.Rotate(ctx, userID)
}

// RevokeKey is Revoke behind a step-up check.
func (s *KeyService) RevokeKey(ctx context.Context, userID, keyID, code string) error {
	if err := s.stepUp.RequireStepUp(ctx, userID, code); err != nil {
		return err
	}
	return s.Revoke(ctx, userID, keyID)
}
