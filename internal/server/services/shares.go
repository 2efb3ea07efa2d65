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
)

const (
	linkTokenBytes   = 32
	tokenCollisions  = 3
	collisionBackoff = time.Millisecond
)

// CreateShareRequest describes a new share group.
type CreateShareRequest struct {
	OwnerID    string
	FileIDs    []string
	Password   string
	ExpiresAt  *time.Time
	Recipients []string
}

// ShareService creates and manages share groups.
type ShareService struct {
	runner dbx.Runner
	repos  repomanager.RepositoryManager
	access *AccessService
	params cryptox.PasswordParams
	log    logging.Logger
	now    func() time.Time
	token  func() (string, error)
}

func NewShareService(runner dbx.Runner, repos repomanager.RepositoryManager, access *AccessService,
	params cryptox.PasswordParams, log logging.Logger) *ShareService {
	return &ShareService{
		runner: runner,
		repos:  repos,
		access: access,
		params: params,
		log:    log.With("module", "shares"),
		now:    time.Now,
		token:  func() (string, error) { return common.MakeRandURLToken(linkTokenBytes) },
	}
}

// CreateShareGroup bundles the owner's files behind a new link. All rows are
// written in one transaction; a link-token collision restarts it with a new
// token.
func (s *ShareService) CreateShareGroup(ctx context.Context, req CreateShareRequest) (*models.ShareGroup, error) {
	if req.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", common.ErrValidation)
	}
	if len(req.FileIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one file is required", common.ErrValidation)
	}
	now := s.now()
	if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		return nil, fmt.Errorf("%w: expiry must be in the future", common.ErrValidation)
	}

	var hash string
	if req.Password != "" {
		h, err := cryptox.HashPassword(req.Password, s.params)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	var group *models.ShareGroup
	b := retry.WithMaxRetries(tokenCollisions, retry.NewConstant(collisionBackoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		token, err := s.token()
		if err != nil {
			return err
		}
		g := &models.ShareGroup{
			ID:           uuid.NewString(),
			OwnerID:      req.OwnerID,
			LinkToken:    token,
			PasswordHash: hash,
			ExpiresAt:    req.ExpiresAt,
			CreatedAt:    now,
		}

		err = s.runner.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			files := s.repos.Files(tx)
			for _, id := range req.FileIDs {
				f, err := files.Get(ctx, id)
				if err != nil {
					return err
				}
				if f.Deleted() {
					return common.ErrorNotFound
				}
				if f.OwnerID != req.OwnerID {
					return common.ErrForbidden
				}
			}

			shares := s.repos.Shares(tx)
			if err := shares.Create(ctx, g); err != nil {
				return err
			}
			if err := shares.AddFiles(ctx, g.ID, req.FileIDs); err != nil {
				return err
			}
			return shares.AddUsers(ctx, g.ID, req.Recipients)
		})
		if errors.Is(err, common.ErrorAlreadyExists) {
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		group = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "share group created", "owner_id", req.OwnerID, "group_id", group.ID, "files", len(req.FileIDs))
	return group, nil
}

// VerifySharePassword reports whether req.Password opens the group behind
// req.LinkToken. The link is resolved exactly as for a download, so unknown,
// expired and refused links fail before any password is compared. A group
// without a password accepts anything.
func (s *ShareService) VerifySharePassword(ctx context.Context, req AccessRequest) (bool, error) {
	g, err := s.access.resolve(ctx, req.LinkToken, req.RequesterID)
	if err != nil {
		return false, err
	}
	if !g.HasPassword() {
		return true, nil
	}
	return cryptox.VerifyPassword(req.Password, g.PasswordHash), nil
}

// ListSharedFiles evaluates access and returns the group's live files.
func (s *ShareService) ListSharedFiles(ctx context.Context, req AccessRequest) (*models.ShareGroup, []*models.EncryptedFile, error) {
	g, err := s.access.Evaluate(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	files, err := s.repos.Shares(s.runner.Conn()).ListFiles(ctx, g.ID)
	if err != nil {
		return nil, nil, err
	}
	return g, files, nil
}

func (s *ShareService) ListShareGroups(ctx context.Context, ownerID string) ([]*models.ShareGroup, error) {
	return s.repos.Shares(s.runner.Conn()).ListByOwner(ctx, ownerID)
}

// DeleteShareGroup removes the group and its links; files are kept.
func (s *ShareService) DeleteShareGroup(ctx context.Context, ownerID, id string) error {
	if err := s.repos.Shares(s.runner.Conn()).Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.log.Info(ctx, "share group deleted", "owner_id", ownerID, "group_id", id)
	return nil
}
