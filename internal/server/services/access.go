package services

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/dbx"
	"github.com/dmitrijs2005/vaultshare/internal/logging"
	"github.com/dmitrijs2005/vaultshare/internal/server/models"
	"github.com/dmitrijs2005/vaultshare/internal/server/repositories/repomanager"
)

// AccessRequest is one attempt to use a share link.
type AccessRequest struct {
	LinkToken   string
	RequesterID string
	Password    string
}

// AccessService evaluates share links. Every call runs the whole sequence;
// nothing is cached between requests.
type AccessService struct {
	runner dbx.Runner
	repos  repomanager.RepositoryManager
	log    logging.Logger
	now    func() time.Time
}

func NewAccessService(runner dbx.Runner, repos repomanager.RepositoryManager, log logging.Logger) *AccessService {
	return &AccessService{runner: runner, repos: repos, log: log.With("module", "access"), now: time.Now}
}

// resolve runs the checks that precede the password: ErrNotFound, ErrExpired,
// then ErrForbidden.
func (s *AccessService) resolve(ctx context.Context, token, requesterID string) (*models.ShareGroup, error) {
	repo := s.repos.Shares(s.runner.Conn())

	g, err := repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Same lookup as the allow-list step so unknown links cost the
			// same as refused ones.
			if _, err := repo.ListUsers(ctx, uuid.Nil.String()); err != nil {
				s.log.Debug(ctx, "allow-list lookup for unknown link failed", "error", err)
			}
			return nil, common.ErrNotFound
		}
		return nil, err
	}

	if g.Expired(s.now()) {
		return nil, common.ErrExpired
	}

	users, err := repo.ListUsers(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	if len(users) > 0 && requesterID != g.OwnerID && !slices.Contains(users, requesterID) {
		return nil, common.ErrForbidden
	}
	return g, nil
}

// Evaluate returns the share group when access is granted. Checks run in a
// fixed order and stop at the first failure: ErrNotFound, ErrExpired,
// ErrForbidden, then ErrPasswordRequired or ErrIncorrectPassword.
func (s *AccessService) Evaluate(ctx context.Context, req AccessRequest) (*models.ShareGroup, error) {
	g, err := s.resolve(ctx, req.LinkToken, req.RequesterID)
	if err != nil {
		return nil, err
	}
	if err := CheckPassword(g.PasswordHash, req.Password); err != nil {
		return nil, err
	}
	return g, nil
}
