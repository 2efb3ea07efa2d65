package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultshare/internal/client/client"
	"github.com/dmitrijs2005/vaultshare/internal/client/models"
	"github.com/dmitrijs2005/vaultshare/internal/client/repositories/links"
	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/rpc"
)

// LinkService keeps share links received from other people under local
// names. The server has no record of who holds a link, so this is the only
// place they are listed.
type LinkService interface {
	Save(ctx context.Context, name, linkToken, note string) error
	List(ctx context.Context) ([]models.Link, error)
	Remove(ctx context.Context, name string) error
	// Resolve returns the token saved under nameOrToken, or nameOrToken
	// itself when no such name exists.
	Resolve(ctx context.Context, nameOrToken string) (string, error)
	// Open lists the files behind a saved name or a raw token.
	Open(ctx context.Context, nameOrToken, password string) (*rpc.ListSharedFilesResponse, error)
}

type linkService struct {
	client client.Client
	repo   links.Repository
	now    func() time.Time
}

func NewLinkService(c client.Client, repo links.Repository) LinkService {
	return &linkService{client: c, repo: repo, now: time.Now}
}

func (s *linkService) Save(ctx context.Context, name, linkToken, note string) error {
	if name == "" || linkToken == "" {
		return fmt.Errorf("%w: name and link token are required", common.ErrValidation)
	}
	return s.repo.Save(ctx, &models.Link{Name: name, LinkToken: linkToken, Note: note, CreatedAt: s.now()})
}

func (s *linkService) List(ctx context.Context) ([]models.Link, error) {
	return s.repo.List(ctx)
}

func (s *linkService) Remove(ctx context.Context, name string) error {
	return s.repo.Delete(ctx, name)
}

func (s *linkService) Resolve(ctx context.Context, nameOrToken string) (string, error) {
	l, err := s.repo.Get(ctx, nameOrToken)
	if err == nil {
		return l.LinkToken, nil
	}
	if errors.Is(err, common.ErrNotFound) {
		return nameOrToken, nil
	}
	return "", err
}

func (s *linkService) Open(ctx context.Context, nameOrToken, password string) (*rpc.ListSharedFilesResponse, error) {
	token, err := s.Resolve(ctx, nameOrToken)
	if err != nil {
		return nil, err
	}
	return s.client.ListSharedFiles(ctx, token, password)
}
