// Package services contains application services for the vaultshare CLI:
// the login session, file transfer to and from disk, and saved share links.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vaultshare/internal/client/client"
	"github.com/dmitrijs2005/vaultshare/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/vaultshare/internal/common"
)

const (
	metaAccessToken = "access_token"
	metaServer      = "server"
)

// SessionService keeps the access token of the current user.
type SessionService interface {
	// Restore picks up the token from the config, or else the one saved
	// for the same server. It reports whether a token is in use.
	Restore(ctx context.Context, configured string) (bool, error)
	// Login checks the token against the server and saves it.
	Login(ctx context.Context, token string) error
	Logout(ctx context.Context) error
	LoggedIn() bool
}

type sessionService struct {
	client   client.Client
	metadata metadata.Repository
	server   string
	loggedIn bool
}

// NewSessionService binds saved sessions to server: a token saved while
// talking to another endpoint is not reused.
func NewSessionService(c client.Client, metadata metadata.Repository, server string) SessionService {
	return &sessionService{client: c, metadata: metadata, server: server}
}

func (s *sessionService) Restore(ctx context.Context, configured string) (bool, error) {
	if configured != "" {
		s.client.SetAccessToken(configured)
		s.loggedIn = true
		return true, nil
	}

	savedServer, err := s.metadata.Get(ctx, metaServer)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if string(savedServer) != s.server {
		return false, nil
	}

	saved, err := s.metadata.Get(ctx, metaAccessToken)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.client.SetAccessToken(string(saved))
	s.loggedIn = true
	return true, nil
}

func (s *sessionService) Login(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: empty token", common.ErrValidation)
	}

	s.client.SetAccessToken(token)
	if _, err := s.client.ListFiles(ctx); err != nil {
		s.client.SetAccessToken("")
		s.loggedIn = false
		return fmt.Errorf("login error: %w", err)
	}

	if err := s.metadata.Set(ctx, metaAccessToken, []byte(token)); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	if err := s.metadata.Set(ctx, metaServer, []byte(s.server)); err != nil {
		return fmt.Errorf("saving server: %w", err)
	}
	s.loggedIn = true
	return nil
}

func (s *sessionService) Logout(ctx context.Context) error {
	s.client.SetAccessToken("")
	s.loggedIn = false
	return s.metadata.Clear(ctx)
}

func (s *sessionService) LoggedIn() bool {
	return s.loggedIn
}
