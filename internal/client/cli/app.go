package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/vaultshare/internal/client/client"
	"github.com/dmitrijs2005/vaultshare/internal/client/config"
	"github.com/dmitrijs2005/vaultshare/internal/client/services"
)

type App struct {
	config   *config.Config
	client   client.Client
	local    *client.Repositories
	session  services.SessionService
	transfer services.TransferService
	links    services.LinkService
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	local, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	apiClient, err := client.NewVaultClientService(c.ServerEndpointAddr)
	if err != nil {
		_ = local.Close()
		return nil, err
	}

	a := newApp(c, apiClient, local, bufio.NewReader(os.Stdin), os.Stdout)
	if _, err := a.session.Restore(ctx, c.AccessToken); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func newApp(c *config.Config, apiClient client.Client, local *client.Repositories, r *bufio.Reader, w io.Writer) *App {
	return &App{
		config:   c,
		client:   apiClient,
		local:    local,
		session:  services.NewSessionService(apiClient, local.Metadata, c.ServerEndpointAddr),
		transfer: services.NewTransferService(apiClient, c.DownloadDir),
		links:    services.NewLinkService(apiClient, local.Links),
		reader:   r,
		out:      w,
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()
	fmt.Fprintln(a.out, "Welcome to vaultshare CLI (type 'help' for commands)")
	runREPL(ctx, a)
}

func (a *App) Close() error {
	err := a.client.Close()
	if cerr := a.local.Close(); err == nil {
		err = cerr
	}
	return err
}

// rpc bounds a single server call by the configured timeout.
func (a *App) rpc(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

func (a *App) status() string {
	if a.session.LoggedIn() {
		return "(online) "
	}
	return ""
}
