// Package server assembles and runs the vaultshare server: it selects the
// storage backends, builds the services, starts the gRPC endpoint and a
// janitor for expired step-up operations, and shuts everything down on
// SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/cryptox"
	"github.com/dmitrijs2005/vaultshare/internal/dbx"
	"github.com/dmitrijs2005/vaultshare/internal/logging"
	"github.com/dmitrijs2005/vaultshare/internal/server/blobstore"
	"github.com/dmitrijs2005/vaultshare/internal/server/config"
	"github.com/dmitrijs2005/vaultshare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vaultshare/internal/server/secrets"
	"github.com/dmitrijs2005/vaultshare/internal/server/services"

	gs "github.com/dmitrijs2005/vaultshare/internal/server/grpc"
)

const janitorInterval = time.Minute

// grpc message limit on top of the upload size: JSON base64 grows payloads
// by a third.
func maxMessageSize(maxUpload int64) int {
	return int(maxUpload/3*4) + 1<<20
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	backend *secrets.MasterKeyBackend
	stepUp  *services.StepUpService
	server  *gs.GRPCServer
}

// storage holds the persistence and blob backends selected by StorageMode.
type storage struct {
	db     *sql.DB
	runner dbx.Runner
	repos  repomanager.RepositoryManager
	blobs  blobstore.Store
}

func openStorage(ctx context.Context, c *config.Config) (*storage, error) {
	if c.StorageMode == config.StorageModeMemory {
		return &storage{
			runner: dbx.NewLocalRunner(),
			repos:  repomanager.NewMemoryRepositoryManager(),
			blobs:  blobstore.NewMemoryStore(),
		}, nil
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	blobs, err := blobstore.NewS3Store(ctx, blobstore.S3Config{
		User:         c.S3RootUser,
		Password:     c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	return &storage{db: db, runner: dbx.NewSQLRunner(db), repos: repos, blobs: blobs}, nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	if err := c.Validate(); err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewJSONLogger(os.Stdout, level)

	cipher, err := cryptox.NewCipher(cryptox.Algorithm(c.CipherAlgorithm))
	if err != nil {
		return nil, err
	}

	masterKey, err := c.MasterKeyMaterial()
	if err != nil {
		return nil, err
	}
	backend, err := secrets.NewMasterKeyBackend(masterKey, cipher)
	common.WipeByteArray(masterKey)
	if err != nil {
		return nil, fmt.Errorf("secret backend init error: %w", err)
	}

	st, err := openStorage(ctx, c)
	if err != nil {
		backend.Close()
		return nil, err
	}

	params := cryptox.PasswordParams{}

	stepUp := services.NewStepUpService(st.runner, st.repos, backend, services.StepUpOptions{
		Issuer:     c.TOTPIssuer,
		Skew:       c.StepUpSkew,
		PendingTTL: c.PendingOperationTTL,
	}, logger)
	keys := services.NewKeyService(st.runner, st.repos, backend, cipher, stepUp, logger)
	access := services.NewAccessService(st.runner, st.repos, logger)
	shares := services.NewShareService(st.runner, st.repos, access, params, logger)
	gate := services.NewPasswordGate(st.runner, st.repos, stepUp, params, logger)
	files := services.NewFileService(st.runner, st.repos, keys, access, st.blobs, cipher,
		services.FileServiceOptions{MaxUploadBytes: c.MaxUploadBytes, PasswordParams: params}, logger)

	srv := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, gs.Services{
		Files:     files,
		Shares:    shares,
		Passwords: gate,
		StepUp:    stepUp,
		Keys:      keys,
	}, c.SecretKey, maxMessageSize(c.MaxUploadBytes))

	logger.Info(ctx, "App initialized", "storage_mode", c.StorageMode, "cipher", c.CipherAlgorithm)

	return &App{
		config:  c,
		logger:  logger,
		db:      st.db,
		backend: backend,
		stepUp:  stepUp,
		server:  srv,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// runJanitor purges expired pending operations until ctx is done.
func (app *App) runJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.stepUp.PurgeExpired(ctx)
			if err != nil {
				app.logger.Warn(ctx, "failed to purge pending operations", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Debug(ctx, "purged pending operations", "count", n)
			}
		}
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases the database and the master key.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.runJanitor(ctx, janitorInterval)
	}()

	wg.Wait()

	app.close(ctx)
}

func (app *App) close(ctx context.Context) {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err)
		}
	}
	app.backend.Close()
	app.logger.Info(ctx, "App stopped")
}
