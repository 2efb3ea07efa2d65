package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/cryptox"
	"github.com/dmitrijs2005/vaultshare/internal/dbx"
	"github.com/dmitrijs2005/vaultshare/internal/logging"
	"github.com/dmitrijs2005/vaultshare/internal/server/blobstore"
	"github.com/dmitrijs2005/vaultshare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vaultshare/internal/server/secrets"
)

// cheap argon2 parameters keep the suite fast.
var testParams = cryptox.PasswordParams{Memory: 1024, Threads: 1}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	repos   repomanager.RepositoryManager
	runner  dbx.Runner
	backend *secrets.MasterKeyBackend
	blobs   *blobstore.MemoryStore
	clock   *fakeClock

	stepUp *StepUpService
	keys   *KeyService
	access *AccessService
	shares *ShareService
	gate   *PasswordGate
	files  *FileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	backend, err := secrets.NewMasterKeyBackend(common.GenerateRandByteArray(32), nil)
	require.NoError(t, err)

	e := &testEnv{
		repos:   repomanager.NewMemoryRepositoryManager(),
		runner:  dbx.NewLocalRunner(),
		backend: backend,
		blobs:   blobstore.NewMemoryStore(),
		clock:   &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)},
	}
	e.build(cryptox.MustCipher(cryptox.AlgorithmAESGCM), 1<<20)
	return e
}

func (e *testEnv) build(c *cryptox.Cipher, maxUpload int64) {
	log := logging.Nop{}

	e.stepUp = NewStepUpService(e.runner, e.repos, e.backend, StepUpOptions{Issuer: "test", Skew: 1, PendingTTL: 5 * time.Minute}, log)
	e.stepUp.now = e.clock.Now

	e.keys = NewKeyService(e.runner, e.repos, e.backend, c, e.stepUp, log)
	e.keys.now = e.clock.Now

	e.access = NewAccessService(e.runner, e.repos, log)
	e.access.now = e.clock.Now

	e.shares = NewShareService(e.runner, e.repos, e.access, testParams, log)
	e.shares.now = e.clock.Now

	e.gate = NewPasswordGate(e.runner, e.repos, e.stepUp, testParams, log)

	e.files = NewFileService(e.runner, e.repos, e.keys, e.access, e.blobs, c,
		FileServiceOptions{MaxUploadBytes: maxUpload, PasswordParams: testParams}, log)
	e.files.now = e.clock.Now
}

func (e *testEnv) code(t *testing.T, secret string) string {
	t.Helper()
	c, err := totp.GenerateCodeCustom(secret, e.clock.Now(), totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return c
}

// enroll gives userID a confirmed enrollment and moves the clock past the
// step used for confirmation. It returns the secret.
func (e *testEnv) enroll(t *testing.T, userID string) string {
	t.Helper()
	ctx := context.Background()

	en, err := e.stepUp.Enroll(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, e.stepUp.ConfirmEnrollment(ctx, userID, e.code(t, en.Secret)))
	e.clock.Advance(30 * time.Second)
	return en.Secret
}

func (e *testEnv) upload(t *testing.T, owner, name string, data []byte) string {
	t.Helper()
	f, err := e.files.Upload(context.Background(), UploadRequest{OwnerID: owner, Name: name, Data: data})
	require.NoError(t, err)
	return f.ID
}
