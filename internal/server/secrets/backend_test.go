package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/cryptox"
)

func newBackend(t *testing.T) *MasterKeyBackend {
	t.Helper()
	b, err := NewMasterKeyBackend(common.GenerateRandByteArray(32), nil)
	require.NoError(t, err)
	return b
}

func TestMasterKeyBackend_SealOpen(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	sealed, err := b.Seal(ctx, []byte("kek"), []byte("key-1"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "kek")

	got, err := b.Open(ctx, sealed, []byte("key-1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("kek"), got)

	_, err = b.Open(ctx, sealed, []byte("key-2"))
	assert.ErrorIs(t, err, common.ErrAuthenticationFailed, "aad is bound")
}

func TestMasterKeyBackend_DifferentMasterKeysDoNotInteroperate(t *testing.T) {
	ctx := context.Background()
	a, b := newBackend(t), newBackend(t)

	sealed, err := a.Seal(ctx, []byte("kek"), nil)
	require.NoError(t, err)

	_, err = b.Open(ctx, sealed, nil)
	assert.ErrorIs(t, err, common.ErrAuthenticationFailed)
}

func TestMasterKeyBackend_ChaCha(t *testing.T) {
	ctx := context.Background()
	b, err := NewMasterKeyBackend(common.GenerateRandByteArray(32), cryptox.MustCipher(cryptox.AlgorithmChaCha20Poly1305))
	require.NoError(t, err)

	sealed, err := b.Seal(ctx, []byte("x"), nil)
	require.NoError(t, err)
	got, err := b.Open(ctx, sealed, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)
}

func TestNewMasterKeyBackend_BadKey(t *testing.T) {
	_, err := NewMasterKeyBackend([]byte("short"), nil)
	assert.ErrorIs(t, err, common.ErrInvalidKey)
}

func TestMasterKeyBackend_CopiesAndWipes(t *testing.T) {
	ctx := context.Background()
	key := common.GenerateRandByteArray(32)
	b, err := NewMasterKeyBackend(key, nil)
	require.NoError(t, err)

	sealed, err := b.Seal(ctx, []byte("v"), nil)
	require.NoError(t, err)

	common.WipeByteArray(key)
	_, err = b.Open(ctx, sealed, nil)
	require.NoError(t, err, "backend keeps its own copy")

	b.Close()
	_, err = b.Seal(ctx, []byte("v"), nil)
	assert.ErrorIs(t, err, common.ErrInvalidKey)
	_, err = b.Open(ctx, sealed, nil)
	assert.ErrorIs(t, err, common.ErrInvalidKey)
}
