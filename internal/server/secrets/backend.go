// Package secrets holds the root material that protects key-encryption keys
// and one-time-code secrets at rest.
package secrets

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/cryptox"
)

// Backend seals and opens small secrets under a root key it never exposes.
// aad binds a sealed value to its context (e.g. the key record id); opening
// with different aad fails with common.ErrAuthenticationFailed.
type Backend interface {
	Seal(ctx context.Context, plaintext, aad []byte) ([]byte, error)
	Open(ctx context.Context, sealed, aad []byte) ([]byte, error)
}

// MasterKeyBackend seals with a single in-process 32-byte master key.
type MasterKeyBackend struct {
	mu     sync.RWMutex
	cipher *cryptox.Cipher
	key    []byte
}

// NewMasterKeyBackend copies key; the caller may wipe its own slice
// afterwards.
func NewMasterKeyBackend(key []byte, c *cryptox.Cipher) (*MasterKeyBackend, error) {
	if len(key) != cryptox.KeySize {
		return nil, fmt.Errorf("%w: master key must be %d bytes", common.ErrInvalidKey, cryptox.KeySize)
	}
	if c == nil {
		c = cryptox.MustCipher(cryptox.AlgorithmAESGCM)
	}
	return &MasterKeyBackend{cipher: c, key: append([]byte(nil), key...)}, nil
}

func (b *MasterKeyBackend) Seal(ctx context.Context, plaintext, aad []byte) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.key == nil {
		return nil, fmt.Errorf("%w: backend closed", common.ErrInvalidKey)
	}
	return b.cipher.Seal(b.key, plaintext, aad)
}

func (b *MasterKeyBackend) Open(ctx context.Context, sealed, aad []byte) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.key == nil {
		return nil, fmt.Errorf("%w: backend closed", common.ErrInvalidKey)
	}
	return b.cipher.Open(b.key, sealed, aad)
}

// Close wipes the master key. Later calls fail with ErrInvalidKey.
func (b *MasterKeyBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	common.WipeByteArray(b.key)
	b.key = nil
}
