// Package cryptox holds the symmetric primitives used by the vault: an AEAD
// cipher engine for file contents and key wrapping, argon2id password
// hashing, and master-key derivation.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"golang.org/x/crypto/chacha20poly1305"
)

// Algorithm names an AEAD construction. The value is persisted next to every
// key record and file so that decryption picks the matching construction.
type Algorithm string

const (
	AlgorithmAESGCM           Algorithm = "aes-256-gcm"
	AlgorithmChaCha20Poly1305 Algorithm = "chacha20-poly1305"
)

const (
	// KeySize is the length of every DEK and KEK (256 bits).
	KeySize = 32
	// NonceSize is shared by both supported constructions (96 bits).
	NonceSize = 12
)

// Cipher is a stateless AEAD engine. It is safe for concurrent use.
type Cipher struct {
	alg Algorithm
}

// NewCipher returns an engine for alg. An empty alg selects AES-256-GCM.
func NewCipher(alg Algorithm) (*Cipher, error) {
	switch alg {
	case "":
		return &Cipher{alg: AlgorithmAESGCM}, nil
	case AlgorithmAESGCM, AlgorithmChaCha20Poly1305:
		return &Cipher{alg: alg}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported cipher algorithm %q", common.ErrValidation, alg)
	}
}

// MustCipher is NewCipher for values already validated by configuration.
func MustCipher(alg Algorithm) *Cipher {
	c, err := NewCipher(alg)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Cipher) Algorithm() Algorithm { return c.alg }

// GenerateKey returns a fresh random 256-bit key.
func (c *Cipher) GenerateKey() []byte {
	return common.GenerateRandByteArray(KeySize)
}

// GenerateNonce returns a fresh random 96-bit nonce.
func (c *Cipher) GenerateNonce() []byte {
	return common.GenerateRandByteArray(NonceSize)
}

// Encrypt seals plaintext under key and nonce. The returned ciphertext carries
// the 16-byte authentication tag.
func (c *Cipher) Encrypt(plaintext, key, nonce []byte) ([]byte, error) {
	aead, err := c.aead(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("%w: nonce must be %d bytes", common.ErrValidation, aead.NonceSize())
	}
	return aead.Seal(nil, nonce, plaintext, nil), nil
}

// Decrypt opens ciphertext produced by Encrypt. Any tag mismatch, including
// one caused by a wrong key or nonce, yields common.ErrAuthenticationFailed.
func (c *Cipher) Decrypt(ciphertext, key, nonce []byte) ([]byte, error) {
	aead, err := c.aead(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, common.ErrAuthenticationFailed
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrAuthenticationFailed
	}
	return plaintext, nil
}

// Seal encrypts plaintext under a fresh nonce bound to aad and returns
// nonce||ciphertext. It is used for wrapping keys, where the nonce has no
// separate column to live in.
func (c *Cipher) Seal(key, plaintext, aad []byte) ([]byte, error) {
	aead, err := c.aead(key)
	if err != nil {
		return nil, err
	}
	nonce := c.GenerateNonce()
	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, aad), nil
}

// Open reverses Seal. Truncated input and tag mismatches both yield
// common.ErrAuthenticationFailed.
func (c *Cipher) Open(key, sealed, aad []byte) ([]byte, error) {
	aead, err := c.aead(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, common.ErrAuthenticationFailed
	}
	nonce, ct := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ct, aad)
	if err != nil {
		return nil, common.ErrAuthenticationFailed
	}
	return plaintext, nil
}

func (c *Cipher) aead(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes", common.ErrInvalidKey, KeySize)
	}
	switch c.alg {
	case AlgorithmChaCha20Poly1305:
		return chacha20poly1305.New(key)
	case AlgorithmAESGCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	}
	return nil, errors.New("cipher engine not initialized")
}
