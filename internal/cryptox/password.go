package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"golang.org/x/crypto/argon2"
)

// PasswordParams tunes argon2id. Zero fields fall back to DefaultPasswordParams.
type PasswordParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

// DefaultPasswordParams follows the argon2id recommendation of one pass over
// 64 MiB with four lanes.
var DefaultPasswordParams = PasswordParams{Time: 1, Memory: 64 * 1024, Threads: 4, KeyLen: 32, SaltLen: 16}

func (p PasswordParams) withDefaults() PasswordParams {
	d := DefaultPasswordParams
	if p.Time != 0 {
		d.Time = p.Time
	}
	if p.Memory != 0 {
		d.Memory = p.Memory
	}
	if p.Threads != 0 {
		d.Threads = p.Threads
	}
	if p.KeyLen != 0 {
		d.KeyLen = p.KeyLen
	}
	if p.SaltLen != 0 {
		d.SaltLen = p.SaltLen
	}
	return d
}

// HashPassword returns a PHC-formatted argon2id hash with a random salt:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func HashPassword(password string, p PasswordParams) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is empty", common.ErrValidation)
	}
	p = p.withDefaults()
	salt := common.GenerateRandByteArray(p.SaltLen)
	sum := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads, b64.EncodeToString(salt), b64.EncodeToString(sum)), nil
}

// VerifyPassword reports whether password matches encoded. The final
// comparison runs in constant time. A malformed hash never matches.
func VerifyPassword(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var p PasswordParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return false
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := b64.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false
	}

	got := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

// DeriveMasterKey stretches a passphrase into a 256-bit master key.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, KeySize)
}
