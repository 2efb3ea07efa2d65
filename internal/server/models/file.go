package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultshare/internal/common"
)

// EncryptedFile is the metadata of one uploaded file. The ciphertext lives in
// the blob store under StoragePath.
type EncryptedFile struct {
	ID             string
	OwnerID        string
	FolderID       string
	StoragePath    string
	Name           string
	MimeType       string
	PlaintextSize  int64
	CiphertextSize int64
	Algorithm      string
	// WrappedDEK and Nonce are either both set or both empty.
	WrappedDEK []byte
	Nonce      []byte
	KeyID      string
	// PasswordHash is an argon2id PHC string; empty means no file password.
	PasswordHash string
	CreatedAt    time.Time
	DeletedAt    *time.Time
}

// Validate checks the record-level rules enforced before persisting.
func (f *EncryptedFile) Validate() error {
	if f.OwnerID == "" || f.StoragePath == "" || f.Name == "" {
		return fmt.Errorf("%w: owner, storage path and name are required", common.ErrValidation)
	}
	if (len(f.WrappedDEK) == 0) != (len(f.Nonce) == 0) {
		return fmt.Errorf("%w: wrapped key and nonce must be set together", common.ErrValidation)
	}
	if len(f.WrappedDEK) > 0 && f.KeyID == "" {
		return fmt.Errorf("%w: wrapped key without key id", common.ErrValidation)
	}
	return nil
}

// Deleted reports whether the file was soft-deleted.
func (f *EncryptedFile) Deleted() bool {
	return f.DeletedAt != nil
}

// HasPassword reports whether the file carries its own password.
func (f *EncryptedFile) HasPassword() bool {
	return f.PasswordHash != ""
}
