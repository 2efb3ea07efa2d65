package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/cryptox"
	"github.com/dmitrijs2005/vaultshare/internal/dbx"
	"github.com/dmitrijs2005/vaultshare/internal/logging"
	"github.com/dmitrijs2005/vaultshare/internal/server/blobstore"
	"github.com/dmitrijs2005/vaultshare/internal/server/models"
	"github.com/dmitrijs2005/vaultshare/internal/server/repositories/repomanager"
)

const (
	blobReadRetries = 3
	blobReadBackoff = 50 * time.Millisecond
)

// UploadRequest is the input of the encryption pipeline. MimeType is sniffed
// from Data when empty. Password optionally protects the file on its own.
type UploadRequest struct {
	OwnerID  string
	Name     string
	MimeType string
	FolderID string
	Password string
	Data     []byte
}

// DownloadRequest is the input of the decryption pipeline. Without a
// LinkToken only the owner may download. With one, the share group is
// evaluated first and FilePassword covers a file-level password.
type DownloadRequest struct {
	RequesterID   string
	FileID        string
	LinkToken     string
	SharePassword string
	FilePassword  string
}

// DownloadResult holds decrypted content.
type DownloadResult struct {
	Plaintext []byte
	Name      string
	MimeType  string
	Size      int64
}

// FileService runs the encryption and decryption pipelines.
type FileService struct {
	runner    dbx.Runner
	repos     repomanager.RepositoryManager
	keys      *KeyService
	access    *AccessService
	blobs     blobstore.Store
	cipher    *cryptox.Cipher
	params    cryptox.PasswordParams
	maxUpload int64
	log       logging.Logger
	now       func() time.Time
}

// FileServiceOptions carries the tunables of FileService.
type FileServiceOptions struct {
	MaxUploadBytes int64
	PasswordParams cryptox.PasswordParams
}

func NewFileService(runner dbx.Runner, repos repomanager.RepositoryManager, keys *KeyService, access *AccessService,
	blobs blobstore.Store, c *cryptox.Cipher, opts FileServiceOptions, log logging.Logger) *FileService {
	return &FileService{
		runner:    runner,
		repos:     repos,
		keys:      keys,
		access:    access,
		blobs:     blobs,
		cipher:    c,
		params:    opts.PasswordParams,
		maxUpload: opts.MaxUploadBytes,
		log:       log.With("module", "files"),
		now:       time.Now,
	}
}

// Upload encrypts Data under a fresh DEK, wraps the DEK, stores the
// ciphertext and only then writes metadata. If the metadata write fails the
// blob is removed again.
func (s *FileService) Upload(ctx context.Context, req UploadRequest) (*models.EncryptedFile, error) {
	if req.OwnerID == "" || req.Name == "" {
		return nil, fmt.Errorf("%w: owner and name are required", common.ErrValidation)
	}
	if s.maxUpload > 0 && int64(len(req.Data)) > s.maxUpload {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", common.ErrValidation, s.maxUpload)
	}

	mime := req.MimeType
	if mime == "" {
		mime = http.DetectContentType(req.Data)
	}

	var pwHash string
	if req.Password != "" {
		h, err := cryptox.HashPassword(req.Password, s.params)
		if err != nil {
			return nil, err
		}
		pwHash = h
	}

	dek := s.cipher.GenerateKey()
	defer common.WipeByteArray(dek)
	nonce := s.cipher.GenerateNonce()

	ciphertext, err := s.cipher.Encrypt(req.Data, dek, nonce)
	if err != nil {
		return nil, err
	}

	wrapped, err := s.keys.Wrap(ctx, dek, req.OwnerID)
	if err != nil {
		return nil, err
	}

	path, err := s.blobs.Put(ctx, ciphertext)
	if err != nil {
		return nil, err
	}

	f := &models.EncryptedFile{
		ID:             uuid.NewString(),
		OwnerID:        req.OwnerID,
		FolderID:       req.FolderID,
		StoragePath:    path,
		Name:           req.Name,
		MimeType:       mime,
		PlaintextSize:  int64(len(req.Data)),
		CiphertextSize: int64(len(ciphertext)),
		Algorithm:      string(s.cipher.Algorithm()),
		WrappedDEK:     wrapped.WrappedDEK,
		Nonce:          nonce,
		KeyID:          wrapped.KeyID,
		PasswordHash:   pwHash,
		CreatedAt:      s.now(),
	}

	if err := s.repos.Files(s.runner.Conn()).Create(ctx, f); err != nil {
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), path); delErr != nil {
			s.log.Error(ctx, "failed to delete orphan blob", "path", path, "error", delErr)
		}
		return nil, fmt.Errorf("store file metadata: %w", err)
	}

	s.log.Info(ctx, "file uploaded", "file_id", f.ID, "owner_id", f.OwnerID, "size", f.PlaintextSize)
	return f, nil
}

// authorize resolves who may read which file. It returns the file and, for
// share access, the group used.
func (s *FileService) authorize(ctx context.Context, req DownloadRequest) (*models.EncryptedFile, *models.ShareGroup, error) {
	var group *models.ShareGroup
	if req.LinkToken != "" {
		g, err := s.access.Evaluate(ctx, AccessRequest{
			LinkToken:   req.LinkToken,
			RequesterID: req.RequesterID,
			Password:    req.SharePassword,
		})
		if err != nil {
			return nil, nil, err
		}
		ok, err := s.repos.Shares(s.runner.Conn()).HasFile(ctx, g.ID, req.FileID)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, common.ErrNotFound
		}
		group = g
	}

	f, err := s.repos.Files(s.runner.Conn()).Get(ctx, req.FileID)
	if err != nil {
		return nil, nil, err
	}
	if f.Deleted() {
		return nil, nil, common.ErrNotFound
	}

	if f.OwnerID == req.RequesterID {
		return f, group, nil
	}
	if group == nil || group.OwnerID != f.OwnerID {
		return nil, nil, common.ErrForbidden
	}
	if err := CheckPassword(f.PasswordHash, req.FilePassword); err != nil {
		return nil, nil, err
	}
	return f, group, nil
}

func (s *FileService) readBlob(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	b := retry.WithMaxRetries(blobReadRetries, retry.NewExponential(blobReadBackoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		d, err := s.blobs.Get(ctx, path)
		if errors.Is(err, common.ErrUpstreamStorage) {
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		data = d
		return nil
	})
	return data, err
}

// Download runs the decryption pipeline. Key failures become ErrAccessDenied,
// tag mismatches ErrCorruptedData; no partial plaintext is ever returned.
func (s *FileService) Download(ctx context.Context, req DownloadRequest) (*DownloadResult, error) {
	f, group, err := s.authorize(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(f.WrappedDEK) == 0 {
		return nil, fmt.Errorf("%w: file has no key", common.ErrCorruptedData)
	}

	dek, err := s.keys.Unwrap(ctx, f.WrappedDEK, f.KeyID, f.OwnerID)
	if err != nil {
		if errors.Is(err, common.ErrAuthenticationFailed) {
			s.log.Error(ctx, "wrapped key failed authentication", "file_id", f.ID)
			return nil, fmt.Errorf("%w: %w", common.ErrCorruptedData, err)
		}
		return nil, fmt.Errorf("%w: %w", common.ErrAccessDenied, err)
	}
	defer common.WipeByteArray(dek)

	ciphertext, err := s.readBlob(ctx, f.StoragePath)
	if err != nil {
		return nil, err
	}

	c, err := cryptox.NewCipher(cryptox.Algorithm(f.Algorithm))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrCorruptedData, err)
	}
	plaintext, err := c.Decrypt(ciphertext, dek, f.Nonce)
	if err != nil {
		s.log.Error(ctx, "ciphertext failed authentication", "file_id", f.ID)
		return nil, fmt.Errorf("%w: %w", common.ErrCorruptedData, err)
	}

	if group != nil {
		if err := s.repos.Shares(s.runner.Conn()).IncrementDownloadCount(ctx, group.ID); err != nil {
			s.log.Warn(ctx, "failed to count download", "group_id", group.ID, "error", err)
		}
	}

	return &DownloadResult{
		Plaintext: plaintext,
		Name:      f.Name,
		MimeType:  f.MimeType,
		Size:      int64(len(plaintext)),
	}, nil
}

// ListFiles returns the owner's live files.
func (s *FileService) ListFiles(ctx context.Context, ownerID string) ([]*models.EncryptedFile, error) {
	return s.repos.Files(s.runner.Conn()).ListByOwner(ctx, ownerID)
}

// DeleteFile soft-deletes a file. Its blob and key stay intact.
func (s *FileService) DeleteFile(ctx context.Context, ownerID, fileID string) error {
	if err := s.repos.Files(s.runner.Conn()).SoftDelete(ctx, ownerID, fileID, s.now()); err != nil {
		return err
	}
	s.log.Info(ctx, "file deleted", "file_id", fileID, "owner_id", ownerID)
	return nil
}
