package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/dbx"
	"github.com/dmitrijs2005/vaultshare/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `id, owner_id, folder_id, storage_path, name, mime_type, plaintext_size,
	ciphertext_size, algorithm, wrapped_dek, nonce, key_id, password_hash, created_at, deleted_at`

type scanner interface {
	Scan(dest ...any) error
}

// ScanFile reads one row selected with the encrypted_files column list.
func ScanFile(s scanner) (*models.EncryptedFile, error) {
	f := &models.EncryptedFile{}
	var (
		folder, keyID, pw sql.NullString
		deleted           sql.NullTime
	)
	err := s.Scan(&f.ID, &f.OwnerID, &folder, &f.StoragePath, &f.Name, &f.MimeType, &f.PlaintextSize,
		&f.CiphertextSize, &f.Algorithm, &f.WrappedDEK, &f.Nonce, &keyID, &pw, &f.CreatedAt, &deleted)
	if err != nil {
		return nil, err
	}
	f.FolderID = folder.String
	f.KeyID = keyID.String
	f.PasswordHash = pw.String
	f.DeletedAt = dbx.TimePtr(deleted)
	return f, nil
}

// Create inserts file metadata after validating it.
func (r *PostgresRepository) Create(ctx context.Context, f *models.EncryptedFile) error {
	if err := f.Validate(); err != nil {
		return err
	}

	query := `INSERT INTO encrypted_files (` + fileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.OwnerID, dbx.NullString(f.FolderID), f.StoragePath, f.Name, f.MimeType, f.PlaintextSize,
		f.CiphertextSize, f.Algorithm, f.WrappedDEK, f.Nonce, dbx.NullString(f.KeyID), dbx.NullString(f.PasswordHash),
		f.CreatedAt, dbx.NullTime(f.DeletedAt))
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns file metadata by id or ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.EncryptedFile, error) {
	if !dbx.IsUUID(id) {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + fileColumns + ` FROM encrypted_files WHERE id=$1`

	f, err := ScanFile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return f, nil
}

// ListByOwner returns the owner's live files, newest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.EncryptedFile, error) {
	query := `SELECT ` + fileColumns + ` FROM encrypted_files
		WHERE owner_id=$1 AND deleted_at IS NULL ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.EncryptedFile
	for rows.Next() {
		f, err := ScanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SoftDelete marks the owner's live file deleted. Exactly one row must be
// affected; otherwise ErrorNotFound.
func (r *PostgresRepository) SoftDelete(ctx context.Context, ownerID, id string, at time.Time) error {
	if !dbx.IsUUID(id) {
		return common.ErrorNotFound
	}
	query := `UPDATE encrypted_files SET deleted_at=$3 WHERE id=$1 AND owner_id=$2 AND deleted_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, id, ownerID, at)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n != 1 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) SetPasswordHash(ctx context.Context, id, expected, hash string) error {
	if !dbx.IsUUID(id) {
		return common.ErrorNotFound
	}
	query := `UPDATE encrypted_files SET password_hash=$3
		WHERE id=$1 AND deleted_at IS NULL AND password_hash IS NOT DISTINCT FROM $2`

	res, err := r.db.ExecContext(ctx, query, id, dbx.NullString(expected), dbx.NullString(hash))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return common.ErrVersionConflict
	}
	return nil
}
