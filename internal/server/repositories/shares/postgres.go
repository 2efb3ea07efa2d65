package shares

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/dbx"
	"github.com/dmitrijs2005/vaultshare/internal/server/models"
	"github.com/dmitrijs2005/vaultshare/internal/server/repositories/files"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const groupColumns = `id, owner_id, link_token, password_hash, expires_at, created_at, download_count`

type scanner interface {
	Scan(dest ...any) error
}

func scanGroup(s scanner) (*models.ShareGroup, error) {
	g := &models.ShareGroup{}
	var (
		pw      sql.NullString
		expires sql.NullTime
	)
	if err := s.Scan(&g.ID, &g.OwnerID, &g.LinkToken, &pw, &expires, &g.CreatedAt, &g.DownloadCount); err != nil {
		return nil, err
	}
	g.PasswordHash = pw.String
	g.ExpiresAt = dbx.TimePtr(expires)
	return g, nil
}

func (r *PostgresRepository) Create(ctx context.Context, g *models.ShareGroup) error {
	query := `INSERT INTO share_groups (` + groupColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query, g.ID, g.OwnerID, g.LinkToken,
		dbx.NullString(g.PasswordHash), dbx.NullTime(g.ExpiresAt), g.CreatedAt, g.DownloadCount)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) AddFiles(ctx context.Context, groupID string, fileIDs []string) error {
	for _, id := range fileIDs {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO shared_files (share_group_id, file_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			groupID, id)
		if err != nil {
			return fmt.Errorf("failed to add shared file: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) AddUsers(ctx context.Context, groupID string, userIDs []string) error {
	for _, id := range userIDs {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO shared_users (share_group_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			groupID, id)
		if err != nil {
			return fmt.Errorf("failed to add shared user: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) get(ctx context.Context, where string, arg string) (*models.ShareGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM share_groups WHERE ` + where

	g, err := scanGroup(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select share group: %w", err)
	}
	return g, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.ShareGroup, error) {
	if !dbx.IsUUID(id) {
		return nil, common.ErrorNotFound
	}
	return r.get(ctx, "id=$1", id)
}

func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*models.ShareGroup, error) {
	return r.get(ctx, "link_token=$1", token)
}

func (r *PostgresRepository) ListFiles(ctx context.Context, groupID string) ([]*models.EncryptedFile, error) {
	if !dbx.IsUUID(groupID) {
		return nil, nil
	}
	query := `SELECT f.id, f.owner_id, f.folder_id, f.storage_path, f.name, f.mime_type, f.plaintext_size,
		f.ciphertext_size, f.algorithm, f.wrapped_dek, f.nonce, f.key_id, f.password_hash, f.created_at, f.deleted_at
		FROM shared_files s JOIN encrypted_files f ON f.id = s.file_id
		WHERE s.share_group_id=$1 AND f.deleted_at IS NULL
		ORDER BY f.name, f.id`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to select shared files: %w", err)
	}
	defer rows.Close()

	var result []*models.EncryptedFile
	for rows.Next() {
		f, err := files.ScanFile(rows)
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

func (r *PostgresRepository) HasFile(ctx context.Context, groupID, fileID string) (bool, error) {
	if !dbx.IsUUID(groupID) || !dbx.IsUUID(fileID) {
		return false, nil
	}
	query := `SELECT EXISTS (SELECT 1 FROM shared_files WHERE share_group_id=$1 AND file_id=$2)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, groupID, fileID).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check shared file: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) ListUsers(ctx context.Context, groupID string) ([]string, error) {
	if !dbx.IsUUID(groupID) {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM shared_users WHERE share_group_id=$1 ORDER BY user_id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to select shared users: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) SetPasswordHash(ctx context.Context, id, expected, hash string) error {
	if !dbx.IsUUID(id) {
		return common.ErrorNotFound
	}
	query := `UPDATE share_groups SET password_hash=$3
		WHERE id=$1 AND password_hash IS NOT DISTINCT FROM $2`

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

func (r *PostgresRepository) IncrementDownloadCount(ctx context.Context, id string) error {
	if !dbx.IsUUID(id) {
		return common.ErrorNotFound
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE share_groups SET download_count = download_count + 1 WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.ShareGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM share_groups WHERE owner_id=$1 ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select share groups: %w", err)
	}
	defer rows.Close()

	var result []*models.ShareGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the owner's group; shared_files and shared_users rows go
// with it via ON DELETE CASCADE. Files themselves are untouched.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) error {
	if !dbx.IsUUID(id) {
		return common.ErrorNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM share_groups WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return common.ErrorNotFound
	}
	return nil
}
