package keys

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

// Create inserts a new key record. A duplicate id yields ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, rec *models.KeyRecord) error {
	query := `INSERT INTO key_records (id, owner_id, algorithm, wrapped_material, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, rec.ID, rec.OwnerID, rec.Algorithm, rec.WrappedMaterial, rec.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns the key record by id or ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.KeyRecord, error) {
	if !dbx.IsUUID(id) {
		return nil, common.ErrorNotFound
	}
	query := `SELECT id, owner_id, algorithm, wrapped_material, created_at, revoked_at
		FROM key_records WHERE id=$1`

	rec := &models.KeyRecord{}
	var revoked sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(&rec.ID, &rec.OwnerID, &rec.Algorithm, &rec.WrappedMaterial, &rec.CreatedAt, &revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select key record: %w", err)
	}
	rec.RevokedAt = dbx.TimePtr(revoked)
	return rec, nil
}

// GetActiveKeyID returns the owner's active key id or ErrorNotFound.
func (r *PostgresRepository) GetActiveKeyID(ctx context.Context, ownerID string) (string, error) {
	query := `SELECT key_id FROM active_keys WHERE owner_id=$1`

	var id string
	if err := r.db.QueryRowContext(ctx, query, ownerID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("failed to select active key: %w", err)
	}
	return id, nil
}

// SetActiveKey installs keyID as the owner's active key if the current
// pointer still equals expected.
func (r *PostgresRepository) SetActiveKey(ctx context.Context, ownerID, expected, keyID string) error {
	var (
		res sql.Result
		err error
	)
	if expected == "" {
		res, err = r.db.ExecContext(ctx,
			`INSERT INTO active_keys (owner_id, key_id) VALUES ($1, $2) ON CONFLICT (owner_id) DO NOTHING`,
			ownerID, keyID)
	} else {
		res, err = r.db.ExecContext(ctx,
			`UPDATE active_keys SET key_id=$3 WHERE owner_id=$1 AND key_id=$2`,
			ownerID, expected, keyID)
	}
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrVersionConflict
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// ListByOwner returns all of the owner's key records, oldest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.KeyRecord, error) {
	query := `SELECT id, owner_id, algorithm, wrapped_material, created_at, revoked_at
		FROM key_records WHERE owner_id=$1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select key records: %w", err)
	}
	defer rows.Close()

	var result []*models.KeyRecord
	for rows.Next() {
		rec := &models.KeyRecord{}
		var revoked sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.Algorithm, &rec.WrappedMaterial, &rec.CreatedAt, &revoked); err != nil {
			return nil, err
		}
		rec.RevokedAt = dbx.TimePtr(revoked)
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Revoke marks the owner's key revoked. The active key and unknown or
// foreign keys are left untouched and reported as ErrorNotFound. Revoking
// an already revoked key is a no-op.
func (r *PostgresRepository) Revoke(ctx context.Context, ownerID, id string, at time.Time) error {
	if !dbx.IsUUID(id) {
		return common.ErrorNotFound
	}
	query := `UPDATE key_records SET revoked_at=COALESCE(revoked_at, $3)
		WHERE id=$1 AND owner_id=$2
		AND NOT EXISTS (SELECT 1 FROM active_keys a WHERE a.owner_id=$2 AND a.key_id=$1)`

	res, err := r.db.ExecContext(ctx, query, id, ownerID, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
