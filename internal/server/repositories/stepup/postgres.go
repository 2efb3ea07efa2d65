package stepup

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

func exactlyOne(res sql.Result, err error, none error) error {
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return none
	}
	return nil
}

func (r *PostgresRepository) CreateEnrollment(ctx context.Context, e *models.TOTPEnrollment) error {
	query := `INSERT INTO totp_enrollments (user_id, sealed_secret, confirmed, last_used_step, created_at)
		VALUES ($1, $2, FALSE, 0, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			sealed_secret = EXCLUDED.sealed_secret,
			last_used_step = 0,
			created_at = EXCLUDED.created_at
		WHERE totp_enrollments.confirmed = FALSE`

	res, err := r.db.ExecContext(ctx, query, e.UserID, e.SealedSecret, e.CreatedAt)
	return exactlyOne(res, err, common.ErrorAlreadyExists)
}

func (r *PostgresRepository) GetEnrollment(ctx context.Context, userID string) (*models.TOTPEnrollment, error) {
	query := `SELECT user_id, sealed_secret, confirmed, last_used_step, created_at
		FROM totp_enrollments WHERE user_id=$1`

	e := &models.TOTPEnrollment{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&e.UserID, &e.SealedSecret, &e.Confirmed, &e.LastUsedStep, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select enrollment: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) ConfirmEnrollment(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE totp_enrollments SET confirmed=TRUE WHERE user_id=$1`, userID)
	return exactlyOne(res, err, common.ErrorNotFound)
}

func (r *PostgresRepository) MarkStepUsed(ctx context.Context, userID string, step int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE totp_enrollments SET last_used_step=$2 WHERE user_id=$1 AND last_used_step < $2`,
		userID, step)
	return exactlyOne(res, err, common.ErrVersionConflict)
}

func (r *PostgresRepository) CreatePendingOperation(ctx context.Context, op *models.PendingOperation) error {
	query := `INSERT INTO pending_operations (token, user_id, kind, payload, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query, op.Token, op.UserID, op.Kind, op.Payload, op.ExpiresAt, op.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetPendingOperation(ctx context.Context, token string) (*models.PendingOperation, error) {
	query := `SELECT token, user_id, kind, payload, expires_at, created_at
		FROM pending_operations WHERE token=$1`

	op := &models.PendingOperation{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(&op.Token, &op.UserID, &op.Kind, &op.Payload, &op.ExpiresAt, &op.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select pending operation: %w", err)
	}
	return op, nil
}

func (r *PostgresRepository) DeletePendingOperation(ctx context.Context, token string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pending_operations WHERE token=$1`, token)
	return exactlyOne(res, err, common.ErrorNotFound)
}

func (r *PostgresRepository) DeleteExpiredPendingOperations(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pending_operations WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}
