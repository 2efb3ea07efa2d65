// Package stepup persists one-time-code enrollments and pending two-phase
// operations.
package stepup

import (
	"context"
	"time"

	"github.com/dmitrijs2005/vaultshare/internal/server/models"
)

type Repository interface {
	// CreateEnrollment stores or replaces an unconfirmed enrollment. A
	// confirmed one is never replaced: ErrorAlreadyExists.
	CreateEnrollment(ctx context.Context, e *models.TOTPEnrollment) error
	GetEnrollment(ctx context.Context, userID string) (*models.TOTPEnrollment, error)
	ConfirmEnrollment(ctx context.Context, userID string) error
	// MarkStepUsed advances LastUsedStep to step if it is strictly greater,
	// otherwise ErrVersionConflict.
	MarkStepUsed(ctx context.Context, userID string, step int64) error

	CreatePendingOperation(ctx context.Context, op *models.PendingOperation) error
	GetPendingOperation(ctx context.Context, token string) (*models.PendingOperation, error)
	// DeletePendingOperation consumes the operation; only one caller can
	// succeed, the rest get ErrorNotFound.
	DeletePendingOperation(ctx context.Context, token string) error
	DeleteExpiredPendingOperations(ctx context.Context, now time.Time) (int64, error)
}
