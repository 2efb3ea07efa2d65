package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/server/models"
)

type StepUpRepository struct {
	s *Store
}

func NewStepUpRepository(s *Store) *StepUpRepository {
	return &StepUpRepository{s: s}
}

func (r *StepUpRepository) CreateEnrollment(ctx context.Context, e *models.TOTPEnrollment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if cur, ok := r.s.enrollments[e.UserID]; ok && cur.Confirmed {
		return common.ErrorAlreadyExists
	}
	r.s.enrollments[e.UserID] = &models.TOTPEnrollment{
		UserID:       e.UserID,
		SealedSecret: cloneBytes(e.SealedSecret),
		CreatedAt:    e.CreatedAt,
	}
	return nil
}

func (r *StepUpRepository) GetEnrollment(ctx context.Context, userID string) (*models.TOTPEnrollment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.enrollments[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *e
	c.SealedSecret = cloneBytes(e.SealedSecret)
	return &c, nil
}

func (r *StepUpRepository) ConfirmEnrollment(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.enrollments[userID]
	if !ok {
		return common.ErrorNotFound
	}
	e.Confirmed = true
	return nil
}

func (r *StepUpRepository) MarkStepUsed(ctx context.Context, userID string, step int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.enrollments[userID]
	if !ok || e.LastUsedStep >= step {
		return common.ErrVersionConflict
	}
	e.LastUsedStep = step
	return nil
}

func (r *StepUpRepository) CreatePendingOperation(ctx context.Context, op *models.PendingOperation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.pending[op.Token]; ok {
		return common.ErrorAlreadyExists
	}
	c := *op
	c.Payload = cloneBytes(op.Payload)
	r.s.pending[op.Token] = &c
	return nil
}

func (r *StepUpRepository) GetPendingOperation(ctx context.Context, token string) (*models.PendingOperation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	op, ok := r.s.pending[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *op
	c.Payload = cloneBytes(op.Payload)
	return &c, nil
}

func (r *StepUpRepository) DeletePendingOperation(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.pending[token]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.pending, token)
	return nil
}

func (r *StepUpRepository) DeleteExpiredPendingOperations(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for token, op := range r.s.pending {
		if op.Expired(now) {
			delete(r.s.pending, token)
			n++
		}
	}
	return n, nil
}
