package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/dbx"
	"github.com/dmitrijs2005/vaultshare/internal/logging"
	"github.com/dmitrijs2005/vaultshare/internal/server/models"
	"github.com/dmitrijs2005/vaultshare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vaultshare/internal/server/secrets"
)

const (
	totpPeriod = 30
	totpDigits = otp.DigitsSix

	pendingTokenBytes = 32
)

// Kinds of two-phase operations.
const (
	OpPasswordReset = "password_reset"
)

// Enrollment is returned once, at enrollment time. Secret is the base32 seed
// and URL the otpauth:// URI for authenticator apps.
type Enrollment struct {
	Secret string
	URL    string
}

// StepUpOptions configures StepUpService.
type StepUpOptions struct {
	Issuer string
	// Skew is the number of 30 s steps accepted on either side of now.
	Skew uint
	// PendingTTL bounds the lifetime of two-phase operations.
	PendingTTL time.Duration
}

// StepUpService verifies time-based one-time codes before sensitive
// mutations and keeps the state of two-phase operations.
type StepUpService struct {
	runner  dbx.Runner
	repos   repomanager.RepositoryManager
	backend secrets.Backend
	opts    StepUpOptions
	log     logging.Logger
	now     func() time.Time
}

func NewStepUpService(runner dbx.Runner, repos repomanager.RepositoryManager, backend secrets.Backend,
	opts StepUpOptions, log logging.Logger) *StepUpService {
	if opts.PendingTTL <= 0 {
		opts.PendingTTL = 5 * time.Minute
	}
	if opts.Issuer == "" {
		opts.Issuer = "vaultshare"
	}
	return &StepUpService{
		runner:  runner,
		repos:   repos,
		backend: backend,
		opts:    opts,
		log:     log.With("module", "stepup"),
		now:     time.Now,
	}
}

func denied(reason error) error {
	return fmt.Errorf("%w: %w", common.ErrStepUpDenied, reason)
}

func secretAAD(userID string) []byte {
	return []byte("totp:" + userID)
}

// Enroll creates (or replaces an unconfirmed) enrollment for userID. A
// confirmed enrollment cannot be replaced: ErrorAlreadyExists.
func (s *StepUpService) Enroll(ctx context.Context, userID string) (*Enrollment, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", common.ErrValidation)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.opts.Issuer,
		AccountName: userID,
		Period:      totpPeriod,
		Digits:      totpDigits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp secret: %w", err)
	}

	sealed, err := s.backend.Seal(ctx, []byte(key.Secret()), secretAAD(userID))
	if err != nil {
		return nil, fmt.Errorf("seal totp secret: %w", err)
	}

	err = s.repos.StepUp(s.runner.Conn()).CreateEnrollment(ctx, &models.TOTPEnrollment{
		UserID:       userID,
		SealedSecret: sealed,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "step-up enrollment created", "user_id", userID)
	return &Enrollment{Secret: key.Secret(), URL: key.URL()}, nil
}

// ConfirmEnrollment activates an enrollment once the user proves possession
// of the secret. The code is consumed like any other.
func (s *StepUpService) ConfirmEnrollment(ctx context.Context, userID, code string) error {
	if err := s.verify(ctx, userID, code, false); err != nil {
		return err
	}
	if err := s.repos.StepUp(s.runner.Conn()).ConfirmEnrollment(ctx, userID); err != nil {
		return err
	}
	s.log.Info(ctx, "step-up enrollment confirmed", "user_id", userID)
	return nil
}

// RequireStepUp returns nil when code is a fresh, valid one-time code for
// userID's confirmed enrollment. Denials wrap ErrStepUpDenied and one of
// ErrStepUpNotEnrolled, ErrStepUpInvalidCode, ErrStepUpReplayed.
func (s *StepUpService) RequireStepUp(ctx context.Context, userID, code string) error {
	return s.verify(ctx, userID, code, true)
}

func (s *StepUpService) verify(ctx context.Context, userID, code string, requireConfirmed bool) error {
	repo := s.repos.StepUp(s.runner.Conn())

	e, err := repo.GetEnrollment(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return denied(common.ErrStepUpNotEnrolled)
		}
		return err
	}
	if requireConfirmed && !e.Confirmed {
		return denied(common.ErrStepUpNotEnrolled)
	}

	secret, err := s.backend.Open(ctx, e.SealedSecret, secretAAD(userID))
	if err != nil {
		return fmt.Errorf("open totp secret: %w", err)
	}
	defer common.WipeByteArray(secret)

	step, ok := s.matchStep(string(secret), code)
	if !ok {
		s.log.Warn(ctx, "step-up code rejected", "user_id", userID)
		return denied(common.ErrStepUpInvalidCode)
	}
	if step <= e.LastUsedStep {
		return denied(common.ErrStepUpReplayed)
	}

	if err := repo.MarkStepUsed(ctx, userID, step); err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			return denied(common.ErrStepUpReplayed)
		}
		return err
	}
	return nil
}

// matchStep finds the time step within ±Skew whose code equals code.
func (s *StepUpService) matchStep(secret, code string) (int64, bool) {
	if len(code) != totpDigits.Length() {
		return 0, false
	}

	now := s.now()
	skew := int64(s.opts.Skew)
	for d := -skew; d <= skew; d++ {
		t := now.Add(time.Duration(d*totpPeriod) * time.Second)
		want, err := totp.GenerateCodeCustom(secret, t, totp.ValidateOpts{
			Period:    totpPeriod,
			Digits:    totpDigits,
			Algorithm: otp.AlgorithmSHA1,
		})
		if err != nil {
			return 0, false
		}
		if subtle.ConstantTimeCompare([]byte(want), []byte(code)) == 1 {
			return t.Unix() / totpPeriod, true
		}
	}
	return 0, false
}

// BeginOperation records the parameters of a sensitive mutation and returns
// the token that CompleteOperation needs.
func (s *StepUpService) BeginOperation(ctx context.Context, userID, kind string, payload []byte) (string, error) {
	token, err := common.MakeRandURLToken(pendingTokenBytes)
	if err != nil {
		return "", err
	}

	now := s.now()
	err = s.repos.StepUp(s.runner.Conn()).CreatePendingOperation(ctx, &models.PendingOperation{
		Token:     token,
		UserID:    userID,
		Kind:      kind,
		Payload:   payload,
		ExpiresAt: now.Add(s.opts.PendingTTL),
		CreatedAt: now,
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// CompleteOperation checks code and consumes the pending operation, returning
// its payload. Operations of another user or kind are reported as not found.
// A rejected code leaves the operation in place until it expires.
func (s *StepUpService) CompleteOperation(ctx context.Context, userID, token, kind, code string) ([]byte, error) {
	repo := s.repos.StepUp(s.runner.Conn())

	op, err := repo.GetPendingOperation(ctx, token)
	if err != nil {
		return nil, err
	}
	if op.UserID != userID || op.Kind != kind {
		return nil, common.ErrorNotFound
	}
	if op.Expired(s.now()) {
		if err := repo.DeletePendingOperation(ctx, token); err != nil && !errors.Is(err, common.ErrorNotFound) {
			s.log.Warn(ctx, "failed to drop expired operation", "error", err)
		}
		return nil, common.ErrExpired
	}

	if err := s.RequireStepUp(ctx, userID, code); err != nil {
		return nil, err
	}

	if err := repo.DeletePendingOperation(ctx, token); err != nil {
		return nil, err
	}
	return op.Payload, nil
}

// PurgeExpired drops pending operations past their TTL.
func (s *StepUpService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repos.StepUp(s.runner.Conn()).DeleteExpiredPendingOperations(ctx, s.now())
}
