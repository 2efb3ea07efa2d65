package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/vaultshare/internal/common"
)

func TestStepUp_NotEnrolled(t *testing.T) {
	e := newTestEnv(t)
	err := e.stepUp.RequireStepUp(context.Background(), "alice", "000000")
	assert.ErrorIs(t, err, common.ErrStepUpDenied)
	assert.ErrorIs(t, err, common.ErrStepUpNotEnrolled)
}

func TestStepUp_UnconfirmedEnrollmentIsNotEnough(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)

	en, err := e.stepUp.Enroll(ctx, "alice")
	require.NoError(t, err)
	assert.Contains(t, en.URL, "otpauth://totp/")

	err = e.stepUp.RequireStepUp(ctx, "alice", e.code(t, en.Secret))
	assert.ErrorIs(t, err, common.ErrStepUpNotEnrolled)
}

func TestStepUp_EnrollmentLifecycle(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)

	first, err := e.stepUp.Enroll(ctx, "alice")
	require.NoError(t, err)

	// unconfirmed enrollments may be replaced
	second, err := e.stepUp.Enroll(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, first.Secret, second.Secret)

	err = e.stepUp.ConfirmEnrollment(ctx, "alice", "12345")
	assert.ErrorIs(t, err, common.ErrStepUpInvalidCode)

	require.NoError(t, e.stepUp.ConfirmEnrollment(ctx, "alice", e.code(t, second.Secret)))

	_, err = e.stepUp.Enroll(ctx, "alice")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestStepUp_CodesAndReplay(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	secret := e.enroll(t, "alice")

	code := e.code(t, secret)
	require.NoError(t, e.stepUp.RequireStepUp(ctx, "alice", code))

	err := e.stepUp.RequireStepUp(ctx, "alice", code)
	assert.ErrorIs(t, err, common.ErrStepUpReplayed)

	// the code of the previous step is inside the window but older than the
	// last one used
	e.clock.Advance(30 * time.Second)
	err = e.stepUp.RequireStepUp(ctx, "alice", code)
	assert.ErrorIs(t, err, common.ErrStepUpReplayed)

	require.NoError(t, e.stepUp.RequireStepUp(ctx, "alice", e.code(t, secret)))
}

func TestStepUp_InvalidCodes(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	secret := e.enroll(t, "alice")

	for _, code := range []string{"", "abc", "1234567"} {
		err := e.stepUp.RequireStepUp(ctx, "alice", code)
		assert.ErrorIs(t, err, common.ErrStepUpInvalidCode, "code %q", code)
	}

	old := e.code(t, secret)
	e.clock.Advance(5 * time.Minute)
	err := e.stepUp.RequireStepUp(ctx, "alice", old)
	assert.ErrorIs(t, err, common.ErrStepUpInvalidCode)
}

func TestStepUp_SkewWindow(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	secret := e.enroll(t, "alice")

	e.clock.Advance(30 * time.Second)
	next := e.code(t, secret)
	e.clock.Advance(-30 * time.Second)

	require.NoError(t, e.stepUp.RequireStepUp(ctx, "alice", next))
}

func TestStepUp_PendingOperation(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	secret := e.enroll(t, "alice")

	token, err := e.stepUp.BeginOperation(ctx, "alice", "test", []byte("payload"))
	require.NoError(t, err)

	_, err = e.stepUp.CompleteOperation(ctx, "bob", token, "test", e.code(t, secret))
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = e.stepUp.CompleteOperation(ctx, "alice", token, "other", e.code(t, secret))
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = e.stepUp.CompleteOperation(ctx, "alice", token, "test", "000000")
	assert.ErrorIs(t, err, common.ErrStepUpDenied)

	got, err := e.stepUp.CompleteOperation(ctx, "alice", token, "test", e.code(t, secret))
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	e.clock.Advance(30 * time.Second)
	_, err = e.stepUp.CompleteOperation(ctx, "alice", token, "test", e.code(t, secret))
	assert.ErrorIs(t, err, common.ErrorNotFound, "consumed")
}

func TestStepUp_PendingOperationExpires(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	secret := e.enroll(t, "alice")

	token, err := e.stepUp.BeginOperation(ctx, "alice", "test", nil)
	require.NoError(t, err)

	e.clock.Advance(6 * time.Minute)
	_, err = e.stepUp.CompleteOperation(ctx, "alice", token, "test", e.code(t, secret))
	assert.ErrorIs(t, err, common.ErrExpired)

	_, err = e.stepUp.CompleteOperation(ctx, "alice", token, "test", e.code(t, secret))
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestStepUp_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)

	_, err := e.stepUp.BeginOperation(ctx, "alice", "test", nil)
	require.NoError(t, err)
	e.clock.Advance(time.Minute)
	_, err = e.stepUp.BeginOperation(ctx, "alice", "test", nil)
	require.NoError(t, err)

	e.clock.Advance(4*time.Minute + time.Second)
	n, err := e.stepUp.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
