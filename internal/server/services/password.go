package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/cryptox"
	"github.com/dmitrijs2005/vaultshare/internal/dbx"
	"github.com/dmitrijs2005/vaultshare/internal/logging"
	"github.com/dmitrijs2005/vaultshare/internal/server/repositories/repomanager"
)

// TargetKind names the entity a password protects.
type TargetKind string

const (
	TargetFile  TargetKind = "file"
	TargetShare TargetKind = "share"
)

// PasswordTarget identifies one protected entity.
type PasswordTarget struct {
	Kind TargetKind
	ID   string
}

// CheckPassword is the password step of access evaluation. An empty hash
// means no password is required.
func CheckPassword(hash, supplied string) error {
	if hash == "" {
		return nil
	}
	if supplied == "" {
		return common.ErrPasswordRequired
	}
	if !cryptox.VerifyPassword(supplied, hash) {
		return common.ErrIncorrectPassword
	}
	return nil
}

// PasswordGate manages optional passwords on files and share groups with one
// set of owner-only operations.
type PasswordGate struct {
	runner dbx.Runner
	repos  repomanager.RepositoryManager
	stepUp *StepUpService
	params cryptox.PasswordParams
	log    logging.Logger
}

func NewPasswordGate(runner dbx.Runner, repos repomanager.RepositoryManager, stepUp *StepUpService,
	params cryptox.PasswordParams, log logging.Logger) *PasswordGate {
	return &PasswordGate{
		runner: runner,
		repos:  repos,
		stepUp: stepUp,
		params: params,
		log:    log.With("module", "passwords"),
	}
}

// load returns the target's owner and current hash. Soft-deleted files are
// not found.
func (g *PasswordGate) load(ctx context.Context, t PasswordTarget) (string, string, error) {
	conn := g.runner.Conn()
	switch t.Kind {
	case TargetFile:
		f, err := g.repos.Files(conn).Get(ctx, t.ID)
		if err != nil {
			return "", "", err
		}
		if f.Deleted() {
			return "", "", common.ErrorNotFound
		}
		return f.OwnerID, f.PasswordHash, nil
	case TargetShare:
		sg, err := g.repos.Shares(conn).Get(ctx, t.ID)
		if err != nil {
			return "", "", err
		}
		return sg.OwnerID, sg.PasswordHash, nil
	}
	return "", "", fmt.Errorf("%w: unknown target kind %q", common.ErrValidation, t.Kind)
}

func (g *PasswordGate) store(ctx context.Context, t PasswordTarget, expected, hash string) error {
	conn := g.runner.Conn()
	switch t.Kind {
	case TargetFile:
		return g.repos.Files(conn).SetPasswordHash(ctx, t.ID, expected, hash)
	case TargetShare:
		return g.repos.Shares(conn).SetPasswordHash(ctx, t.ID, expected, hash)
	}
	return fmt.Errorf("%w: unknown target kind %q", common.ErrValidation, t.Kind)
}

func (g *PasswordGate) owned(ctx context.Context, ownerID string, t PasswordTarget) (string, error) {
	owner, hash, err := g.load(ctx, t)
	if err != nil {
		return "", err
	}
	if owner != ownerID {
		return "", common.ErrForbidden
	}
	return hash, nil
}

func (g *PasswordGate) hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password must not be empty", common.ErrValidation)
	}
	return cryptox.HashPassword(password, g.params)
}

// SetPassword protects t with password. Setting the password it already has
// is a no-op; replacing a different one requires ChangePassword or a reset.
func (g *PasswordGate) SetPassword(ctx context.Context, ownerID string, t PasswordTarget, password string) error {
	if password == "" {
		return fmt.Errorf("%w: password must not be empty", common.ErrValidation)
	}
	current, err := g.owned(ctx, ownerID, t)
	if err != nil {
		return err
	}
	if current != "" {
		if cryptox.VerifyPassword(password, current) {
			return nil
		}
		return fmt.Errorf("%w: a different password is already set", common.ErrValidation)
	}

	h, err := g.hash(password)
	if err != nil {
		return err
	}
	if err := g.store(ctx, t, "", h); err != nil {
		return err
	}
	g.log.Info(ctx, "password set", "target", t.Kind, "id", t.ID)
	return nil
}

// ChangePassword replaces the password after checking the old one. A wrong
// old password leaves everything as it was.
func (g *PasswordGate) ChangePassword(ctx context.Context, ownerID string, t PasswordTarget, oldPassword, newPassword string) error {
	current, err := g.owned(ctx, ownerID, t)
	if err != nil {
		return err
	}
	if current == "" {
		return fmt.Errorf("%w: no password is set", common.ErrValidation)
	}
	if err := CheckPassword(current, oldPassword); err != nil {
		return err
	}

	h, err := g.hash(newPassword)
	if err != nil {
		return err
	}
	if err := g.store(ctx, t, current, h); err != nil {
		return err
	}
	g.log.Info(ctx, "password changed", "target", t.Kind, "id", t.ID)
	return nil
}

// DeletePassword removes protection from t. Removing an absent password is
// a no-op.
func (g *PasswordGate) DeletePassword(ctx context.Context, ownerID string, t PasswordTarget) error {
	current, err := g.owned(ctx, ownerID, t)
	if err != nil {
		return err
	}
	if current == "" {
		return nil
	}
	if err := g.store(ctx, t, current, ""); err != nil {
		return err
	}
	g.log.Info(ctx, "password removed", "target", t.Kind, "id", t.ID)
	return nil
}

type resetPayload struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
	Hash string     `json:"hash"`
}

// BeginPasswordReset starts an override of t's password that does not need
// the old one. The new password is hashed immediately; only the hash is kept
// in the pending operation.
func (g *PasswordGate) BeginPasswordReset(ctx context.Context, ownerID string, t PasswordTarget, newPassword string) (string, error) {
	if _, err := g.owned(ctx, ownerID, t); err != nil {
		return "", err
	}
	h, err := g.hash(newPassword)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(resetPayload{Kind: t.Kind, ID: t.ID, Hash: h})
	if err != nil {
		return "", err
	}
	return g.stepUp.BeginOperation(ctx, ownerID, OpPasswordReset, payload)
}

// CompletePasswordReset applies a pending reset once code passes step-up.
func (g *PasswordGate) CompletePasswordReset(ctx context.Context, ownerID, token, code string) (PasswordTarget, error) {
	raw, err := g.stepUp.CompleteOperation(ctx, ownerID, token, OpPasswordReset, code)
	if err != nil {
		return PasswordTarget{}, err
	}

	var p resetPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return PasswordTarget{}, fmt.Errorf("decode reset payload: %w", err)
	}
	t := PasswordTarget{Kind: p.Kind, ID: p.ID}

	current, err := g.owned(ctx, ownerID, t)
	if err != nil {
		return t, err
	}
	if err := g.store(ctx, t, current, p.Hash); err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			return t, fmt.Errorf("password changed concurrently: %w", err)
		}
		return t, err
	}
	g.log.Info(ctx, "password reset", "target", t.Kind, "id", t.ID)
	return t, nil
}
