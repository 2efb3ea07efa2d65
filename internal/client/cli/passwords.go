package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/rpc"
)

func parseTarget(args []string) (rpc.PasswordTarget, error) {
	switch args[0] {
	case "file", "share":
		return rpc.PasswordTarget{Kind: args[0], ID: args[1]}, nil
	}
	return rpc.PasswordTarget{}, fmt.Errorf("%w: target must be 'file' or 'share'", common.ErrValidation)
}

func (a *App) setPassword(ctx context.Context, args []string) error {
	target, err := parseTarget(args)
	if err != nil {
		return err
	}
	pw, err := GetConfirmedPassword("New password", a.out, false)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	rctx, cancel := a.rpc(ctx)
	defer cancel()

	if err := a.client.SetPassword(rctx, target, string(pw)); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password set")
	return nil
}

func (a *App) changePassword(ctx context.Context, args []string) error {
	target, err := parseTarget(args)
	if err != nil {
		return err
	}
	oldPw, err := GetPassword("Current password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(oldPw)

	newPw, err := GetConfirmedPassword("New password", a.out, false)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(newPw)

	rctx, cancel := a.rpc(ctx)
	defer cancel()

	if err := a.client.ChangePassword(rctx, target, string(oldPw), string(newPw)); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password changed")
	return nil
}

func (a *App) deletePassword(ctx context.Context, args []string) error {
	target, err := parseTarget(args)
	if err != nil {
		return err
	}

	rctx, cancel := a.rpc(ctx)
	defer cancel()

	if err := a.client.DeletePassword(rctx, target); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password removed")
	return nil
}

// resetPassword replaces a forgotten password. The server parks the request
// until it is confirmed with a one-time code.
func (a *App) resetPassword(ctx context.Context, args []string) error {
	target, err := parseTarget(args)
	if err != nil {
		return err
	}
	pw, err := GetConfirmedPassword("New password", a.out, false)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	rctx, cancel := a.rpc(ctx)
	op, err := a.client.BeginPasswordReset(rctx, target, string(pw))
	cancel()
	if err != nil {
		return err
	}

	code, err := GetSimpleText(a.reader, "One-time code", a.out)
	if err != nil {
		return err
	}

	rctx, cancel = a.rpc(ctx)
	defer cancel()

	if _, err := a.client.CompletePasswordReset(rctx, op, code); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password reset")
	return nil
}
