package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"
)

func (a *App) enroll(ctx context.Context, _ []string) error {
	rctx, cancel := a.rpc(ctx)
	resp, err := a.client.EnrollStepUp(rctx)
	cancel()
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Add this account to your authenticator app:")
	fmt.Fprintln(a.out, "  secret:", resp.Secret)
	fmt.Fprintln(a.out, "  url:   ", resp.URL)

	code, err := GetSimpleText(a.reader, "Enter the code it shows", a.out)
	if err != nil {
		return err
	}

	rctx, cancel = a.rpc(ctx)
	defer cancel()

	if err := a.client.ConfirmStepUp(rctx, code); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "One-time codes enabled")
	return nil
}

func (a *App) listKeys(ctx context.Context, _ []string) error {
	rctx, cancel := a.rpc(ctx)
	defer cancel()

	keys, err := a.client.ListKeys(rctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintln(a.out, "No keys yet")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tALGORITHM\tCREATED\tSTATE")
	for _, k := range keys {
		state := "retired"
		switch {
		case k.RevokedAt != nil:
			state = "revoked"
		case k.Active:
			state = "active"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", k.ID, k.Algorithm, k.CreatedAt.Local().Format(time.DateTime), state)
	}
	return tw.Flush()
}

func (a *App) rotate(ctx context.Context, _ []string) error {
	code, err := GetSimpleText(a.reader, "One-time code", a.out)
	if err != nil {
		return err
	}

	rctx, cancel := a.rpc(ctx)
	defer cancel()

	id, err := a.client.RotateKey(rctx, code)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "New active key:", id)
	return nil
}

func (a *App) revoke(ctx context.Context, args []string) error {
	code, err := GetSimpleText(a.reader, "One-time code", a.out)
	if err != nil {
		return err
	}

	rctx, cancel := a.rpc(ctx)
	defer cancel()

	if err := a.client.RevokeKey(rctx, args[0], code); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Key revoked; files sealed with it can no longer be read")
	return nil
}
