package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/rpc"
)

// now is a test seam.
var now = time.Now

func (a *App) share(ctx context.Context, args []string) error {
	pw, err := GetConfirmedPassword("Share password (empty for none)", a.out, true)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	req := &rpc.CreateShareGroupRequest{FileIDs: args, Password: string(pw)}

	ttl, err := GetSimpleText(a.reader, "Expires in (e.g. 24h, empty for never)", a.out)
	if err != nil {
		return err
	}
	if ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: bad duration %q", common.ErrValidation, ttl)
		}
		exp := now().Add(d).UTC()
		req.ExpiresAt = &exp
	}

	recipients, err := GetSimpleText(a.reader, "Recipients (comma-separated user ids, empty for anyone with the link)", a.out)
	if err != nil {
		return err
	}
	for _, r := range strings.Split(recipients, ",") {
		if r = strings.TrimSpace(r); r != "" {
			req.Recipients = append(req.Recipients, r)
		}
	}

	rctx, cancel := a.rpc(ctx)
	defer cancel()

	resp, err := a.client.CreateShareGroup(rctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Share group:", resp.ID)
	fmt.Fprintln(a.out, "Link token: ", resp.LinkToken)
	return nil
}

func (a *App) listShares(ctx context.Context, _ []string) error {
	rctx, cancel := a.rpc(ctx)
	defer cancel()

	groups, err := a.client.ListShareGroups(rctx)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		fmt.Fprintln(a.out, "No share groups")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLINK\tLOCKED\tEXPIRES\tDOWNLOADS")
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", g.ID, g.LinkToken, yesNo(g.HasPassword), formatExpiry(g.ExpiresAt), g.DownloadCount)
	}
	return tw.Flush()
}

func (a *App) unshare(ctx context.Context, args []string) error {
	rctx, cancel := a.rpc(ctx)
	defer cancel()

	if err := a.client.DeleteShareGroup(rctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Share group deleted")
	return nil
}

// openShared lists a share, prompting for its password if the server asks
// for one. The password used is returned for follow-up downloads.
func (a *App) openShared(ctx context.Context, nameOrToken string) (*rpc.ListSharedFilesResponse, string, error) {
	list := func(pw string) (*rpc.ListSharedFilesResponse, error) {
		rctx, cancel := a.rpc(ctx)
		defer cancel()
		return a.links.Open(rctx, nameOrToken, pw)
	}

	resp, err := list("")
	if !errors.Is(err, common.ErrPasswordRequired) {
		return resp, "", err
	}

	pw, err := GetPassword("Share password", a.out)
	if err != nil {
		return nil, "", err
	}
	resp, err = list(string(pw))
	if err != nil {
		return nil, "", err
	}
	return resp, string(pw), nil
}

func (a *App) open(ctx context.Context, args []string) error {
	resp, _, err := a.openShared(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Expires:", formatExpiry(resp.ExpiresAt))
	a.printFiles(resp.Files)
	return nil
}

func (a *App) getShared(ctx context.Context, args []string) error {
	resp, sharePassword, err := a.openShared(ctx, args[0])
	if err != nil {
		return err
	}

	var file *rpc.FileInfo
	for i := range resp.Files {
		if resp.Files[i].ID == args[1] {
			file = &resp.Files[i]
			break
		}
	}
	if file == nil {
		return common.ErrNotFound
	}

	token, err := a.links.Resolve(ctx, args[0])
	if err != nil {
		return err
	}
	req := &rpc.DownloadFileRequest{FileID: file.ID, LinkToken: token, SharePassword: sharePassword}

	if file.HasPassword {
		pw, err := GetPassword("File password", a.out)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(pw)
		req.FilePassword = string(pw)
	}

	path, err := a.fetch(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Saved to", path)
	return nil
}

func (a *App) saveLink(ctx context.Context, args []string) error {
	note := strings.Join(args[2:], " ")
	if err := a.links.Save(ctx, args[0], args[1], note); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Saved link", args[0])
	return nil
}

func (a *App) listLinks(ctx context.Context, _ []string) error {
	links, err := a.links.List(ctx)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		fmt.Fprintln(a.out, "No saved links")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTOKEN\tNOTE")
	for _, l := range links {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", l.Name, l.LinkToken, l.Note)
	}
	return tw.Flush()
}

func (a *App) forgetLink(ctx context.Context, args []string) error {
	if err := a.links.Remove(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Removed link", args[0])
	return nil
}

func formatExpiry(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}
