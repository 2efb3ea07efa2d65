package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/rpc"
)

func (a *App) login(ctx context.Context, args []string) error {
	rctx, cancel := a.rpc(ctx)
	defer cancel()

	if err := a.session.Login(rctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) logout(ctx context.Context, _ []string) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) upload(ctx context.Context, args []string) error {
	pw, err := GetConfirmedPassword("File password (empty for none)", a.out, true)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	rctx, cancel := a.rpc(ctx)
	defer cancel()

	info, err := a.transfer.Upload(rctx, args[0], string(pw))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Uploaded %s (%d bytes), id %s\n", info.Name, info.Size, info.ID)
	return nil
}

// download asks for the file password only when the server wants one.
func (a *App) download(ctx context.Context, args []string) error {
	req := &rpc.DownloadFileRequest{FileID: args[0]}

	path, err := a.fetch(ctx, req)
	if errors.Is(err, common.ErrPasswordRequired) {
		pw, perr := GetPassword("File password", a.out)
		if perr != nil {
			return perr
		}
		defer common.WipeByteArray(pw)
		req.FilePassword = string(pw)
		path, err = a.fetch(ctx, req)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Saved to", path)
	return nil
}

func (a *App) fetch(ctx context.Context, req *rpc.DownloadFileRequest) (string, error) {
	rctx, cancel := a.rpc(ctx)
	defer cancel()
	return a.transfer.Download(rctx, req)
}

func (a *App) listFiles(ctx context.Context, _ []string) error {
	rctx, cancel := a.rpc(ctx)
	defer cancel()

	files, err := a.client.ListFiles(rctx)
	if err != nil {
		return err
	}
	a.printFiles(files)
	return nil
}

func (a *App) deleteFile(ctx context.Context, args []string) error {
	rctx, cancel := a.rpc(ctx)
	defer cancel()

	if err := a.client.DeleteFile(rctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted")
	return nil
}

func (a *App) printFiles(files []rpc.FileInfo) {
	if len(files) == 0 {
		fmt.Fprintln(a.out, "No files")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tTYPE\tLOCKED")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", f.ID, f.Name, f.Size, f.MimeType, yesNo(f.HasPassword))
	}
	_ = tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
