package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/vaultshare/internal/client/client"
	"github.com/dmitrijs2005/vaultshare/internal/common"
)

type command struct {
	name    string
	usage   string
	auth    bool
	minArgs int
	run     func(a *App, ctx context.Context, args []string) error
}

var commands = []command{
	{name: "login", usage: "login <token>", minArgs: 1, run: (*App).login},
	{name: "logout", usage: "logout", auth: true, run: (*App).logout},

	{name: "upload", usage: "upload <path>", auth: true, minArgs: 1, run: (*App).upload},
	{name: "download", usage: "download <file-id>", auth: true, minArgs: 1, run: (*App).download},
	{name: "files", usage: "files", auth: true, run: (*App).listFiles},
	{name: "rm", usage: "rm <file-id>", auth: true, minArgs: 1, run: (*App).deleteFile},

	{name: "share", usage: "share <file-id>...", auth: true, minArgs: 1, run: (*App).share},
	{name: "shares", usage: "shares", auth: true, run: (*App).listShares},
	{name: "unshare", usage: "unshare <group-id>", auth: true, minArgs: 1, run: (*App).unshare},

	{name: "open", usage: "open <name|token>", minArgs: 1, run: (*App).open},
	{name: "get", usage: "get <name|token> <file-id>", minArgs: 2, run: (*App).getShared},
	{name: "save", usage: "save <name> <token> [note]", minArgs: 2, run: (*App).saveLink},
	{name: "links", usage: "links", run: (*App).listLinks},
	{name: "forget", usage: "forget <name>", minArgs: 1, run: (*App).forgetLink},

	{name: "setpw", usage: "setpw file|share <id>", auth: true, minArgs: 2, run: (*App).setPassword},
	{name: "changepw", usage: "changepw file|share <id>", auth: true, minArgs: 2, run: (*App).changePassword},
	{name: "delpw", usage: "delpw file|share <id>", auth: true, minArgs: 2, run: (*App).deletePassword},
	{name: "resetpw", usage: "resetpw file|share <id>", auth: true, minArgs: 2, run: (*App).resetPassword},

	{name: "enroll", usage: "enroll", auth: true, run: (*App).enroll},
	{name: "keys", usage: "keys", auth: true, run: (*App).listKeys},
	{name: "rotate", usage: "rotate", auth: true, run: (*App).rotate},
	{name: "revoke", usage: "revoke <key-id>", auth: true, run: (*App).revoke, minArgs: 1},
}

func findCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// runREPL reads commands from a.reader until EOF or "exit"/"quit". Command
// errors are printed and the loop goes on.
func runREPL(ctx context.Context, a *App) {
	for {
		fmt.Fprintf(a.out, "vs %s> ", a.status())

		line, err := a.reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		name, args := parts[0], parts[1:]

		switch name {
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return
		case "help":
			a.help()
			continue
		}

		c, ok := findCommand(name)
		switch {
		case !ok:
			fmt.Fprintln(a.out, "Unknown command:", name)
		case c.auth && !a.session.LoggedIn():
			fmt.Fprintln(a.out, "Please login first")
		case len(args) < c.minArgs:
			fmt.Fprintln(a.out, "Usage:", c.usage)
		default:
			if err := c.run(a, ctx, args); err != nil {
				fmt.Fprintln(a.out, "Error:", describe(err))
			}
		}

		if ctx.Err() != nil {
			return
		}
	}
}

func (a *App) help() {
	fmt.Fprintln(a.out, "Available commands:")
	for _, c := range commands {
		if c.auth && !a.session.LoggedIn() {
			continue
		}
		fmt.Fprintln(a.out, "  "+c.usage)
	}
	fmt.Fprintln(a.out, "  help")
	fmt.Fprintln(a.out, "  exit")
}

// describe turns an error into the line shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return "not found"
	case errors.Is(err, common.ErrExpired):
		return "the share link has expired"
	case errors.Is(err, common.ErrPasswordRequired):
		return "a password is required"
	case errors.Is(err, common.ErrIncorrectPassword):
		return "incorrect password"
	case errors.Is(err, common.ErrStepUpNotEnrolled):
		return "one-time codes are not set up; run 'enroll' first"
	case errors.Is(err, common.ErrStepUpReplayed):
		return "this code was already used; wait for the next one"
	case errors.Is(err, common.ErrStepUpDenied):
		return "invalid one-time code"
	case errors.Is(err, common.ErrTokenExpired):
		return "access token expired; login again"
	case errors.Is(err, client.ErrUnauthorized):
		return "not authorized; login again"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable"
	}
	return err.Error()
}
