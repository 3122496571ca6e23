package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// commands is the surface the REPL dispatches to. App implements it.
type commands interface {
	isLoggedIn(ctx context.Context) bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	Rename(ctx context.Context) error
	Verify(ctx context.Context) error
	Confirm(ctx context.Context, token string) error
	Roles(ctx context.Context) error
	SetRoles(ctx context.Context, userID string, roleIDs []string) error
	Avatar(ctx context.Context, args []string) error
	Categories(ctx context.Context, query string) error
	AddCategory(ctx context.Context, name string) error
	RemoveCategory(ctx context.Context, id string) error
}

const (
	helpAnonymous = "Available commands: register, login, categories [query], exit"
	helpLoggedIn  = "Available commands: whoami, passwd, rename, verify, confirm <token>, roles, " +
		"setroles <userID> <roleID>..., avatar [path|reset], categories [query], addcategory <name>, " +
		"rmcategory <id>, logout, exit"
)

// runREPL reads commands from scanner until EOF, "exit"/"quit" or ctx
// cancellation. Errors of a command are printed and the loop goes on.
func runREPL(ctx context.Context, a commands, statusFn func() string, scanner *bufio.Scanner, w io.Writer) {
	for ctx.Err() == nil {
		fmt.Fprintf(w, "reviewctl%s> ", statusFn())
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn(ctx) {
				fmt.Fprintln(w, helpLoggedIn)
			} else {
				fmt.Fprintln(w, helpAnonymous)
			}

		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "whoami":
			err = a.WhoAmI(ctx)
		case "passwd":
			err = a.ChangePassword(ctx)
		case "rename":
			err = a.Rename(ctx)
		case "verify":
			err = a.Verify(ctx)

		case "confirm":
			if len(args) != 1 {
				fmt.Fprintln(w, "Usage: confirm <token>")
				continue
			}
			err = a.Confirm(ctx, args[0])

		case "roles":
			err = a.Roles(ctx)

		case "setroles":
			if len(args) < 1 {
				fmt.Fprintln(w, "Usage: setroles <userID> <roleID>...")
				continue
			}
			err = a.SetRoles(ctx, args[0], args[1:])

		case "avatar":
			err = a.Avatar(ctx, args)
		case "categories":
			err = a.Categories(ctx, strings.Join(args, " "))
		case "addcategory":
			err = a.AddCategory(ctx, strings.Join(args, " "))

		case "rmcategory":
			if len(args) != 1 {
				fmt.Fprintln(w, "Usage: rmcategory <id>")
				continue
			}
			err = a.RemoveCategory(ctx, args[0])

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if err != nil {
			fmt.Fprintln(w, "error:", err)
		}
	}
}
