package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error

	Go(ctx context.Context, path string) error
	Nav(ctx context.Context) error
	History(ctx context.Context) error
	Settings(ctx context.Context, args []string) error

	Types(ctx context.Context) error
	AddType(ctx context.Context) error
	RenameType(ctx context.Context, id int64) error
	SetTypeActive(ctx context.Context, id int64, active bool) error
	Subs(ctx context.Context, typeID int64) error
	AddSub(ctx context.Context, typeID int64) error
	RenameSub(ctx context.Context, id int64) error
	DeactivateSub(ctx context.Context, id int64) error
}

const (
	helpAnonymous = "Available commands: register, login, go <path>, nav, history, settings, exit"
	helpLoggedIn  = "Available commands: whoami, go <path>, nav, history, settings [set <key> <value> | reset], " +
		"types, addtype, renametype <id>, activate <id>, deactivate <id>, " +
		"subs <typeId>, addsub <typeId>, renamesub <id>, deactivatesub <id>, logout, exit"
)

// runREPL starts a simple read–eval–print loop for the restodash CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF, on context cancellation or when the user
// types "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers report
// to the user themselves. This keeps the loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(w, "restodash %s> ", statusFn())
		line, err := readLine(reader)
		if err != nil {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, helpLoggedIn)
			} else {
				fmt.Fprintln(w, helpAnonymous)
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "go":
			if len(args) != 1 {
				fmt.Fprintln(w, "Usage: go <path>")
				continue
			}
			_ = a.Go(ctx, args[0])

		case "nav":
			_ = a.Nav(ctx)

		case "history":
			_ = a.History(ctx)

		case "settings":
			_ = a.Settings(ctx, args)

		case "types":
			_ = a.Types(ctx)

		case "addtype":
			_ = a.AddType(ctx)

		case "renametype", "activate", "deactivate", "subs", "addsub", "renamesub", "deactivatesub":
			id, ok := parseID(args)
			if !ok {
				fmt.Fprintf(w, "Usage: %s <id>\n", cmd)
				continue
			}
			switch cmd {
			case "renametype":
				_ = a.RenameType(ctx, id)
			case "activate":
				_ = a.SetTypeActive(ctx, id, true)
			case "deactivate":
				_ = a.SetTypeActive(ctx, id, false)
			case "subs":
				_ = a.Subs(ctx, id)
			case "addsub":
				_ = a.AddSub(ctx, id)
			case "renamesub":
				_ = a.RenameSub(ctx, id)
			case "deactivatesub":
				_ = a.DeactivateSub(ctx, id)
			}

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}

func parseID(args []string) (int64, bool) {
	if len(args) != 1 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
