package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Go(ctx context.Context, args []string) error
	Announcements(ctx context.Context, args []string) error
	Logs(ctx context.Context, args []string) error
	Stats(ctx context.Context) error
}

// runREPL reads a line, dispatches on its first token and repeats until EOF
// or "exit"/"quit".
//
//	Not logged in:
//	  help, go <path>, register, login, whoami, stats, exit | quit
//
//	Logged in, in addition:
//	  ann [list|more|show|add|edit|rm|search|mine|images|recent]
//	  logs [list|more|type|range|version|search|recent]
//	  logout
//
// Handlers report their own errors to the user, so returned errors are
// ignored here. Protected commands are still accepted while logged out; the
// router's guard turns them into a redirect.
//
// Lines are read from the same reader the command prompts use, so a piped
// script can answer prompts inline.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "bulletin %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
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
				fmt.Fprintln(w, "Available commands: go <path>, ann [list|more|show|add|edit|rm|search|mine|images|recent], "+
					"logs [list|more|type|range|version|search|recent], whoami, stats, logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: go <path>, register, login, whoami, stats, exit")
			}

		case "go":
			_ = a.Go(ctx, args)

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.Whoami(ctx)

		case "ann":
			_ = a.Announcements(ctx, args)

		case "logs":
			_ = a.Logs(ctx, args)

		case "stats":
			_ = a.Stats(ctx)

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}
