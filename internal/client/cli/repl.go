package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/dryerwatch/internal/client/telemetry"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Status(ctx context.Context) error
	Info(ctx context.Context) error
	Users(ctx context.Context) error
	Temperature(ctx context.Context) error
	Today(ctx context.Context) error
	Watch(ctx context.Context, interval time.Duration, count int) error
	Export(ctx context.Context, format string) error
	Backup(ctx context.Context, format string) error
	Backups(ctx context.Context) error
	Download(ctx context.Context, kind, date string) error
	History(ctx context.Context, action string) error
	Errors(ctx context.Context, action string) error
}

const (
	helpPublic    = "Available commands: register, login, status, history [clear], errors [flush|clear], exit"
	helpProtected = "Available commands: whoami, status, info, users, temp, today, watch [seconds] [count], export [csv|excel], backup [csv|excel], backups, download <csv|excel> <date>, history [clear], errors [flush|clear], logout, exit"
)

// runREPL starts a read–eval–print loop for the dryerwatch CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. The loop exits on scanner EOF,
// when ctx is done or when the user types "exit" or "quit".
//
// Errors returned by handlers are printed and the loop continues. A command
// that panicked prints the boundary's fallback text instead.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for ctx.Err() == nil {
		printlnFn(fmt.Sprintf("dw %s> ", statusFn()))
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
			if a.isLoggedIn() {
				printlnFn(helpProtected)
			} else {
				printlnFn(helpPublic)
			}

		case "register":
			err = a.Register(ctx)

		case "login":
			err = a.Login(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "whoami":
			err = a.WhoAmI(ctx)

		case "status":
			err = a.Status(ctx)

		case "info":
			err = a.Info(ctx)

		case "users":
			err = a.Users(ctx)

		case "temp":
			err = a.Temperature(ctx)

		case "today":
			err = a.Today(ctx)

		case "watch":
			interval, count, perr := watchArgs(args)
			if perr != nil {
				printlnFn("Usage: watch [seconds] [count]")
				continue
			}
			err = a.Watch(ctx, interval, count)

		case "export":
			err = a.Export(ctx, arg(args, 0))

		case "backup":
			err = a.Backup(ctx, arg(args, 0))

		case "backups":
			err = a.Backups(ctx)

		case "download":
			if len(args) < 2 {
				printlnFn("Usage: download <csv|excel> <date>")
				continue
			}
			err = a.Download(ctx, args[0], args[1])

		case "history":
			err = a.History(ctx, arg(args, 0))

		case "errors":
			err = a.Errors(ctx, arg(args, 0))

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printError(err)
		}
	}
}

func printError(err error) {
	var be *telemetry.BoundaryError
	if errors.As(err, &be) && be.Fallback != "" {
		printlnFn(be.Fallback)
		return
	}
	printlnFn("Error:", err)
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func watchArgs(args []string) (time.Duration, int, error) {
	var interval time.Duration
	var count int
	if s := arg(args, 0); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return 0, 0, fmt.Errorf("invalid interval %q", s)
		}
		interval = time.Duration(n) * time.Second
	}
	if s := arg(args, 1); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return 0, 0, fmt.Errorf("invalid count %q", s)
		}
		count = n
	}
	return interval, count, nil
}
