package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	Stats(ctx context.Context) error
	Users(ctx context.Context, args []string) error
	Disable(ctx context.Context, args []string) error
	Enable(ctx context.Context, args []string) error
	Sweep(ctx context.Context) error
}

// runREPL reads commands until EOF or "exit"/"quit":
//
//	stats                  aggregate counts
//	users [limit] [offset] list accounts
//	disable <email>        block an account
//	enable <email>         lift a block
//	sweep                  run an expiration sweep now
//
// Handler errors are reported by the handlers themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("portal> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn("Available commands: stats, users [limit] [offset], disable <email>, enable <email>, sweep, exit")

		case "stats":
			_ = a.Stats(ctx)

		case "users", "ls":
			_ = a.Users(ctx, args)

		case "disable":
			_ = a.Disable(ctx, args)

		case "enable":
			_ = a.Enable(ctx, args)

		case "sweep":
			_ = a.Sweep(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
