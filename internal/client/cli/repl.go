package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Done(ctx context.Context, args []string) error
	Undone(ctx context.Context, args []string) error
	Star(ctx context.Context, args []string) error
	Unstar(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the TaskVault CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command and the rest as arguments, and dispatches to methods on 'a'.
// Unknown commands are reported back to the user. The loop exits on scanner
// EOF or when the user types "exit" or "quit".
//
// Prompt & Commands
//
//	Not logged in:
//	  - help           — show available commands
//	  - register       — create an account
//	  - login          — authenticate
//	  - exit | quit    — leave the program
//
//	Logged in:
//	  - list [group] [order]  — list tasks (today, tomorrow, earlier,
//	                            future, important, incomplete, completed)
//	  - add <title>           — create a task
//	  - done | undone <id>    — toggle completion
//	  - star | unstar <id>    — toggle the star
//	  - rm <id>               — delete a task and its attachments
//	  - logout                — sign out
//	  - exit | quit           — leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// report their own errors. This keeps the REPL loop resilient and focused
// on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("tv> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (l)ist [group] [order], add <title>, done <id>, undone <id>, star <id>, unstar <id>, rm <id>, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "l", "list":
			_ = a.List(ctx, args)

		case "add":
			_ = a.Add(ctx, args)

		case "done":
			_ = a.Done(ctx, args)

		case "undone":
			_ = a.Undone(ctx, args)

		case "star":
			_ = a.Star(ctx, args)

		case "unstar":
			_ = a.Unstar(ctx, args)

		case "rm":
			_ = a.Remove(ctx, args)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
