package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a stub.
type execIface interface {
	isLoggedIn() bool
	Check(ctx context.Context) error
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Verify(ctx context.Context) error
	Devices(ctx context.Context) error
	Add(ctx context.Context) error
	Report(ctx context.Context) error
	Transfer(ctx context.Context) error
	Accept(ctx context.Context) error
	Plans(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Receipts(ctx context.Context) error
	Me(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads a line from the scanner, parses the first token as the
// command and dispatches to methods on 'a'. The anonymous commands (check,
// register, login, verify, plans) work without a session. Command errors
// are printed and the loop continues; it exits on EOF, "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	printlnFn("Guardget CLI (type 'help' for commands)")

	for {
		printlnFn(fmt.Sprintf("guardget %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: check, devices, add, report, transfer, accept, plans, subscribe, receipts, me, logout, exit")
			} else {
				printlnFn("Available commands: check, register, login, verify, plans, exit")
			}

		case "check":
			err = a.Check(ctx)

		case "register":
			err = a.Register(ctx)

		case "login":
			err = a.Login(ctx)

		case "verify":
			err = a.Verify(ctx)

		case "devices":
			err = a.Devices(ctx)

		case "add":
			err = a.Add(ctx)

		case "report":
			err = a.Report(ctx)

		case "transfer":
			err = a.Transfer(ctx)

		case "accept":
			err = a.Accept(ctx)

		case "plans":
			err = a.Plans(ctx)

		case "subscribe":
			err = a.Subscribe(ctx)

		case "receipts":
			err = a.Receipts(ctx)

		case "me":
			err = a.Me(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}
