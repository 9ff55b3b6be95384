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
	isLoggedIn() bool
	Signup(ctx context.Context) error
	Verify(ctx context.Context) error
	Resend(ctx context.Context) error
	Login(ctx context.Context) error
	Me(ctx context.Context) error
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	Forgot(ctx context.Context) error
	Reset(ctx context.Context) error
	Health(ctx context.Context) error
}

// runREPL reads commands line by line and dispatches them to a. It returns
// on EOF or when the user types "exit" or "quit". Command errors are printed
// and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("gophauth %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		var err error
		switch cmd := parts[0]; cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: me, refresh, logout, health, exit")
			} else {
				printlnFn("Available commands: signup, verify, resend, login, forgot, reset, health, exit")
			}
		case "signup", "register":
			err = a.Signup(ctx)
		case "verify":
			err = a.Verify(ctx)
		case "resend":
			err = a.Resend(ctx)
		case "login":
			err = a.Login(ctx)
		case "me":
			err = a.Me(ctx)
		case "refresh":
			err = a.Refresh(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "forgot":
			err = a.Forgot(ctx)
		case "reset":
			err = a.Reset(ctx)
		case "health":
			err = a.Health(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("error:", err.Error())
		}
	}
}
