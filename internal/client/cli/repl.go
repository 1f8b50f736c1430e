package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for REPL output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Status(ctx context.Context) error
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	ListTasks(ctx context.Context) error
	AddTask(ctx context.Context) error
	Done(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	Tag(ctx context.Context, args []string) error
	ListLabels(ctx context.Context) error
	AddLabel(ctx context.Context, args []string) error
}

// runREPL reads one command per line until EOF, "exit" or "quit".
// Errors from handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("tk %s > ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}
		if ctx.Err() != nil {
			return
		}

		if err := dispatch(ctx, a, cmd, args); err != nil {
			printlnFn("Error:", err)
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn("Available commands: whoami, tasks, addtask, done <id>, rm <id>, tag <id> [label...], labels, addlabel <name>, status, logout, exit")
		} else {
			printlnFn("Available commands: register, login, status, exit")
		}
		return nil
	case "status":
		return a.Status(ctx)
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	}

	if !a.isLoggedIn() {
		switch cmd {
		case "logout", "whoami", "tasks", "ls", "addtask", "done", "rm", "tag", "labels", "addlabel":
			printlnFn("Please log in first")
		default:
			printlnFn("Unknown command:", cmd)
		}
		return nil
	}

	switch cmd {
	case "logout":
		return a.Logout(ctx)
	case "whoami":
		return a.Whoami(ctx)
	case "tasks", "ls":
		return a.ListTasks(ctx)
	case "addtask":
		return a.AddTask(ctx)
	case "done":
		return a.Done(ctx, args)
	case "rm":
		return a.Remove(ctx, args)
	case "tag":
		return a.Tag(ctx, args)
	case "labels":
		return a.ListLabels(ctx)
	case "addlabel":
		return a.AddLabel(ctx, args)
	default:
		printlnFn("Unknown command:", cmd)
		return nil
	}
}
