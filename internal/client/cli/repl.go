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
	isLinked() bool
	Today(ctx context.Context) error
	Open(ctx context.Context) error
	Write(ctx context.Context) error
	Mood(ctx context.Context) error
	AddImage(ctx context.Context) error
	RemoveImage(ctx context.Context) error
	List(ctx context.Context) error
	Search(ctx context.Context) error
	Prune(ctx context.Context) error
	Clear(ctx context.Context) error
	Link(ctx context.Context) error
	Login(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the Daybook CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Always:
//	  - help           — show available commands
//	  - today          — jump to today's note and show it
//	  - open           — open the note for a chosen date
//	  - write          — replace the current note's text
//	  - mood           — rate the current day 1..5
//	  - addimage       — attach an image reference to the current note
//	  - delimage       — detach an image reference from the current note
//	  - (l)ist         — list all notes, newest first
//	  - search         — full-text search across notes
//	  - prune          — delete notes older than N days
//	  - clear          — delete every note
//	  - status         — show identity and connectivity
//	  - exit | quit    — leave the program
//
//	Anonymous only:
//	  - link           — attach a username and password to this identity
//	  - login          — sign in to an existing account
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("daybook %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLinked() {
				printlnFn("Available commands: today, open, write, mood, addimage, delimage, (l)ist, search, prune, clear, status, exit")
			} else {
				printlnFn("Available commands: today, open, write, mood, addimage, delimage, (l)ist, search, prune, clear, link, login, status, exit")
			}

		case "today":
			_ = a.Today(ctx)

		case "open":
			_ = a.Open(ctx)

		case "write":
			_ = a.Write(ctx)

		case "mood":
			_ = a.Mood(ctx)

		case "addimage":
			_ = a.AddImage(ctx)

		case "delimage":
			_ = a.RemoveImage(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "search":
			_ = a.Search(ctx)

		case "prune":
			_ = a.Prune(ctx)

		case "clear":
			_ = a.Clear(ctx)

		case "link":
			_ = a.Link(ctx)

		case "login":
			_ = a.Login(ctx)

		case "status":
			_ = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
