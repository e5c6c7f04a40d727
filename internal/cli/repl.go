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
	Load(ctx context.Context, args []string) error
	List(ctx context.Context) error
	Show(ctx context.Context, args []string) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Stats(ctx context.Context) error
	Export(ctx context.Context, args []string) error
	Language(ctx context.Context, args []string) error
	Content(ctx context.Context, args []string) error
	Clear(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the flashcard session.
//
// It reads a line from the provided reader, parses the first token as the
// command, and dispatches to methods on 'a'. Commands that need more input
// (add, edit, del) read their follow-up lines from the same reader. Unknown
// commands are reported back to the user. The loop exits on end of input or
// when the user types "exit" or "quit".
//
// Commands:
//
//   - load <path>      extract a file, folder, or ZIP and generate cards
//   - list | l         list all cards
//   - show <n>         show one card in full
//   - add              add a card by hand
//   - edit <n>         edit a card's question and answer
//   - del <n>          delete a card
//   - stats            collection statistics
//   - export [path]    write the collection to a CSV file
//   - language [name]  show or set the session's target language
//   - content [type]   show or set the content-type hint
//   - clear            drop every card
//   - exit | quit      leave the program
//
// Command handlers print their own errors; the loop ignores their returns
// and keeps reading.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("forge> %s > ", statusFn()))
		line, readErr := reader.ReadString('\n')
		parts := strings.Fields(line)
		if len(parts) == 0 {
			if readErr != nil {
				return
			}
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn("Available commands: load <path>, (l)ist, show <n>, add, edit <n>, del <n>, stats, export [path], language [name], content [type], clear, exit")

		case "load":
			_ = a.Load(ctx, args)

		case "l", "list":
			_ = a.List(ctx)

		case "show":
			_ = a.Show(ctx, args)

		case "add":
			_ = a.Add(ctx)

		case "edit":
			_ = a.Edit(ctx, args)

		case "del", "delete":
			_ = a.Delete(ctx, args)

		case "stats":
			_ = a.Stats(ctx)

		case "export":
			_ = a.Export(ctx, args)

		case "language", "lang":
			_ = a.Language(ctx, args)

		case "content":
			_ = a.Content(ctx, args)

		case "clear":
			_ = a.Clear(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if readErr != nil {
			return
		}
	}
}
