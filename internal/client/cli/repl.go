package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Use(ctx context.Context, args []string) error
	Folders(ctx context.Context) error
	Mkdir(ctx context.Context, args []string) error
	Rmdir(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Find(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
	Get(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	Move(ctx context.Context, args []string) error
	URL(ctx context.Context, args []string) error
	Trash(ctx context.Context, args []string) error
	TrashList(ctx context.Context) error
	Restore(ctx context.Context, args []string) error
	Purge(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: login, exit"
	helpLoggedIn  = `Available commands:
  use <workspace>           switch workspace
  folders                   list folders
  mkdir <name>              create a folder
  rmdir <name>              delete a folder and everything in it
  ls [folder] [-r]          list files
  find <text>               search file names in the whole workspace
  upload <file> [folder]    upload a local file
  get <path>                download a file
  rm <path>...              delete files permanently
  mv <path> <folder>        move a file ("/" is the workspace root)
  url <path>                print a temporary download link
  trash <path>              move a file to the trash
  trashls                   list the trash
  restore <id>              restore a trashed file
  purge <id>                delete a trashed file permanently
  logout, exit`
)

// runREPL reads commands from reader and dispatches them to a until EOF or
// "exit". Handler errors are reported by the handlers themselves. Handlers
// that ask follow-up questions read from the same reader.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("wsdrive %s > ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
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

		if !a.isLoggedIn() {
			switch cmd {
			case "help":
				printlnFn(helpLoggedOut)
			case "login":
				_ = a.Login(ctx)
			default:
				printlnFn("Please login first")
			}
			continue
		}

		switch cmd {
		case "help":
			printlnFn(helpLoggedIn)
		case "login":
			_ = a.Login(ctx)
		case "use":
			_ = a.Use(ctx, args)
		case "folders":
			_ = a.Folders(ctx)
		case "mkdir":
			_ = a.Mkdir(ctx, args)
		case "rmdir":
			_ = a.Rmdir(ctx, args)
		case "l", "ls":
			_ = a.List(ctx, args)
		case "find":
			_ = a.Find(ctx, args)
		case "upload":
			_ = a.Upload(ctx, args)
		case "get":
			_ = a.Get(ctx, args)
		case "rm":
			_ = a.Remove(ctx, args)
		case "mv":
			_ = a.Move(ctx, args)
		case "url":
			_ = a.URL(ctx, args)
		case "trash":
			_ = a.Trash(ctx, args)
		case "trashls":
			_ = a.TrashList(ctx)
		case "restore":
			_ = a.Restore(ctx, args)
		case "purge":
			_ = a.Purge(ctx, args)
		case "logout":
			_ = a.Logout(ctx)
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
