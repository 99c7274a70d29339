package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL dispatches to.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool

	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Reset(ctx context.Context) error
	Recover(ctx context.Context) error
	Passwd(ctx context.Context) error
	Profile(ctx context.Context) error
	Avatar(ctx context.Context, path string) error

	Boards(ctx context.Context) error
	Tags(ctx context.Context) error
	Posts(ctx context.Context, args []string) error
	Show(ctx context.Context, postID string) error
	NewPost(ctx context.Context, boardSlug string) error
	EditPost(ctx context.Context, postID string) error
	DeletePost(ctx context.Context, postID string) error
	Comments(ctx context.Context, postID string) error
	Comment(ctx context.Context, postID, parentID string) error
}

type command struct {
	usage     string
	minArgs   int
	needsAuth bool
	run       func(ctx context.Context, a execIface, args []string) error
}

var commands = map[string]command{
	"signup":   {usage: "signup", run: func(ctx context.Context, a execIface, _ []string) error { return a.Signup(ctx) }},
	"login":    {usage: "login", run: func(ctx context.Context, a execIface, _ []string) error { return a.Login(ctx) }},
	"reset":    {usage: "reset", run: func(ctx context.Context, a execIface, _ []string) error { return a.Reset(ctx) }},
	"recover":  {usage: "recover", run: func(ctx context.Context, a execIface, _ []string) error { return a.Recover(ctx) }},
	"boards":   {usage: "boards", run: func(ctx context.Context, a execIface, _ []string) error { return a.Boards(ctx) }},
	"tags":     {usage: "tags", run: func(ctx context.Context, a execIface, _ []string) error { return a.Tags(ctx) }},
	"posts":    {usage: "posts <board> [page] [created_at|view_count] [asc|desc]", minArgs: 1, run: func(ctx context.Context, a execIface, args []string) error { return a.Posts(ctx, args) }},
	"show":     {usage: "show <post-id>", minArgs: 1, run: func(ctx context.Context, a execIface, args []string) error { return a.Show(ctx, args[0]) }},
	"comments": {usage: "comments <post-id>", minArgs: 1, run: func(ctx context.Context, a execIface, args []string) error { return a.Comments(ctx, args[0]) }},

	"logout":  {usage: "logout", needsAuth: true, run: func(ctx context.Context, a execIface, _ []string) error { return a.Logout(ctx) }},
	"whoami":  {usage: "whoami", needsAuth: true, run: func(ctx context.Context, a execIface, _ []string) error { return a.WhoAmI(ctx) }},
	"passwd":  {usage: "passwd", needsAuth: true, run: func(ctx context.Context, a execIface, _ []string) error { return a.Passwd(ctx) }},
	"profile": {usage: "profile", needsAuth: true, run: func(ctx context.Context, a execIface, _ []string) error { return a.Profile(ctx) }},
	"avatar":  {usage: "avatar <image-file>", minArgs: 1, needsAuth: true, run: func(ctx context.Context, a execIface, args []string) error { return a.Avatar(ctx, args[0]) }},
	"new":     {usage: "new <board>", minArgs: 1, needsAuth: true, run: func(ctx context.Context, a execIface, args []string) error { return a.NewPost(ctx, args[0]) }},
	"edit":    {usage: "edit <post-id>", minArgs: 1, needsAuth: true, run: func(ctx context.Context, a execIface, args []string) error { return a.EditPost(ctx, args[0]) }},
	"delete":  {usage: "delete <post-id>", minArgs: 1, needsAuth: true, run: func(ctx context.Context, a execIface, args []string) error { return a.DeletePost(ctx, args[0]) }},
	"comment": {usage: "comment <post-id> [parent-id]", minArgs: 1, needsAuth: true, run: func(ctx context.Context, a execIface, args []string) error {
		parent := ""
		if len(args) > 1 {
			parent = args[1]
		}
		return a.Comment(ctx, args[0], parent)
	}},
}

var (
	guestHelp  = "Available commands: signup, login, reset, recover, boards, tags, posts, show, comments, exit"
	memberHelp = "Available commands: boards, tags, posts, show, comments, new, edit, delete, comment, whoami, profile, avatar, passwd, logout, exit"
)

// runREPL reads commands line by line from reader and dispatches them to a
// until EOF, "exit" or "quit".
//
// The prompt shows statusFn's output. Commands that change data require a
// signed-in user; the REPL answers them with a hint otherwise. Handler
// errors are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("gb %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		name, args := parts[0], parts[1:]

		switch name {
		case "help":
			if a.isLoggedIn() {
				printlnFn(memberHelp)
			} else {
				printlnFn(guestHelp)
			}
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		cmd, ok := commands[name]
		switch {
		case !ok:
			printlnFn("Unknown command:", name)
		case len(args) < cmd.minArgs:
			printlnFn("Usage:", cmd.usage)
		case cmd.needsAuth && !a.isLoggedIn():
			printlnFn("Please log in first")
		default:
			if err := cmd.run(ctx, a, args); err != nil {
				printlnFn("Error:", err)
			}
		}
	}
}
