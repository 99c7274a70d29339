package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func silencePrintln(t *testing.T) {
	t.Helper()
	orig := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = orig })
}

func capturePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

type fakeExec struct {
	loggedIn bool
	err      error
	calls    []string
}

func (f *fakeExec) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeExec) isLoggedIn() bool {
	return f.loggedIn
}

func (f *fakeExec) Signup(context.Context) error {
	return f.record("signup")
}
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) WhoAmI(context.Context) error {
	return f.record("whoami")
}
func (f *fakeExec) Reset(context.Context) error {
	return f.record("reset")
}
func (f *fakeExec) Recover(context.Context) error {
	return f.record("recover")
}
func (f *fakeExec) Passwd(context.Context) error {
	return f.record("passwd")
}
func (f *fakeExec) Profile(context.Context) error {
	return f.record("profile")
}
func (f *fakeExec) Avatar(_ context.Context, p string) error {
	return f.record("avatar " + p)
}
func (f *fakeExec) Boards(context.Context) error {
	return f.record("boards")
}
func (f *fakeExec) Tags(context.Context) error {
	return f.record("tags")
}
func (f *fakeExec) Show(_ context.Context, id string) error {
	return f.record("show " + id)
}
func (f *fakeExec) NewPost(_ context.Context, s string) error {
	return f.record("new " + s)
}
func (f *fakeExec) EditPost(_ context.Context, id string) error {
	return f.record("edit " + id)
}
func (f *fakeExec) DeletePost(_ context.Context, id string) error {
	return f.record("delete " + id)
}
func (f *fakeExec) Comments(_ context.Context, id string) error {
	return f.record("comments " + id)
}
func (f *fakeExec) Posts(_ context.Context, args []string) error {
	return f.record("posts " + strings.Join(args, " "))
}
func (f *fakeExec) Comment(_ context.Context, postID, parentID string) error {
	return f.record(strings.TrimSpace("comment " + postID + " " + parentID))
}

func run(exec execIface, input string) {
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewReader(strings.NewReader(input)))
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	silencePrintln(t)

	exec := &fakeExec{}
	run(exec, strings.Join([]string{
		"help",
		"boards",
		"posts general 2 view_count asc",
		"show p1",
		"login",
		"new general",
		"edit p1",
		"comment p1",
		"comment p1 c9",
		"avatar me.png",
		"delete p1",
		"logout",
		"exit",
		"boards",
	}, "\n"))

	assert.Equal(t, []string{
		"boards",
		"posts general 2 view_count asc",
		"show p1",
		"login",
		"new general",
		"edit p1",
		"comment p1",
		"comment p1 c9",
		"avatar me.png",
		"delete p1",
		"logout",
	}, exec.calls)
}

func TestRunREPL_GuardsAndUsage(t *testing.T) {
	lines := capturePrintln(t)

	exec := &fakeExec{}
	run(exec, "new general\nshow\nfoobar\n\nquit\n")

	assert.Empty(t, exec.calls)
	assert.Contains(t, *lines, "Please log in first")
	assert.Contains(t, *lines, "Usage: show <post-id>")
	assert.Contains(t, *lines, "Unknown command: foobar")
	assert.Equal(t, "Bye!", (*lines)[len(*lines)-1])
}

func TestRunREPL_HelpDependsOnLogin(t *testing.T) {
	lines := capturePrintln(t)

	run(&fakeExec{}, "help\n")
	run(&fakeExec{loggedIn: true}, "help\n")

	assert.Contains(t, *lines, guestHelp)
	assert.Contains(t, *lines, memberHelp)
}

func TestRunREPL_PrintsHandlerErrors(t *testing.T) {
	lines := capturePrintln(t)

	exec := &fakeExec{err: errors.New("backend down")}
	run(exec, "boards\n")

	assert.Equal(t, []string{"boards"}, exec.calls)
	assert.Contains(t, *lines, "Error: backend down")
}

func TestRunREPL_LastLineWithoutNewline(t *testing.T) {
	silencePrintln(t)

	exec := &fakeExec{}
	run(exec, "tags")

	assert.Equal(t, []string{"tags"}, exec.calls)
}

func TestRunREPL_PromptShowsStatus(t *testing.T) {
	lines := capturePrintln(t)
	run(&fakeExec{}, "")
	assert.Equal(t, []string{"gb status> "}, *lines)
}
