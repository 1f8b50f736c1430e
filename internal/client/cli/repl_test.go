package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	args  [][]string
	err   error
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return f.err
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Status(context.Context) error { return f.record("status", nil) }
func (f *fakeExec) Register(context.Context) error { return f.record("register", nil) }
func (f *fakeExec) Whoami(context.Context) error { return f.record("whoami", nil) }
func (f *fakeExec) ListTasks(context.Context) error { return f.record("tasks", nil) }
func (f *fakeExec) AddTask(context.Context) error { return f.record("addtask", nil) }
func (f *fakeExec) ListLabels(context.Context) error { return f.record("labels", nil) }
func (f *fakeExec) Done(_ context.Context, a []string) error {
	return f.record("done", a)
}
func (f *fakeExec) Remove(_ context.Context, a []string) error {
	return f.record("rm", a)
}
func (f *fakeExec) Tag(_ context.Context, a []string) error {
	return f.record("tag", a)
}
func (f *fakeExec) AddLabel(_ context.Context, a []string) error {
	return f.record("addlabel", a)
}
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login", nil)
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout", nil)
}

func capturePrints(t *testing.T) *[]string {
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

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	out := capturePrints(t)

	input := strings.Join([]string{
		"help",
		"tasks",
		"login",
		"",
		"help",
		"tasks",
		"ls",
		"addtask",
		"done mock_id_1",
		"rm mock_id_2",
		"tag mock_id_1 work home",
		"labels",
		"addlabel very urgent",
		"whoami",
		"status",
		"foobar",
		"logout",
		"exit",
		"tasks",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "st" }, rdr(input))

	assert.Equal(t, []string{
		"login", "tasks", "tasks", "addtask", "done", "rm", "tag", "labels",
		"addlabel", "whoami", "status", "logout",
	}, exec.calls)
	assert.Equal(t, []string{"mock_id_1"}, exec.args[4])
	assert.Equal(t, []string{"mock_id_1", "work", "home"}, exec.args[6])
	assert.Equal(t, []string{"very", "urgent"}, exec.args[8])

	assert.Contains(t, *out, "Available commands: register, login, status, exit")
	assert.Contains(t, *out, "Please log in first")
	assert.Contains(t, *out, "Unknown command: foobar")
	assert.Contains(t, *out, "tk st > ")
	assert.Equal(t, "Bye!", (*out)[len(*out)-1])
}

func TestRunREPL_ReportsErrorsAndContinues(t *testing.T) {
	out := capturePrints(t)

	exec := &fakeExec{loggedIn: true, err: errors.New("not found: task not found")}
	runREPL(context.Background(), exec, func() string { return "a@b.io" }, rdr("rm x\ndone y"))

	assert.Equal(t, []string{"rm", "done"}, exec.calls)
	assert.Contains(t, *out, "Error: not found: task not found")
}

func TestRunREPL_StopsOnEOFAndCancel(t *testing.T) {
	capturePrints(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, rdr(""))
	assert.Empty(t, exec.calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runREPL(ctx, exec, func() string { return "" }, rdr("register\n"))
	assert.Empty(t, exec.calls)
}
