package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/client/client"
	"github.com/dmitrijs2005/taskkeeper/internal/client/config"
)

type App struct {
	config *config.Config
	client client.Client
	reader *bufio.Reader
	out    io.Writer

	email string
}

// NewApp builds the client for the configured server.
func NewApp(c *config.Config) (*App, error) {
	api, err := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	if err != nil {
		return nil, err
	}
	a := newApp(api, os.Stdin, os.Stdout)
	a.config = c
	return a, nil
}

func newApp(c client.Client, in io.Reader, out io.Writer) *App {
	return &App{client: c, reader: bufio.NewReader(in), out: out}
}

// Run greets the user, runs the REPL until exit or EOF and then logs out.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "TaskKeeper CLI (type 'help' for commands)")
	_ = a.Status(ctx)

	runREPL(ctx, a, a.status, a.reader)

	if a.isLoggedIn() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = a.client.Logout(ctx)
	}
}

func (a *App) isLoggedIn() bool {
	return a.client.LoggedIn()
}

// status is the label shown in the prompt.
func (a *App) status() string {
	if a.isLoggedIn() && a.email != "" {
		return a.email
	}
	return "guest"
}

// Status reports server health and the storage backend in use.
func (a *App) Status(ctx context.Context) error {
	h, err := a.client.Ping(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "Server unreachable: %v\n", err)
		return err
	}
	line := fmt.Sprintf("Server %s, storage: %s", h.Status, h.Storage)
	if h.Degraded {
		line += " (degraded, data will not survive a restart)"
	}
	fmt.Fprintln(a.out, line)
	return nil
}
