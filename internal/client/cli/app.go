package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/wsdrive/internal/client/client"
	"github.com/dmitrijs2005/wsdrive/internal/client/config"
)

type App struct {
	config    *config.Config
	api       client.Client
	http      *http.Client
	workspace string
	loggedIn  bool
	reader    *bufio.Reader
	out       io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	if c.ServerURL == "" {
		return nil, fmt.Errorf("server URL is required")
	}
	api := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	return newApp(c, api, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, api client.Client, in io.Reader, out io.Writer) *App {
	return &App{
		config:    c,
		api:       api,
		http:      &http.Client{Timeout: c.RequestTimeout},
		workspace: c.Workspace,
		reader:    bufio.NewReader(in),
		out:       out,
	}
}

// Run starts the REPL on the app's input and blocks until exit or EOF.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "wsdrive CLI (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.loggedIn
}

func (a *App) status() string {
	switch {
	case !a.loggedIn:
		return "[not logged in]"
	case a.workspace == "":
		return "[no workspace]"
	default:
		return "[" + a.workspace + "]"
	}
}

// requireWorkspace reports false, with a hint, when no workspace is chosen.
func (a *App) requireWorkspace() bool {
	if a.workspace == "" {
		fmt.Fprintln(a.out, "No workspace selected, use: use <workspace>")
		return false
	}
	return true
}

// report prints err for the user and returns it unchanged.
func (a *App) report(err error) error {
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
	}
	return err
}
