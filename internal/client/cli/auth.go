package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/wsdrive/internal/common"
)

// getSecret is an indirection used to facilitate testing.
var getSecret = GetSecret

// Login asks for an access token without echo and checks it against the
// server. If a workspace is selected the token must grant access to it.
func (a *App) Login(ctx context.Context) error {
	secret, err := getSecret("Paste access token", a.out)
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(secret)

	token := strings.TrimSpace(string(secret))
	if token == "" {
		return a.report(fmt.Errorf("empty token"))
	}

	if err := a.api.Ping(ctx); err != nil {
		return a.report(err)
	}

	a.api.SetToken(token)
	if a.workspace != "" {
		if _, err := a.api.ListFolders(ctx, a.workspace); err != nil {
			a.api.SetToken("")
			return a.report(err)
		}
	}

	a.loggedIn = true
	fmt.Fprintln(a.out, "Logged in")
	return nil
}

// Use switches the current workspace after checking the token can read it.
func (a *App) Use(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: use <workspace>")
		return nil
	}
	if _, err := a.api.ListFolders(ctx, args[0]); err != nil {
		return a.report(err)
	}
	a.workspace = args[0]
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.api.SetToken("")
	a.loggedIn = false
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
